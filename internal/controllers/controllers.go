// Package controllers binds page markup to bill, upload and login operations.
package controllers

import (
	"context"

	applog "billed/internal/log"
	"billed/internal/views"
)

// Navigator moves the client to another page.
type Navigator interface {
	Navigate(ctx context.Context, page views.Page) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, page views.Page) error

func (f NavigatorFunc) Navigate(ctx context.Context, page views.Page) error {
	return f(ctx, page)
}

func componentLogger(logger *applog.Logger, component string) *applog.Logger {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return logger.WithComponent(component)
}
