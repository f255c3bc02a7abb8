package controllers

import (
	"context"

	"billed/internal/core"
	"billed/internal/dom"
	applog "billed/internal/log"
	"billed/internal/session"
	"billed/internal/store"
	"billed/internal/views"
)

// Login handles the employee and admin login forms. It is the only writer of
// the session.
type Login struct {
	doc     *dom.Document
	nav     Navigator
	session *session.Store
	auth    store.Authenticator
	logger  *applog.Logger
}

// NewLogin binds both login forms. auth may be nil, in which case any
// credentials are accepted without a token.
func NewLogin(doc *dom.Document, nav Navigator, sess *session.Store, auth store.Authenticator, logger *applog.Logger) *Login {
	c := &Login{
		doc:     doc,
		nav:     nav,
		session: sess,
		auth:    auth,
		logger:  componentLogger(logger, applog.ComponentLogin),
	}
	doc.On(dom.TestIDSelector("form-employee"), dom.Submit, c.HandleSubmitEmployee)
	doc.On(dom.TestIDSelector("form-admin"), dom.Submit, c.HandleSubmitAdmin)
	return c
}

func (c *Login) HandleSubmitEmployee(ctx context.Context, e *dom.Event) error {
	return c.submit(ctx, e, core.Employee, "employee-email-input", "employee-password-input", views.Bills)
}

func (c *Login) HandleSubmitAdmin(ctx context.Context, e *dom.Event) error {
	return c.submit(ctx, e, core.Admin, "admin-email-input", "admin-password-input", views.Dashboard)
}

// submit authenticates, then persists the session and navigates. A rejected
// login is shown on the page and not returned.
func (c *Login) submit(ctx context.Context, e *dom.Event, userType core.UserType, emailID, passwordID string, next views.Page) error {
	if e != nil {
		e.PreventDefault()
	}
	creds := store.Credentials{
		Type:     userType,
		Email:    c.doc.Value(emailID),
		Password: c.doc.Value(passwordID),
	}

	token, err := c.login(ctx, creds)
	if err != nil {
		c.logger.WarnContext(ctx, "Login failed",
			applog.FieldUserType, userType,
			applog.FieldEmail, creds.Email,
			applog.FieldErrorKind, store.KindOf(err).String(),
			applog.FieldError, err)
		c.doc.SetText("login-error", err.Error())
		return nil
	}

	if err := c.session.Save(core.NewSession(userType, creds.Email, creds.Password)); err != nil {
		c.doc.SetText("login-error", err.Error())
		return err
	}
	if token != "" {
		if err := c.session.SaveToken(token); err != nil {
			c.logger.ErrorContext(ctx, "Failed to persist token", applog.FieldError, err)
		}
	}
	c.logger.InfoContext(ctx, "Logged in", applog.FieldUserType, userType, applog.FieldEmail, creds.Email)

	return c.nav.Navigate(ctx, next)
}

func (c *Login) login(ctx context.Context, creds store.Credentials) (string, error) {
	if c.auth == nil {
		return "", nil
	}
	return c.auth.Login(ctx, creds)
}
