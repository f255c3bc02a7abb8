package controllers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"billed/internal/core"
	"billed/internal/dom"
	applog "billed/internal/log"
	"billed/internal/store"
	"billed/internal/views"
)

var ErrUnknownBill = errors.New("bill not loaded")

const (
	acceptPrefix = "btn-accept-bill-"
	refusePrefix = "btn-refuse-bill-"
)

// Dashboard drives the administrator review of submitted bills.
type Dashboard struct {
	doc    *dom.Document
	nav    Navigator
	store  store.Bills
	logger *applog.Logger

	mu     sync.Mutex
	loaded map[string]core.Bill
}

func NewDashboard(doc *dom.Document, nav Navigator, bills store.Bills, logger *applog.Logger) *Dashboard {
	c := &Dashboard{
		doc:    doc,
		nav:    nav,
		store:  bills,
		logger: componentLogger(logger, applog.ComponentAdmin),
		loaded: make(map[string]core.Bill),
	}
	if doc == nil {
		return c
	}
	doc.On(`[data-testid^="`+acceptPrefix+`"]`, dom.Click, func(ctx context.Context, e *dom.Event) error {
		return c.handleReview(ctx, e, core.StatusAccepted)
	})
	doc.On(`[data-testid^="`+refusePrefix+`"]`, dom.Click, func(ctx context.Context, e *dom.Event) error {
		return c.handleReview(ctx, e, core.StatusRefused)
	})
	return c
}

// GetBills lists every bill in display form and remembers the raw records for review.
func (c *Dashboard) GetBills(ctx context.Context) ([]core.FormattedBill, error) {
	if c.store == nil {
		return nil, nil
	}
	bills, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}
	c.Remember(bills...)
	return formatBills(ctx, c.logger, bills), nil
}

// Remember makes bills available to Review.
func (c *Dashboard) Remember(bills ...core.Bill) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range bills {
		c.loaded[b.ID] = b
	}
}

// Review sets the status and admin comment of a loaded bill.
func (c *Dashboard) Review(ctx context.Context, id string, status core.Status, comment string) (core.Bill, error) {
	if status != core.StatusAccepted && status != core.StatusRefused {
		return core.Bill{}, fmt.Errorf("review bill %s: invalid status %q", id, status)
	}
	c.mu.Lock()
	b, ok := c.loaded[id]
	c.mu.Unlock()
	if !ok {
		return core.Bill{}, fmt.Errorf("review bill %s: %w", id, ErrUnknownBill)
	}

	b.Status = status
	b.CommentAdmin = comment
	updated, err := c.store.Update(ctx, id, b)
	if err != nil {
		c.logger.ErrorContext(ctx, "Review failed",
			applog.FieldOperation, applog.OpUpdate,
			applog.FieldBillID, id,
			applog.FieldError, err)
		return core.Bill{}, err
	}
	c.Remember(updated)
	c.logger.InfoContext(ctx, "Bill reviewed", applog.FieldBillID, id, "status", status)
	return updated, nil
}

func (c *Dashboard) handleReview(ctx context.Context, e *dom.Event, status core.Status) error {
	id := e.Target.AttrOr("data-bill-id", "")
	if id == "" {
		testID := e.Target.AttrOr("data-testid", "")
		id = strings.TrimPrefix(strings.TrimPrefix(testID, acceptPrefix), refusePrefix)
	}
	comment := c.doc.Value("commentary-admin-" + id)
	if _, err := c.Review(ctx, id, status, comment); err != nil {
		return err
	}
	return c.nav.Navigate(ctx, views.Dashboard)
}
