package controllers

import (
	"context"
	"fmt"

	"billed/internal/core"
	"billed/internal/dom"
	applog "billed/internal/log"
	"billed/internal/session"
	"billed/internal/store"
	"billed/internal/views"
)

const receiptModal = "#modaleFile"

// Bills drives the employee bill list.
type Bills struct {
	doc     *dom.Document
	nav     Navigator
	store   store.Bills
	session session.Reader
	logger  *applog.Logger
}

// NewBills returns the controller and, when doc is non-nil, binds the new bill
// button and every receipt icon present in it.
func NewBills(doc *dom.Document, nav Navigator, bills store.Bills, sess session.Reader, logger *applog.Logger) *Bills {
	c := &Bills{
		doc:     doc,
		nav:     nav,
		store:   bills,
		session: sess,
		logger:  componentLogger(logger, applog.ComponentBills),
	}
	if doc == nil {
		return c
	}
	doc.On(dom.TestIDSelector("btn-new-bill"), dom.Click, func(ctx context.Context, _ *dom.Event) error {
		return c.HandleClickNewBill(ctx)
	})
	doc.On(dom.TestIDSelector("icon-eye"), dom.Click, func(ctx context.Context, e *dom.Event) error {
		return c.HandleClickIconEye(e)
	})
	return c
}

// HandleClickNewBill moves to the new bill page. It does not touch the store.
func (c *Bills) HandleClickNewBill(ctx context.Context) error {
	return c.nav.Navigate(ctx, views.NewBill)
}

// HandleClickIconEye shows the receipt referenced by the clicked icon.
func (c *Bills) HandleClickIconEye(e *dom.Event) error {
	icon := e.Target.Closest(dom.TestIDSelector("icon-eye"))
	url := icon.AttrOr("data-bill-url", "")
	preview, err := views.ReceiptPreview(url)
	if err != nil {
		return err
	}
	if err := c.doc.SetHTML(receiptModal+" .modal-body", preview); err != nil {
		return fmt.Errorf("show receipt: %w", err)
	}
	c.doc.AddClass(receiptModal, "show")
	return nil
}

// GetBills lists the bills in display form. Without a store there is nothing
// to list. A list failure is returned as is; a record whose date cannot be
// formatted keeps its raw date.
func (c *Bills) GetBills(ctx context.Context) ([]core.FormattedBill, error) {
	if c.store == nil {
		return nil, nil
	}
	bills, err := c.store.List(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to list bills",
			applog.FieldOperation, applog.OpList,
			applog.FieldErrorKind, store.KindOf(err).String(),
			applog.FieldError, err)
		return nil, err
	}
	return formatBills(ctx, c.logger, bills), nil
}

func formatBills(ctx context.Context, logger *applog.Logger, bills []core.Bill) []core.FormattedBill {
	out := make([]core.FormattedBill, 0, len(bills))
	for _, b := range bills {
		f, err := b.Format()
		if err != nil {
			logger.WarnContext(ctx, "Keeping unformatted bill date",
				applog.FieldOperation, applog.OpFormat,
				applog.FieldBillID, b.ID,
				"date", b.Date,
				applog.FieldError, err)
		}
		out = append(out, f)
	}
	return out
}
