package controllers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billed/internal/core"
	"billed/internal/dom"
	"billed/internal/views"
)

func TestBillsGetBills(t *testing.T) {
	fs := &fakeStore{bills: fixtureBills()}
	c := NewBills(nil, &navRecorder{}, fs, employeeSession(t), nil)

	bills, err := c.GetBills(context.Background())
	require.NoError(t, err)
	require.Len(t, bills, 4)
	assert.Equal(t, "4 Avr. 04", bills[0].Date)
	assert.Equal(t, "En attente", bills[0].Status)
	assert.Equal(t, "Refusé", bills[1].Status)
	assert.Equal(t, "Accepté", bills[2].Status)
	assert.Equal(t, "2004-04-04", bills[0].Bill.Date)
}

func TestBillsGetBillsKeepsMalformedDate(t *testing.T) {
	bills := fixtureBills()
	bills[1].Date = "pas une date"
	c := NewBills(nil, &navRecorder{}, &fakeStore{bills: bills}, nil, nil)

	got, err := c.GetBills(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "pas une date", got[1].Date)
	assert.Equal(t, "Refusé", got[1].Status)
	assert.Equal(t, "3 Mars 03", got[2].Date)
}

func TestBillsGetBillsPropagatesError(t *testing.T) {
	for _, msg := range []string{"Erreur 404", "Erreur 500"} {
		listErr := errors.New(msg)
		c := NewBills(nil, &navRecorder{}, &fakeStore{listErr: listErr}, nil, nil)

		got, err := c.GetBills(context.Background())
		assert.Nil(t, got)
		assert.Same(t, listErr, err)
	}
}

func TestBillsGetBillsWithoutStore(t *testing.T) {
	got, err := NewBills(nil, &navRecorder{}, nil, nil, nil).GetBills(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestBillsClickNewBillOnlyNavigates(t *testing.T) {
	doc := renderPage(t, views.Bills, views.Data{})
	fs := &fakeStore{bills: fixtureBills()}
	nav := &navRecorder{}
	NewBills(doc, nav, fs, employeeSession(t), nil)

	require.NoError(t, doc.Dispatch(context.Background(), dom.TestIDSelector("btn-new-bill"), dom.Click))

	assert.Equal(t, []views.Page{views.NewBill}, nav.pages)
	assert.Zero(t, fs.calls())
}

func TestBillsClickIconEyeOpensReceipt(t *testing.T) {
	c := NewBills(nil, &navRecorder{}, &fakeStore{bills: fixtureBills()}, nil, nil)
	formatted, err := c.GetBills(context.Background())
	require.NoError(t, err)

	doc := renderPage(t, views.Bills, views.Data{Bills: formatted})
	NewBills(doc, &navRecorder{}, nil, nil, nil)

	require.NoError(t, doc.Dispatch(context.Background(), dom.TestIDSelector("icon-eye"), dom.Click))

	assert.True(t, doc.HasClass("#modaleFile", "show"))
	img := doc.Find("#modaleFile .modal-body img")
	require.Equal(t, 1, img.Length())
	// First row is the most recent bill.
	assert.Equal(t, "https://test.storage.tld/encore.jpg", img.AttrOr("src", ""))
}

func TestBillsFormatsEveryStatus(t *testing.T) {
	c := NewBills(nil, &navRecorder{}, &fakeStore{bills: []core.Bill{{Date: "2020-01-01", Status: "archived"}}}, nil, nil)
	got, err := c.GetBills(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "archived", got[0].Status)
}
