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

func TestDashboardReviewFromPage(t *testing.T) {
	fs := &fakeStore{bills: fixtureBills()}
	loader := NewDashboard(nil, &navRecorder{}, fs, nil)
	bills, err := loader.GetBills(context.Background())
	require.NoError(t, err)

	doc := renderPage(t, views.Dashboard, views.Data{Bills: bills})
	nav := &navRecorder{}
	c := NewDashboard(doc, nav, fs, nil)
	c.Remember(fixtureBills()...)

	id := "47qAXb6fIm2zOKkLzMro"
	require.NoError(t, doc.SetValue("commentary-admin-"+id, "ok"))
	require.NoError(t, doc.Dispatch(context.Background(), dom.TestIDSelector("btn-accept-bill-"+id), dom.Click))

	require.Len(t, fs.updates, 1)
	assert.Equal(t, id, fs.updatedKeys[0])
	assert.Equal(t, core.StatusAccepted, fs.updates[0].Status)
	assert.Equal(t, "ok", fs.updates[0].CommentAdmin)
	assert.Equal(t, "encore", fs.updates[0].Name)
	assert.Equal(t, []views.Page{views.Dashboard}, nav.pages)
}

func TestDashboardReviewErrors(t *testing.T) {
	fs := &fakeStore{}
	c := NewDashboard(nil, &navRecorder{}, fs, nil)

	_, err := c.Review(context.Background(), "missing", core.StatusRefused, "")
	assert.ErrorIs(t, err, ErrUnknownBill)

	c.Remember(core.Bill{ID: "1", Status: core.StatusPending})
	_, err = c.Review(context.Background(), "1", core.StatusPending, "")
	assert.Error(t, err)

	fs.updateErr = errors.New("Erreur 500")
	_, err = c.Review(context.Background(), "1", core.StatusRefused, "non")
	assert.EqualError(t, err, "Erreur 500")
}
