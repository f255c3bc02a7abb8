package controllers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billed/internal/core"
	"billed/internal/dom"
	"billed/internal/store"
	"billed/internal/views"
)

func newBillFixture(t *testing.T, fs *fakeStore) (*dom.Document, *NewBill, *navRecorder) {
	t.Helper()
	doc := renderPage(t, views.NewBill, views.Data{})
	nav := &navRecorder{}
	c := NewNewBill(doc, nav, fs, employeeSession(t), nil)
	return doc, c, nav
}

func pick(t *testing.T, doc *dom.Document, name, mimeType string) error {
	t.Helper()
	require.NoError(t, doc.SetFiles("file", dom.File{Name: name, Type: mimeType, Content: []byte("data")}))
	return doc.Dispatch(context.Background(), dom.TestIDSelector("file"), dom.Change)
}

func TestAllowedReceipt(t *testing.T) {
	tests := []struct {
		name, mime string
		want       bool
	}{
		{"x.png", "image/png", true},
		{"x.JPG", "image/jpeg", true},
		{"x.jpeg", "", true},
		{"x.jpeg", "image/jpeg; charset=binary", true},
		{"x.pdf", "application/pdf", false},
		{"x.png", "application/pdf", false},
		{"x", "image/png", false},
		{"x.gif", "image/gif", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AllowedReceipt(tt.name, tt.mime), "%s %s", tt.name, tt.mime)
	}
}

func TestNewBillUploadsAcceptedFileOnce(t *testing.T) {
	fs := &fakeStore{receipt: store.Receipt{FileURL: "https://localhost:3456/images/test.jpg", FileName: "x.png", Key: "1234"}}
	doc, c, _ := newBillFixture(t, fs)

	require.NoError(t, pick(t, doc, "x.png", "image/png"))

	require.Len(t, fs.uploads, 1)
	assert.Equal(t, "x.png", fs.uploads[0].FileName)
	assert.Equal(t, "a@a", fs.uploads[0].Email)
	assert.Equal(t, Uploaded, c.State())
	url, name, key := c.Receipt()
	assert.Equal(t, "https://localhost:3456/images/test.jpg", url)
	assert.Equal(t, "x.png", name)
	assert.Equal(t, "1234", key)
}

func TestNewBillRejectsUnsupportedFile(t *testing.T) {
	fs := &fakeStore{}
	doc, c, _ := newBillFixture(t, fs)

	err := pick(t, doc, "x.pdf", "application/pdf")

	assert.ErrorIs(t, err, ErrUnsupportedFile)
	assert.Empty(t, fs.uploads)
	assert.Empty(t, doc.Files("file"))
	assert.Equal(t, "", doc.Value("file"))
	assert.NotEmpty(t, doc.Text("file-error"))
	assert.Equal(t, Idle, c.State())
}

func TestNewBillUploadFailure(t *testing.T) {
	uploadErr := errors.New("Erreur 500")
	fs := &fakeStore{createErr: uploadErr}
	doc, c, _ := newBillFixture(t, fs)

	err := pick(t, doc, "x.jpg", "image/jpeg")

	assert.Same(t, uploadErr, err)
	assert.Equal(t, UploadFailed, c.State())
	url, name, _ := c.Receipt()
	assert.Empty(t, url)
	assert.Empty(t, name)

	err = doc.Dispatch(context.Background(), dom.TestIDSelector("form-new-bill"), dom.Submit)
	assert.ErrorIs(t, err, ErrNotReadyToSubmit)
	assert.Empty(t, fs.updates)
}

func TestNewBillSubmitBeforeUploadIsRefused(t *testing.T) {
	fs := &fakeStore{}
	doc, c, nav := newBillFixture(t, fs)

	err := c.HandleSubmit(context.Background(), &dom.Event{Type: dom.Submit})

	assert.ErrorIs(t, err, ErrNotReadyToSubmit)
	assert.Empty(t, fs.updates)
	assert.Empty(t, nav.pages)
	assert.NotEmpty(t, doc.Text("form-error"))
}

func fillForm(t *testing.T, doc *dom.Document, values map[string]string) {
	t.Helper()
	for id, v := range values {
		require.NoError(t, doc.SetValue(id, v))
	}
}

func TestNewBillSubmit(t *testing.T) {
	fs := &fakeStore{receipt: store.Receipt{FileURL: "https://localhost:3456/images/test.jpg", FileName: "x.png", Key: "1234"}}
	doc, c, nav := newBillFixture(t, fs)
	require.NoError(t, pick(t, doc, "x.png", "image/png"))

	fillForm(t, doc, map[string]string{
		"expense-type": "Transports",
		"expense-name": "Vol Paris Londres",
		"datepicker":   "2022-04-04",
		"amount":       "348",
		"vat":          "70",
		"commentary":   "séminaire",
	})

	require.NoError(t, doc.Dispatch(context.Background(), dom.TestIDSelector("form-new-bill"), dom.Submit))

	require.Len(t, fs.updates, 1)
	assert.Equal(t, []string{"1234"}, fs.updatedKeys)
	assert.Equal(t, core.Bill{
		Email:      "a@a",
		Type:       "Transports",
		Name:       "Vol Paris Londres",
		Amount:     core.Money{Cents: 34800},
		Date:       "2022-04-04",
		VAT:        "70",
		Pct:        DefaultPct,
		Commentary: "séminaire",
		FileURL:    "https://localhost:3456/images/test.jpg",
		FileName:   "x.png",
		Status:     core.StatusPending,
	}, fs.updates[0])
	assert.Equal(t, []views.Page{views.Bills}, nav.pages)
	assert.Equal(t, Submitted, c.State())
	assert.Len(t, fs.uploads, 1)
}

func TestNewBillSubmitFailureCanRetry(t *testing.T) {
	submitErr := errors.New("Erreur 500")
	fs := &fakeStore{receipt: store.Receipt{FileURL: "u", FileName: "x.png", Key: "k"}, updateErr: submitErr}
	doc, c, nav := newBillFixture(t, fs)
	require.NoError(t, pick(t, doc, "x.png", "image/png"))
	fillForm(t, doc, map[string]string{"pct": "10"})

	err := c.HandleSubmit(context.Background(), nil)
	assert.Same(t, submitErr, err)
	assert.Equal(t, SubmitFailed, c.State())
	assert.Equal(t, "Erreur 500", doc.Text("form-error"))
	assert.Empty(t, nav.pages)

	fs.updateErr = nil
	require.NoError(t, c.HandleSubmit(context.Background(), nil))
	require.Len(t, fs.updates, 2)
	assert.Equal(t, 10, fs.updates[1].Pct)
	assert.Equal(t, []views.Page{views.Bills}, nav.pages)
}

func TestNewBillSubmitPreventsDefault(t *testing.T) {
	_, c, _ := newBillFixture(t, &fakeStore{})
	ev := &dom.Event{Type: dom.Submit}
	_ = c.HandleSubmit(context.Background(), ev)
	assert.True(t, ev.DefaultPrevented())
}

func TestUploadStateString(t *testing.T) {
	assert.Equal(t, "uploaded", Uploaded.String())
	assert.Equal(t, "submit_failed", SubmitFailed.String())
	assert.Equal(t, "state(42)", UploadState(42).String())
}
