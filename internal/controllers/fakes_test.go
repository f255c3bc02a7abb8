package controllers

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"billed/internal/core"
	"billed/internal/dom"
	"billed/internal/session"
	"billed/internal/store"
	"billed/internal/views"
)

type fakeStore struct {
	mu sync.Mutex

	bills     []core.Bill
	listErr   error
	createErr error
	updateErr error
	receipt   store.Receipt

	listCalls   int
	uploads     []store.Upload
	updates     []core.Bill
	updatedKeys []string
}

func (f *fakeStore) List(context.Context) ([]core.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]core.Bill(nil), f.bills...), nil
}

func (f *fakeStore) Create(_ context.Context, u store.Upload) (store.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, u)
	if f.createErr != nil {
		return store.Receipt{}, f.createErr
	}
	return f.receipt, nil
}

func (f *fakeStore) Update(_ context.Context, id string, b core.Bill) (core.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatedKeys = append(f.updatedKeys, id)
	f.updates = append(f.updates, b)
	if f.updateErr != nil {
		return core.Bill{}, f.updateErr
	}
	b.ID = id
	return b, nil
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls + len(f.uploads) + len(f.updates)
}

type navRecorder struct {
	pages []views.Page
	err   error
}

func (n *navRecorder) Navigate(_ context.Context, page views.Page) error {
	n.pages = append(n.pages, page)
	return n.err
}

// recordingStorage counts writes per key.
type recordingStorage struct {
	*session.MemoryStorage
	writes map[string][]string
}

func newRecordingStorage() *recordingStorage {
	return &recordingStorage{MemoryStorage: session.NewMemoryStorage(), writes: make(map[string][]string)}
}

func (r *recordingStorage) SetItem(key, value string) error {
	r.writes[key] = append(r.writes[key], value)
	return r.MemoryStorage.SetItem(key, value)
}

type fakeAuth struct {
	token string
	err   error
	seen  []store.Credentials
}

func (f *fakeAuth) Login(_ context.Context, c store.Credentials) (string, error) {
	f.seen = append(f.seen, c)
	return f.token, f.err
}

func renderPage(t *testing.T, page views.Page, data views.Data) *dom.Document {
	t.Helper()
	markup, err := views.Render(page, data)
	require.NoError(t, err)
	doc := dom.New()
	require.NoError(t, doc.SetBody(markup))
	return doc
}

func employeeSession(t *testing.T) *session.Store {
	t.Helper()
	st := session.New(session.NewMemoryStorage(), nil)
	require.NoError(t, st.Save(core.NewSession(core.Employee, "a@a", "pw")))
	return st
}

func fixtureBills() []core.Bill {
	return []core.Bill{
		{ID: "47qAXb6fIm2zOKkLzMro", Email: "a@a", Type: "Hôtel et logement", Name: "encore", Amount: core.Money{Cents: 40000}, Date: "2004-04-04", Status: core.StatusPending, FileURL: "https://test.storage.tld/encore.jpg", FileName: "encore.jpg"},
		{ID: "BeKy5Mo4jkmdfPGYpTxZ", Email: "a@a", Type: "Transports", Name: "test1", Amount: core.Money{Cents: 10000}, Date: "2001-01-01", Status: core.StatusRefused, FileURL: "https://test.storage.tld/test1.jpeg", FileName: "test1.jpeg"},
		{ID: "UIUZtnPQvnbFnB0ozvJh", Email: "a@a", Type: "Services en ligne", Name: "test3", Amount: core.Money{Cents: 30000}, Date: "2003-03-03", Status: core.StatusAccepted, FileURL: "https://test.storage.tld/test3.png", FileName: "test3.png"},
		{ID: "qcCK3SzECmaZAGRrHjaC", Email: "a@a", Type: "Restaurants et bars", Name: "test2", Amount: core.Money{Cents: 20000}, Date: "2002-02-02", Status: core.StatusRefused, FileURL: "https://test.storage.tld/test2.jpg", FileName: "test2.jpg"},
	}
}
