package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billed/internal/auth"
	"billed/internal/core"
	"billed/internal/dom"
	"billed/internal/session"
	"billed/internal/store"
	"billed/internal/store/memory"
	"billed/internal/views"
)

func newMemoryApp(t *testing.T) (*App, *session.Store) {
	t.Helper()
	ms := memory.New(auth.NewIssuer("secret", time.Hour), memory.Fixtures()...)
	require.NoError(t, ms.AddUser(context.Background(), "employee@test.tld", core.Employee, "employee"))
	require.NoError(t, ms.AddUser(context.Background(), "admin@test.tld", core.Admin, "admin"))
	sess := session.New(session.NewMemoryStorage(), nil)
	return New(Options{Session: sess, Bills: ms, Auth: ms}), sess
}

func TestEmployeeJourney(t *testing.T) {
	ctx := context.Background()
	a, sess := newMemoryApp(t)
	doc := a.Document()

	require.NoError(t, a.Start(ctx))
	assert.Equal(t, views.Login, a.Current())

	require.NoError(t, doc.SetValue("employee-email-input", "employee@test.tld"))
	require.NoError(t, doc.SetValue("employee-password-input", "employee"))
	require.NoError(t, doc.Dispatch(ctx, dom.TestIDSelector("form-employee"), dom.Submit))

	assert.Equal(t, views.Bills, a.Current())
	assert.NotEmpty(t, sess.Token())
	assert.Equal(t, 4, doc.ByTestID("bill-row").Length())
	assert.True(t, doc.HasClass(dom.TestIDSelector("icon-window"), "active-icon"))

	require.NoError(t, doc.Dispatch(ctx, dom.TestIDSelector("btn-new-bill"), dom.Click))
	assert.Equal(t, views.NewBill, a.Current())
	assert.True(t, doc.HasClass(dom.TestIDSelector("icon-mail"), "active-icon"))
	require.NotNil(t, a.NewBill())

	require.NoError(t, doc.SetFiles("file", dom.File{Name: "ticket.jpeg", Type: "image/jpeg", Content: []byte("jpeg")}))
	require.NoError(t, doc.Dispatch(ctx, dom.TestIDSelector("file"), dom.Change))
	require.NoError(t, doc.SetValue("expense-name", "Taxi"))
	require.NoError(t, doc.SetValue("datepicker", "2005-05-05"))
	require.NoError(t, doc.SetValue("amount", "42"))
	require.NoError(t, doc.Dispatch(ctx, dom.TestIDSelector("form-new-bill"), dom.Submit))

	assert.Equal(t, views.Bills, a.Current())
	require.Equal(t, 5, doc.ByTestID("bill-row").Length())
	assert.Equal(t, "5 Mai 05", doc.ByTestID("bill-date").First().Text())

	require.NoError(t, doc.Dispatch(ctx, dom.TestIDSelector("layout-disconnect"), dom.Click))
	assert.Equal(t, views.Login, a.Current())
	_, ok := sess.Current()
	assert.False(t, ok)
}

func TestAdminReview(t *testing.T) {
	ctx := context.Background()
	a, _ := newMemoryApp(t)
	doc := a.Document()
	require.NoError(t, a.Start(ctx))

	require.NoError(t, doc.SetValue("admin-email-input", "admin@test.tld"))
	require.NoError(t, doc.SetValue("admin-password-input", "admin"))
	require.NoError(t, doc.Dispatch(ctx, dom.TestIDSelector("form-admin"), dom.Submit))
	require.Equal(t, views.Dashboard, a.Current())

	id := "47qAXb6fIm2zOKkLzMro"
	require.NoError(t, doc.SetValue("commentary-admin-"+id, "ok"))
	require.NoError(t, doc.Dispatch(ctx, dom.TestIDSelector("btn-refuse-bill-"+id), dom.Click))

	assert.Contains(t, doc.ByTestID("status-pending").Text(), "(0)")
	assert.Contains(t, doc.ByTestID("status-refused").Text(), "(3)")
}

func TestLoginRejectedStaysOnLogin(t *testing.T) {
	ctx := context.Background()
	a, sess := newMemoryApp(t)
	doc := a.Document()
	require.NoError(t, a.Start(ctx))

	require.NoError(t, doc.SetValue("employee-email-input", "employee@test.tld"))
	require.NoError(t, doc.SetValue("employee-password-input", "nope"))
	require.NoError(t, doc.Dispatch(ctx, dom.TestIDSelector("form-employee"), dom.Submit))

	assert.Equal(t, views.Login, a.Current())
	assert.Equal(t, "Erreur 401", doc.Text("login-error"))
	_, ok := sess.Current()
	assert.False(t, ok)
}

type failingStore struct{ err error }

func (f failingStore) List(context.Context) ([]core.Bill, error) { return nil, f.err }
func (f failingStore) Create(context.Context, store.Upload) (store.Receipt, error) {
	return store.Receipt{}, f.err
}
func (f failingStore) Update(context.Context, string, core.Bill) (core.Bill, error) {
	return core.Bill{}, f.err
}

func TestShowBillsError(t *testing.T) {
	for _, msg := range []string{"Erreur 404", "Erreur 500"} {
		sess := session.New(session.NewMemoryStorage(), nil)
		a := New(Options{Session: sess, Bills: failingStore{err: errors.New(msg)}})

		require.NoError(t, a.Show(context.Background(), views.Bills))
		assert.Equal(t, msg, a.Document().Text("error-message"))
	}
}

type blockingStore struct {
	failingStore
	started chan struct{}
	release chan struct{}
}

func (b *blockingStore) List(context.Context) ([]core.Bill, error) {
	close(b.started)
	<-b.release
	return []core.Bill{{ID: "late", Date: "2004-04-04", Status: core.StatusPending}}, nil
}

func TestShowDiscardsStaleResults(t *testing.T) {
	ctx := context.Background()
	bs := &blockingStore{started: make(chan struct{}), release: make(chan struct{})}
	a := New(Options{Session: session.New(session.NewMemoryStorage(), nil), Bills: bs})

	done := make(chan error, 1)
	go func() { done <- a.Show(ctx, views.Bills) }()
	<-bs.started

	require.NoError(t, a.Show(ctx, views.NewBill))
	close(bs.release)
	require.NoError(t, <-done)

	assert.Equal(t, views.NewBill, a.Current())
	assert.True(t, a.Document().Exists("form-new-bill"))
	assert.False(t, a.Document().Exists("bill-row"))
}

func TestShowUnknownPage(t *testing.T) {
	a := New(Options{Session: session.New(session.NewMemoryStorage(), nil)})
	assert.ErrorIs(t, a.Show(context.Background(), views.Page("#nowhere")), views.ErrUnknownPage)
}
