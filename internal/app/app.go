// Package app assembles the client: session, store, router and controllers.
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"billed/internal/controllers"
	"billed/internal/core"
	"billed/internal/dom"
	applog "billed/internal/log"
	"billed/internal/router"
	"billed/internal/session"
	"billed/internal/store"
	"billed/internal/views"
)

// Options are the collaborators of an App. Bills and Auth may be nil.
type Options struct {
	Session *session.Store
	Bills   store.Bills
	Auth    store.Authenticator
	Logger  *applog.Logger
}

type App struct {
	doc     *dom.Document
	router  *router.Router
	session *session.Store
	bills   store.Bills
	auth    store.Authenticator
	logger  *applog.Logger

	generation atomic.Uint64

	mu        sync.Mutex
	newBill   *controllers.NewBill
	dashboard *controllers.Dashboard
}

var _ controllers.Navigator = (*App)(nil)

func New(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	doc := dom.New()
	a := &App{
		doc:     doc,
		router:  router.New(doc, logger),
		session: opts.Session,
		bills:   opts.Bills,
		auth:    opts.Auth,
		logger:  logger.WithComponent(applog.ComponentApp),
	}

	a.router.Register(views.Login, func(d *dom.Document) error {
		controllers.NewLogin(d, a, a.session, a.auth, logger)
		return nil
	})
	a.router.Register(views.Bills, func(d *dom.Document) error {
		controllers.NewBills(d, a, a.bills, a.session, logger)
		a.bindLogout(d)
		return nil
	})
	a.router.Register(views.NewBill, func(d *dom.Document) error {
		c := controllers.NewNewBill(d, a, a.bills, a.session, logger)
		a.mu.Lock()
		a.newBill = c
		a.mu.Unlock()
		a.bindLogout(d)
		return nil
	})
	a.router.Register(views.Dashboard, func(d *dom.Document) error {
		c := controllers.NewDashboard(d, a, a.bills, logger)
		for _, b := range a.router.State(views.Dashboard).Bills {
			c.Remember(b.Bill)
		}
		a.mu.Lock()
		a.dashboard = c
		a.mu.Unlock()
		a.bindLogout(d)
		return nil
	})
	return a
}

func (a *App) Document() *dom.Document { return a.doc }

func (a *App) Current() views.Page { return a.router.Current() }

// NewBill returns the controller of the mounted new bill page, if any.
func (a *App) NewBill() *controllers.NewBill {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.newBill
}

// Dashboard returns the controller of the mounted dashboard page, if any.
func (a *App) Dashboard() *controllers.Dashboard {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dashboard
}

// Start shows the landing page for the persisted session.
func (a *App) Start(ctx context.Context) error {
	sess, ok := a.session.Current()
	switch {
	case !ok:
		return a.Show(ctx, views.Login)
	case sess.Type == core.Admin:
		return a.Show(ctx, views.Dashboard)
	default:
		return a.Show(ctx, views.Bills)
	}
}

// Navigate implements controllers.Navigator.
func (a *App) Navigate(ctx context.Context, page views.Page) error {
	return a.Show(ctx, page)
}

// Show moves to page. List pages are rendered loading first, then with the
// fetched bills or the fetch error. A fetch that completes after a later Show
// started is discarded.
func (a *App) Show(ctx context.Context, page views.Page) error {
	gen := a.generation.Add(1)

	var load func(context.Context) ([]core.FormattedBill, error)
	switch page {
	case views.Bills:
		load = controllers.NewBills(nil, a, a.bills, a.session, a.logger).GetBills
	case views.Dashboard:
		load = controllers.NewDashboard(nil, a, a.bills, a.logger).GetBills
	default:
		if !page.IsValid() {
			return fmt.Errorf("show %q: %w", page, views.ErrUnknownPage)
		}
		a.router.SetState(page, views.Data{})
		return a.router.Navigate(page)
	}

	a.router.SetState(page, views.Data{Loading: true})
	if err := a.router.Navigate(page); err != nil {
		return err
	}

	bills, err := load(ctx)
	if a.generation.Load() != gen {
		a.logger.DebugContext(ctx, "Discarding stale page data", applog.FieldPage, page)
		return nil
	}
	if err != nil {
		a.router.SetState(page, views.Data{Error: err})
	} else {
		a.router.SetState(page, views.Data{Bills: bills})
	}
	return a.router.Navigate(page)
}

// Logout forgets the session and returns to the login page.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Clear(); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Logged out")
	return a.Show(ctx, views.Login)
}

func (a *App) bindLogout(d *dom.Document) {
	d.On(dom.TestIDSelector("layout-disconnect"), dom.Click, func(ctx context.Context, _ *dom.Event) error {
		return a.Logout(ctx)
	})
}
