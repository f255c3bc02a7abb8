// Package router maps page identifiers to rendered screens.
package router

import (
	"fmt"
	"sync"

	"billed/internal/dom"
	applog "billed/internal/log"
	"billed/internal/views"
)

const activeIcon = "active-icon"

// MountFunc binds a page's handlers once its markup is in the document.
type MountFunc func(doc *dom.Document) error

// Router renders pages into a document. Navigate never touches the network;
// data is handed in beforehand with SetState.
type Router struct {
	doc    *dom.Document
	logger *applog.Logger

	mu      sync.Mutex
	states  map[views.Page]views.Data
	mounts  map[views.Page]MountFunc
	current views.Page
}

func New(doc *dom.Document, logger *applog.Logger) *Router {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Router{
		doc:    doc,
		logger: logger.WithComponent(applog.ComponentRouter),
		states: make(map[views.Page]views.Data),
		mounts: make(map[views.Page]MountFunc),
	}
}

// Register sets the mount hook run after each render of page.
func (r *Router) Register(page views.Page, mount MountFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mounts[page] = mount
}

// SetState records the data page is rendered with on its next navigation.
func (r *Router) SetState(page views.Page, data views.Data) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[page] = data
}

func (r *Router) State(page views.Page) views.Data {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[page]
}

// Current returns the page last navigated to.
func (r *Router) Current() views.Page {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Navigate renders page with its recorded state, swaps the document body,
// marks the matching navigation icon and mounts the page's handlers.
func (r *Router) Navigate(page views.Page) error {
	if !page.IsValid() {
		return fmt.Errorf("navigate to %q: %w", page, views.ErrUnknownPage)
	}

	r.mu.Lock()
	data := r.states[page]
	mount := r.mounts[page]
	r.mu.Unlock()

	markup, err := views.Render(page, data)
	if err != nil {
		return err
	}
	if err := r.doc.SetBody(markup); err != nil {
		return fmt.Errorf("navigate to %q: %w", page, err)
	}
	r.highlight(page)

	r.mu.Lock()
	r.current = page
	r.mu.Unlock()

	r.logger.Debug("Navigated", "page", page, "loading", data.Loading, "error", data.Error != nil)

	if mount == nil {
		return nil
	}
	if err := mount(r.doc); err != nil {
		return fmt.Errorf("mount %q: %w", page, err)
	}
	return nil
}

func (r *Router) highlight(page views.Page) {
	window := dom.TestIDSelector("icon-window")
	mail := dom.TestIDSelector("icon-mail")
	r.doc.RemoveClass(window, activeIcon)
	r.doc.RemoveClass(mail, activeIcon)
	switch page {
	case views.Bills:
		r.doc.AddClass(window, activeIcon)
	case views.NewBill:
		r.doc.AddClass(mail, activeIcon)
	}
}
