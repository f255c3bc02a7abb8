// Package dom is the form and UI surface the controllers drive. Markup is held
// as a goquery document; elements are addressed by their data-testid.
package dom

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Event types dispatched by the client.
const (
	Click  = "click"
	Change = "change"
	Submit = "submit"
)

var ErrNoElement = errors.New("no element matches selector")

// Handler reacts to an event. A returned error is reported to the dispatcher.
type Handler func(ctx context.Context, e *Event) error

type Event struct {
	Type   string
	Target *goquery.Selection

	defaultPrevented bool
}

func (e *Event) PreventDefault() { e.defaultPrevented = true }

func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// File is a file picked in a file input.
type File struct {
	Name    string
	Type    string
	Content []byte
}

type Document struct {
	mu        sync.Mutex
	doc       *goquery.Document
	listeners map[*html.Node]map[string][]Handler
	files     map[*html.Node][]File
}

// New returns a document with an empty body.
func New() *Document {
	d := &Document{}
	if err := d.SetBody(""); err != nil {
		panic(err)
	}
	return d
}

// TestIDSelector returns the CSS selector for a data-testid.
func TestIDSelector(id string) string {
	return fmt.Sprintf(`[data-testid=%q]`, id)
}

// SetBody replaces the body with markup. Listeners and picked files bound to
// the previous body are dropped with it.
func (d *Document) SetBody(markup string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<!DOCTYPE html><html><head></head><body>" + markup + "</body></html>"))
	if err != nil {
		return fmt.Errorf("parse markup: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc = doc
	d.listeners = make(map[*html.Node]map[string][]Handler)
	d.files = make(map[*html.Node][]File)
	return nil
}

// Find runs a CSS selector against the current body.
func (d *Document) Find(sel string) *goquery.Selection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(sel)
}

func (d *Document) ByTestID(id string) *goquery.Selection {
	return d.Find(TestIDSelector(id))
}

// Exists reports whether an element with the data-testid is present.
func (d *Document) Exists(id string) bool {
	return d.ByTestID(id).Length() > 0
}

// On registers h for eventType on every element matching sel and returns how
// many elements it was attached to.
func (d *Document) On(sel, eventType string, h Handler) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	nodes := d.doc.Find(sel).Nodes
	for _, n := range nodes {
		byType, ok := d.listeners[n]
		if !ok {
			byType = make(map[string][]Handler)
			d.listeners[n] = byType
		}
		byType[eventType] = append(byType[eventType], h)
	}
	return len(nodes)
}

// Dispatch fires eventType at the first element matching sel. The event
// bubbles to its ancestors. A single handler error is returned as is, several
// are joined.
func (d *Document) Dispatch(ctx context.Context, sel, eventType string) error {
	d.mu.Lock()
	target := d.doc.Find(sel).First()
	if target.Length() == 0 {
		d.mu.Unlock()
		return fmt.Errorf("dispatch %s on %s: %w", eventType, sel, ErrNoElement)
	}
	var chain []Handler
	for n := target.Nodes[0]; n != nil; n = n.Parent {
		chain = append(chain, d.listeners[n][eventType]...)
	}
	d.mu.Unlock()

	ev := &Event{Type: eventType, Target: target}
	var errs []error
	for _, h := range chain {
		if err := h(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

// Value returns the current value of a form control.
func (d *Document) Value(id string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.doc.Find(TestIDSelector(id)).First()
	switch goquery.NodeName(s) {
	case "textarea":
		return s.Text()
	case "select":
		opt := s.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = s.Find("option").First()
		}
		if v, ok := opt.Attr("value"); ok {
			return v
		}
		return strings.TrimSpace(opt.Text())
	default:
		return s.AttrOr("value", "")
	}
}

// SetValue sets the value of a form control as if typed or selected.
func (d *Document) SetValue(id, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.doc.Find(TestIDSelector(id)).First()
	if s.Length() == 0 {
		return fmt.Errorf("set value of %s: %w", id, ErrNoElement)
	}
	switch goquery.NodeName(s) {
	case "textarea":
		s.SetText(value)
	case "select":
		found := false
		s.Find("option").Each(func(_ int, opt *goquery.Selection) {
			v, ok := opt.Attr("value")
			if !ok {
				v = strings.TrimSpace(opt.Text())
			}
			if v == value && !found {
				opt.SetAttr("selected", "selected")
				found = true
				return
			}
			opt.RemoveAttr("selected")
		})
		if !found {
			return fmt.Errorf("set value of %s: no option %q", id, value)
		}
	default:
		s.SetAttr("value", value)
	}
	return nil
}

// SetFiles attaches picked files to a file input.
func (d *Document) SetFiles(id string, files ...File) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.doc.Find(TestIDSelector(id)).First()
	if s.Length() == 0 {
		return fmt.Errorf("set files of %s: %w", id, ErrNoElement)
	}
	d.files[s.Nodes[0]] = append([]File(nil), files...)
	if len(files) > 0 {
		s.SetAttr("value", `C:\fakepath\`+files[0].Name)
	} else {
		s.SetAttr("value", "")
	}
	return nil
}

func (d *Document) Files(id string) []File {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.doc.Find(TestIDSelector(id)).First()
	if s.Length() == 0 {
		return nil
	}
	return append([]File(nil), d.files[s.Nodes[0]]...)
}

// ResetFileInput clears the selection of a file input.
func (d *Document) ResetFileInput(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.doc.Find(TestIDSelector(id)).First()
	if s.Length() == 0 {
		return
	}
	delete(d.files, s.Nodes[0])
	s.SetAttr("value", "")
}

func (d *Document) Text(id string) string {
	return strings.TrimSpace(d.ByTestID(id).First().Text())
}

func (d *Document) SetText(id, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc.Find(TestIDSelector(id)).SetText(text)
}

// SetHTML replaces the content of every element matching sel.
func (d *Document) SetHTML(sel, markup string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	s := d.doc.Find(sel)
	if s.Length() == 0 {
		return fmt.Errorf("set html of %s: %w", sel, ErrNoElement)
	}
	s.SetHtml(markup)
	return nil
}

func (d *Document) AddClass(sel, class string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc.Find(sel).AddClass(class)
}

func (d *Document) RemoveClass(sel, class string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc.Find(sel).RemoveClass(class)
}

func (d *Document) HasClass(sel, class string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find(sel).HasClass(class)
}

// HTML returns the body markup.
func (d *Document) HTML() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Find("body").Html()
}
