// Package views renders pages to markup. Rendering is pure: the same page and
// data always produce the same markup.
package views

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"sort"
	"strings"
	"time"

	"billed/internal/core"
	"billed/internal/store"
	"billed/web"
)

var ErrUnknownPage = errors.New("unknown page")

// Data is the state a page is rendered with.
type Data struct {
	Bills   []core.FormattedBill
	Loading bool
	Error   error
}

// ErrorPage is the content of the error surface.
type ErrorPage struct {
	Heading string
	Message string
}

type statusGroup struct {
	Status core.Status
	Label  string
	Bills  []core.FormattedBill
}

var templates = template.Must(template.New("").
	Funcs(template.FuncMap{"receiptURL": ReceiptURL}).
	ParseFS(web.TemplatesFS, "templates/*.html"))

// receiptSchemes are the schemes a stored receipt may be served from. Memory
// and file URLs come from the offline backends.
var receiptSchemes = map[string]bool{
	"http":   true,
	"https":  true,
	"file":   true,
	"memory": true,
}

// ReceiptURL marks raw as safe for URL attributes when its scheme is one a
// receipt can be stored under. Anything else is returned as a plain string and
// left to the template escaper.
func ReceiptURL(raw string) any {
	u, err := url.Parse(raw)
	if err != nil || !receiptSchemes[strings.ToLower(u.Scheme)] {
		return raw
	}
	return template.URL(raw)
}

var pageTemplates = map[Page]string{
	Login:     "login",
	Bills:     "bills",
	NewBill:   "newbill",
	Dashboard: "dashboard",
}

// Render returns the markup of page in the given state. Loading wins over
// Error, which wins over data, except on the login page where the error is
// shown inline.
func Render(page Page, data Data) (string, error) {
	name, ok := pageTemplates[page]
	if !ok {
		return "", fmt.Errorf("render %q: %w", page, ErrUnknownPage)
	}

	var (
		tmpl = name
		dot  any
	)
	switch {
	case page == Login:
		dot = data
	case data.Loading:
		tmpl = "loading"
	case data.Error != nil:
		tmpl, dot = "error", ErrorView(data.Error)
	case page == Bills:
		dot = struct{ Bills []core.FormattedBill }{SortByDateDesc(data.Bills)}
	case page == NewBill:
		dot = struct{ ExpenseTypes []string }{core.ExpenseTypes}
	case page == Dashboard:
		dot = struct{ Groups []statusGroup }{groupByStatus(data.Bills)}
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, tmpl, dot); err != nil {
		return "", fmt.Errorf("render %q: %w", page, err)
	}
	return buf.String(), nil
}

// ErrorView picks the heading for err and keeps its message verbatim.
func ErrorView(err error) ErrorPage {
	heading := "Erreur"
	switch store.KindOf(err) {
	case store.KindNotFound:
		heading = "Page introuvable"
	case store.KindServerError:
		heading = "Erreur serveur"
	case store.KindNetworkError:
		heading = "Serveur injoignable"
	case store.KindUnauthorized:
		heading = "Accès refusé"
	}
	return ErrorPage{Heading: heading, Message: err.Error()}
}

// ReceiptPreview renders the body of the receipt viewer for fileURL.
func ReceiptPreview(fileURL string) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "receipt-preview", ReceiptURL(fileURL)); err != nil {
		return "", fmt.Errorf("render receipt preview: %w", err)
	}
	return buf.String(), nil
}

// SortByDateDesc returns bills ordered most recent first. The stored ISO date
// is used when it parses, since the displayed year has only two digits; the
// displayed date is read back otherwise. Bills with neither keep their
// relative order after the dated ones.
func SortByDateDesc(bills []core.FormattedBill) []core.FormattedBill {
	type keyed struct {
		bill core.FormattedBill
		at   time.Time
		ok   bool
	}
	rows := make([]keyed, len(bills))
	for i, b := range bills {
		at, err := time.Parse(core.ISODate, strings.TrimSpace(b.Bill.Date))
		if err != nil {
			at, err = core.ParseDisplayDate(b.Date)
		}
		rows[i] = keyed{bill: b, at: at, ok: err == nil}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].ok != rows[j].ok {
			return rows[i].ok
		}
		return rows[i].at.After(rows[j].at)
	})
	out := make([]core.FormattedBill, len(rows))
	for i, r := range rows {
		out[i] = r.bill
	}
	return out
}

func groupByStatus(bills []core.FormattedBill) []statusGroup {
	groups := []statusGroup{
		{Status: core.StatusPending, Label: core.StatusPending.Label()},
		{Status: core.StatusAccepted, Label: core.StatusAccepted.Label()},
		{Status: core.StatusRefused, Label: core.StatusRefused.Label()},
	}
	for _, b := range SortByDateDesc(bills) {
		for i := range groups {
			if b.Bill.Status == groups[i].Status {
				groups[i].Bills = append(groups[i].Bills, b)
			}
		}
	}
	return groups
}
