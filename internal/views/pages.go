package views

// Page identifies a screen of the client. Values are the route paths.
type Page string

const (
	Login     Page = "/"
	Bills     Page = "#employee/bills"
	NewBill   Page = "#employee/bill/new"
	Dashboard Page = "#admin/dashboard"
)

// Pages lists every known page.
var Pages = []Page{Login, Bills, NewBill, Dashboard}

func (p Page) IsValid() bool {
	for _, known := range Pages {
		if p == known {
			return true
		}
	}
	return false
}

func (p Page) String() string { return string(p) }
