package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/PuerkitoBio/goquery"

	"billed/internal/dom"
	"billed/internal/views"
)

// pageError reports the error surface of the current page, if it shows one.
func pageError(e *env) error {
	doc := e.app.Document()
	if !doc.Exists("error-message") {
		return nil
	}
	heading := strings.TrimSpace(doc.Find(".content-title").First().Text())
	return errors.New(heading + ": " + doc.Text("error-message"))
}

// printPage writes the bills shown on the current page as a table.
func printPage(e *env) error {
	if err := pageError(e); err != nil {
		return err
	}
	switch e.app.Current() {
	case views.Bills:
		return printBills(e)
	case views.Dashboard:
		return printDashboard(e)
	default:
		return nil
	}
}

func printBills(e *env) error {
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tNOM\tDATE\tMONTANT\tSTATUT")
	e.app.Document().Find(dom.TestIDSelector("bill-row")).Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			row.AttrOr("data-bill-id", ""),
			cellText(cells, 0),
			cellText(cells, 1),
			cellText(cells, 2),
			cellText(cells, 3),
			cellText(cells, 4))
	})
	return tw.Flush()
}

func printDashboard(e *env) error {
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNOM\tTYPE\tMONTANT\tDATE\tSTATUT")
	e.app.Document().Find(".bill-card").Each(func(_ int, card *goquery.Selection) {
		names := card.Find(".bill-card-name-container").Children()
		price := card.Find(".name-price-container span")
		dated := card.Find(".date-type-container span")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			strings.TrimPrefix(card.AttrOr("data-testid", ""), "open-bill"),
			cellText(names, 0),
			cellText(names, 1),
			cellText(price, 0),
			cellText(price, 1),
			cellText(dated, 0),
			cellText(dated, 1))
	})
	return tw.Flush()
}

func cellText(s *goquery.Selection, i int) string {
	return strings.TrimSpace(s.Eq(i).Text())
}
