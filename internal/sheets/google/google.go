// Package google exports bills to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"billed/internal/core"
	ports "billed/internal/sheets"
)

// Header is the first row of an export sheet.
var Header = []any{"Date", "Email", "Type", "Nom", "Montant", "TVA", "%", "Statut", "Commentaire", "Justificatif", "ID"}

type Options struct {
	SpreadsheetID string
	SheetName     string
	// CredentialsJSON takes precedence over CredentialsFile.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.BillExporter = (*Client)(nil)

// New creates a client authenticated with service account credentials. When
// no credentials are given, GOOGLE_APPLICATION_CREDENTIALS is used.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, opts.SpreadsheetID, opts.SheetName), nil
}

// NewWithService wraps an existing service. sheetName defaults to "Bills".
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string) *Client {
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Bills"
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}
}

func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	credentialsFile := strings.TrimSpace(opts.CredentialsFile)
	if opts.CredentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case opts.CredentialsJSON != "":
		credentialsJSON = []byte(opts.CredentialsJSON)
	case credentialsFile != "":
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// AppendBill adds b as a new row below the existing ones and returns the
// updated range.
func (c *Client) AppendBill(ctx context.Context, b core.Bill) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if b.ID == "" {
		return "", errors.New("bill without id")
	}

	rng := fmt.Sprintf("%s!A:K", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{BillRow(b)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Bill appended to sheet", "id", b.ID, "range", ref)
	return ref, nil
}

// BillRow lays a bill out in Header order. The date is written in display form
// when it can be formatted.
func BillRow(b core.Bill) []any {
	date := b.Date
	if display, err := core.FormatDate(b.Date); err == nil {
		date = display
	}
	return []any{
		date,
		b.Email,
		b.Type,
		b.Name,
		b.Amount.Euros(),
		b.VAT,
		b.Pct,
		b.Status.Label(),
		b.Commentary,
		b.FileURL,
		b.ID,
	}
}
