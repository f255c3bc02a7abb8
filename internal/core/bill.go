package core

import (
	"errors"
	"strings"
)

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

type (
	// Status is the review state of a bill. Only administrators move it away from pending.
	Status string

	// Bill is an expense-report record as exchanged with the remote bill store.
	// Date holds the ISO-8601 calendar date (YYYY-MM-DD) on the wire.
	Bill struct {
		ID           string `json:"id,omitempty"`
		Email        string `json:"email"`
		Type         string `json:"type"`
		Name         string `json:"name"`
		Amount       Money  `json:"amount"`
		Date         string `json:"date"`
		VAT          string `json:"vat"`
		Pct          int    `json:"pct"`
		Commentary   string `json:"commentary"`
		FileURL      string `json:"fileUrl,omitempty"`
		FileName     string `json:"fileName,omitempty"`
		Status       Status `json:"status"`
		CommentAdmin string `json:"commentAdmin,omitempty"`
	}

	// FormattedBill is a bill prepared for display. Date and Status shadow the
	// raw fields with their display forms; the embedded Bill keeps the originals.
	FormattedBill struct {
		Bill
		Date   string `json:"date"`
		Status string `json:"status"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
)

// ExpenseTypes lists the categories offered by the new bill form.
var ExpenseTypes = []string{
	"Transports",
	"Restaurants et bars",
	"Hôtel et logement",
	"Services en ligne",
	"IT et électronique",
	"Equipement et matériel",
	"Fournitures de bureau",
}

// Label returns the display label of the status.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "En attente"
	case StatusAccepted:
		return "Accepté"
	case StatusRefused:
		return "Refusé"
	default:
		return string(s)
	}
}

// IsValid reports whether s is one of the known review states.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRefused:
		return true
	default:
		return false
	}
}

// ParseStatus maps a raw status string to a Status, case-insensitively.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.IsValid()
}

// HasReceipt reports whether the uploaded receipt reference is complete.
func (b Bill) HasReceipt() bool {
	return b.FileURL != "" && b.FileName != ""
}

// Format returns the display form of the bill. A date that cannot be parsed is
// kept raw and the formatting error is returned alongside the result, so callers
// can degrade per record instead of failing a whole list.
func (b Bill) Format() (FormattedBill, error) {
	out := FormattedBill{
		Bill:   b,
		Date:   b.Date,
		Status: b.Status.Label(),
	}
	display, err := FormatDate(b.Date)
	if err != nil {
		return out, err
	}
	out.Date = display
	return out, nil
}
