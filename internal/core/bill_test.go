package core

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestStatusLabel(t *testing.T) {
	cases := map[Status]string{
		StatusPending:  "En attente",
		StatusAccepted: "Accepté",
		StatusRefused:  "Refusé",
		Status("odd"):  "odd",
	}
	for s, want := range cases {
		if got := s.Label(); got != want {
			t.Fatalf("%q.Label() = %q, want %q", s, got, want)
		}
	}
	if s, ok := ParseStatus(" Accepted "); !ok || s != StatusAccepted {
		t.Fatalf("ParseStatus: got %q ok=%v", s, ok)
	}
}

func TestBillFormat(t *testing.T) {
	b := Bill{ID: "47qAXb6fIm2zOKkLzMro", Name: "encore", Date: "2004-04-04", Status: StatusPending, Amount: Money{Cents: 40000}}
	f, err := b.Format()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Date != "4 Avr. 04" || f.Status != "En attente" {
		t.Fatalf("unexpected display fields: %+v", f)
	}
	if f.Bill.Date != "2004-04-04" || f.Bill.Status != StatusPending || f.Name != "encore" {
		t.Fatalf("raw fields not preserved: %+v", f.Bill)
	}
}

func TestBillFormatKeepsRawDate(t *testing.T) {
	b := Bill{Date: "pasunedate", Status: StatusRefused}
	f, err := b.Format()
	if err == nil {
		t.Fatalf("expected formatting error")
	}
	if f.Date != "pasunedate" || f.Status != "Refusé" {
		t.Fatalf("expected raw date and label, got %+v", f)
	}
}

func TestFormattedBillJSONUsesDisplayFields(t *testing.T) {
	f, _ := Bill{Date: "2001-01-01", Status: StatusAccepted}.Format()
	data, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"date":"1 Janv. 01"`) || !strings.Contains(string(data), `"status":"Accepté"`) {
		t.Fatalf("unexpected json: %s", data)
	}
}

func TestBillHasReceipt(t *testing.T) {
	if (Bill{FileURL: "https://x/y.png"}).HasReceipt() {
		t.Fatalf("partial receipt reference reported complete")
	}
	if !(Bill{FileURL: "https://x/y.png", FileName: "y.png"}).HasReceipt() {
		t.Fatalf("complete receipt reference not reported")
	}
}

func TestSession(t *testing.T) {
	s := NewSession(Employee, "johndoe@email.com", "azerty")
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"Employee","email":"johndoe@email.com","password":"azerty","status":"connected"}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
	if !s.IsConnected() {
		t.Fatalf("expected connected session")
	}
	if (Session{Type: "Guest", Status: StatusConnected}).IsConnected() {
		t.Fatalf("unknown user type must not be connected")
	}
}
