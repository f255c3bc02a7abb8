package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"", 0, true},
		{"0", 0, true},
		{"0,00", 0, true},
		{"348", 34800, true},
		{"12.5", 1250, true},
		{"pasunemail", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok && (err != nil || got.Cents != tc.out) {
			t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	cases := []struct {
		m    Money
		want string
	}{
		{Money{Cents: 40000}, "400"},
		{Money{Cents: 1250}, "12.50"},
		{Money{Cents: 0}, "0"},
	}
	for _, tc := range cases {
		got, err := json.Marshal(tc.m)
		if err != nil || string(got) != tc.want {
			t.Fatalf("marshal %d: got %s (err=%v), want %s", tc.m.Cents, got, err, tc.want)
		}
	}

	for in, want := range map[string]int64{`348`: 34800, `"12,5"`: 1250, `null`: 0, `-3`: -300} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil || m.Cents != want {
			t.Fatalf("unmarshal %s: got %d (err=%v), want %d", in, m.Cents, err, want)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"abc"`), &m); err == nil {
		t.Fatalf("expected error for non numeric amount")
	}
}
