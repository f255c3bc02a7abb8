package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ISODate is the layout of bill dates on the wire.
const ISODate = "2006-01-02"

var shortMonths = [12]string{
	"Janv.", "Févr.", "Mars", "Avr.", "Mai", "Juin",
	"Juil.", "Août", "Sept.", "Oct.", "Nov.", "Déc.",
}

// FormatDate turns an ISO date into its short display form, e.g. "2004-04-04" -> "4 Avr. 04".
func FormatDate(iso string) (string, error) {
	t, err := time.Parse(ISODate, strings.TrimSpace(iso))
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidDate, iso, err)
	}
	return fmt.Sprintf("%d %s %02d", t.Day(), shortMonths[t.Month()-1], t.Year()%100), nil
}

// ParseDisplayDate is the inverse of FormatDate. Two-digit years are read as 20YY.
// Raw ISO dates are accepted too, since unparseable-at-format-time values stay raw.
func ParseDisplayDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(ISODate, s); err == nil {
		return t, nil
	}

	parts := strings.Fields(s)
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w %q", ErrInvalidDate, s)
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: bad day", ErrInvalidDate, s)
	}
	month := 0
	for i, m := range shortMonths {
		if strings.EqualFold(m, parts[1]) {
			month = i + 1
			break
		}
	}
	if month == 0 {
		return time.Time{}, fmt.Errorf("%w %q: bad month", ErrInvalidDate, s)
	}
	yy, err := strconv.Atoi(parts[2])
	if err != nil || yy < 0 || yy > 99 {
		return time.Time{}, fmt.Errorf("%w %q: bad year", ErrInvalidDate, s)
	}

	t := time.Date(2000+yy, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("%w %q: day out of range", ErrInvalidDate, s)
	}
	return t, nil
}
