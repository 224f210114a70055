// Package dates normalizes the heterogeneous date strings collectors produce
// into canonical calendar dates.
package dates

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidDate indicates a value that no known format could parse.
var ErrInvalidDate = errors.New("invalid date")

// Parser converts free-text date values into UTC-midnight calendar dates.
// The zero value uses US-style month-first resolution for ambiguous
// numeric dates; set DayFirst to prefer dd/MM over MM/dd.
type Parser struct {
	DayFirst bool
}

// ISO and RFC3339 are handled by the direct-parse pass; these cover the
// human formats observed in scraped listings, tried in priority order.
var monthFirstFormats = []string{
	"Jan 02 2006",
	"Jan 2 2006",
	"January 02 2006",
	"January 2 2006",
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"2006/01/02",
}

var dayFirstFormats = []string{
	"Jan 02 2006",
	"Jan 2 2006",
	"January 02 2006",
	"January 2 2006",
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
}

// Normalize parses a date string into a UTC-midnight calendar date. It tries
// a direct ISO/RFC3339 parse first, then each known human format in priority
// order, and returns ErrInvalidDate when everything fails.
func (p Parser) Normalize(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return midnight(t), nil
	}

	formats := monthFirstFormats
	if p.DayFirst {
		formats = dayFirstFormats
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t), nil
		}
	}

	return time.Time{}, ErrInvalidDate
}

// Normalize parses with the default month-first parser.
func Normalize(raw string) (time.Time, error) {
	return Parser{}.Normalize(raw)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
