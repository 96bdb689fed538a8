// Package period models the calendar year-month a usage report covers
package period

import (
	"fmt"
	"time"

	perr "harvester/internal/platform/errors"
)

// Period is one reporting period, a calendar year plus month. Immutable value
type Period struct {
	year  int
	month time.Month
}

// Of returns the period containing t (in t's location)
func Of(t time.Time) Period {
	return Period{year: t.Year(), month: t.Month()}
}

// Current returns the period containing the current time in UTC
func Current() Period { return Of(nowUTC()) }

// seam for tests
var nowUTC = func() time.Time { return time.Now().UTC() }

// Parse parses "YYYY-MM" into a Period
func Parse(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, perr.Wrapf(err, perr.ErrorCodeValidation, "invalid period %q, want YYYY-MM", s)
	}
	return Period{year: t.Year(), month: t.Month()}, nil
}

// MustParse parses "YYYY-MM" and panics on failure. For literals in tests and wiring
func MustParse(s string) Period {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String renders "YYYY-MM"
func (p Period) String() string { return fmt.Sprintf("%04d-%02d", p.year, int(p.month)) }

// Next returns the following calendar month
func (p Period) Next() Period {
	t := time.Date(p.year, p.month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return Period{year: t.Year(), month: t.Month()}
}

// FirstDay renders the first calendar day as "YYYY-MM-01"
func (p Period) FirstDay() string {
	return time.Date(p.year, p.month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

// LastDay renders the last calendar day, leap-aware
func (p Period) LastDay() string {
	t := time.Date(p.year, p.month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	return t.Format("2006-01-02")
}

// Before reports whether p precedes o
func (p Period) Before(o Period) bool {
	return p.year < o.year || (p.year == o.year && p.month < o.month)
}

// After reports whether p follows o
func (p Period) After(o Period) bool { return o.Before(p) }

// IsZero reports whether p is the zero value
func (p Period) IsZero() bool { return p.year == 0 && p.month == 0 }

// Range enumerates [start, end] ascending, inclusive on both ends.
// Returns nil when end precedes start
func Range(start, end Period) []Period {
	if end.Before(start) {
		return nil
	}
	var out []Period
	for p := start; !p.After(end); p = p.Next() {
		out = append(out, p)
	}
	return out
}
