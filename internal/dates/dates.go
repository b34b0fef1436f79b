// Package dates turns YYYY-MM-DD query parameters into half-open UTC ranges.
package dates

import (
	"strings"
	"time"

	"github.com/FMABr/ducks-demo/internal/apierror"
)

const Layout = "2006-01-02"

// Open-ended ranking windows fall back to these bounds.
var (
	Floor   = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	Ceiling = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
)

// Range is [From, ToExclusive). A nil side is unbounded.
type Range struct {
	From        *time.Time
	ToExclusive *time.Time
}

// ParseDay parses value as a UTC calendar day. Empty input yields nil.
func ParseDay(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(Layout, value, time.UTC)
	if err != nil {
		return nil, apierror.Validation("%s must be a date formatted as YYYY-MM-DD, got %q", field, value)
	}
	return &t, nil
}

// ParseRange parses inclusive from/to days. The upper bound becomes midnight of
// the day after to, so every instant of the to day is included.
func ParseRange(from, to string) (Range, error) {
	f, err := ParseDay("from", from)
	if err != nil {
		return Range{}, err
	}
	t, err := ParseDay("to", to)
	if err != nil {
		return Range{}, err
	}
	if f != nil && t != nil && f.After(*t) {
		return Range{}, apierror.Validation("from (%s) must not be after to (%s)", f.Format(Layout), t.Format(Layout))
	}

	r := Range{From: f}
	if t != nil {
		next := t.AddDate(0, 0, 1)
		r.ToExclusive = &next
	}
	return r, nil
}

// Bounds is ParseRange with the open sides replaced by Floor and Ceiling.
func Bounds(from, to string) (time.Time, time.Time, error) {
	r, err := ParseRange(from, to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	lo, hi := Floor, Ceiling
	if r.From != nil {
		lo = *r.From
	}
	if r.ToExclusive != nil {
		hi = *r.ToExclusive
	}
	return lo, hi, nil
}
