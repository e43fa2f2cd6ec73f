package planner

import (
	"fmt"
	"maps"
)

// =============================================================================
// DATE INDEX - Ordered PoP calendar and date -> position mapping
// =============================================================================

// DateIndex maps ISO dates of a period of performance to zero-based
// positions. The mapping is a bijection onto 0..N-1 and index order equals
// date order. It is immutable once built.
type DateIndex struct {
	dates []string
	index map[string]int
}

// NewDateIndex builds a DateIndex from a date -> index mapping as served by
// the hours service. The mapping must be dense, contiguous and ordered.
func NewDateIndex(lookup map[string]int) (*DateIndex, error) {
	n := len(lookup)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty lookup", ErrInvalidLookup)
	}

	dates := make([]string, n)
	for date, i := range lookup {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("%w: %s maps to %d, outside [0, %d]", ErrInvalidLookup, date, i, n-1)
		}
		if dates[i] != "" {
			return nil, fmt.Errorf("%w: %s and %s both map to %d", ErrInvalidLookup, dates[i], date, i)
		}
		dates[i] = date
	}

	prev, err := ParseDate(dates[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLookup, err)
	}
	for i := 1; i < n; i++ {
		cur, err := ParseDate(dates[i])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLookup, err)
		}
		if !cur.Equal(prev.AddDays(1)) {
			return nil, fmt.Errorf("%w: %s at %d does not follow %s", ErrInvalidLookup, dates[i], i, dates[i-1])
		}
		prev = cur
	}

	return &DateIndex{dates: dates, index: maps.Clone(lookup)}, nil
}

// DateIndexForPeriod builds the dense calendar of p.
func DateIndexForPeriod(p Period) *DateIndex {
	days := p.Days()
	di := &DateIndex{
		dates: make([]string, len(days)),
		index: make(map[string]int, len(days)),
	}
	for i, d := range days {
		s := d.String()
		di.dates[i] = s
		di.index[s] = i
	}
	return di
}

// Len returns N, the number of days in the lookup.
func (di *DateIndex) Len() int { return len(di.dates) }

// First returns the first date of the lookup.
func (di *DateIndex) First() string { return di.dates[0] }

// Last returns the last date of the lookup.
func (di *DateIndex) Last() string { return di.dates[len(di.dates)-1] }

// IndexOf returns the position of date, or false if the date is not part of
// the lookup.
func (di *DateIndex) IndexOf(date string) (int, bool) {
	i, ok := di.index[date]
	return i, ok
}

// ResolveStart returns the index of date, clamping any date that is not in
// the lookup to 0. Range starts routinely fall before the PoP (a fiscal month
// that began earlier) and must not fail the caller.
func (di *DateIndex) ResolveStart(date string) int {
	if i, ok := di.index[date]; ok {
		return i
	}
	return 0
}

// ResolveEnd returns the index of date, clamping any date that is not in the
// lookup to N-1.
func (di *DateIndex) ResolveEnd(date string) int {
	if i, ok := di.index[date]; ok {
		return i
	}
	return len(di.dates) - 1
}

// Date returns the ISO date at position i.
func (di *DateIndex) Date(i int) (string, error) {
	if i < 0 || i >= len(di.dates) {
		return "", &IndexOutOfRangeError{Start: i, End: i, Len: len(di.dates)}
	}
	return di.dates[i], nil
}

// Dates returns a copy of the ordered calendar.
func (di *DateIndex) Dates() []string {
	out := make([]string, len(di.dates))
	copy(out, di.dates)
	return out
}

// Lookup returns a copy of the date -> index mapping.
func (di *DateIndex) Lookup() map[string]int {
	return maps.Clone(di.index)
}
