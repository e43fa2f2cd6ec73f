package planner

// CapacitySeries holds the productive hours available per day of a PoP,
// index-aligned with the owning table's DateIndex. It is read-only after
// load and shared by every row of the table.
type CapacitySeries struct {
	hours []Decimal
}

// NewCapacitySeries copies hours into a new series.
func NewCapacitySeries(hours []Decimal) CapacitySeries {
	h := make([]Decimal, len(hours))
	copy(h, hours)
	return CapacitySeries{hours: h}
}

func (c CapacitySeries) Len() int { return len(c.hours) }

// At returns the capacity at index i.
func (c CapacitySeries) At(i int) (Decimal, error) {
	if err := checkRange(i, i, len(c.hours)); err != nil {
		return Zero, err
	}
	return c.hours[i], nil
}

// Sum returns the total capacity over the inclusive index range.
func (c CapacitySeries) Sum(start, end int) (Decimal, error) {
	if err := checkRange(start, end, len(c.hours)); err != nil {
		return Zero, err
	}
	return Sum(c.hours[start : end+1]...), nil
}

// Values returns a copy of the series.
func (c CapacitySeries) Values() []Decimal {
	out := make([]Decimal, len(c.hours))
	copy(out, c.hours)
	return out
}

func checkRange(start, end, n int) error {
	if start < 0 || end >= n || start > end {
		return &IndexOutOfRangeError{Start: start, End: end, Len: n}
	}
	return nil
}
