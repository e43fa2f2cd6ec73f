/*
table.go - Plan table: one tab of a labor plan

PURPOSE:

	A PlanTable owns the date lookup and the capacity series of a period of
	performance, the fiscal periods used as aggregation columns, and the rows
	(one per planned entity). Range operations take ISO dates, resolve them
	through the lookup's clamping policy, and delegate per-index math to the
	row.

RANGE OPERATIONS:

	ResetRange:  hours = m x capacity       (overwrite with a share of capacity)
	AdjustRange: hours = m x current hours  (m already offset by +1.0)
	GetRange:    slice of current values    (calendar grid)
	UpdateRange: bulk overwrite, length must match the resolved span exactly
	SumRange:    decimal sum of the resolved span

	Every operation validates the resolved index range before writing, so a
	failed call leaves the row untouched.

SEE ALSO:
  - lookup.go: ResolveStart / ResolveEnd clamping
  - aggregate.go: folds a table into totals
*/
package planner

import (
	"fmt"
)

// PlanTable is one plan's grid of rows over its period of performance.
type PlanTable struct {
	ID       PlanID
	PopStart string
	PopEnd   string

	lookup   *DateIndex
	capacity CapacitySeries
	periods  []FiscalPeriod

	rows  map[EntityID]*PlanRow
	order []EntityID
}

// NewPlanTable assembles a table from its fetched lookup, capacity series
// and fiscal periods. The capacity series must be index-aligned with the
// lookup.
func NewPlanTable(id PlanID, popStart, popEnd string, lookup *DateIndex, capacity []Decimal, periods []FiscalPeriod) (*PlanTable, error) {
	if lookup == nil {
		return nil, fmt.Errorf("%w: missing lookup", ErrInvalidLookup)
	}
	if len(capacity) != lookup.Len() {
		return nil, fmt.Errorf("%w: capacity series has %d values, lookup has %d dates",
			ErrInvalidLookup, len(capacity), lookup.Len())
	}
	for _, p := range periods {
		if lookup.ResolveStart(p.StartDate) > lookup.ResolveEnd(p.EndDate) {
			return nil, fmt.Errorf("%w: fiscal period %s %s..%s resolves backwards",
				ErrInvalidPeriod, p.Key, p.StartDate, p.EndDate)
		}
	}

	ps := make([]FiscalPeriod, len(periods))
	copy(ps, periods)

	return &PlanTable{
		ID:       id,
		PopStart: popStart,
		PopEnd:   popEnd,
		lookup:   lookup,
		capacity: NewCapacitySeries(capacity),
		periods:  ps,
		rows:     make(map[EntityID]*PlanRow),
	}, nil
}

// Len returns N, the number of days in the table's PoP.
func (t *PlanTable) Len() int { return t.lookup.Len() }

func (t *PlanTable) Lookup() *DateIndex       { return t.lookup }
func (t *PlanTable) Capacity() CapacitySeries { return t.capacity }

// Periods returns a copy of the fiscal period columns.
func (t *PlanTable) Periods() []FiscalPeriod {
	out := make([]FiscalPeriod, len(t.periods))
	copy(out, t.periods)
	return out
}

// Period returns the fiscal period with the given key.
func (t *PlanTable) Period(key string) (FiscalPeriod, error) {
	for _, p := range t.periods {
		if p.Key == key {
			return p, nil
		}
	}
	return FiscalPeriod{}, fmt.Errorf("%w: %s in plan %d", ErrPeriodNotFound, key, t.ID)
}

// =============================================================================
// ROWS
// =============================================================================

// AddRow registers a row. The row must belong to this plan and match its N.
func (t *PlanTable) AddRow(row *PlanRow) error {
	if row.PlanID != t.ID {
		return fmt.Errorf("row %d belongs to plan %d, not %d", row.EntityID, row.PlanID, t.ID)
	}
	if row.Len() != t.Len() {
		return fmt.Errorf("%w: row %d has %d days, plan %d has %d",
			ErrInvalidLookup, row.EntityID, row.Len(), t.ID, t.Len())
	}
	if _, exists := t.rows[row.EntityID]; exists {
		return fmt.Errorf("%w: entity %d in plan %d", ErrDuplicateRow, row.EntityID, t.ID)
	}
	t.rows[row.EntityID] = row
	t.order = append(t.order, row.EntityID)
	return nil
}

// RemoveRow drops a row; its data is not retained.
func (t *PlanTable) RemoveRow(id EntityID) error {
	if _, ok := t.rows[id]; !ok {
		return fmt.Errorf("%w: entity %d in plan %d", ErrRowNotFound, id, t.ID)
	}
	delete(t.rows, id)
	for i, e := range t.order {
		if e == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

// Row returns the row for an entity.
func (t *PlanTable) Row(id EntityID) (*PlanRow, error) {
	row, ok := t.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: entity %d in plan %d", ErrRowNotFound, id, t.ID)
	}
	return row, nil
}

// HasRow reports whether an entity is already planned in this table.
func (t *PlanTable) HasRow(id EntityID) bool {
	_, ok := t.rows[id]
	return ok
}

// Rows returns the rows in the order they were added.
func (t *PlanTable) Rows() []*PlanRow {
	out := make([]*PlanRow, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

// =============================================================================
// RANGE OPERATIONS
// =============================================================================

// resolve maps a date range to an index range and checks it against row.
func (t *PlanTable) resolve(startDate, endDate string, row *PlanRow) (int, int, error) {
	start := t.lookup.ResolveStart(startDate)
	end := t.lookup.ResolveEnd(endDate)
	if row.Len() != t.Len() {
		return 0, 0, &IndexOutOfRangeError{Start: start, End: end, Len: row.Len()}
	}
	if err := checkRange(start, end, t.Len()); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// ResetRange sets every day in range to m x capacity.
func (t *PlanTable) ResetRange(m Decimal, startDate, endDate string, row *PlanRow) error {
	start, end, err := t.resolve(startDate, endDate, row)
	if err != nil {
		return err
	}
	for i := start; i <= end; i++ {
		row.hours[i] = m.Mul(t.capacity.hours[i])
	}
	return nil
}

// AdjustRange sets every day in range to m x its current value. Callers
// pass 1 + change, so a multiplier of 1.10 means +10% and 1.00 is a no-op.
func (t *PlanTable) AdjustRange(m Decimal, startDate, endDate string, row *PlanRow) error {
	start, end, err := t.resolve(startDate, endDate, row)
	if err != nil {
		return err
	}
	for i := start; i <= end; i++ {
		row.hours[i] = m.Mul(row.hours[i])
	}
	return nil
}

// GetRange returns the current values in range, in date order.
func (t *PlanTable) GetRange(startDate, endDate string, row *PlanRow) ([]Decimal, error) {
	start, end, err := t.resolve(startDate, endDate, row)
	if err != nil {
		return nil, err
	}
	out := make([]Decimal, end-start+1)
	copy(out, row.hours[start:end+1])
	return out, nil
}

// UpdateRange overwrites the range with values. The number of values must
// equal the resolved span exactly; nothing is written otherwise.
func (t *PlanTable) UpdateRange(startDate, endDate string, row *PlanRow, values []Decimal) error {
	start, end, err := t.resolve(startDate, endDate, row)
	if err != nil {
		return err
	}
	if span := end - start + 1; span != len(values) {
		return &RangeLengthMismatchError{StartDate: startDate, EndDate: endDate, Expected: span, Got: len(values)}
	}
	copy(row.hours[start:end+1], values)
	return nil
}

// SumRange returns the decimal sum of the row over the range.
func (t *PlanTable) SumRange(startDate, endDate string, row *PlanRow) (Decimal, error) {
	start, end, err := t.resolve(startDate, endDate, row)
	if err != nil {
		return Zero, err
	}
	return row.SumRange(start, end)
}

// CapacitySum returns the productive hours available over the range.
func (t *PlanTable) CapacitySum(startDate, endDate string) (Decimal, error) {
	return t.capacity.Sum(t.lookup.ResolveStart(startDate), t.lookup.ResolveEnd(endDate))
}

// Snapshot returns the row as a date -> hours map over the whole PoP, the
// shape the hours service persists.
func (t *PlanTable) Snapshot(row *PlanRow) (map[string]Decimal, error) {
	start, end, err := t.resolve(t.lookup.First(), t.lookup.Last(), row)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Decimal, end-start+1)
	for i := start; i <= end; i++ {
		out[t.lookup.dates[i]] = row.hours[i]
	}
	return out, nil
}
