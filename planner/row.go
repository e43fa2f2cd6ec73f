package planner

// =============================================================================
// IDENTIFIERS
// =============================================================================

// PlanID identifies a plan table (one tab).
type PlanID int64

// EntityID identifies a planned entity, usually an employee.
type EntityID int64

// =============================================================================
// PLAN ROW - One entity's per-day hour allocation
// =============================================================================

// RowDetail is the descriptive data the hours service keeps for a row.
type RowDetail struct {
	Name       string  `json:"name"`
	HourlyRate Decimal `json:"hourly_rate"`
}

// PlanRow is a dense series of allocated hours for one entity within one
// plan, aligned 1:1 with its table's DateIndex. It is mutated in place by
// the table's range operations.
type PlanRow struct {
	EntityID   EntityID
	PlanID     PlanID
	Name       string
	HourlyRate Decimal

	hours []Decimal
}

// NewPlanRow copies hours into a new row.
func NewPlanRow(entityID EntityID, planID PlanID, detail RowDetail, hours []Decimal) *PlanRow {
	h := make([]Decimal, len(hours))
	copy(h, hours)
	return &PlanRow{
		EntityID:   entityID,
		PlanID:     planID,
		Name:       detail.Name,
		HourlyRate: detail.HourlyRate,
		hours:      h,
	}
}

// Len returns the number of days in the row.
func (r *PlanRow) Len() int { return len(r.hours) }

// Get returns the hours stored at index i.
func (r *PlanRow) Get(i int) (Decimal, error) {
	if err := checkRange(i, i, len(r.hours)); err != nil {
		return Zero, err
	}
	return r.hours[i], nil
}

// Set overwrites the hours stored at index i.
func (r *PlanRow) Set(i int, v Decimal) error {
	if err := checkRange(i, i, len(r.hours)); err != nil {
		return err
	}
	r.hours[i] = v
	return nil
}

// SumRange returns the sum over the inclusive index range.
func (r *PlanRow) SumRange(start, end int) (Decimal, error) {
	if err := checkRange(start, end, len(r.hours)); err != nil {
		return Zero, err
	}
	return Sum(r.hours[start : end+1]...), nil
}

// Values returns a copy of the whole series.
func (r *PlanRow) Values() []Decimal {
	out := make([]Decimal, len(r.hours))
	copy(out, r.hours)
	return out
}
