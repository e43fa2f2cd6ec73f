/*
aggregate.go - Period and plan-wide totals for a plan table

PURPOSE:

	Folds every row of a table over every fiscal period column, producing
	hours, cost and FTE per column, per-row cells, and grand totals.

FORMULAS:

	column hours   = sum over rows of hours(row, period)
	column cost    = sum over rows of hours(row, period) x row hourly rate
	column FTE     = column hours / period capacity hours
	grand hours    = sum of column hours
	grand cost     = sum of column costs

	Grand totals are folded from the column totals, never recomputed from
	the rows, so the displayed grand total always equals the sum of the
	displayed columns.

	Period capacity is the CapacityHours figure attached to the column.
	When a column carries none, the table's capacity series over the
	resolved range is used. A column with zero capacity has zero FTE.

RECOMPUTATION:

	Not incremental. Every call re-folds all rows and periods; tables hold
	tens of rows and tens of columns.
*/
package planner

import "fmt"

// PeriodTotal is one aggregation column.
type PeriodTotal struct {
	Key           string  `json:"fiscal_period"`
	Label         string  `json:"display_name"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	CapacityHours Decimal `json:"capacity_hours"`
	Hours         Decimal `json:"hours"`
	Cost          Decimal `json:"cost"`
	FTE           Decimal `json:"fte"`
}

// RowTotal is one row's cells across the columns.
type RowTotal struct {
	EntityID   EntityID  `json:"emp_id"`
	Name       string    `json:"name"`
	HourlyRate Decimal   `json:"hourly_rate"`
	Periods    []Decimal `json:"periods"`
	Hours      Decimal   `json:"hours"`
	Cost       Decimal   `json:"cost"`
}

// Totals is the aggregated view of a plan table.
type Totals struct {
	PlanID  PlanID        `json:"plan_id"`
	Periods []PeriodTotal `json:"periods"`
	Rows    []RowTotal    `json:"rows"`
	Hours   Decimal       `json:"hours"`
	Cost    Decimal       `json:"cost"`

	// Targets are optional user-entered goals; Remaining = Target - total.
	TargetHours    Decimal `json:"target_hours"`
	TargetCost     Decimal `json:"target_cost"`
	RemainingHours Decimal `json:"remaining_hours"`
	RemainingCost  Decimal `json:"remaining_cost"`
}

// Aggregate recomputes all totals of t.
func Aggregate(t *PlanTable) (Totals, error) {
	rows := t.Rows()
	totals := Totals{
		PlanID:  t.ID,
		Periods: make([]PeriodTotal, len(t.periods)),
		Rows:    make([]RowTotal, len(rows)),
	}

	for r, row := range rows {
		totals.Rows[r] = RowTotal{
			EntityID:   row.EntityID,
			Name:       row.Name,
			HourlyRate: row.HourlyRate,
			Periods:    make([]Decimal, len(t.periods)),
		}
	}

	for p, period := range t.periods {
		col := PeriodTotal{
			Key:       period.Key,
			Label:     period.Label,
			StartDate: period.StartDate,
			EndDate:   period.EndDate,
		}

		for r, row := range rows {
			hours, err := t.SumRange(period.StartDate, period.EndDate, row)
			if err != nil {
				return Totals{}, fmt.Errorf("summing %s for entity %d: %w", period.Key, row.EntityID, err)
			}
			cost := hours.Mul(row.HourlyRate)

			col.Hours = col.Hours.Add(hours)
			col.Cost = col.Cost.Add(cost)

			rt := &totals.Rows[r]
			rt.Periods[p] = hours
			rt.Hours = rt.Hours.Add(hours)
			rt.Cost = rt.Cost.Add(cost)
		}

		capacity := period.CapacityHours
		if capacity.IsZero() {
			c, err := t.CapacitySum(period.StartDate, period.EndDate)
			if err != nil {
				return Totals{}, fmt.Errorf("capacity for %s: %w", period.Key, err)
			}
			capacity = c
		}
		col.CapacityHours = capacity
		if !capacity.IsZero() {
			fte, err := col.Hours.Div(capacity)
			if err != nil {
				return Totals{}, err
			}
			col.FTE = fte
		}

		totals.Periods[p] = col
	}

	for _, col := range totals.Periods {
		totals.Hours = totals.Hours.Add(col.Hours)
		totals.Cost = totals.Cost.Add(col.Cost)
	}
	return totals, nil
}

// WithTargets returns totals with targets applied.
func (t Totals) WithTargets(hours, cost Decimal) Totals {
	t.TargetHours = hours
	t.TargetCost = cost
	t.RemainingHours = hours.Sub(t.Hours)
	t.RemainingCost = cost.Sub(t.Cost)
	return t
}
