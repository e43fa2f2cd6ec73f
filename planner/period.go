package planner

import (
	"fmt"
	"strconv"
	"time"
)

// =============================================================================
// PERIOD - Inclusive date range (the PoP of a plan table)
// =============================================================================

// Period is an inclusive range of calendar days.
type Period struct {
	Start Date
	End   Date
}

// NewPeriod parses an ISO start/end pair. The end must not precede the start.
func NewPeriod(start, end string) (Period, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Period{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Period{}, err
	}
	if e.Before(s) {
		return Period{}, fmt.Errorf("%w: %s..%s", ErrInvalidPeriod, start, end)
	}
	return Period{Start: s, End: e}, nil
}

// Contains returns true if the day is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns every day in the period, in order.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Len returns the number of days in the period.
func (p Period) Len() int {
	return DaysBetween(p.Start, p.End) + 1
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// FISCAL PERIOD - Named aggregation column (a fiscal month)
// =============================================================================

// FiscalPeriod is a named sub-range used for aggregation columns. Its dates
// may extend past the PoP; they are clamped when resolved through a table's
// DateIndex. CapacityHours is the productive-hours figure for the whole
// period as supplied by the hours service.
type FiscalPeriod struct {
	Key           string  `json:"fiscal_period"` // YYYYMM
	Label         string  `json:"display_name"`  // Mon-YYYY
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	CapacityHours Decimal `json:"month_hours"`
}

var monthLabels = [...]string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// FiscalPeriodKey formats a fiscal year and month as YYYYMM.
func FiscalPeriodKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d%02d", year, int(month))
}

// FiscalPeriodLabel formats a fiscal year and month as a column name, e.g. "Mar-2024".
func FiscalPeriodLabel(year int, month time.Month) string {
	return monthLabels[month] + "-" + strconv.Itoa(year)
}

// FiscalMonthsCovering returns one fiscal period per calendar month that
// intersects p. Each period spans its whole month and carries the capacity
// summed by capacity over every day of that month.
func FiscalMonthsCovering(p Period, capacity func(Date) Decimal) []FiscalPeriod {
	var periods []FiscalPeriod
	month := StartOfMonth(p.Start.Year(), p.Start.Month())
	for month.BeforeOrEqual(p.End) {
		end := EndOfMonth(month.Year(), month.Month())
		total := Zero
		for _, d := range (Period{Start: month, End: end}).Days() {
			total = total.Add(capacity(d))
		}
		periods = append(periods, FiscalPeriod{
			Key:           FiscalPeriodKey(month.Year(), month.Month()),
			Label:         FiscalPeriodLabel(month.Year(), month.Month()),
			StartDate:     month.String(),
			EndDate:       end.String(),
			CapacityHours: total,
		})
		month = month.AddMonths(1)
	}
	return periods
}
