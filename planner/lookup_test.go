package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPeriod(t *testing.T, start, end string) Period {
	t.Helper()
	p, err := NewPeriod(start, end)
	require.NoError(t, err)
	return p
}

func TestDateIndex_RoundTrip(t *testing.T) {
	// GIVEN: a PoP spanning a leap day
	di := DateIndexForPeriod(mustPeriod(t, "2024-02-27", "2024-03-02"))

	// THEN: every index maps back to its date and vice versa
	require.Equal(t, 5, di.Len())
	assert.Equal(t, []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02"}, di.Dates())
	for i := 0; i < di.Len(); i++ {
		date, err := di.Date(i)
		require.NoError(t, err)
		got, ok := di.IndexOf(date)
		assert.True(t, ok)
		assert.Equal(t, i, got)
	}
	assert.Equal(t, "2024-02-27", di.First())
	assert.Equal(t, "2024-03-02", di.Last())

	_, err := di.Date(5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestDateIndex_Clamping(t *testing.T) {
	di := DateIndexForPeriod(mustPeriod(t, "2024-01-01", "2024-01-31"))

	// Known dates resolve exactly
	assert.Equal(t, 9, di.ResolveStart("2024-01-10"))
	assert.Equal(t, 9, di.ResolveEnd("2024-01-10"))

	// Unknown starts clamp to 0, unknown ends to N-1
	assert.Equal(t, 0, di.ResolveStart("2023-12-01"))
	assert.Equal(t, 30, di.ResolveEnd("2024-02-29"))

	// Clamping applies to any absent date, not only out-of-PoP ones
	assert.Equal(t, 0, di.ResolveStart("2024-03-15"))
	assert.Equal(t, 30, di.ResolveEnd("2023-06-01"))
	assert.Equal(t, 0, di.ResolveStart("not-a-date"))
}

func TestNewDateIndex_AcceptsServedLookup(t *testing.T) {
	di, err := NewDateIndex(map[string]int{
		"2024-01-02": 1,
		"2024-01-01": 0,
		"2024-01-03": 2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, di.Dates())
}

func TestNewDateIndex_RejectsInvalidLookups(t *testing.T) {
	cases := map[string]map[string]int{
		"empty":        {},
		"out of range": {"2024-01-01": 0, "2024-01-02": 5},
		"duplicate":    {"2024-01-01": 0, "2024-01-02": 0},
		"gap":          {"2024-01-01": 0, "2024-01-03": 1},
		"disordered":   {"2024-01-02": 0, "2024-01-01": 1},
		"bad date":     {"2024-13-01": 0},
	}
	for name, lookup := range cases {
		_, err := NewDateIndex(lookup)
		assert.ErrorIs(t, err, ErrInvalidLookup, name)
	}
}

func TestFiscalMonthsCovering_WholeMonths(t *testing.T) {
	// GIVEN: a PoP that starts and ends mid-month
	p := mustPeriod(t, "2024-01-15", "2024-03-10")
	flat := func(Date) Decimal { return NewDecimalFromInt(8) }

	// WHEN: computing fiscal periods
	periods := FiscalMonthsCovering(p, flat)

	// THEN: whole months are returned with full-month capacity
	require.Len(t, periods, 3)
	assert.Equal(t, "202401", periods[0].Key)
	assert.Equal(t, "Jan-2024", periods[0].Label)
	assert.Equal(t, "2024-01-01", periods[0].StartDate)
	assert.Equal(t, "2024-01-31", periods[0].EndDate)
	assert.Equal(t, "248.00", periods[0].CapacityHours.String())
	assert.Equal(t, "2024-02-29", periods[1].EndDate)
	assert.Equal(t, "232.00", periods[1].CapacityHours.String())
	assert.Equal(t, "Mar-2024", periods[2].Label)
}

func TestSchedule_HoursOn(t *testing.T) {
	mon := NewDate(2024, 1, 1) // Monday, ISO week 1
	fri1 := NewDate(2024, 1, 5)
	fri2 := NewDate(2024, 1, 12)
	sat := NewDate(2024, 1, 6)

	assert.Equal(t, "8.00", Schedule540.HoursOn(mon).String())
	assert.Equal(t, "8.00", Schedule540.HoursOn(fri1).String())
	assert.True(t, Schedule540.HoursOn(sat).IsZero())

	assert.Equal(t, "10.00", Schedule410.HoursOn(mon).String())
	assert.True(t, Schedule410.HoursOn(fri1).IsZero())

	assert.Equal(t, "9.00", Schedule980A.HoursOn(mon).String())
	assert.True(t, Schedule980A.HoursOn(fri1).IsZero())
	assert.Equal(t, "8.00", Schedule980A.HoursOn(fri2).String())
	assert.Equal(t, "8.00", Schedule980B.HoursOn(fri1).String())
	assert.True(t, Schedule980B.HoursOn(fri2).IsZero())

	_, err := ParseSchedule("6/30")
	assert.Error(t, err)
}

func TestSchedule_NineEightyAlternatesAcrossYearEnd(t *testing.T) {
	// GIVEN: consecutive Fridays around a year with 53 ISO weeks
	fridays := []Date{
		NewDate(2026, 12, 18),
		NewDate(2026, 12, 25),
		NewDate(2027, 1, 1),
		NewDate(2027, 1, 8),
		NewDate(2027, 1, 15),
	}

	// WHEN: reading 9/80A hours
	var got []string
	for _, f := range fridays {
		got = append(got, Schedule980A.HoursOn(f).String())
	}

	// THEN: days off keep alternating week by week
	assert.Equal(t, []string{"0.00", "8.00", "0.00", "8.00", "0.00"}, got)
	for _, f := range fridays {
		assert.Equal(t, "8.00", Schedule980A.HoursOn(f).Add(Schedule980B.HoursOn(f)).String(), f.String())
	}

	// AND: the cadence holds before the first pay period too
	assert.Equal(t, "8.00", Schedule980A.HoursOn(NewDate(2023, 12, 29)).String())
	assert.True(t, Schedule980A.HoursOn(NewDate(2023, 12, 22)).IsZero())
}
