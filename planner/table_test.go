package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func flatCapacity(hours string) func(Date) Decimal {
	h := MustParseDecimal(hours)
	return func(Date) Decimal { return h }
}

// newTestTable builds a table over [start, end] with the same capacity every
// day and one fiscal period per calendar month.
func newTestTable(t *testing.T, id PlanID, start, end, capacity string) *PlanTable {
	t.Helper()
	p := mustPeriod(t, start, end)
	capFn := flatCapacity(capacity)

	days := p.Days()
	series := make([]Decimal, len(days))
	for i, d := range days {
		series[i] = capFn(d)
	}

	table, err := NewPlanTable(id, start, end, DateIndexForPeriod(p), series, FiscalMonthsCovering(p, capFn))
	require.NoError(t, err)
	return table
}

func addTestRow(t *testing.T, table *PlanTable, id EntityID, rate string) *PlanRow {
	t.Helper()
	row := NewPlanRow(id, table.ID, RowDetail{Name: "emp", HourlyRate: MustParseDecimal(rate)}, make([]Decimal, table.Len()))
	require.NoError(t, table.AddRow(row))
	return row
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

func TestNewPlanTable_RejectsMisalignedCapacity(t *testing.T) {
	di := DateIndexForPeriod(mustPeriod(t, "2024-01-01", "2024-01-10"))

	_, err := NewPlanTable(1, "2024-01-01", "2024-01-10", di, make([]Decimal, 9), nil)
	assert.ErrorIs(t, err, ErrInvalidLookup)

	_, err = NewPlanTable(1, "2024-01-01", "2024-01-10", nil, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidLookup)
}

func TestNewPlanTable_RejectsBackwardsPeriod(t *testing.T) {
	di := DateIndexForPeriod(mustPeriod(t, "2024-01-01", "2024-01-10"))
	bad := []FiscalPeriod{{Key: "x", StartDate: "2024-01-08", EndDate: "2024-01-03"}}

	_, err := NewPlanTable(1, "2024-01-01", "2024-01-10", di, make([]Decimal, 10), bad)
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestPlanTable_AddRow(t *testing.T) {
	table := newTestTable(t, 1, "2024-01-01", "2024-01-31", "8")
	addTestRow(t, table, 10, "100")

	// Duplicate entity
	dup := NewPlanRow(10, 1, RowDetail{}, make([]Decimal, table.Len()))
	assert.ErrorIs(t, table.AddRow(dup), ErrDuplicateRow)

	// Wrong length
	short := NewPlanRow(11, 1, RowDetail{}, make([]Decimal, 5))
	assert.ErrorIs(t, table.AddRow(short), ErrInvalidLookup)

	// Wrong plan
	other := NewPlanRow(12, 2, RowDetail{}, make([]Decimal, table.Len()))
	assert.Error(t, table.AddRow(other))

	assert.Len(t, table.Rows(), 1)
}

// =============================================================================
// RANGE OPERATIONS
// =============================================================================

func TestResetRange_HalfTimeJanuary(t *testing.T) {
	// GIVEN: PoP 2024-01-01..2024-02-29 with 8h capacity every day
	table := newTestTable(t, 1, "2024-01-01", "2024-02-29", "8")
	row := addTestRow(t, table, 10, "100")

	// WHEN: resetting January to 50% of capacity
	require.NoError(t, table.ResetRange(MustParseDecimal("0.5"), "2024-01-01", "2024-01-31", row))

	// THEN: January sums to 31 x 4.00 and February is untouched
	jan, err := table.SumRange("2024-01-01", "2024-01-31", row)
	require.NoError(t, err)
	assert.Equal(t, "124.00", jan.String())

	feb, err := table.SumRange("2024-02-01", "2024-02-29", row)
	require.NoError(t, err)
	assert.True(t, feb.IsZero())
}

func TestResetRange_FullShareEqualsCapacity(t *testing.T) {
	table := newTestTable(t, 1, "2024-03-01", "2024-03-31", "7.5")
	row := addTestRow(t, table, 10, "100")

	require.NoError(t, table.ResetRange(MustParseDecimal("1"), "2024-03-04", "2024-03-08", row))

	got, err := table.GetRange("2024-03-04", "2024-03-08", row)
	require.NoError(t, err)
	require.Len(t, got, 5)
	for i, v := range got {
		want, err := table.Capacity().At(3 + i)
		require.NoError(t, err)
		assert.True(t, v.Equal(want))
	}
}

func TestAdjustRange_TenPercentIncrease(t *testing.T) {
	// GIVEN: January holds 100.00 hours
	table := newTestTable(t, 1, "2024-01-01", "2024-02-29", "8")
	row := addTestRow(t, table, 10, "100")
	require.NoError(t, row.Set(0, MustParseDecimal("60")))
	require.NoError(t, row.Set(15, MustParseDecimal("40")))

	// WHEN: adjusting January by +10%
	m, err := AdjustMultiplier("0.10")
	require.NoError(t, err)
	require.NoError(t, table.AdjustRange(m, "2024-01-01", "2024-01-31", row))

	// THEN: January is 110.00
	jan, err := table.SumRange("2024-01-01", "2024-01-31", row)
	require.NoError(t, err)
	assert.Equal(t, "110.00", jan.String())
}

func TestAdjustRange_IdentityIsNoop(t *testing.T) {
	table := newTestTable(t, 1, "2024-01-01", "2024-01-31", "8")
	row := addTestRow(t, table, 10, "100")
	require.NoError(t, table.ResetRange(MustParseDecimal("0.33"), "2024-01-01", "2024-01-31", row))
	before := row.Values()

	m, err := AdjustMultiplier("0")
	require.NoError(t, err)
	require.NoError(t, table.AdjustRange(m, "2024-01-01", "2024-01-31", row))

	after := row.Values()
	for i := range before {
		assert.True(t, before[i].Equal(after[i]), "index %d", i)
	}
}

func TestRangeOperations_ClampOutsidePoP(t *testing.T) {
	// GIVEN: a PoP from mid-January to mid-February
	table := newTestTable(t, 1, "2024-01-15", "2024-02-14", "8")
	row := addTestRow(t, table, 10, "100")

	// WHEN: resetting the full January fiscal month
	require.NoError(t, table.ResetRange(MustParseDecimal("1"), "2024-01-01", "2024-01-31", row))

	// THEN: only the 17 January days inside the PoP are written
	jan, err := table.SumRange("2024-01-01", "2024-01-31", row)
	require.NoError(t, err)
	assert.Equal(t, "136.00", jan.String())

	// AND: a range that ends past the PoP clamps to N-1
	all, err := table.SumRange("2024-01-15", "2024-12-31", row)
	require.NoError(t, err)
	assert.Equal(t, "136.00", all.String())
}

func TestUpdateRange_LengthMismatch(t *testing.T) {
	table := newTestTable(t, 1, "2024-01-01", "2024-01-31", "8")
	row := addTestRow(t, table, 10, "100")
	seven := []Decimal{
		MustParseDecimal("1"), MustParseDecimal("2"), MustParseDecimal("3"),
		MustParseDecimal("4"), MustParseDecimal("5"), MustParseDecimal("6"), MustParseDecimal("7"),
	}

	// Too short
	err := table.UpdateRange("2024-01-01", "2024-01-08", row, seven)
	var mismatch *RangeLengthMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 8, mismatch.Expected)
	assert.Equal(t, 7, mismatch.Got)
	assert.True(t, IsDefect(err))

	// Too long
	err = table.UpdateRange("2024-01-01", "2024-01-06", row, seven)
	assert.ErrorIs(t, err, ErrRangeLengthMismatch)

	// Nothing written by either failure
	sum, err := table.SumRange("2024-01-01", "2024-01-31", row)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())

	// Exact length succeeds
	require.NoError(t, table.UpdateRange("2024-01-01", "2024-01-07", row, seven))
	got, err := table.GetRange("2024-01-01", "2024-01-07", row)
	require.NoError(t, err)
	assert.Equal(t, "28.00", Sum(got...).String())
}

func TestRangeOperations_BackwardsRangeIsOutOfRange(t *testing.T) {
	table := newTestTable(t, 1, "2024-01-01", "2024-01-31", "8")
	row := addTestRow(t, table, 10, "100")

	err := table.ResetRange(MustParseDecimal("1"), "2024-01-20", "2024-01-10", row)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	sum, err := table.SumRange("2024-01-01", "2024-01-31", row)
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
}

func TestPlanRow_IndexBounds(t *testing.T) {
	row := NewPlanRow(1, 1, RowDetail{}, make([]Decimal, 3))

	_, err := row.Get(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.ErrorIs(t, row.Set(-1, Zero), ErrIndexOutOfRange)
	_, err = row.SumRange(2, 1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSnapshot_CoversWholePoP(t *testing.T) {
	table := newTestTable(t, 1, "2024-01-01", "2024-01-10", "8")
	row := addTestRow(t, table, 10, "100")
	require.NoError(t, table.ResetRange(MustParseDecimal("0.5"), "2024-01-03", "2024-01-03", row))

	snap, err := table.Snapshot(row)
	require.NoError(t, err)
	assert.Len(t, snap, 10)
	assert.Equal(t, "4.00", snap["2024-01-03"].String())
	assert.True(t, snap["2024-01-10"].IsZero())
}
