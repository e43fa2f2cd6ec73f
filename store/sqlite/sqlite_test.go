package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fiscal-planner/planner"
	"github.com/warp/fiscal-planner/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// seedPlan creates a calendar for Jan-Feb 2024, one employee on grade 5
// (131/h) and one plan over 2024-01-15..2024-02-14.
func seedPlan(t *testing.T, store *sqlite.Store) (empID, planID int64) {
	t.Helper()
	ctx := context.Background()

	n, err := store.SeedCalendar(ctx, "2024-01-01", "2024-02-29", planner.Schedule540)
	require.NoError(t, err)
	require.Equal(t, 60, n)

	empID, err = store.SaveEmployee(ctx, sqlite.Employee{Name: "Ada", CompensationID: 5})
	require.NoError(t, err)

	planID, err = store.SavePlan(ctx, sqlite.Plan{
		Name: "Alpha", PopStart: "2024-01-15", PopEnd: "2024-02-14",
		TargetHours: planner.MustParseDecimal("300"),
	})
	require.NoError(t, err)
	return empID, planID
}

func TestCalendar_ProdHoursAndIndexAlign(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, err := store.SeedCalendar(ctx, "2024-01-01", "2024-01-31", planner.Schedule410)
	require.NoError(t, err)

	hours, err := store.ProdHours(ctx, "2024-01-01", "2024-01-07")
	require.NoError(t, err)
	index, err := store.ProdHoursIndex(ctx, "2024-01-01", "2024-01-07")
	require.NoError(t, err)

	// Mon-Thu 10h, Fri-Sun off
	require.Len(t, hours, 7)
	assert.Equal(t, "10.00", hours[0].String())
	assert.True(t, hours[4].IsZero())
	assert.Equal(t, 0, index["2024-01-01"])
	assert.Equal(t, 6, index["2024-01-07"])

	// The index is accepted by the engine as-is
	di, err := planner.NewDateIndex(index)
	require.NoError(t, err)
	assert.Equal(t, len(hours), di.Len())
}

func TestCalendar_ReseedOverwrites(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, err := store.SeedCalendar(ctx, "2024-01-01", "2024-01-31", planner.Schedule540)
	require.NoError(t, err)
	_, err = store.SeedCalendar(ctx, "2024-01-05", "2024-01-05", planner.Schedule410)
	require.NoError(t, err)

	hours, err := store.ProdHours(ctx, "2024-01-05", "2024-01-05")
	require.NoError(t, err)
	require.Len(t, hours, 1)
	assert.True(t, hours[0].IsZero())

	_, err = store.SeedCalendar(ctx, "2024-02-01", "2024-01-01", planner.Schedule540)
	assert.ErrorIs(t, err, planner.ErrInvalidPeriod)
}

func TestFiscalPeriods_CoverWholeMonths(t *testing.T) {
	// GIVEN: a 5/40 calendar for Jan-Feb 2024
	ctx := context.Background()
	store := newTestStore(t)
	_, err := store.SeedCalendar(ctx, "2024-01-01", "2024-02-29", planner.Schedule540)
	require.NoError(t, err)

	// WHEN: asking for periods of a range that starts mid-January
	periods, err := store.FiscalPeriods(ctx, "2024-01-15", "2024-02-10")
	require.NoError(t, err)

	// THEN: both months are returned whole, with full-month capacity
	require.Len(t, periods, 2)
	assert.Equal(t, "202401", periods[0].Key)
	assert.Equal(t, "Jan-2024", periods[0].Label)
	assert.Equal(t, "2024-01-01", periods[0].StartDate)
	assert.Equal(t, "2024-01-31", periods[0].EndDate)
	assert.Equal(t, "184.00", periods[0].CapacityHours.String()) // 23 weekdays
	assert.Equal(t, "2024-02-29", periods[1].EndDate)
	assert.Equal(t, "168.00", periods[1].CapacityHours.String()) // 21 weekdays
}

func TestPlanRow_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	empID, planID := seedPlan(t, store)

	// Init writes a zero for each PoP day
	n, err := store.InitPlanRow(ctx, empID, planID, "2024-01-15", "2024-02-14")
	require.NoError(t, err)
	assert.Equal(t, int64(31), n)

	_, err = store.InitPlanRow(ctx, empID, planID, "2024-01-15", "2024-02-14")
	assert.ErrorIs(t, err, sqlite.ErrRowExists)

	// Update and read back
	require.NoError(t, store.UpdatePlanRow(ctx, empID, planID, map[string]planner.Decimal{
		"2024-01-15": planner.MustParseDecimal("7.25"),
		"2024-02-14": planner.MustParseDecimal("0.33"),
	}))
	hours, err := store.PlanHours(ctx, empID, planID, "2024-01-15", "2024-02-14")
	require.NoError(t, err)
	require.Len(t, hours, 31)
	assert.Equal(t, "7.25", hours[0].String())
	assert.Equal(t, "0.33", hours[30].String())
	assert.Equal(t, "7.58", planner.Sum(hours...).String())

	// Detail carries the grade's rate
	detail, err := store.RowDetail(ctx, empID, planID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", detail.Name)
	assert.Equal(t, "131.00", detail.HourlyRate.String())

	ids, err := store.PlanEntities(ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, []int64{empID}, ids)

	// Delete
	require.NoError(t, store.DeletePlanRow(ctx, empID, planID))
	assert.ErrorIs(t, store.DeletePlanRow(ctx, empID, planID), sqlite.ErrNotFound)
	_, err = store.RowDetail(ctx, empID, planID)
	assert.ErrorIs(t, err, sqlite.ErrNotFound)
}

func TestPlanHours_MissingDaysReadAsZero(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	empID, planID := seedPlan(t, store)

	hours, err := store.PlanHours(ctx, empID, planID, "2024-01-01", "2024-01-10")
	require.NoError(t, err)
	require.Len(t, hours, 10)
	assert.True(t, planner.Sum(hours...).IsZero())
}

func TestInitPlanRow_Errors(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	empID, planID := seedPlan(t, store)

	_, err := store.InitPlanRow(ctx, empID, planID, "2030-01-01", "2030-01-31")
	assert.ErrorIs(t, err, sqlite.ErrNoCalendar)

	_, err = store.InitPlanRow(ctx, 999, planID, "2024-01-15", "2024-02-14")
	assert.ErrorIs(t, err, sqlite.ErrNotFound)

	err = store.UpdatePlanRow(ctx, empID, planID, map[string]planner.Decimal{"01/02/2024": planner.Zero})
	assert.ErrorIs(t, err, planner.ErrInvalidDate)
}

func TestPlans(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	_, planID := seedPlan(t, store)

	p, err := store.GetPlan(ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", p.Name)
	assert.Equal(t, "300.00", p.TargetHours.String())

	p.TargetCost = planner.MustParseDecimal("45000.50")
	_, err = store.SavePlan(ctx, *p)
	require.NoError(t, err)

	plans, err := store.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "45000.50", plans[0].TargetCost.String())

	_, err = store.GetPlan(ctx, 42)
	assert.ErrorIs(t, err, sqlite.ErrNotFound)

	_, err = store.SavePlan(ctx, sqlite.Plan{Name: "Bad", PopStart: "2024-02-01", PopEnd: "2024-01-01"})
	assert.ErrorIs(t, err, planner.ErrInvalidPeriod)
}

func TestEmployeesAndCompensation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	grades, err := store.ListCompensation(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, grades)

	compID, err := store.SaveCompensation(ctx, sqlite.Compensation{
		ResourceCode: "L_TEST", Grade: "TST01", HourlyRate: planner.MustParseDecimal("99.99"),
	})
	require.NoError(t, err)

	id, err := store.SaveEmployee(ctx, sqlite.Employee{Name: "Grace", CompensationID: compID, Schedule: planner.Schedule980A})
	require.NoError(t, err)

	emp, err := store.GetEmployee(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, compID, emp.CompensationID)
	assert.Equal(t, planner.Schedule980A, emp.Schedule)

	_, err = store.SaveEmployee(ctx, sqlite.Employee{Name: "Nobody", CompensationID: 4242})
	assert.ErrorIs(t, err, sqlite.ErrNotFound)

	_, err = store.GetEmployee(ctx, 4242)
	assert.ErrorIs(t, err, sqlite.ErrNotFound)

	require.NoError(t, store.Reset(ctx))
	employees, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, employees)
}
