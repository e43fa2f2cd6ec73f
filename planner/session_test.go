package planner_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/fiscal-planner/planner"
	"github.com/warp/fiscal-planner/planner/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type recordedNote struct {
	Level   planner.Level
	Message string
}

type recorder struct {
	mu    sync.Mutex
	notes []recordedNote
}

func (r *recorder) Notify(level planner.Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, recordedNote{level, message})
}

func (r *recorder) count(level planner.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, note := range r.notes {
		if note.Level == level {
			n++
		}
	}
	return n
}

func newTestSession(t *testing.T) (*planner.Session, *store.Memory, *recorder) {
	t.Helper()
	src := store.NewMemory(store.FlatCapacity("8"))
	src.AddEntity(1, planner.RowDetail{Name: "Ada", HourlyRate: planner.MustParseDecimal("100")})
	src.AddEntity(2, planner.RowDetail{Name: "Grace", HourlyRate: planner.MustParseDecimal("80")})
	src.AddEntity(3, planner.RowDetail{Name: "Edsger", HourlyRate: planner.MustParseDecimal("90")})
	notes := &recorder{}
	return planner.NewSession(src, notes, nil), src, notes
}

func plan(id planner.PlanID) planner.PlanRef {
	return planner.PlanRef{ID: id, Name: "Plan", PopStart: "2024-01-01", PopEnd: "2024-02-29"}
}

var errUnavailable = errors.New("service unavailable")

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

// =============================================================================
// TABS
// =============================================================================

func TestSession_OpenTab(t *testing.T) {
	ctx := context.Background()
	s, src, _ := newTestSession(t)

	table, err := s.OpenTab(ctx, plan(1))
	require.NoError(t, err)
	assert.Equal(t, 60, table.Len())
	assert.Len(t, table.Periods(), 2)

	id, ok := s.ActiveID()
	assert.True(t, ok)
	assert.Equal(t, planner.PlanID(1), id)

	// Reopening just switches to the existing tab
	again, err := s.OpenTab(ctx, plan(1))
	require.NoError(t, err)
	assert.Same(t, table, again)
	assert.Equal(t, 1, src.Calls(store.OpFetchLookup))
}

func TestSession_OpenTabFailureKeepsPreviousTab(t *testing.T) {
	// GIVEN: plan 1 is open and active
	ctx := context.Background()
	s, src, notes := newTestSession(t)
	_, err := s.OpenTab(ctx, plan(1))
	require.NoError(t, err)

	// WHEN: opening plan 2 fails to fetch capacity
	src.Fail(store.OpFetchCapacity, errUnavailable)
	_, err = s.OpenTab(ctx, plan(2))

	// THEN: an initialization error is returned and reported
	require.Error(t, err)
	assert.ErrorIs(t, err, planner.ErrInitialization)
	assert.ErrorIs(t, err, errUnavailable)
	var initErr *planner.InitializationError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, planner.PlanID(2), initErr.PlanID)
	assert.Equal(t, 1, notes.count(planner.LevelDanger))

	// AND: plan 2 is not registered and plan 1 is still active
	assert.Equal(t, []planner.PlanID{1}, s.Tabs())
	id, _ := s.ActiveID()
	assert.Equal(t, planner.PlanID(1), id)
}

func TestSession_OpenTabRejectsInvalidPoP(t *testing.T) {
	s, _, _ := newTestSession(t)
	_, err := s.OpenTab(context.Background(), planner.PlanRef{ID: 1, PopStart: "2024-03-01", PopEnd: "2024-01-01"})
	assert.ErrorIs(t, err, planner.ErrInvalidPeriod)
	assert.Empty(t, s.Tabs())
}

func TestSession_SwitchAndCloseTabs(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t)
	for _, id := range []planner.PlanID{1, 2, 3} {
		_, err := s.OpenTab(ctx, plan(id))
		require.NoError(t, err)
	}

	require.NoError(t, s.SwitchTab(2))
	require.NoError(t, s.CloseTab(2))
	id, _ := s.ActiveID()
	assert.Equal(t, planner.PlanID(1), id)

	assert.ErrorIs(t, s.SwitchTab(2), planner.ErrTableNotFound)

	require.NoError(t, s.CloseTab(1))
	require.NoError(t, s.CloseTab(3))
	_, err := s.Totals()
	assert.ErrorIs(t, err, planner.ErrNoActiveTable)
}

// =============================================================================
// ROWS
// =============================================================================

func TestSession_AddRowsAllSettled(t *testing.T) {
	// GIVEN: entity 2 cannot be created on the service
	ctx := context.Background()
	s, src, notes := newTestSession(t)
	_, err := s.OpenTab(ctx, plan(1))
	require.NoError(t, err)
	src.FailEntity(2, errUnavailable)

	// WHEN: adding three entities at once
	results, err := s.AddRows(ctx, 1, []planner.EntityID{1, 2, 3})
	require.NoError(t, err)

	// THEN: every entity has its own outcome
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, planner.ErrInitialization)
	assert.ErrorIs(t, results[1].Err, errUnavailable)
	assert.NoError(t, results[2].Err)

	// AND: successes are registered, the failure is not rolled back into them
	table, err := s.Table(1)
	require.NoError(t, err)
	assert.True(t, table.HasRow(1))
	assert.False(t, table.HasRow(2))
	assert.True(t, table.HasRow(3))

	assert.Equal(t, 1, notes.count(planner.LevelDanger))
	assert.Equal(t, 1, notes.count(planner.LevelSuccess))

	// AND: rows were created with zero hours on the service
	saved, ok := src.Saved(1, 1)
	require.True(t, ok)
	assert.Len(t, saved, 60)
}

func TestSession_AddRowsRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t)
	_, err := s.OpenTab(ctx, plan(1))
	require.NoError(t, err)

	results, err := s.AddRows(ctx, 1, []planner.EntityID{1, 1})
	require.NoError(t, err)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, planner.ErrDuplicateRow)

	results, err = s.AddRows(ctx, 1, []planner.EntityID{1})
	require.NoError(t, err)
	assert.ErrorIs(t, results[0].Err, planner.ErrDuplicateRow)
}

func TestSession_RowsForClosedTabAreAbandoned(t *testing.T) {
	// GIVEN: row fetches are held in flight
	ctx := context.Background()
	s, src, _ := newTestSession(t)
	_, err := s.OpenTab(ctx, plan(1))
	require.NoError(t, err)
	src.Gate = make(chan struct{})

	done := make(chan []planner.RowResult)
	go func() {
		results, _ := s.AddRows(ctx, 1, []planner.EntityID{1})
		done <- results
	}()

	// WHEN: the tab is closed before the fetch completes
	require.Eventually(t, func() bool { return src.Calls(store.OpFetchRowHours) == 1 }, timeout, tick)
	require.NoError(t, s.CloseTab(1))
	close(src.Gate)

	// THEN: the result is discarded
	results := <-done
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, planner.ErrTableNotFound)
	assert.Nil(t, results[0].Row)
	assert.Empty(t, s.Tabs())
}

func TestSession_LoadRowsUsesStoredHours(t *testing.T) {
	ctx := context.Background()
	s, src, _ := newTestSession(t)
	src.SetRowHours(1, 1, map[string]planner.Decimal{
		"2024-01-02": planner.MustParseDecimal("6"),
		"2024-02-01": planner.MustParseDecimal("2.5"),
	})
	_, err := s.OpenTab(ctx, plan(1))
	require.NoError(t, err)

	results, err := s.LoadRows(ctx, 1, []planner.EntityID{1})
	require.NoError(t, err)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "Ada", results[0].Row.Name)

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, "8.50", totals.Hours.String())
	assert.Equal(t, "850.00", totals.Cost.String())
	assert.Equal(t, 0, src.Calls(store.OpCreateRow))
}

func TestSession_DeleteRow(t *testing.T) {
	ctx := context.Background()
	s, src, _ := newTestSession(t)
	_, err := s.OpenTab(ctx, plan(1))
	require.NoError(t, err)
	_, err = s.AddRows(ctx, 1, []planner.EntityID{1, 2})
	require.NoError(t, err)
	require.NoError(t, s.ResetRange(1, 2, "1", "2024-01-01", "2024-01-31"))

	// Remote failure leaves the row in place
	src.Fail(store.OpDeleteRow, errUnavailable)
	assert.ErrorIs(t, s.DeleteRow(ctx, 1, 2), errUnavailable)
	table, _ := s.Table(1)
	assert.True(t, table.HasRow(2))

	// Success removes it from the plan and from totals
	src.Fail(store.OpDeleteRow, nil)
	require.NoError(t, s.DeleteRow(ctx, 1, 2))
	assert.False(t, table.HasRow(2))
	_, ok := src.Saved(2, 1)
	assert.False(t, ok)

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.True(t, totals.Hours.IsZero())

	assert.ErrorIs(t, s.DeleteRow(ctx, 1, 2), planner.ErrRowNotFound)
}

// =============================================================================
// EDITS, CALENDAR & PERSISTENCE
// =============================================================================

func TestSession_RangeEditsRecomputeTotals(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t)
	_, err := s.OpenTab(ctx, plan(1))
	require.NoError(t, err)
	_, err = s.AddRows(ctx, 1, []planner.EntityID{1})
	require.NoError(t, err)

	var seen []planner.Totals
	s.OnTotals(func(tot planner.Totals) { seen = append(seen, tot) })

	require.NoError(t, s.ResetRange(1, 1, "0.5", "2024-01-01", "2024-01-31"))
	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, "124.00", totals.Hours.String())

	require.NoError(t, s.AdjustRange(1, 1, "0.10", "2024-01-01", "2024-01-31"))
	totals, err = s.Totals()
	require.NoError(t, err)
	assert.Equal(t, "136.40", totals.Hours.String())
	assert.Equal(t, "13640.00", totals.Cost.String())
	assert.Len(t, seen, 2)
}

func TestSession_MalformedInputIsReported(t *testing.T) {
	ctx := context.Background()
	s, _, notes := newTestSession(t)
	_, err := s.OpenTab(ctx, plan(1))
	require.NoError(t, err)
	_, err = s.AddRows(ctx, 1, []planner.EntityID{1})
	require.NoError(t, err)

	assert.ErrorIs(t, s.AdjustRange(1, 1, "ten", "2024-01-01", "2024-01-31"), planner.ErrMalformedNumber)
	assert.ErrorIs(t, s.ResetRange(1, 1, "", "2024-01-01", "2024-01-31"), planner.ErrMalformedNumber)
	assert.ErrorIs(t, s.SetTargets(1, "x", "1"), planner.ErrMalformedNumber)
	assert.Equal(t, 3, notes.count(planner.LevelWarning))

	assert.ErrorIs(t, s.ResetRange(1, 9, "1", "2024-01-01", "2024-01-31"), planner.ErrRowNotFound)
}

func TestSession_RejectedRangeEditIsReported(t *testing.T) {
	// GIVEN: a row with hours in January
	ctx := context.Background()
	s, _, notes := newTestSession(t)
	_, err := s.OpenTab(ctx, plan(1))
	require.NoError(t, err)
	_, err = s.AddRows(ctx, 1, []planner.EntityID{1})
	require.NoError(t, err)
	require.NoError(t, s.ResetRange(1, 1, "1", "2024-01-01", "2024-01-31"))

	// WHEN: editing with the dates the wrong way round
	errReset := s.ResetRange(1, 1, "0.5", "2024-02-10", "2024-01-05")
	errAdjust := s.AdjustRange(1, 1, "0.10", "2024-02-10", "2024-01-05")

	// THEN: both edits fail, each with a danger notice, and totals are unchanged
	assert.ErrorIs(t, errReset, planner.ErrIndexOutOfRange)
	assert.ErrorIs(t, errAdjust, planner.ErrIndexOutOfRange)
	assert.Equal(t, 2, notes.count(planner.LevelDanger))

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, "248.00", totals.Hours.String())
}

func TestSession_CalendarAndSave(t *testing.T) {
	// GIVEN: a PoP starting mid-January
	ctx := context.Background()
	s, src, notes := newTestSession(t)
	_, err := s.OpenTab(ctx, planner.PlanRef{ID: 1, PopStart: "2024-01-25", PopEnd: "2024-02-29"})
	require.NoError(t, err)
	_, err = s.AddRows(ctx, 1, []planner.EntityID{1})
	require.NoError(t, err)

	// WHEN: viewing the January calendar
	view, err := s.Calendar(1, 1, "202401")
	require.NoError(t, err)

	// THEN: only the PoP days of January are shown
	require.Len(t, view.Days, 7)
	assert.Equal(t, "2024-01-25", view.Days[0].Date)
	assert.Equal(t, "Thu", view.Days[0].Weekday)
	assert.Equal(t, "8.00", view.Days[0].Capacity.String())

	// WHEN: saving values for those seven days
	values := []string{"8", "8", "0", "0", "7.5", "7.5", "4"}
	require.NoError(t, s.SaveCalendar(ctx, 1, 1, "202401", values))

	// THEN: the plan and the service both hold the new hours
	view, err = s.Calendar(1, 1, "202401")
	require.NoError(t, err)
	assert.Equal(t, "35.00", view.Hours.String())

	saved, ok := src.Saved(1, 1)
	require.True(t, ok)
	assert.Equal(t, "7.50", saved["2024-01-29"].String())
	assert.Len(t, saved, 36)

	// AND: a grid of the wrong size is rejected, reported, and not written
	saves := src.Calls(store.OpSaveHours)
	err = s.SaveCalendar(ctx, 1, 1, "202401", values[:6])
	assert.ErrorIs(t, err, planner.ErrRangeLengthMismatch)
	assert.Equal(t, 1, notes.count(planner.LevelDanger))
	assert.Equal(t, saves, src.Calls(store.OpSaveHours))
	view, err = s.Calendar(1, 1, "202401")
	require.NoError(t, err)
	assert.Equal(t, "35.00", view.Hours.String())

	_, err = s.Calendar(1, 1, "209912")
	assert.ErrorIs(t, err, planner.ErrPeriodNotFound)
}

func TestSession_SaveRowFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	s, src, notes := newTestSession(t)
	_, err := s.OpenTab(ctx, plan(1))
	require.NoError(t, err)
	_, err = s.AddRows(ctx, 1, []planner.EntityID{1})
	require.NoError(t, err)
	require.NoError(t, s.ResetRange(1, 1, "1", "2024-01-01", "2024-01-01"))

	src.Fail(store.OpSaveHours, errUnavailable)
	assert.ErrorIs(t, s.SaveRow(ctx, 1, 1), errUnavailable)
	assert.Equal(t, 1, notes.count(planner.LevelDanger))

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, "8.00", totals.Hours.String())

	src.Fail(store.OpSaveHours, nil)
	require.NoError(t, s.SaveRow(ctx, 1, 1))
	saved, _ := src.Saved(1, 1)
	assert.Equal(t, "8.00", saved["2024-01-01"].String())
}

func TestSession_SetTargets(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSession(t)
	_, err := s.OpenTab(ctx, planner.PlanRef{
		ID: 1, PopStart: "2024-01-01", PopEnd: "2024-01-31",
		TargetHours: planner.MustParseDecimal("100"),
	})
	require.NoError(t, err)
	_, err = s.AddRows(ctx, 1, []planner.EntityID{2})
	require.NoError(t, err)
	require.NoError(t, s.ResetRange(1, 2, "0.25", "2024-01-01", "2024-01-31"))

	totals, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, "38.00", totals.RemainingHours.String())

	require.NoError(t, s.SetTargets(1, "62", "5000"))
	totals, err = s.Totals()
	require.NoError(t, err)
	assert.True(t, totals.RemainingHours.IsZero())
	assert.Equal(t, "40.00", totals.RemainingCost.String())

	other, err := s.TotalsFor(1)
	require.NoError(t, err)
	assert.True(t, other.Hours.Equal(totals.Hours))
}
