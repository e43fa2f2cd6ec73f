/*
session.go - UI-facing controller over the open plan tables

PURPOSE:

	A Session owns the TableSet and mediates every user action: opening and
	closing tabs, adding and deleting rows, range edits, the calendar grid,
	persisting rows, and plan targets. After each mutation the totals of the
	active table are recomputed.

CONCURRENCY:

	All table state is guarded by one mutex. Remote fetches run outside the
	lock; when a fetch returns, the table it was started for is looked up
	again and, if it was closed in the meantime, the result is dropped.

	OpenTab fetches capacity, lookup and fiscal periods concurrently. Any
	failure aborts the table: it is never registered and the active tab is
	left as it was.

	AddRows creates and initializes one row per entity concurrently and
	waits for all of them. Every entity gets its own result; failures do not
	roll back successes.

ERRORS:

	User-path failures (bad numbers, failed fetches, missing rows) are both
	reported through the Notifier and returned to the caller.

SEE ALSO:
  - tableset.go: tab bookkeeping
  - aggregate.go: totals
  - source.go: Source / Notifier ports
*/
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// PlanRef is what the session needs to open a plan as a tab.
type PlanRef struct {
	ID          PlanID
	Name        string
	PopStart    string
	PopEnd      string
	TargetHours Decimal
	TargetCost  Decimal
}

// RowResult is the outcome of initializing one row in a bulk add.
type RowResult struct {
	EntityID EntityID
	Row      *PlanRow
	Err      error
}

// CalendarDay is one cell of the calendar grid.
type CalendarDay struct {
	Date     string  `json:"date"`
	Weekday  string  `json:"weekday"`
	Hours    Decimal `json:"hours"`
	Capacity Decimal `json:"capacity"`
}

// CalendarView is one row's hours over one fiscal period, clamped to the PoP.
type CalendarView struct {
	PlanID   PlanID        `json:"plan_id"`
	EntityID EntityID      `json:"emp_id"`
	Name     string        `json:"name"`
	Period   FiscalPeriod  `json:"period"`
	Days     []CalendarDay `json:"days"`
	Hours    Decimal       `json:"hours"`
}

type targets struct {
	hours Decimal
	cost  Decimal
}

// Session is the controller behind the planning UI.
type Session struct {
	mu       sync.Mutex
	source   Source
	notifier Notifier
	log      *slog.Logger

	tables   *TableSet
	names    map[PlanID]string
	targets  map[PlanID]targets
	totals   Totals
	stale    error // set when the last recomputation failed
	onTotals func(Totals)
}

// NewSession creates a session with no open tabs. A nil logger uses
// slog.Default().
func NewSession(source Source, notifier Notifier, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{
		source:   source,
		notifier: notifier,
		log:      log.With("component", "session"),
		tables:   NewTableSet(),
		names:    make(map[PlanID]string),
		targets:  make(map[PlanID]targets),
	}
}

// OnTotals registers fn to receive the active table's totals after every
// recomputation. fn runs with the session lock held and must not call back
// into the session.
func (s *Session) OnTotals(fn func(Totals)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTotals = fn
}

// =============================================================================
// TABS
// =============================================================================

// OpenTab builds a table for plan and makes it the active tab. Opening a
// plan that is already open just switches to it.
func (s *Session) OpenTab(ctx context.Context, plan PlanRef) (*PlanTable, error) {
	if _, err := NewPeriod(plan.PopStart, plan.PopEnd); err != nil {
		s.notify(LevelDanger, fmt.Sprintf("Plan %d has an invalid period of performance", plan.ID))
		return nil, err
	}

	s.mu.Lock()
	if t, err := s.tables.Get(plan.ID); err == nil {
		s.activateLocked(plan.ID)
		s.mu.Unlock()
		return t, nil
	}
	s.mu.Unlock()

	t, err := s.buildTable(ctx, plan)
	if err != nil {
		s.log.Error("table initialization failed", "plan_id", plan.ID, "error", err)
		s.notify(LevelDanger, fmt.Sprintf("Could not open plan %d", plan.ID))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another OpenTab for the same plan may have won the race.
	if existing, err := s.tables.Get(plan.ID); err == nil {
		s.activateLocked(plan.ID)
		return existing, nil
	}
	if err := s.tables.Register(t); err != nil {
		return nil, err
	}
	s.names[plan.ID] = plan.Name
	s.targets[plan.ID] = targets{hours: plan.TargetHours, cost: plan.TargetCost}
	s.activateLocked(plan.ID)

	s.log.Info("plan opened", "plan_id", plan.ID, "days", t.Len(), "periods", len(t.periods))
	return t, nil
}

func (s *Session) buildTable(ctx context.Context, plan PlanRef) (*PlanTable, error) {
	var (
		capacity []Decimal
		lookup   map[string]int
		periods  []FiscalPeriod
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		capacity, err = s.source.FetchCapacity(gctx, plan.PopStart, plan.PopEnd)
		if err != nil {
			return fmt.Errorf("fetching capacity: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		lookup, err = s.source.FetchLookup(gctx, plan.PopStart, plan.PopEnd)
		if err != nil {
			return fmt.Errorf("fetching date lookup: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		periods, err = s.source.FetchPeriods(gctx, plan.PopStart, plan.PopEnd)
		if err != nil {
			return fmt.Errorf("fetching fiscal periods: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, &InitializationError{Kind: "table", PlanID: plan.ID, Err: err}
	}

	index, err := NewDateIndex(lookup)
	if err != nil {
		return nil, &InitializationError{Kind: "table", PlanID: plan.ID, Err: err}
	}
	t, err := NewPlanTable(plan.ID, plan.PopStart, plan.PopEnd, index, capacity, periods)
	if err != nil {
		return nil, &InitializationError{Kind: "table", PlanID: plan.ID, Err: err}
	}
	return t, nil
}

// SwitchTab activates an open plan.
func (s *Session) SwitchTab(id PlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.tables.Get(id); err != nil {
		return err
	}
	s.activateLocked(id)
	return nil
}

// CloseTab closes a plan. In-flight fetches for it are discarded when they
// complete.
func (s *Session) CloseTab(id PlanID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.tables.Close(id); err != nil {
		return err
	}
	delete(s.names, id)
	delete(s.targets, id)
	if next, ok := s.tables.ActiveID(); ok {
		s.activateLocked(next)
	} else {
		s.totals = Totals{}
	}
	s.log.Info("plan closed", "plan_id", id)
	return nil
}

// Tabs returns the open plan ids in tab order.
func (s *Session) Tabs() []PlanID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables.IDs()
}

// ActiveID returns the active plan id.
func (s *Session) ActiveID() (PlanID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables.ActiveID()
}

// Table returns an open table.
func (s *Session) Table(id PlanID) (*PlanTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tables.Get(id)
}

func (s *Session) activateLocked(id PlanID) {
	// id was checked by every caller
	_ = s.tables.Activate(id)
	s.recomputeLocked()
}

// =============================================================================
// ROWS
// =============================================================================

// AddRows creates a row for each entity on the service and loads it into
// the plan. Entities already in the plan fail with ErrDuplicateRow.
func (s *Session) AddRows(ctx context.Context, planID PlanID, entityIDs []EntityID) ([]RowResult, error) {
	return s.loadRows(ctx, planID, entityIDs, true)
}

// LoadRows loads rows that already exist on the service into the plan.
func (s *Session) LoadRows(ctx context.Context, planID PlanID, entityIDs []EntityID) ([]RowResult, error) {
	return s.loadRows(ctx, planID, entityIDs, false)
}

func (s *Session) loadRows(ctx context.Context, planID PlanID, entityIDs []EntityID, create bool) ([]RowResult, error) {
	s.mu.Lock()
	t, err := s.tables.Get(planID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	results := make([]RowResult, len(entityIDs))
	seen := make(map[EntityID]bool, len(entityIDs))
	for i, id := range entityIDs {
		results[i].EntityID = id
		if t.HasRow(id) || seen[id] {
			results[i].Err = fmt.Errorf("%w: entity %d in plan %d", ErrDuplicateRow, id, planID)
		}
		seen[id] = true
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		wg.Add(1)
		go func(r *RowResult) {
			defer wg.Done()
			if create {
				if err := s.source.CreateRow(ctx, r.EntityID, planID, t.PopStart, t.PopEnd); err != nil {
					r.Err = &InitializationError{Kind: "row", PlanID: planID, EntityID: r.EntityID,
						Err: fmt.Errorf("creating row: %w", err)}
					return
				}
			}
			r.Row, r.Err = s.initRow(ctx, t, r.EntityID)
		}(&results[i])
	}
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tables.Holds(t) {
		s.log.Warn("plan closed while rows were loading", "plan_id", planID)
		for i := range results {
			if results[i].Err == nil {
				results[i].Row = nil
				results[i].Err = fmt.Errorf("%w: plan %d was closed", ErrTableNotFound, planID)
			}
		}
		return results, nil
	}

	added := 0
	for i := range results {
		r := &results[i]
		if r.Err == nil {
			if err := t.AddRow(r.Row); err != nil {
				r.Row, r.Err = nil, err
			}
		}
		if r.Err != nil {
			s.log.Error("row initialization failed", "plan_id", planID, "emp_id", r.EntityID, "error", r.Err)
			s.notifyLocked(LevelDanger, fmt.Sprintf("Could not add entity %d to plan %d", r.EntityID, planID))
			continue
		}
		added++
	}
	if added > 0 {
		s.notifyLocked(LevelSuccess, fmt.Sprintf("Added %d row(s) to plan %d", added, planID))
		s.recomputeIfActiveLocked(planID)
	}
	return results, nil
}

func (s *Session) initRow(ctx context.Context, t *PlanTable, entityID EntityID) (*PlanRow, error) {
	var (
		hours  []Decimal
		detail RowDetail
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hours, err = s.source.FetchRowHours(gctx, entityID, t.ID, t.PopStart, t.PopEnd)
		if err != nil {
			return fmt.Errorf("fetching hours: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		detail, err = s.source.FetchRowDetail(gctx, entityID, t.ID)
		if err != nil {
			return fmt.Errorf("fetching row detail: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, &InitializationError{Kind: "row", PlanID: t.ID, EntityID: entityID, Err: err}
	}

	if len(hours) != t.Len() {
		return nil, &InitializationError{Kind: "row", PlanID: t.ID, EntityID: entityID,
			Err: fmt.Errorf("%w: got %d days of hours, plan has %d", ErrInvalidLookup, len(hours), t.Len())}
	}
	return NewPlanRow(entityID, t.ID, detail, hours), nil
}

// DeleteRow removes a row on the service, then from the plan.
func (s *Session) DeleteRow(ctx context.Context, planID PlanID, entityID EntityID) error {
	s.mu.Lock()
	t, err := s.tables.Get(planID)
	if err == nil {
		_, err = t.Row(entityID)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.source.DeleteRow(ctx, entityID, planID); err != nil {
		s.log.Error("row delete failed", "plan_id", planID, "emp_id", entityID, "error", err)
		s.notify(LevelDanger, fmt.Sprintf("Could not delete entity %d from plan %d", entityID, planID))
		return fmt.Errorf("deleting row %d: %w", entityID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tables.Holds(t) {
		return nil
	}
	if err := t.RemoveRow(entityID); err != nil && !errors.Is(err, ErrRowNotFound) {
		return err
	}
	s.notifyLocked(LevelSuccess, fmt.Sprintf("Removed entity %d from plan %d", entityID, planID))
	s.recomputeIfActiveLocked(planID)
	return nil
}

// =============================================================================
// RANGE EDITS
// =============================================================================

// ResetRange sets the row's hours in range to share x capacity. share is
// user input such as "0.5" for half time.
func (s *Session) ResetRange(planID PlanID, entityID EntityID, share, startDate, endDate string) error {
	m, err := ParseDecimal(share)
	if err != nil {
		s.notify(LevelWarning, fmt.Sprintf("%q is not a number", share))
		return err
	}
	return s.editRange(planID, entityID, func(t *PlanTable, row *PlanRow) error {
		return t.ResetRange(m, startDate, endDate, row)
	})
}

// AdjustRange scales the row's hours in range by 1 + change. change is user
// input such as "0.10" for +10% or "-0.25" for -25%.
func (s *Session) AdjustRange(planID PlanID, entityID EntityID, change, startDate, endDate string) error {
	m, err := AdjustMultiplier(change)
	if err != nil {
		s.notify(LevelWarning, fmt.Sprintf("%q is not a number", change))
		return err
	}
	return s.editRange(planID, entityID, func(t *PlanTable, row *PlanRow) error {
		return t.AdjustRange(m, startDate, endDate, row)
	})
}

func (s *Session) editRange(planID PlanID, entityID EntityID, edit func(*PlanTable, *PlanRow) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, row, err := s.rowLocked(planID, entityID)
	if err != nil {
		return err
	}
	if err := edit(t, row); err != nil {
		s.log.Error("range edit failed", "plan_id", planID, "emp_id", entityID, "error", err)
		s.notifyLocked(LevelDanger, fmt.Sprintf("Could not update hours for %s: %v", row.Name, err))
		return err
	}
	s.recomputeIfActiveLocked(planID)
	return nil
}

// =============================================================================
// CALENDAR
// =============================================================================

// Calendar returns the day grid of one row over one fiscal period.
func (s *Session) Calendar(planID PlanID, entityID EntityID, periodKey string) (CalendarView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, row, err := s.rowLocked(planID, entityID)
	if err != nil {
		return CalendarView{}, err
	}
	period, err := t.Period(periodKey)
	if err != nil {
		return CalendarView{}, err
	}

	start := t.lookup.ResolveStart(period.StartDate)
	end := t.lookup.ResolveEnd(period.EndDate)
	if err := checkRange(start, end, t.Len()); err != nil {
		return CalendarView{}, err
	}

	view := CalendarView{
		PlanID:   planID,
		EntityID: entityID,
		Name:     row.Name,
		Period:   period,
		Days:     make([]CalendarDay, 0, end-start+1),
	}
	for i := start; i <= end; i++ {
		date := t.lookup.dates[i]
		d, err := ParseDate(date)
		if err != nil {
			return CalendarView{}, err
		}
		view.Days = append(view.Days, CalendarDay{
			Date:     date,
			Weekday:  d.Weekday().String()[:3],
			Hours:    row.hours[i],
			Capacity: t.capacity.hours[i],
		})
		view.Hours = view.Hours.Add(row.hours[i])
	}
	return view, nil
}

// SaveCalendar writes user-entered values over one fiscal period and
// persists the row. values must cover the period's days within the PoP
// exactly.
func (s *Session) SaveCalendar(ctx context.Context, planID PlanID, entityID EntityID, periodKey string, values []string) error {
	parsed := make([]Decimal, len(values))
	for i, v := range values {
		d, err := ParseDecimal(v)
		if err != nil {
			s.notify(LevelWarning, fmt.Sprintf("%q is not a number", v))
			return err
		}
		parsed[i] = d
	}

	s.mu.Lock()
	t, row, err := s.rowLocked(planID, entityID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	period, err := t.Period(periodKey)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := t.UpdateRange(period.StartDate, period.EndDate, row, parsed); err != nil {
		s.log.Error("calendar update rejected", "plan_id", planID, "emp_id", entityID, "period", periodKey, "error", err)
		s.notifyLocked(LevelDanger, fmt.Sprintf("Could not save the %s calendar for %s: %v", period.Label, row.Name, err))
		s.mu.Unlock()
		return err
	}
	s.recomputeIfActiveLocked(planID)
	s.mu.Unlock()

	return s.SaveRow(ctx, planID, entityID)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// SaveRow persists the row's full PoP to the service. The in-memory row
// stays authoritative whether or not the save succeeds.
func (s *Session) SaveRow(ctx context.Context, planID PlanID, entityID EntityID) error {
	s.mu.Lock()
	t, row, err := s.rowLocked(planID, entityID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot, err := t.Snapshot(row)
	name := row.Name
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.source.SaveHours(ctx, entityID, planID, snapshot); err != nil {
		s.log.Error("saving hours failed", "plan_id", planID, "emp_id", entityID, "error", err)
		s.notify(LevelDanger, fmt.Sprintf("Could not save hours for %s", name))
		return fmt.Errorf("saving row %d: %w", entityID, err)
	}
	s.notify(LevelSuccess, fmt.Sprintf("Saved hours for %s", name))
	return nil
}

// =============================================================================
// TOTALS & TARGETS
// =============================================================================

// SetTargets sets a plan's target hours and cost from user input.
func (s *Session) SetTargets(planID PlanID, hours, cost string) error {
	h, err := ParseDecimal(hours)
	if err != nil {
		s.notify(LevelWarning, fmt.Sprintf("%q is not a number", hours))
		return err
	}
	c, err := ParseDecimal(cost)
	if err != nil {
		s.notify(LevelWarning, fmt.Sprintf("%q is not a number", cost))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.tables.Get(planID); err != nil {
		return err
	}
	s.targets[planID] = targets{hours: h, cost: c}
	s.recomputeIfActiveLocked(planID)
	return nil
}

// Totals returns the last computed totals of the active table, or the
// error that stopped the last recomputation.
func (s *Session) Totals() (Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tables.ActiveID(); !ok {
		return Totals{}, ErrNoActiveTable
	}
	if s.stale != nil {
		return Totals{}, s.stale
	}
	return s.totals, nil
}

// TotalsFor aggregates any open plan, active or not.
func (s *Session) TotalsFor(planID PlanID) (Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.tables.Get(planID)
	if err != nil {
		return Totals{}, err
	}
	totals, err := Aggregate(t)
	if err != nil {
		return Totals{}, err
	}
	tg := s.targets[planID]
	return totals.WithTargets(tg.hours, tg.cost), nil
}

func (s *Session) recomputeIfActiveLocked(planID PlanID) {
	if active, ok := s.tables.ActiveID(); ok && active == planID {
		s.recomputeLocked()
	}
}

func (s *Session) recomputeLocked() {
	id, ok := s.tables.ActiveID()
	if !ok {
		return
	}
	totals, err := s.tables.Totals()
	if err != nil {
		s.log.Error("aggregation failed", "plan_id", id, "error", err)
		s.totals = Totals{}
		s.stale = fmt.Errorf("totals for plan %d: %w", id, err)
		s.notifyLocked(LevelDanger, fmt.Sprintf("Could not compute totals for plan %d", id))
		return
	}
	tg := s.targets[id]
	s.totals = totals.WithTargets(tg.hours, tg.cost)
	s.stale = nil
	if s.onTotals != nil {
		s.onTotals(s.totals)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Session) rowLocked(planID PlanID, entityID EntityID) (*PlanTable, *PlanRow, error) {
	t, err := s.tables.Get(planID)
	if err != nil {
		return nil, nil, err
	}
	row, err := t.Row(entityID)
	if err != nil {
		return nil, nil, err
	}
	return t, row, nil
}

func (s *Session) notify(level Level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyLocked(level, message)
}

func (s *Session) notifyLocked(level Level, message string) {
	if s.notifier != nil {
		s.notifier.Notify(level, message)
	}
}
