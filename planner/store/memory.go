// Package store provides in-process planner.Source implementations.
package store

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/warp/fiscal-planner/planner"
)

// =============================================================================
// MEMORY SOURCE - In-memory hours service (for testing/dev)
// =============================================================================

// Op names a Source operation, for failure injection.
type Op string

const (
	OpFetchCapacity  Op = "fetch_capacity"
	OpFetchLookup    Op = "fetch_lookup"
	OpFetchPeriods   Op = "fetch_periods"
	OpFetchRowHours  Op = "fetch_row_hours"
	OpFetchRowDetail Op = "fetch_row_detail"
	OpCreateRow      Op = "create_row"
	OpDeleteRow      Op = "delete_row"
	OpSaveHours      Op = "save_hours"
)

// Memory is a planner.Source backed by maps. Capacity is computed per day
// by a function, so any calendar can be modelled; rows are stored by date.
type Memory struct {
	mu       sync.RWMutex
	capacity func(planner.Date) planner.Decimal
	details  map[planner.EntityID]planner.RowDetail
	rows     map[key]map[string]planner.Decimal

	failOps      map[Op]error
	failEntities map[planner.EntityID]error
	calls        map[Op]int

	// Gate, when set, is received from before every row fetch returns.
	// Tests use it to hold fetches in flight.
	Gate chan struct{}
}

type key struct {
	EntityID planner.EntityID
	PlanID   planner.PlanID
}

// NewMemory creates a source whose daily capacity is given by capacity.
// A nil capacity uses the 5/40 schedule.
func NewMemory(capacity func(planner.Date) planner.Decimal) *Memory {
	if capacity == nil {
		capacity = planner.Schedule540.HoursOn
	}
	return &Memory{
		capacity:     capacity,
		details:      make(map[planner.EntityID]planner.RowDetail),
		rows:         make(map[key]map[string]planner.Decimal),
		failOps:      make(map[Op]error),
		failEntities: make(map[planner.EntityID]error),
		calls:        make(map[Op]int),
	}
}

// FlatCapacity returns a capacity function with the same hours every day.
func FlatCapacity(hours string) func(planner.Date) planner.Decimal {
	h := planner.MustParseDecimal(hours)
	return func(planner.Date) planner.Decimal { return h }
}

// =============================================================================
// SETUP & INSPECTION
// =============================================================================

// AddEntity registers the name and rate returned for an entity's rows.
func (m *Memory) AddEntity(id planner.EntityID, detail planner.RowDetail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details[id] = detail
}

// SetRowHours stores hours for a row directly, bypassing CreateRow.
func (m *Memory) SetRowHours(entityID planner.EntityID, planID planner.PlanID, hours map[string]planner.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[key{entityID, planID}] = maps.Clone(hours)
}

// Saved returns a copy of a row's stored hours and whether the row exists.
func (m *Memory) Saved(entityID planner.EntityID, planID planner.PlanID) (map[string]planner.Decimal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.rows[key{entityID, planID}]
	return maps.Clone(row), ok
}

// Fail makes every later call of op return err. A nil err clears it.
func (m *Memory) Fail(op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failOps, op)
		return
	}
	m.failOps[op] = err
}

// FailEntity makes every row operation for an entity return err.
func (m *Memory) FailEntity(id planner.EntityID, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failEntities, id)
		return
	}
	m.failEntities[id] = err
}

// Calls returns how many times op was invoked.
func (m *Memory) Calls(op Op) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

func (m *Memory) begin(op Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.failOps[op]
}

func (m *Memory) beginRow(op Op, id planner.EntityID) error {
	if err := m.begin(op); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failEntities[id]
}

func (m *Memory) wait(ctx context.Context) error {
	if m.Gate == nil {
		return nil
	}
	select {
	case <-m.Gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// =============================================================================
// planner.Source
// =============================================================================

func (m *Memory) FetchCapacity(_ context.Context, popStart, popEnd string) ([]planner.Decimal, error) {
	if err := m.begin(OpFetchCapacity); err != nil {
		return nil, err
	}
	p, err := planner.NewPeriod(popStart, popEnd)
	if err != nil {
		return nil, err
	}
	days := p.Days()
	out := make([]planner.Decimal, len(days))
	for i, d := range days {
		out[i] = m.capacity(d)
	}
	return out, nil
}

func (m *Memory) FetchLookup(_ context.Context, popStart, popEnd string) (map[string]int, error) {
	if err := m.begin(OpFetchLookup); err != nil {
		return nil, err
	}
	p, err := planner.NewPeriod(popStart, popEnd)
	if err != nil {
		return nil, err
	}
	return planner.DateIndexForPeriod(p).Lookup(), nil
}

func (m *Memory) FetchPeriods(_ context.Context, popStart, popEnd string) ([]planner.FiscalPeriod, error) {
	if err := m.begin(OpFetchPeriods); err != nil {
		return nil, err
	}
	p, err := planner.NewPeriod(popStart, popEnd)
	if err != nil {
		return nil, err
	}
	return planner.FiscalMonthsCovering(p, m.capacity), nil
}

// FetchRowHours returns stored hours for each PoP day; days never written
// read as zero.
func (m *Memory) FetchRowHours(ctx context.Context, entityID planner.EntityID, planID planner.PlanID, popStart, popEnd string) ([]planner.Decimal, error) {
	if err := m.beginRow(OpFetchRowHours, entityID); err != nil {
		return nil, err
	}
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	p, err := planner.NewPeriod(popStart, popEnd)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	row := m.rows[key{entityID, planID}]
	days := p.Days()
	out := make([]planner.Decimal, len(days))
	for i, d := range days {
		out[i] = row[d.String()]
	}
	return out, nil
}

func (m *Memory) FetchRowDetail(_ context.Context, entityID planner.EntityID, planID planner.PlanID) (planner.RowDetail, error) {
	if err := m.beginRow(OpFetchRowDetail, entityID); err != nil {
		return planner.RowDetail{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	detail, ok := m.details[entityID]
	if !ok {
		return planner.RowDetail{}, fmt.Errorf("%w: entity %d", planner.ErrRowNotFound, entityID)
	}
	return detail, nil
}

// CreateRow inserts a zero for every day of the PoP.
func (m *Memory) CreateRow(_ context.Context, entityID planner.EntityID, planID planner.PlanID, popStart, popEnd string) error {
	if err := m.beginRow(OpCreateRow, entityID); err != nil {
		return err
	}
	p, err := planner.NewPeriod(popStart, popEnd)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{entityID, planID}
	if _, exists := m.rows[k]; exists {
		return fmt.Errorf("%w: entity %d in plan %d", planner.ErrDuplicateRow, entityID, planID)
	}
	row := make(map[string]planner.Decimal, p.Len())
	for _, d := range p.Days() {
		row[d.String()] = planner.Zero
	}
	m.rows[k] = row
	return nil
}

func (m *Memory) DeleteRow(_ context.Context, entityID planner.EntityID, planID planner.PlanID) error {
	if err := m.beginRow(OpDeleteRow, entityID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{entityID, planID}
	if _, ok := m.rows[k]; !ok {
		return fmt.Errorf("%w: entity %d in plan %d", planner.ErrRowNotFound, entityID, planID)
	}
	delete(m.rows, k)
	return nil
}

// SaveHours merges hours into the stored row.
func (m *Memory) SaveHours(_ context.Context, entityID planner.EntityID, planID planner.PlanID, hours map[string]planner.Decimal) error {
	if err := m.beginRow(OpSaveHours, entityID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := key{entityID, planID}
	row, ok := m.rows[k]
	if !ok {
		row = make(map[string]planner.Decimal, len(hours))
		m.rows[k] = row
	}
	maps.Copy(row, hours)
	return nil
}
