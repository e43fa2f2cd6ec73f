package planner

import "fmt"

// TableSet holds the open plan tables, one per tab, in tab order, and the
// currently active one. At most one table is active at a time.
type TableSet struct {
	tables    map[PlanID]*PlanTable
	order     []PlanID
	active    PlanID
	hasActive bool
}

func NewTableSet() *TableSet {
	return &TableSet{tables: make(map[PlanID]*PlanTable)}
}

// Register adds a fully initialized table as a new tab. It does not change
// the active tab.
func (s *TableSet) Register(t *PlanTable) error {
	if _, exists := s.tables[t.ID]; exists {
		return fmt.Errorf("plan %d is already open", t.ID)
	}
	s.tables[t.ID] = t
	s.order = append(s.order, t.ID)
	return nil
}

// Activate makes a registered table the active tab.
func (s *TableSet) Activate(id PlanID) error {
	if _, ok := s.tables[id]; !ok {
		return fmt.Errorf("%w: plan %d", ErrTableNotFound, id)
	}
	s.active = id
	s.hasActive = true
	return nil
}

// Active returns the active table.
func (s *TableSet) Active() (*PlanTable, error) {
	if !s.hasActive {
		return nil, ErrNoActiveTable
	}
	return s.tables[s.active], nil
}

// ActiveID returns the active plan id, or false if no tab is active.
func (s *TableSet) ActiveID() (PlanID, bool) {
	return s.active, s.hasActive
}

// Get returns an open table.
func (s *TableSet) Get(id PlanID) (*PlanTable, error) {
	t, ok := s.tables[id]
	if !ok {
		return nil, fmt.Errorf("%w: plan %d", ErrTableNotFound, id)
	}
	return t, nil
}

// Holds reports whether t itself (not merely a table with the same id) is
// still registered. Results of fetches started for a closed tab are
// discarded when this is false.
func (s *TableSet) Holds(t *PlanTable) bool {
	cur, ok := s.tables[t.ID]
	return ok && cur == t
}

// Close removes a tab. Closing the active tab activates its left neighbour,
// or the new first tab, or nothing when the set becomes empty.
func (s *TableSet) Close(id PlanID) error {
	if _, ok := s.tables[id]; !ok {
		return fmt.Errorf("%w: plan %d", ErrTableNotFound, id)
	}
	delete(s.tables, id)

	pos := 0
	for i, p := range s.order {
		if p == id {
			pos = i
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}

	if s.hasActive && s.active == id {
		s.hasActive = false
		s.active = 0
		if len(s.order) > 0 {
			if pos > 0 {
				pos--
			}
			s.active = s.order[pos]
			s.hasActive = true
		}
	}
	return nil
}

// IDs returns the open plan ids in tab order.
func (s *TableSet) IDs() []PlanID {
	out := make([]PlanID, len(s.order))
	copy(out, s.order)
	return out
}

func (s *TableSet) Len() int { return len(s.order) }

// Totals aggregates the active table.
func (s *TableSet) Totals() (Totals, error) {
	t, err := s.Active()
	if err != nil {
		return Totals{}, err
	}
	return Aggregate(t)
}
