/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for testing and demos. Each scenario seeds a calendar, creates
	employees on labour grades, and creates plans with allocated rows.

AVAILABLE SCENARIOS (scenarios/*.yaml):

	single-plan:    One quarter on 5/40 with full, half and partial rows
	four-ten-team:  Two back-to-back plans on 4/10 sharing an engineer
	empty-plan:     A plan with no rows yet, for adding rows interactively

HOW SCENARIOS WORK:
 1. Reset database (labour grades are kept)
 2. Seed the calendar for the scenario's schedule
 3. Create employees, resolving their grade to a compensation id
 4. Create plans
 5. Create each row over the PoP, then fill share x productive hours
    for the row's date range (the whole PoP by default)

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "single-plan"}

USAGE VIA CLI:

	planner scenario single-plan

ADDING NEW SCENARIOS:
 1. Add a YAML file under scenarios/ (files load in name order)

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase handler
  - cmd/planner/main.go: scenario command
*/
package api

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path"

	"gopkg.in/yaml.v3"

	"github.com/warp/fiscal-planner/planner"
	"github.com/warp/fiscal-planner/store/sqlite"
)

//go:embed scenarios/*.yaml
var scenarioFiles embed.FS

// ErrUnknownScenario is returned for a scenario id with no definition.
var ErrUnknownScenario = errors.New("unknown scenario")

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// Scenario is a demo data set.
type Scenario struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Calendar    ScenarioCalendar   `yaml:"calendar"`
	Employees   []ScenarioEmployee `yaml:"employees"`
	Plans       []ScenarioPlan     `yaml:"plans"`
}

type ScenarioCalendar struct {
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	Schedule  string `yaml:"schedule"`
}

type ScenarioEmployee struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Grade    string `yaml:"grade"`
	Schedule string `yaml:"schedule"`
}

type ScenarioPlan struct {
	Name        string        `yaml:"name"`
	PopStart    string        `yaml:"pop_start"`
	PopEnd      string        `yaml:"pop_end"`
	TargetHours string        `yaml:"target_hours"`
	TargetCost  string        `yaml:"target_cost"`
	Rows        []ScenarioRow `yaml:"rows"`
}

// ScenarioRow allocates Share of each day's productive hours to an
// employee between StartDate and EndDate (the plan's PoP when empty).
type ScenarioRow struct {
	Employee  string `yaml:"employee"`
	Share     string `yaml:"share"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
}

var scenarios = mustLoadScenarios()

func mustLoadScenarios() []Scenario {
	list, err := loadScenarios(scenarioFiles)
	if err != nil {
		panic(fmt.Sprintf("api: invalid embedded scenarios: %v", err))
	}
	return list
}

func loadScenarios(fsys fs.FS) ([]Scenario, error) {
	entries, err := fs.ReadDir(fsys, "scenarios")
	if err != nil {
		return nil, err
	}

	var list []Scenario
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join("scenarios", e.Name()))
		if err != nil {
			return nil, err
		}
		var s Scenario
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if s.ID == "" {
			return nil, fmt.Errorf("%s: missing id", e.Name())
		}
		list = append(list, s)
	}
	return list, nil
}

// Scenarios returns the available demo scenarios.
func Scenarios() []ScenarioDTO {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description}
	}
	return dtos
}

func findScenario(id string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Scenarios())
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	s, ok := findScenario(current)
	if !ok {
		writeJSON(w, http.StatusOK, ScenarioDTO{
			ID:          current,
			Name:        current,
			Description: "Currently loaded scenario",
		})
		return
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description})
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if _, ok := findScenario(req.ScenarioID); !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	// Clear current scenario on reset
	h.setCurrentScenario("")

	if err := ApplyScenario(r.Context(), h.Store, req.ScenarioID); err != nil {
		h.log.Error("scenario load failed", "scenario", req.ScenarioID, "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	h.setCurrentScenario(req.ScenarioID)
	h.log.Info("scenario loaded", "scenario", req.ScenarioID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

func (h *Handler) setCurrentScenario(id string) {
	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
}

// =============================================================================
// SCENARIO LOADER
// =============================================================================

// ApplyScenario resets the store and loads the scenario with the given id.
func ApplyScenario(ctx context.Context, store *sqlite.Store, id string) error {
	s, ok := findScenario(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}

	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	schedule, err := planner.ParseSchedule(s.Calendar.Schedule)
	if err != nil {
		return err
	}
	if _, err := store.SeedCalendar(ctx, s.Calendar.StartDate, s.Calendar.EndDate, schedule); err != nil {
		return fmt.Errorf("seed calendar: %w", err)
	}

	grades, err := store.ListCompensation(ctx)
	if err != nil {
		return err
	}
	gradeIDs := make(map[string]int64, len(grades))
	for _, g := range grades {
		gradeIDs[g.Grade] = g.ID
	}

	empIDs := make(map[string]int64, len(s.Employees))
	for _, e := range s.Employees {
		compID, ok := gradeIDs[e.Grade]
		if !ok && e.Grade != "" {
			return fmt.Errorf("employee %s: unknown grade %q", e.Name, e.Grade)
		}
		id, err := store.SaveEmployee(ctx, sqlite.Employee{
			Name:           e.Name,
			Email:          e.Email,
			CompensationID: compID,
			Schedule:       planner.Schedule(e.Schedule),
		})
		if err != nil {
			return fmt.Errorf("employee %s: %w", e.Name, err)
		}
		empIDs[e.Name] = id
	}

	for _, p := range s.Plans {
		if err := applyPlan(ctx, store, p, empIDs); err != nil {
			return fmt.Errorf("plan %s: %w", p.Name, err)
		}
	}
	return nil
}

func applyPlan(ctx context.Context, store *sqlite.Store, p ScenarioPlan, empIDs map[string]int64) error {
	targetHours, err := parseOptionalDecimal(p.TargetHours)
	if err != nil {
		return err
	}
	targetCost, err := parseOptionalDecimal(p.TargetCost)
	if err != nil {
		return err
	}

	planID, err := store.SavePlan(ctx, sqlite.Plan{
		Name:        p.Name,
		PopStart:    p.PopStart,
		PopEnd:      p.PopEnd,
		TargetHours: targetHours,
		TargetCost:  targetCost,
	})
	if err != nil {
		return err
	}

	for _, row := range p.Rows {
		empID, ok := empIDs[row.Employee]
		if !ok {
			return fmt.Errorf("row for unknown employee %q", row.Employee)
		}
		if _, err := store.InitPlanRow(ctx, empID, planID, p.PopStart, p.PopEnd); err != nil {
			return fmt.Errorf("row %s: %w", row.Employee, err)
		}

		share, err := planner.ParseDecimal(row.Share)
		if err != nil {
			return fmt.Errorf("row %s: %w", row.Employee, err)
		}
		start, end := row.StartDate, row.EndDate
		if start == "" {
			start = p.PopStart
		}
		if end == "" {
			end = p.PopEnd
		}

		days, err := store.CalendarDays(ctx, start, end)
		if err != nil {
			return err
		}
		hours := make(map[string]planner.Decimal, len(days))
		for _, d := range days {
			hours[d.Date] = d.ProductiveHours.Mul(share)
		}
		if err := store.UpdatePlanRow(ctx, empID, planID, hours); err != nil {
			return fmt.Errorf("row %s: %w", row.Employee, err)
		}
	}
	return nil
}

func parseOptionalDecimal(s string) (planner.Decimal, error) {
	if s == "" {
		return planner.Zero, nil
	}
	return planner.ParseDecimal(s)
}
