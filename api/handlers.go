/*
handlers.go - HTTP API handlers for the hours service

PURPOSE:

	Exposes the calendar, plan rows and plan headers kept in SQLite to the
	planner client. Handles HTTP request/response, JSON serialization, and
	delegates to the store.

ENDPOINTS:

	Calendar:
	  GET    /api/prodhours      Productive hours per day in a range
	  GET    /api/prodhoursidx   Date -> index lookup for a range
	  GET    /api/periods        Fiscal periods intersecting a range
	  POST   /api/calendar/seed  Generate calendar days for a schedule

	Plan rows (query: emp_id, plan_id[, start_date, end_date]):
	  GET    /api/planhours      Hours per day of one row
	  GET    /api/planrow        Row name and hourly rate
	  POST   /api/planrow        Create a zero-valued row over a range
	  PUT    /api/planrow        Upsert {date: hours}
	  DELETE /api/planrow        Remove a row

	Plans, employees, compensation:
	  GET/POST /api/plans, GET /api/plans/{id}
	  GET/POST /api/employees, GET /api/employees/{id}
	  GET/POST /api/compensation

REQUEST FLOW:
 1. Parse query or body
 2. Validate input
 3. Call the store
 4. Serialize response
 5. Map errors to a status with writeStoreError

ERROR HANDLING:

	Errors are returned as JSON with appropriate HTTP status:
	- 400: Validation errors, malformed dates or numbers
	- 404: Employee, plan or row not found
	- 409: Row already exists
	- 422: No calendar days in the requested range
	- 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/fiscal-planner/planner"
	"github.com/warp/fiscal-planner/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store

	log *slog.Logger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store. A nil logger
// uses slog.Default().
func NewHandler(store *sqlite.Store, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		Store: store,
		log:   log.With("component", "api"),
	}
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// GetProdHours returns productive hours per calendar day, in date order.
func (h *Handler) GetProdHours(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}

	hours, err := h.Store.ProdHours(r.Context(), start, end)
	if err != nil {
		h.writeStoreError(w, "Failed to get productive hours", err)
		return
	}
	writeJSON(w, http.StatusOK, hours)
}

// GetProdHoursIndex returns the date -> index lookup matching GetProdHours.
func (h *Handler) GetProdHoursIndex(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}

	index, err := h.Store.ProdHoursIndex(r.Context(), start, end)
	if err != nil {
		h.writeStoreError(w, "Failed to get date index", err)
		return
	}
	writeJSON(w, http.StatusOK, index)
}

// GetPeriods returns the fiscal periods intersecting the range.
func (h *Handler) GetPeriods(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}

	periods, err := h.Store.FiscalPeriods(r.Context(), start, end)
	if err != nil {
		h.writeStoreError(w, "Failed to get fiscal periods", err)
		return
	}

	dtos := make([]PeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = PeriodDTO{
			FiscalPeriod: p.Key,
			DisplayName:  p.Label,
			StartDate:    p.StartDate,
			EndDate:      p.EndDate,
			MonthHours:   p.CapacityHours,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SeedCalendar generates calendar days for a schedule.
func (h *Handler) SeedCalendar(w http.ResponseWriter, r *http.Request) {
	var req SeedCalendarRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	n, err := h.Store.SeedCalendar(r.Context(), req.StartDate, req.EndDate, planner.Schedule(req.Schedule))
	if err != nil {
		h.writeStoreError(w, "Failed to seed calendar", err)
		return
	}
	writeJSON(w, http.StatusCreated, SeedCalendarDTO{Days: n})
}

// =============================================================================
// PLAN ROW HANDLERS
// =============================================================================

// GetPlanHours returns one row's hours per calendar day in the range.
func (h *Handler) GetPlanHours(w http.ResponseWriter, r *http.Request) {
	empID, planID, ok := rowKey(w, r)
	if !ok {
		return
	}
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}

	hours, err := h.Store.PlanHours(r.Context(), empID, planID, start, end)
	if err != nil {
		h.writeStoreError(w, "Failed to get plan hours", err)
		return
	}
	writeJSON(w, http.StatusOK, hours)
}

// GetPlanRow returns the row's name and hourly rate.
func (h *Handler) GetPlanRow(w http.ResponseWriter, r *http.Request) {
	empID, planID, ok := rowKey(w, r)
	if !ok {
		return
	}

	detail, err := h.Store.RowDetail(r.Context(), empID, planID)
	if err != nil {
		h.writeStoreError(w, "Failed to get plan row", err)
		return
	}
	writeJSON(w, http.StatusOK, RowDetailDTO{
		EmpID:      empID,
		PlanID:     planID,
		Name:       detail.Name,
		HourlyRate: detail.HourlyRate,
	})
}

// CreatePlanRow inserts a zero for each calendar day of the range.
func (h *Handler) CreatePlanRow(w http.ResponseWriter, r *http.Request) {
	empID, planID, ok := rowKey(w, r)
	if !ok {
		return
	}
	start, end, ok := dateRange(w, r)
	if !ok {
		return
	}

	n, err := h.Store.InitPlanRow(r.Context(), empID, planID, start, end)
	if err != nil {
		h.writeStoreError(w, "Failed to create plan row", err)
		return
	}
	h.log.Info("plan row created", "emp_id", empID, "plan_id", planID, "days", n)
	writeJSON(w, http.StatusCreated, RowIDDTO{EmpID: empID, PlanID: planID, Days: n})
}

// UpdatePlanRow upserts the hours in the {date: hours} body.
func (h *Handler) UpdatePlanRow(w http.ResponseWriter, r *http.Request) {
	empID, planID, ok := rowKey(w, r)
	if !ok {
		return
	}

	var hours map[string]planner.Decimal
	if err := json.NewDecoder(r.Body).Decode(&hours); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Store.UpdatePlanRow(r.Context(), empID, planID, hours); err != nil {
		h.writeStoreError(w, "Failed to update plan row", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "days": len(hours)})
}

// DeletePlanRow removes a row.
func (h *Handler) DeletePlanRow(w http.ResponseWriter, r *http.Request) {
	empID, planID, ok := rowKey(w, r)
	if !ok {
		return
	}

	if err := h.Store.DeletePlanRow(r.Context(), empID, planID); err != nil {
		h.writeStoreError(w, "Failed to delete plan row", err)
		return
	}
	h.log.Info("plan row deleted", "emp_id", empID, "plan_id", planID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// ListPlans returns all plans.
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.Store.ListPlans(r.Context())
	if err != nil {
		h.writeStoreError(w, "Failed to list plans", err)
		return
	}

	dtos := make([]PlanDTO, len(plans))
	for i, p := range plans {
		dtos[i] = toPlanDTO(p, nil)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPlan returns a single plan with the ids of its rows.
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	plan, err := h.Store.GetPlan(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "Failed to get plan", err)
		return
	}
	empIDs, err := h.Store.PlanEntities(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "Failed to get plan rows", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(*plan, empIDs))
}

// CreatePlan creates a new plan.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req CreatePlanRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	plan := sqlite.Plan{
		Name:        req.Name,
		PopStart:    req.PopStart,
		PopEnd:      req.PopEnd,
		TargetHours: req.TargetHours,
		TargetCost:  req.TargetCost,
	}
	id, err := h.Store.SavePlan(r.Context(), plan)
	if err != nil {
		h.writeStoreError(w, "Failed to create plan", err)
		return
	}
	plan.ID = id

	writeJSON(w, http.StatusCreated, toPlanDTO(plan, nil))
}

func toPlanDTO(p sqlite.Plan, empIDs []int64) PlanDTO {
	dto := PlanDTO{
		ID:          p.ID,
		Name:        p.Name,
		PopStart:    p.PopStart,
		PopEnd:      p.PopEnd,
		TargetHours: p.TargetHours,
		TargetCost:  p.TargetCost,
		EmpIDs:      empIDs,
	}
	if !p.CreatedAt.IsZero() {
		dto.CreatedAt = p.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.writeStoreError(w, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		h.writeStoreError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates a new employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	emp := sqlite.Employee{
		Name:           req.Name,
		Email:          req.Email,
		CompensationID: req.CompensationID,
		Schedule:       planner.Schedule(req.Schedule),
	}
	if emp.Schedule == "" {
		emp.Schedule = planner.Schedule540
	}
	id, err := h.Store.SaveEmployee(r.Context(), emp)
	if err != nil {
		h.writeStoreError(w, "Failed to create employee", err)
		return
	}
	emp.ID = id

	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

func toEmployeeDTO(e sqlite.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:             e.ID,
		Name:           e.Name,
		Email:          e.Email,
		CompensationID: e.CompensationID,
		Schedule:       string(e.Schedule),
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// ListCompensation returns all labour grades.
func (h *Handler) ListCompensation(w http.ResponseWriter, r *http.Request) {
	grades, err := h.Store.ListCompensation(r.Context())
	if err != nil {
		h.writeStoreError(w, "Failed to list compensation", err)
		return
	}

	dtos := make([]CompensationDTO, len(grades))
	for i, c := range grades {
		dtos[i] = CompensationDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCompensation creates a labour grade.
func (h *Handler) CreateCompensation(w http.ResponseWriter, r *http.Request) {
	var req CreateCompensationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	c := sqlite.Compensation{
		ResourceCode:  req.ResourceCode,
		Grade:         req.Grade,
		LaborCategory: req.LaborCategory,
		HourlyRate:    req.HourlyRate,
	}
	id, err := h.Store.SaveCompensation(r.Context(), c)
	if err != nil {
		h.writeStoreError(w, "Failed to create compensation", err)
		return
	}
	c.ID = id

	writeJSON(w, http.StatusCreated, CompensationDTO(c))
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	h.setCurrentScenario("")

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	writeErrorCode(w, status, "", message, err)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		resp.Details = verr.Fields
	}
	writeJSON(w, status, resp)
}

// writeStoreError maps store and engine errors onto a status code.
func (h *Handler) writeStoreError(w http.ResponseWriter, message string, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, sqlite.ErrRowExists):
		status, code = http.StatusConflict, "row_exists"
	case errors.Is(err, sqlite.ErrNoCalendar):
		status, code = http.StatusUnprocessableEntity, "no_calendar"
	case planner.IsUserError(err):
		status, code = http.StatusBadRequest, "invalid_input"
	}
	if status == http.StatusInternalServerError {
		h.log.Error(message, "error", err)
	}
	writeErrorCode(w, status, code, message, err)
}

// decodeAndValidate decodes the JSON body into req and checks its tags.
// It writes a 400 and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := validateStruct(req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "validation", "Invalid request", err)
		return false
	}
	return true
}

// dateRange reads start_date and end_date from the query.
func dateRange(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	start := r.URL.Query().Get("start_date")
	end := r.URL.Query().Get("end_date")
	if _, err := planner.NewPeriod(start, end); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_input", "Invalid start_date/end_date (use YYYY-MM-DD)", err)
		return "", "", false
	}
	return start, end, true
}

// rowKey reads emp_id and plan_id from the query.
func rowKey(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	q := r.URL.Query()
	empID, err := strconv.ParseInt(q.Get("emp_id"), 10, 64)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_input", "Invalid emp_id", err)
		return 0, 0, false
	}
	planID, err := strconv.ParseInt(q.Get("plan_id"), 10, 64)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_input", "Invalid plan_id", err)
		return 0, 0, false
	}
	return empID, planID, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_input", fmt.Sprintf("Invalid id %q", raw), err)
		return 0, false
	}
	return id, true
}
