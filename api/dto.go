/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:

	Defines the JSON structures of the hours service. These types decouple
	the store records from the wire contract the planner client relies on.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NUMBERS:

	Hours, rates and costs are planner.Decimal: encoded as plain JSON numbers
	with two places and decoded without passing through float64.

VALIDATION:

	Request types carry `validate` tags checked by validateStruct before a
	handler touches the store.

SEE ALSO:
  - handlers.go: Uses these types
  - validate.go: Tag validation
*/
package api

import (
	"github.com/warp/fiscal-planner/planner"
)

// =============================================================================
// CALENDAR
// =============================================================================

// PeriodDTO is a fiscal period intersecting the requested range.
type PeriodDTO struct {
	FiscalPeriod string          `json:"fiscal_period"`
	DisplayName  string          `json:"display_name"`
	StartDate    string          `json:"start_date"`
	EndDate      string          `json:"end_date"`
	MonthHours   planner.Decimal `json:"month_hours"`
}

// SeedCalendarRequest generates calendar days for a schedule.
type SeedCalendarRequest struct {
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Schedule  string `json:"schedule" validate:"required,oneof=5/40 4/10 9/80A 9/80B"`
}

// SeedCalendarDTO reports how many days were written.
type SeedCalendarDTO struct {
	Days int `json:"days"`
}

// =============================================================================
// PLAN ROWS
// =============================================================================

// RowDetailDTO is the descriptive data of a plan row.
type RowDetailDTO struct {
	EmpID      int64           `json:"emp_id"`
	PlanID     int64           `json:"plan_id"`
	Name       string          `json:"name"`
	HourlyRate planner.Decimal `json:"hourly_rate"`
}

// RowIDDTO identifies a created plan row.
type RowIDDTO struct {
	EmpID  int64 `json:"emp_id"`
	PlanID int64 `json:"plan_id"`
	Days   int64 `json:"days"`
}

// =============================================================================
// PLANS
// =============================================================================

// PlanDTO represents a plan in API responses.
type PlanDTO struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	PopStart    string          `json:"pop_start"`
	PopEnd      string          `json:"pop_end"`
	TargetHours planner.Decimal `json:"target_hours"`
	TargetCost  planner.Decimal `json:"target_cost"`
	EmpIDs      []int64         `json:"emp_ids,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
}

// CreatePlanRequest is the request to create a plan.
type CreatePlanRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	PopStart    string          `json:"pop_start" validate:"required,datetime=2006-01-02"`
	PopEnd      string          `json:"pop_end" validate:"required,datetime=2006-01-02"`
	TargetHours planner.Decimal `json:"target_hours"`
	TargetCost  planner.Decimal `json:"target_cost"`
}

// =============================================================================
// EMPLOYEES & COMPENSATION
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	CompensationID int64  `json:"compensation_id,omitempty"`
	Schedule       string `json:"schedule"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	Email          string `json:"email" validate:"omitempty,email"`
	CompensationID int64  `json:"compensation_id" validate:"gte=0"`
	Schedule       string `json:"schedule" validate:"omitempty,oneof=5/40 4/10 9/80A 9/80B"`
}

// CompensationDTO is a labour grade.
type CompensationDTO struct {
	ID            int64           `json:"id"`
	ResourceCode  string          `json:"resource_code"`
	Grade         string          `json:"grade"`
	LaborCategory string          `json:"labor_category"`
	HourlyRate    planner.Decimal `json:"hourly_rate"`
}

// CreateCompensationRequest is the request to create a labour grade.
type CreateCompensationRequest struct {
	ResourceCode  string          `json:"resource_code" validate:"required,max=50"`
	Grade         string          `json:"grade" validate:"required,max=50"`
	LaborCategory string          `json:"labor_category" validate:"max=200"`
	HourlyRate    planner.Decimal `json:"hourly_rate"`
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
