/*
errors.go - Centralized error types for the planner engine

PURPOSE:

	All error kinds in one place for consistency and discoverability.
	Callers classify failures with errors.Is against the sentinels below;
	the structured errors carry the context needed for a useful message.

ERROR CATEGORIES:
 1. Input errors    - malformed numbers, bad dates (surface to the user)
 2. Contract errors - index out of range, range length mismatch
 3. Lifecycle       - table/row initialization failures, missing entities

PROPAGATION:

	Arithmetic and range errors are returned to the immediate caller.
	Initialization failures are recovered by the Session, which discards
	the partially built table or row and keeps the previous view state.
*/
package planner

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedNumber is returned when a value is not a decimal literal.
	ErrMalformedNumber = errors.New("malformed number")

	// ErrDivisionByZero is returned by Decimal.Div for a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrIndexOutOfRange signals an index outside [0, N-1] or start > end.
	// It indicates a caller defect, not a user-facing failure.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrRangeLengthMismatch is returned when a bulk update carries a
	// different number of values than the resolved date range.
	ErrRangeLengthMismatch = errors.New("range length mismatch")

	// ErrInitialization is returned when a table's or row's required
	// fetches did not all succeed.
	ErrInitialization = errors.New("initialization failure")

	// ErrInvalidLookup is returned when a date lookup is not a dense,
	// ordered mapping onto 0..N-1, or disagrees with its capacity series.
	ErrInvalidLookup = errors.New("invalid date lookup")

	// ErrInvalidDate is returned for dates that are not ISO YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidPeriod is returned when a period ends before it starts.
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	ErrTableNotFound  = errors.New("plan table not found")
	ErrRowNotFound    = errors.New("plan row not found")
	ErrDuplicateRow   = errors.New("plan row already exists")
	ErrPeriodNotFound = errors.New("fiscal period not found")

	// ErrNoActiveTable is returned when an operation needs the active tab
	// and none is open.
	ErrNoActiveTable = errors.New("no active plan table")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// IndexOutOfRangeError describes an index range outside a series.
type IndexOutOfRangeError struct {
	Start int
	End   int
	Len   int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("index out of range: [%d, %d] not within [0, %d]", e.Start, e.End, e.Len-1)
}

func (e *IndexOutOfRangeError) Unwrap() error {
	return ErrIndexOutOfRange
}

// RangeLengthMismatchError describes a bulk update with the wrong length.
type RangeLengthMismatchError struct {
	StartDate string
	EndDate   string
	Expected  int
	Got       int
}

func (e *RangeLengthMismatchError) Error() string {
	return fmt.Sprintf("range length mismatch: %s..%s resolves to %d days, got %d values",
		e.StartDate, e.EndDate, e.Expected, e.Got)
}

func (e *RangeLengthMismatchError) Unwrap() error {
	return ErrRangeLengthMismatch
}

// InitializationError reports a table or row that could not be built.
// It matches both ErrInitialization and the underlying cause.
type InitializationError struct {
	Kind     string // "table" or "row"
	PlanID   PlanID
	EntityID EntityID
	Err      error
}

func (e *InitializationError) Error() string {
	if e.Kind == "row" {
		return fmt.Sprintf("initialization failure: row %d in plan %d: %v", e.EntityID, e.PlanID, e.Err)
	}
	return fmt.Sprintf("initialization failure: plan %d: %v", e.PlanID, e.Err)
}

func (e *InitializationError) Unwrap() []error {
	return []error{ErrInitialization, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsUserError returns true if the error stems from user-supplied input and
// should be shown as a message rather than treated as a defect.
func IsUserError(err error) bool {
	return errors.Is(err, ErrMalformedNumber) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrDivisionByZero) ||
		errors.Is(err, ErrDuplicateRow)
}

// IsDefect returns true if the error means an engine invariant was broken
// by the caller.
func IsDefect(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange) ||
		errors.Is(err, ErrRangeLengthMismatch)
}

// IsNotFound returns true if the error indicates a missing table, row or period.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTableNotFound) ||
		errors.Is(err, ErrRowNotFound) ||
		errors.Is(err, ErrPeriodNotFound)
}
