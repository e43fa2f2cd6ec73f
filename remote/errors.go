package remote

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/warp/fiscal-planner/planner"
)

var (
	// ErrUnavailable indicates the hours service could not be reached.
	ErrUnavailable = errors.New("hours service unavailable")

	// ErrTimeout indicates a request exceeded the client timeout.
	ErrTimeout = errors.New("hours service request timed out")

	// ErrRequestFailed indicates the service answered with a non-2xx status.
	ErrRequestFailed = errors.New("hours service request failed")

	// ErrInvalidResponse indicates a response body could not be decoded.
	ErrInvalidResponse = errors.New("invalid hours service response")
)

// StatusError is a non-2xx answer from the hours service. Besides
// ErrRequestFailed it matches the planner sentinel that fits the status.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *StatusError) Unwrap() []error {
	errs := []error{ErrRequestFailed}
	switch e.Status {
	case http.StatusNotFound:
		errs = append(errs, planner.ErrRowNotFound)
	case http.StatusConflict:
		errs = append(errs, planner.ErrDuplicateRow)
	}
	return errs
}
