/*
source.go - Ports between the engine and the outside world

PURPOSE:

	The engine never talks to HTTP or a database directly. Everything it
	needs from the hours service goes through Source; everything it has to
	tell the user goes through Notifier.

KEY INTERFACES:

	Source:   capacity, date lookup, fiscal periods, row hours and detail,
	          row lifecycle, persisting a row
	Notifier: leveled user-facing messages

IMPLEMENTATIONS:
  - planner/store/memory.go: in-memory Source for tests and offline use
  - remote/client.go: HTTP Source against the hours service

SEE ALSO:
  - session.go: the only consumer of both ports
*/
package planner

import (
	"context"
	"log/slog"
)

// =============================================================================
// SOURCE - Remote hours service
// =============================================================================

// Source provides the data a plan table is built from and accepts writes.
// All dates are ISO YYYY-MM-DD and the PoP bounds are inclusive.
type Source interface {
	// FetchCapacity returns productive hours per day across the PoP, in
	// date order.
	FetchCapacity(ctx context.Context, popStart, popEnd string) ([]Decimal, error)

	// FetchLookup returns the date -> index mapping for the PoP.
	FetchLookup(ctx context.Context, popStart, popEnd string) (map[string]int, error)

	// FetchPeriods returns the fiscal periods intersecting the PoP.
	FetchPeriods(ctx context.Context, popStart, popEnd string) ([]FiscalPeriod, error)

	// FetchRowHours returns a row's hours per day across the PoP.
	FetchRowHours(ctx context.Context, entityID EntityID, planID PlanID, popStart, popEnd string) ([]Decimal, error)

	// FetchRowDetail returns the row's name and hourly rate.
	FetchRowDetail(ctx context.Context, entityID EntityID, planID PlanID) (RowDetail, error)

	// CreateRow creates a zero-valued row on the service.
	CreateRow(ctx context.Context, entityID EntityID, planID PlanID, popStart, popEnd string) error

	// DeleteRow removes a row on the service.
	DeleteRow(ctx context.Context, entityID EntityID, planID PlanID) error

	// SaveHours persists a full date -> hours snapshot of a row.
	SaveHours(ctx context.Context, entityID EntityID, planID PlanID, hours map[string]Decimal) error
}

// =============================================================================
// NOTIFIER - User-facing messages
// =============================================================================

// Level is the severity of a user-facing message.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// Notifier shows a message to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, message string)

func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// LogNotifier writes notifications to a structured logger. Used when there
// is no interactive user, e.g. from the CLI.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(level Level, message string) {
	switch level {
	case LevelDanger:
		n.Logger.Error(message, "level", string(level))
	case LevelWarning:
		n.Logger.Warn(message, "level", string(level))
	default:
		n.Logger.Info(message, "level", string(level))
	}
}
