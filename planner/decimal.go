/*
Package planner provides the fiscal hours allocation engine.

PURPOSE:

	This package owns the data model and arithmetic behind a labor plan:
	a dense per-day series of allocated hours for every planned entity,
	aligned to a period-of-performance calendar, plus the bulk range
	operations and aggregation that turn those series into fiscal-period
	and plan-wide totals (hours, cost, FTE).

KEY CONCEPTS IN THIS FILE (decimal.go):
  - Decimal: fixed-point value with two fractional digits

DESIGN PRINCIPLES:
 1. Precision: every hour and cost value is a Decimal, never a float64
 2. Determinism: results that exceed two places are rounded half up
 3. Explicit failure: malformed literals and zero divisors return errors

USAGE:

	m, err := planner.ParseDecimal("0.50")
	if err != nil {
	    return err // errors.Is(err, planner.ErrMalformedNumber)
	}
	hours := m.Mul(planner.MustParseDecimal("8"))

SEE ALSO:
  - lookup.go: date to index mapping
  - table.go: range operations
  - aggregate.go: period and grand totals
*/
package planner

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of fractional digits every Decimal carries.
const Places = 2

// =============================================================================
// DECIMAL - Fixed two-place value for hours, rates and cost
// =============================================================================

// Decimal is an exact decimal value rounded to Places fractional digits.
// The zero value is 0.00.
type Decimal struct {
	d decimal.Decimal
}

// Zero is 0.00.
var Zero = Decimal{}

func newDecimal(d decimal.Decimal) Decimal {
	return Decimal{d: d.Round(Places)}
}

// ParseDecimal parses a decimal literal such as "8", "-1.5" or "0.10".
func ParseDecimal(s string) (Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Zero, fmt.Errorf("%w: empty value", ErrMalformedNumber)
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrMalformedNumber, s)
	}
	return newDecimal(d), nil
}

// MustParseDecimal is ParseDecimal for literals known to be valid.
// It panics on malformed input.
func MustParseDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewDecimalFromInt returns n as a Decimal.
func NewDecimalFromInt(n int64) Decimal {
	return Decimal{d: decimal.NewFromInt(n)}
}

// FromDecimal rounds a shopspring decimal into a Decimal.
func FromDecimal(d decimal.Decimal) Decimal {
	return newDecimal(d)
}

func (a Decimal) Add(b Decimal) Decimal { return newDecimal(a.d.Add(b.d)) }
func (a Decimal) Sub(b Decimal) Decimal { return newDecimal(a.d.Sub(b.d)) }
func (a Decimal) Mul(b Decimal) Decimal { return newDecimal(a.d.Mul(b.d)) }
func (a Decimal) Neg() Decimal          { return Decimal{d: a.d.Neg()} }

// Div divides a by b, rounding the quotient half up to two places.
func (a Decimal) Div(b Decimal) (Decimal, error) {
	if b.d.IsZero() {
		return Zero, fmt.Errorf("%w: %s / %s", ErrDivisionByZero, a, b)
	}
	return Decimal{d: a.d.DivRound(b.d, Places)}, nil
}

func (a Decimal) IsZero() bool               { return a.d.IsZero() }
func (a Decimal) IsNegative() bool           { return a.d.IsNegative() }
func (a Decimal) IsPositive() bool           { return a.d.IsPositive() }
func (a Decimal) Cmp(b Decimal) int          { return a.d.Cmp(b.d) }
func (a Decimal) Equal(b Decimal) bool       { return a.d.Equal(b.d) }
func (a Decimal) LessThan(b Decimal) bool    { return a.d.LessThan(b.d) }
func (a Decimal) GreaterThan(b Decimal) bool { return a.d.GreaterThan(b.d) }

// Decimal exposes the underlying shopspring value.
func (a Decimal) Decimal() decimal.Decimal { return a.d }

// String renders the value with exactly two fractional digits.
func (a Decimal) String() string { return a.d.StringFixed(Places) }

// Sum adds values starting from exact zero.
func Sum(values ...Decimal) Decimal {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// AdjustMultiplier turns a user-entered fractional change ("0.10" for +10%)
// into the multiplier AdjustRange expects (1.10). An input of "0" yields 1.00.
func AdjustMultiplier(change string) (Decimal, error) {
	c, err := ParseDecimal(change)
	if err != nil {
		return Zero, err
	}
	return NewDecimalFromInt(1).Add(c), nil
}

// =============================================================================
// ENCODING
// =============================================================================

// MarshalJSON encodes the value as a plain JSON number ("8.00").
func (a Decimal) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal literal.
// The value is parsed as a decimal and never passes through float64.
func (a *Decimal) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedNumber, string(data))
	}
	*a = newDecimal(d)
	return nil
}

// Value stores the value as text so that no precision is lost in SQLite.
func (a Decimal) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan reads a value written by Value, or any numeric column.
func (a *Decimal) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedNumber, src)
	}
	*a = newDecimal(d)
	return nil
}
