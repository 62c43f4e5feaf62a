// Package money provides the fixed-point monetary value used by every
// commission computation.
package money

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is the number of fractional digits persisted for monetary amounts.
const Cents int32 = 2

// Money is an exact decimal amount. The zero value is 0.
type Money struct {
	d decimal.Decimal
}

// Zero is the additive identity.
var Zero = Money{}

// New returns value × 10^exp, e.g. New(1050, -2) is 10.50.
func New(value int64, exp int32) Money {
	return Money{d: decimal.New(value, exp)}
}

// FromInt returns a whole amount.
func FromInt(v int64) Money {
	return Money{d: decimal.NewFromInt(v)}
}

// FromDecimal wraps an existing decimal value.
func FromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

// Parse reads a decimal string such as "10.50".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests and constants.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

func (m Money) Mul(o Money) Money { return Money{d: m.d.Mul(o.d)} }

// MulInt multiplies by a whole quantity.
func (m Money) MulInt(n int64) Money { return Money{d: m.d.Mul(decimal.NewFromInt(n))} }

// Percent returns m × pct / 100 where pct is a whole-number percentage
// (10 means 10%). The division is a decimal shift and therefore exact.
func (m Money) Percent(pct Money) Money {
	return Money{d: m.d.Mul(pct.d).Shift(-2)}
}

// Round rounds half away from zero to the given number of fractional digits.
func (m Money) Round(places int32) Money { return Money{d: m.d.Round(places)} }

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }

func (m Money) LessThanOrEqual(o Money) bool { return m.d.LessThanOrEqual(o.d) }

func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }

func (m Money) GreaterThanOrEqual(o Money) bool { return m.d.GreaterThanOrEqual(o.d) }

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

// String renders the exact value without trailing padding.
func (m Money) String() string { return m.d.String() }

// StringFixed renders the value rounded to places fractional digits.
func (m Money) StringFixed(places int32) string { return m.d.StringFixed(places) }

// MarshalJSON encodes the amount as a bare JSON number with two fractional digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.d.StringFixed(Cents)), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*m = Money{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("money: %w", err)
	}
	m.d = d
	return nil
}

// Min returns the smaller of a and b.
func Min(a, b Money) Money {
	if b.LessThan(a) {
		return b
	}
	return a
}

// Sum adds all values.
func Sum(values ...Money) Money {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
