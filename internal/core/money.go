// Package core provides the ledger's domain types.
//
// This file contains amount parsing and the two-decimal rendering used
// everywhere an amount is shown.
package core

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a currency amount held in minor units (cents).
// All arithmetic on Money is integer arithmetic.
type Money struct {
	Cents int64
}

// Zero is the zero amount.
var Zero = Money{}

// maxExponent bounds the decimal exponent ParseAmount accepts, so that
// inputs like "1e-30000000" are refused before any rescaling.
const maxExponent = 32

// ParseAmount converts raw user input to Money.
//
// The input is trimmed and must be a complete decimal number; partial
// numbers such as "12abc" are rejected rather than truncated. Negative
// values are rejected. The value is rounded half away from zero to two
// fractional digits before conversion, which is the only rounding step
// an amount ever goes through.
//
// Examples:
//
//	ParseAmount("100")   -> 100.00
//	ParseAmount("42.5")  -> 42.50
//	ParseAmount("1.005") -> 1.01
//	ParseAmount("")      -> ErrInvalidAmount
func ParseAmount(raw string) (Money, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Zero, fmt.Errorf("%w: empty input", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, raw)
	}
	if d.Sign() < 0 {
		return Zero, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, raw)
	}
	if exp := d.Exponent(); exp < -maxExponent || exp > maxExponent {
		return Zero, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, raw)
	}

	cents := d.Round(2).Shift(2)
	if cents.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return Zero, fmt.Errorf("%w: %q is too large", ErrInvalidAmount, raw)
	}

	return Money{Cents: cents.IntPart()}, nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// CheckedAdd returns m + o, or false if the sum does not fit in int64.
func (m Money) CheckedAdd(o Money) (Money, bool) {
	if (o.Cents > 0 && m.Cents > math.MaxInt64-o.Cents) ||
		(o.Cents < 0 && m.Cents < math.MinInt64-o.Cents) {
		return Zero, false
	}
	return Money{Cents: m.Cents + o.Cents}, true
}

// Sub returns m - o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

// IsNegative reports whether the amount is below zero. Only a balance can be.
func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// Decimal returns the amount as an exact decimal value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with exactly two fractional digits, e.g. "57.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
