// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MoneyScale is the number of fractional digits kept when a value is persisted.
const MoneyScale = 2

var (
	// VATRate is the fixed output VAT applied at order and sale creation.
	VATRate = decimal.RequireFromString("0.21")

	// Tolerance is the largest difference two persisted amounts may show
	// and still be treated as equal.
	Tolerance = decimal.New(1, -MoneyScale)

	hundred = decimal.NewFromInt(100)
)

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	return decimal.RequireFromString(s)
}

// FromInt converts a whole quantity to Money.
func FromInt(n int) Money {
	return decimal.NewFromInt(int64(n))
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Round2 rounds half away from zero to cents.
func Round2(m Money) Money {
	return m.Round(MoneyScale)
}

// Percent returns m * pct / 100.
func Percent(m Money, pct Money) Money {
	return m.Mul(pct).Div(hundred)
}

// ApproxEqual reports whether a and b differ by at most Tolerance.
func ApproxEqual(a, b Money) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// Sum adds all values.
func Sum(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
