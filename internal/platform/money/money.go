// Package money centralizes the decimal rules every service must follow
// when handling currency: two fixed decimal places, no float64, and a
// fixed epsilon for "close enough to zero" comparisons.
package money

import "github.com/shopspring/decimal"

// Epsilon is the maximum absolute deviation from zero a balanced
// transaction's debit/credit delta may have after rounding.
var Epsilon = decimal.NewFromFloat(0.005)

// Round2 rounds d to two decimal places using banker-free half-up rounding,
// the convention every stored monetary amount in this codebase follows.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// IsZero reports whether d is within Epsilon of zero.
func IsZero(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Epsilon)
}

// Equal reports whether a and b are within Epsilon of each other.
func Equal(a, b decimal.Decimal) bool {
	return IsZero(a.Sub(b))
}

// Sum adds a slice of decimals, returning zero for an empty slice.
func Sum(vals ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vals {
		total = total.Add(v)
	}

	return total
}

// IsPositive reports whether d is strictly greater than zero, the
// requirement for every transaction line amount.
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(decimal.Zero)
}
