// Package moneymath provides the rounding helpers shared by the pricing
// engine and the payment orchestrator. All displayed or persisted amounts
// are major-unit floats rounded to 2 decimals; the payment gateway is the
// only consumer of integer minor units.
package moneymath

import "math"

// Round2 rounds a major-unit amount to 2 decimal places.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// RoundPercent rounds a ratio (0..1) to the nearest whole percentage.
func RoundPercent(ratio float64) int {
	return int(math.Round(ratio * 100))
}

// ToMinorUnits converts a major-unit amount to integer minor units
// (e.g. 8.80 EUR -> 880 centimes).
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromMinorUnits converts integer minor units back to a major-unit amount.
func FromMinorUnits(minor int64) float64 {
	return float64(minor) / 100
}

// IsValidAmount reports whether the value is a finite, representable amount.
func IsValidAmount(amount float64) bool {
	return !math.IsNaN(amount) && !math.IsInf(amount, 0)
}
