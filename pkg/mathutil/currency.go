// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/realestate-model/pkg/constants"
)

// IsZero checks if a value is effectively zero (within tolerance)
func IsZero(val float64) bool {
	return math.Abs(val) <= constants.CurrencyTolerance
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Max returns the maximum of two float64 values
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * (percentage / constants.PercentageMultiplier)
}

// Percentage returns numerator / denominator as a percentage. The result is
// +Inf when the denominator is not positive so callers can render it as
// undefined instead of dividing by zero.
func Percentage(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return math.Inf(1)
	}
	return numerator / denominator * constants.PercentageMultiplier
}
