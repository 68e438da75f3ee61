// Package risk is the risk factor library: one pure function per raw
// attribute, each mapping a value to a bounded risk contribution.
//
// Functions are total. Out-of-range input (negative ages, NaN, counts below
// zero) is clamped to the nearest valid value rather than rejected.
package risk

import "math"

// Clamp bounds v to [0,1]. NaN maps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// nonNegative maps NaN and negatives to 0
func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// Count floors a non-negative count and saturates it at limit. The bound is
// applied before the int conversion so huge values cannot wrap.
func Count(v float64, limit int) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= float64(limit) {
		return limit
	}
	return int(math.Floor(v))
}
