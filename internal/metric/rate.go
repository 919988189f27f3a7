package metric

import "math"

// Rates are computed in thousandths of a percent with integer arithmetic so
// that rounding is exact.
const rateScale = 100 * 1000

// FloorRate returns part/total as a percentage rounded down to three
// decimals. It returns nil when total is zero.
func FloorRate(part, total int64) *float64 {
	if total <= 0 {
		return nil
	}
	r := float64(part*rateScale/total) / 1000
	return &r
}

// CeilRate is FloorRate rounded up. Failure-like rates use it so they are
// never reported lower than they are.
func CeilRate(part, total int64) *float64 {
	if total <= 0 {
		return nil
	}
	r := float64((part*rateScale+total-1)/total) / 1000
	return &r
}

// TruncMs truncates a millisecond value towards zero.
func TruncMs(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(math.Trunc(v))
}
