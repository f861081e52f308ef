package analytics

import (
	"math"
)

// SafeFloat replaces NaN and ±Inf with 0 so values stay JSON-encodable.
func SafeFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SanitizeSeries applies SafeFloat to every value of s in place and returns s.
func SanitizeSeries(s []float64) []float64 {
	for i, v := range s {
		s[i] = SafeFloat(v)
	}
	return s
}

// RoundTo rounds v half away from zero to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return SafeFloat(math.Round(v*p) / p)
}

// SharePercent returns part/total*100 rounded half to even, matching how the
// ranking shares have always been rounded. A zero total yields 0.
func SharePercent(part, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.RoundToEven(float64(part) / float64(total) * 100))
}

// PeakIndex returns the index of the first maximum of values. ok is false when
// values is empty or holds no positive value.
func PeakIndex(values []float64) (index int, ok bool) {
	best := 0.0
	index = -1
	for i, v := range values {
		v = SafeFloat(v)
		if v > best {
			best = v
			index = i
		}
	}
	if index < 0 {
		return 0, false
	}
	return index, true
}
