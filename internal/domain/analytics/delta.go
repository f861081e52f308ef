package analytics

import (
	"fmt"
)

// SaturatedChange is reported by PercentChange when the baseline is zero and the
// current value is not. It is a fixed ceiling, not a ratio.
const SaturatedChange = 100.0

// NotAvailable is the formatted increase when no baseline exists.
const NotAvailable = "N/A"

// PercentChange returns (current-previous)/previous*100. With a zero baseline the
// result saturates: 0 when current is also zero, SaturatedChange otherwise, however
// large current is.
func PercentChange(current, previous float64) float64 {
	if previous > 0 {
		return SafeFloat((current - previous) / previous * 100)
	}
	if current == 0 {
		return 0
	}
	return SaturatedChange
}

// PeakIncrease is the period-over-period increase used by trend peaks. Unlike
// PercentChange it has no saturation: ok is false when previous is zero.
func PeakIncrease(current, previous float64) (increase float64, ok bool) {
	if previous <= 0 {
		return 0, false
	}
	return SafeFloat((current - previous) / previous * 100), true
}

// FormatIncrease renders an increase as a whole percentage truncated toward zero,
// or NotAvailable.
func FormatIncrease(increase float64, ok bool) string {
	if !ok {
		return NotAvailable
	}
	return fmt.Sprintf("%d%%", int(increase))
}
