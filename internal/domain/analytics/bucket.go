package analytics

import (
	"fmt"
	"time"
)

const (
	// FirstHourBlock is the start hour of the earliest 2-hour business block.
	FirstHourBlock = 8
	// LastHourBlock is the start hour of the latest block, which runs to midnight.
	LastHourBlock = 22
	hourBlockSize = 2
)

// HourBlockCount is the number of 2-hour blocks between 08:00 and 24:00.
const HourBlockCount = (LastHourBlock-FirstHourBlock)/hourBlockSize + 1

// HourBlockStarts returns the start hour of every business block.
func HourBlockStarts() []int {
	starts := make([]int, 0, HourBlockCount)
	for h := FirstHourBlock; h <= LastHourBlock; h += hourBlockSize {
		starts = append(starts, h)
	}
	return starts
}

// HourBlockIndex places t into its 2-hour business block. Orders before 08:00
// fall outside every block; the 22:00 block keeps orders up to 23:59.
func HourBlockIndex(t time.Time) (int, bool) {
	block := (t.Hour() / hourBlockSize) * hourBlockSize
	if block < FirstHourBlock || block > LastHourBlock {
		return 0, false
	}
	return (block - FirstHourBlock) / hourBlockSize, true
}

// HourLabel formats an hour of day the way the dashboard axis shows it: 8AM, 12PM, 2PM.
func HourLabel(hour int) string {
	switch {
	case hour == 0:
		return "12AM"
	case hour == 12:
		return "12PM"
	case hour > 12:
		return fmt.Sprintf("%dPM", hour-12)
	default:
		return fmt.Sprintf("%dAM", hour)
	}
}

// HourBlockLabels returns the axis labels of all business blocks.
func HourBlockLabels() []string {
	labels := make([]string, 0, HourBlockCount)
	for _, h := range HourBlockStarts() {
		labels = append(labels, HourLabel(h))
	}
	return labels
}

// HourRange formats the block starting at hour as "12:00-14:00".
func HourRange(hour int) string {
	return fmt.Sprintf("%d:00-%d:00", hour, hour+hourBlockSize)
}

// ShortWeekday returns "Mon", "Tue", ...
func ShortWeekday(d time.Time) string {
	return d.Format("Mon")
}

// FullWeekday returns "Monday", "Tuesday", ...
func FullWeekday(d time.Time) string {
	return d.Format("Monday")
}
