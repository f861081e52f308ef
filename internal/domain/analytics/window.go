// Package analytics holds the pure date-window, bucket and percentage primitives
// shared by the sales services. Nothing here performs I/O.
package analytics

import (
	"fmt"
	"time"

	"github.com/grablet/merchant-api/internal/domain/enum"
	"github.com/grablet/merchant-api/pkg/apperror"
)

const dateLayout = "2006-01-02"

// Window is an inclusive range of calendar dates. Start and End are UTC midnights.
type Window struct {
	Start time.Time
	End   time.Time
}

// DateOf returns the calendar date of t (in t's own location) as a UTC midnight.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewWindow builds a window from two dates, normalizing both to calendar dates.
func NewWindow(start, end time.Time) Window {
	return Window{Start: DateOf(start), End: DateOf(end)}
}

// Current returns the window of the given period ending on (and including) anchor.
func Current(anchor time.Time, period enum.Period) (Window, error) {
	days := period.Days()
	if days == 0 {
		return Window{}, apperror.NewConfigurationError(fmt.Sprintf("unknown period %q", period))
	}
	end := DateOf(anchor)
	return Window{Start: end.AddDate(0, 0, -(days - 1)), End: end}, nil
}

// Previous returns the equal-length window immediately preceding w.
func Previous(w Window) Window {
	days := w.Days()
	end := w.Start.AddDate(0, 0, -1)
	return Window{Start: end.AddDate(0, 0, -(days - 1)), End: end}
}

// Bounds returns the current window for period ending at anchor together with
// the contiguous previous window of the same length.
func Bounds(anchor time.Time, period enum.Period) (current, previous Window, err error) {
	current, err = Current(anchor, period)
	if err != nil {
		return Window{}, Window{}, err
	}
	return current, Previous(current), nil
}

// Days returns the number of calendar days in the window.
func (w Window) Days() int {
	if w.End.Before(w.Start) {
		return 0
	}
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// Contains reports whether the calendar date of t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Dates lists every date of the window in calendar order.
func (w Window) Dates() []time.Time {
	dates := make([]time.Time, 0, w.Days())
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// StartString formats the window start as YYYY-MM-DD.
func (w Window) StartString() string {
	return w.Start.Format(dateLayout)
}

// EndString formats the window end as YYYY-MM-DD.
func (w Window) EndString() string {
	return w.End.Format(dateLayout)
}

// SplitWeeks cuts w into parts contiguous sub-windows of days/parts days each,
// the last one absorbing the remainder. A 30-day window yields 7, 7, 7 and 9 days.
func SplitWeeks(w Window, parts int) []Window {
	if parts < 1 {
		return nil
	}
	size := w.Days() / parts
	out := make([]Window, 0, parts)
	start := w.Start
	for i := 0; i < parts; i++ {
		end := start.AddDate(0, 0, size-1)
		if i == parts-1 {
			end = w.End
		}
		out = append(out, Window{Start: start, End: end})
		start = end.AddDate(0, 0, 1)
	}
	return out
}

// WeekLabel returns the 1-based label of a monthly sub-window.
func WeekLabel(index int) string {
	return fmt.Sprintf("Week %d", index+1)
}

// FormatDate formats a calendar date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
