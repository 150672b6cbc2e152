package news

import (
	"fmt"
	"time"
)

// Window is the reporting period: one calendar month in a fixed zone.
// Both ends are inclusive; End is the last nanosecond of the month.
type Window struct {
	Start time.Time
	End   time.Time
}

// MonthWindow returns the window covering the given month in loc.
func MonthWindow(year int, month time.Month, loc *time.Location) Window {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Window{
		Start: start,
		End:   start.AddDate(0, 1, 0).Add(-time.Nanosecond),
	}
}

// PreviousMonth returns the window of the calendar month before now, as seen in loc.
func PreviousMonth(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -1, 0)
	return MonthWindow(first.Year(), first.Month(), loc)
}

// ParseMonth parses "2006-01" into the window of that month.
func ParseMonth(value string, loc *time.Location) (Window, error) {
	t, err := time.ParseInLocation("2006-01", value, loc)
	if err != nil {
		return Window{}, fmt.Errorf("parse month %q: %w", value, err)
	}
	return MonthWindow(t.Year(), t.Month(), loc), nil
}

// Location returns the zone the window was built in.
func (w Window) Location() *time.Location {
	return w.Start.Location()
}

// Month formats the reporting month as YYYY-MM.
func (w Window) Month() string {
	return w.Start.Format("2006-01")
}

// Contains reports whether t falls inside the window widened by buffer on both sides.
func (w Window) Contains(t time.Time, buffer time.Duration) bool {
	from := w.Start.Add(-buffer)
	to := w.End.Add(buffer)
	return !t.Before(from) && !t.After(to)
}

func (w Window) String() string {
	return fmt.Sprintf("%s ~ %s (%s)", w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"), w.Start.Format("MST"))
}
