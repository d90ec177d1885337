package app

import "time"

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// TodayWindow returns the UTC calendar day containing now.
func TodayWindow(now time.Time) Window {
	y, m, d := now.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Window{Start: start, End: start.Add(24 * time.Hour)}
}

// Contains reports whether t lies inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Date formats the window start as YYYY-MM-DD.
func (w Window) Date() string {
	return w.Start.UTC().Format(time.DateOnly)
}
