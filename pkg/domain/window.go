package domain

import (
	"fmt"
	"strings"
	"time"
)

// Window selects how far back from now a series is sliced for charting.
type Window string

// Supported chart windows.
const (
	WindowLast6Months  Window = "6m"
	WindowLast12Months Window = "12m"
	WindowLast24Months Window = "24m"
	WindowAll          Window = "all"
)

// Windows lists the supported windows in toggle order.
var Windows = []Window{WindowLast6Months, WindowLast12Months, WindowLast24Months, WindowAll}

var windowMonths = map[Window]int{
	WindowLast6Months:  6,
	WindowLast12Months: 12,
	WindowLast24Months: 24,
}

// ParseWindow accepts the canonical tokens plus a few aliases ("1y", "2y").
func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "6m", "6mo", "last-6-months":
		return WindowLast6Months, nil
	case "12m", "1y", "last-12-months":
		return WindowLast12Months, nil
	case "24m", "2y", "last-24-months":
		return WindowLast24Months, nil
	case "", "all":
		return WindowAll, nil
	}
	return "", &ValidationError{Field: "window", Message: fmt.Sprintf("unsupported window %q", s)}
}

// Validate rejects unknown window values.
func (w Window) Validate() error {
	if w == WindowAll {
		return nil
	}
	if _, ok := windowMonths[w]; ok {
		return nil
	}
	return &ValidationError{Field: "window", Message: fmt.Sprintf("unsupported window %q", string(w))}
}

// Since returns the inclusive lower bound of the window measured back from
// now. The zero time is returned for WindowAll.
func (w Window) Since(now time.Time) time.Time {
	months, ok := windowMonths[w]
	if !ok {
		return time.Time{}
	}
	return now.AddDate(0, -months, 0)
}

// Filter keeps the measurements whose timestamp falls inside the window,
// preserving order.
func (w Window) Filter(series []Measurement, now time.Time) []Measurement {
	out := make([]Measurement, 0, len(series))
	if w == WindowAll {
		return append(out, series...)
	}
	since := w.Since(now)
	for _, m := range series {
		if !m.Timestamp.Before(since) {
			out = append(out, m)
		}
	}
	return out
}
