package domain

import "time"

// Clock supplies the current instant for future-date validation and windowing.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

// FixedClock always returns t. Useful in tests.
func FixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

// NormalizeTimestamp truncates to millisecond precision in UTC, matching the
// persisted Unix millisecond representation.
func NormalizeTimestamp(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli()).UTC()
}
