// Package civil provides day-boundary helpers in the company's canonical
// timezone. Every rule that talks about "today", "yesterday" or "before
// noon" is evaluated here, never in UTC.
package civil

import "time"

// DateLayout is the canonical YYYY-MM-DD form used for summary dates,
// dedupe keys and API payloads.
const DateLayout = "2006-01-02"

// NoonHour is the civil-time cutoff separating morning from afternoon.
const NoonHour = 12

// Date truncates t to its civil date in loc, keeping midnight in loc.
func Date(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// DateString formats t's civil date in loc.
func DateString(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// SameDay reports whether a and b fall on the same civil date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DateString(a, loc) == DateString(b, loc)
}

// IsYesterday reports whether a falls on the civil day immediately before b.
func IsYesterday(a, b time.Time, loc *time.Location) bool {
	return Date(a, loc).AddDate(0, 0, 1).Equal(Date(b, loc))
}

// BeforeNoon reports whether t is before 12:00 civil time in loc.
func BeforeNoon(t time.Time, loc *time.Location) bool {
	return t.In(loc).Hour() < NoonHour
}

// DayBounds returns the [start, end) interval of t's civil day in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	start := Date(t, loc)
	return start, start.AddDate(0, 0, 1)
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}

// AtClock returns t's civil day in loc at the given wall clock time.
func AtClock(t time.Time, loc *time.Location, hour, minute int) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), hour, minute, 0, 0, loc)
}
