package util

import (
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.RFC3339Nano,
	time.DateTime,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// ParseDate tries the extra layouts, then date-only, RFC3339 and common
// datetime layouts. Digit-only strings such as 20200131 are rejected.
func ParseDate(s string, extra ...string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range extra {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTime is ParseDate with a unix-seconds fallback.
func ParseTime(s string, extra ...string) (time.Time, bool) {
	if t, ok := ParseDate(s, extra...); ok {
		return t, true
	}
	if ts, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// DateOf returns UTC midnight of the calendar date t carries in its own zone.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last calendar day of t's month.
func MonthEnd(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
}

// QuarterEnd returns the last calendar day of t's quarter.
func QuarterEnd(t time.Time) time.Time {
	y, m, _ := t.Date()
	last := ((m-1)/3)*3 + 3
	return time.Date(y, last+1, 0, 0, 0, 0, 0, time.UTC)
}

// YearEnd returns December 31 of t's year.
func YearEnd(t time.Time) time.Time {
	return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
}
