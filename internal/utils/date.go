package utils

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used for submission dates,
// schedule details and query parameters.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date into midnight UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}

	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}

	return t, nil
}

// FormatDate renders the calendar date of t, ignoring its clock and zone.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// DateOnly drops the clock of t and returns the same calendar day at midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day in loc as midnight UTC.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOnly(now.In(loc))
}

// FormatDayMonth renders an ISO date as dd/mm, or returns the input unchanged
// when it does not parse.
func FormatDayMonth(value string) string {
	t, err := ParseDate(value)
	if err != nil {
		return value
	}
	return t.Format("02/01")
}

// FormatDayMonthYear renders an ISO date as dd/mm/yyyy, or returns the input
// unchanged when it does not parse.
func FormatDayMonthYear(value string) string {
	t, err := ParseDate(value)
	if err != nil {
		return value
	}
	return t.Format("02/01/2006")
}
