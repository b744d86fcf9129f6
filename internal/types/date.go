package types

import (
	"time"
)

// DateLayout is the wire format of calendar dates (billing period bounds)
const DateLayout = "2006-01-02"

// NewDate returns the calendar date y-m-d, represented at midnight UTC
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf drops the clock and zone of t, keeping its calendar date as seen in t's location
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// StartOfMonth returns the first calendar day of t's month
func StartOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return NewDate(y, m, 1)
}

// AtStartOfDay returns the instant the calendar date begins in loc
func AtStartOfDay(date time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseDate parses a YYYY-MM-DD calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}
