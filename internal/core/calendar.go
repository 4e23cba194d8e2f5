package core

import (
	"fmt"
	"time"
)

// DefaultTimezone is the civil calendar every user shares for rollover.
const DefaultTimezone = "Asia/Kolkata"

const (
	monthKeyLayout   = "2006-01"
	monthLabelLayout = "January_2006"
	monthTitleLayout = "January 2006"
	timestampLayout  = "02-01-2006 15:04"
	closingLayout    = "02-01-2006"
)

// Clock returns the current instant in a fixed location.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a clock pinned to the named IANA location.
func NewClock(timezone string) (Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Clock{}, fmt.Errorf("load location %q: %w", timezone, err)
	}
	return Clock{loc: loc, now: time.Now}, nil
}

// FixedClock returns a clock that always reports t, in t's location.
func FixedClock(t time.Time) Clock {
	return Clock{loc: t.Location(), now: func() time.Time { return t }}
}

// Now returns the current time in the clock's location.
func (c Clock) Now() time.Time {
	if c.now == nil {
		return time.Now()
	}
	if c.loc == nil {
		return c.now()
	}
	return c.now().In(c.loc)
}

// Location returns the clock's location.
func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

// MonthKey formats t as YYYY-MM.
func MonthKey(t time.Time) string {
	return t.Format(monthKeyLayout)
}

// MonthLabel formats t as Month_YYYY, used in report file names.
func MonthLabel(t time.Time) string {
	return t.Format(monthLabelLayout)
}

// IsMonthLabel reports whether s is a label produced by MonthLabel.
func IsMonthLabel(s string) bool {
	t, err := time.Parse(monthLabelLayout, s)
	return err == nil && t.Format(monthLabelLayout) == s
}

// MonthTitle formats t as "Month YYYY", used in report headers.
func MonthTitle(t time.Time) string {
	return t.Format(monthTitleLayout)
}

// Timestamp formats t as dd-mm-YYYY HH:MM.
func Timestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// ClosingDate formats t as dd-mm-YYYY.
func ClosingDate(t time.Time) string {
	return t.Format(closingLayout)
}

// PreviousMonthEnd returns the day before the first of t's month, keeping
// t's time of day.
func PreviousMonthEnd(t time.Time) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	return first.AddDate(0, 0, -1)
}
