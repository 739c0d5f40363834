package models

import (
	"fmt"
	"time"

	"github.com/julianstephens/stride/internal/constants"
)

// Day identifies a calendar day in YYYY-MM-DD format. Completion sets are
// keyed by Day rather than timestamps so that time of day never matters.
type Day string

// DayOf returns the calendar day of t in t's own location.
func DayOf(t time.Time) Day {
	return Day(t.Format(constants.DateFormat))
}

// DayIn returns the calendar day of t as observed in loc.
func DayIn(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.Local
	}
	return DayOf(t.In(loc))
}

// ParseDay validates s and returns it as a Day.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return DayOf(t), nil
}

// Valid reports whether d is a well-formed day.
func (d Day) Valid() bool {
	_, err := time.Parse(constants.DateFormat, string(d))
	return err == nil
}

// String implements fmt.Stringer.
func (d Day) String() string {
	return string(d)
}

// Midnight returns the start of d in loc. Malformed days yield the zero time.
func (d Day) Midnight(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.Parse(constants.DateFormat, string(d))
	if err != nil {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// AddDays returns the day n calendar days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	t, err := time.Parse(constants.DateFormat, string(d))
	if err != nil {
		return d
	}
	return DayOf(t.AddDate(0, 0, n))
}

// DaysSince returns the number of calendar days from other to d.
// It is positive when d is later than other.
func (d Day) DaysSince(other Day) int {
	a, errA := time.Parse(constants.DateFormat, string(d))
	b, errB := time.Parse(constants.DateFormat, string(other))
	if errA != nil || errB != nil {
		return 0
	}
	// Both are UTC midnights, so the difference is an exact multiple of 24h.
	return int(a.Sub(b).Hours() / 24)
}

// Weekday returns the day of the week for d.
func (d Day) Weekday() time.Weekday {
	t, err := time.Parse(constants.DateFormat, string(d))
	if err != nil {
		return time.Sunday
	}
	return t.Weekday()
}
