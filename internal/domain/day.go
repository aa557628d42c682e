package domain

import (
	"fmt"
	"time"
)

// Day is a calendar day with the number of cards that fall due on it
type Day struct {
	Date      time.Time
	CardCount int
}

// DateString returns date in YYYYMMDD format
func (d Day) DateString() string {
	return d.Date.Format("20060102")
}

// DisplayString returns a learner-friendly label relative to now
func (d Day) DisplayString(now time.Time) string {
	days := DaysBetween(now, d.Date)

	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days < 7:
		return fmt.Sprintf("in %d days", days)
	}

	return d.Date.Format("2 Jan 2006")
}

// DaysBetween counts calendar days from a to b in a's location
func DaysBetween(a, b time.Time) int {
	from := StartOfDay(a)
	to := StartOfDay(b.In(a.Location()))
	// Round absorbs DST shifts of an hour either way.
	return int(to.Sub(from).Round(24*time.Hour) / (24 * time.Hour))
}
