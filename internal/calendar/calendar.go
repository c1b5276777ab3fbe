// Package calendar computes the Day, Week, Month and Year buckets a point in
// time belongs to and resolves them to aggregate nodes in the workspace.
package calendar

import (
	"fmt"
	"time"
)

// Variant is a bucket granularity.
type Variant string

// Variants, coarsest last.
const (
	Day   Variant = "day"
	Week  Variant = "week"
	Month Variant = "month"
	Year  Variant = "year"
)

// Valid returns true if the variant is a recognized value.
func (v Variant) Valid() bool {
	switch v {
	case Day, Week, Month, Year:
		return true
	default:
		return false
	}
}

// StartOfDay returns midnight of t's day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Label returns the human-readable node title of the bucket containing t,
// evaluated in t's location. Weeks use ISO 8601 numbering and the ISO
// week-year, so 2024-12-30 is "Week 1 of 2025".
func Label(t time.Time, v Variant) string {
	switch v {
	case Week:
		year, week := t.ISOWeek()
		return fmt.Sprintf("Week %d of %d", week, year)
	case Month:
		return t.Format("January 2006")
	case Year:
		return t.Format("2006")
	default:
		return t.Format("2006-01-02")
	}
}

// Range returns the first and last day of the bucket containing t, both at
// midnight. A Day range has a zero end.
func Range(t time.Time, v Variant) (start, end time.Time) {
	day := StartOfDay(t)
	y, m, _ := day.Date()
	loc := day.Location()

	switch v {
	case Week:
		// Week starts on Monday (ISO standard)
		weekday := int(day.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start = day.AddDate(0, 0, -(weekday - 1))
		return start, start.AddDate(0, 0, 6)
	case Month:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, -1)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc), time.Date(y, time.December, 31, 0, 0, 0, 0, loc)
	default:
		return day, time.Time{}
	}
}
