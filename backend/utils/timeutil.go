package utils

import "time"

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// StartOfWeek returns the most recent Sunday 00:00 in loc (t itself when t
// is a Sunday).
func StartOfWeek(t time.Time, loc *time.Location) time.Time {
	day := StartOfDay(t, loc)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// DaysBetween counts calendar days from earlier to later in loc. It is
// negative when later falls on an earlier day.
func DaysBetween(earlier, later time.Time, loc *time.Location) int {
	a := StartOfDay(earlier, loc)
	b := StartOfDay(later, loc)
	// Calendar dates are compared as UTC midnights so DST shifts do not
	// produce 23 or 25 hour days.
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
