package grid

import "time"

// DaysPerWeek is the number of day columns in the grid.
const DaysPerWeek = 7

// DayStart truncates t to midnight in its own location.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WeekStart returns midnight of the Monday on or before t.
func WeekStart(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday = 7
	}
	weekday-- // Monday = 0
	return DayStart(t.AddDate(0, 0, -weekday))
}

// WeekRange returns [Monday 00:00, next Monday 00:00) for the week of t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	start := WeekStart(t)
	return start, start.AddDate(0, 0, DaysPerWeek)
}

// WeekDays lists the seven calendar days of the week of t, Monday first.
func WeekDays(t time.Time) []time.Time {
	start := WeekStart(t)
	days := make([]time.Time, DaysPerWeek)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}
