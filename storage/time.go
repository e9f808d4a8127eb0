package storage

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// WallLayout is how reservation times are persisted: local wall clock
// with no zone.
const WallLayout = "2006-01-02T15:04:05"

var timeOfDay = regexp.MustCompile(`^(?P<hour>\d{1,2}):(?P<minute>\d{2})$`)

// FormatWall renders t's wall clock.
func FormatWall(t time.Time) string {
	return t.Format(WallLayout)
}

// ParseWall reads a wall-clock timestamp in the local zone. RFC3339 values
// with an offset are accepted and converted to local time.
func ParseWall(value string) (time.Time, error) {
	if t, err := time.ParseInLocation(WallLayout, value, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(time.Local), nil
}

// Relocate keeps t's wall clock but moves it to the local zone. Drivers
// hand back zone-less columns as UTC.
func Relocate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local)
}

// ParseDate parses a date string in YYYY-MM-DD format as local midnight.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", value, time.Local)
}

// ParseTimeOfDay parses a time string in HH:MM format.
// Returns hour and minute, or an error if invalid.
func ParseTimeOfDay(value string) (hour, minute int, err error) {
	matches := timeOfDay.FindStringSubmatch(value)
	if matches == nil {
		return 0, 0, fmt.Errorf("invalid time format: %s", value)
	}

	h, _ := strconv.Atoi(matches[1])
	m, _ := strconv.Atoi(matches[2])

	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid time value: %s", value)
	}

	return h, m, nil
}

// ParseSlot combines a YYYY-MM-DD date and an HH:MM time.
func ParseSlot(date, clock string) (time.Time, error) {
	day, err := ParseDate(date)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse date: %s", date)
	}
	h, m, err := ParseTimeOfDay(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, time.Local), nil
}

// ParseOnDay parses an HH:MM time on the same date as day, or a full
// wall-clock timestamp.
func ParseOnDay(value string, day time.Time) (time.Time, error) {
	if t, err := ParseWall(value); err == nil {
		return t, nil
	}
	h, m, err := ParseTimeOfDay(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse time: %s", value)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, day.Location()), nil
}

// LocalNow returns current local time with seconds precision (no microseconds).
func LocalNow() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second(), 0, now.Location())
}
