package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"roomgrid/booking"
	"roomgrid/grid"
	"roomgrid/storage"
)

// FormatDuration formats a duration as "XhYYm".
func FormatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	return fmt.Sprintf("%dh%02dm", hours, minutes)
}

// ClampDuration calculates the overlap of a reservation with [start, end).
func ClampDuration(r booking.Reservation, start, end time.Time) time.Duration {
	latestStart := r.Start
	if start.After(latestStart) {
		latestStart = start
	}

	earliestEnd := r.End
	if end.Before(earliestEnd) {
		earliestEnd = end
	}

	if !earliestEnd.After(latestStart) {
		return 0
	}
	return earliestEnd.Sub(latestStart)
}

// Summarize aggregates booked time by title within [start, end).
// Returns total duration and a map of title -> duration.
func Summarize(reservations []booking.Reservation, start, end time.Time) (time.Duration, map[string]time.Duration) {
	titleTotals := make(map[string]time.Duration)
	var total time.Duration

	for _, r := range reservations {
		chunk := ClampDuration(r, start, end)
		if chunk <= 0 {
			continue
		}
		total += chunk

		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = "(untitled)"
		}
		titleTotals[title] += chunk
	}

	return total, titleTotals
}

// ReportRange resolves the report flags into a [from, to) range of whole
// days relative to now.
func ReportRange(fromDate, toDate string, week, lastWeek bool, now time.Time) (time.Time, time.Time, error) {
	if week && lastWeek {
		return time.Time{}, time.Time{}, fmt.Errorf("choose only one of --week or --last-week")
	}
	if (week || lastWeek) && (fromDate != "" || toDate != "") {
		return time.Time{}, time.Time{}, fmt.Errorf("cannot combine --week/--last-week with --from/--to")
	}

	if week {
		from, to := grid.WeekRange(now)
		return from, to, nil
	}
	if lastWeek {
		from, to := grid.WeekRange(now.AddDate(0, 0, -7))
		return from, to, nil
	}

	from := grid.DayStart(now)
	if fromDate != "" {
		parsed, err := storage.ParseDate(fromDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date: %w", err)
		}
		from = parsed
	}
	to := from.AddDate(0, 0, 1)
	if toDate != "" {
		parsed, err := storage.ParseDate(toDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date: %w", err)
		}
		to = parsed.AddDate(0, 0, 1)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("report end date cannot be before start date")
	}
	return from, to, nil
}

// WriteReport prints booked time per title, sorted case-insensitively.
func WriteReport(w io.Writer, reservations []booking.Reservation, from, to time.Time) {
	total, titleTotals := Summarize(reservations, from, to)
	if total == 0 {
		fmt.Fprintln(w, "No reservations in the selected range.")
		return
	}

	fmt.Fprintf(w, "Report %s to %s\n", from.Format("2006-01-02"), to.AddDate(0, 0, -1).Format("2006-01-02"))

	type titleItem struct {
		title    string
		duration time.Duration
	}
	var sorted []titleItem
	for title, duration := range titleTotals {
		sorted = append(sorted, titleItem{title: title, duration: duration})
	}
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].title) < strings.ToLower(sorted[j].title)
	})

	for _, item := range sorted {
		fmt.Fprintf(w, "- %s: %s\n", item.title, FormatDuration(item.duration))
	}
	fmt.Fprintf(w, "Total: %s\n", FormatDuration(total))
}

// FormatReservation renders one reservation as a list line.
func FormatReservation(r booking.Reservation) string {
	return fmt.Sprintf("%s  %-6s  %s %s-%s  %-7s  %s",
		r.ID,
		r.Room,
		r.Start.Format("Mon 2006-01-02"),
		r.Start.Format("15:04"),
		r.End.Format("15:04"),
		FormatDuration(r.Range().Duration()),
		r.Title,
	)
}
