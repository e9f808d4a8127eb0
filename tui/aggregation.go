package tui

import (
	"time"

	"roomgrid/booking"
	"roomgrid/grid"
	"roomgrid/tui/components"
)

// clampDuration calculates the overlap of a reservation with [start, end).
func clampDuration(r booking.Reservation, start, end time.Time) time.Duration {
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

// GroupByDay builds the agenda: one group per day with at least one
// reservation, reservations sorted by start.
func GroupByDay(reservations []booking.Reservation, days []time.Time) []components.DayGroup {
	var groups []components.DayGroup
	for _, day := range days {
		onDay := booking.OnDay(reservations, day)
		if len(onDay) == 0 {
			continue
		}
		booking.SortByStart(onDay)

		dayStart := grid.DayStart(day)
		group := components.DayGroup{Day: dayStart, Reservations: onDay}
		for _, r := range onDay {
			group.Duration += clampDuration(r, dayStart, dayStart.AddDate(0, 0, 1))
		}
		groups = append(groups, group)
	}
	return groups
}

// CalculateTitleTotals calculates booked time per title within [start, end).
func CalculateTitleTotals(reservations []booking.Reservation, start, end time.Time) map[string]time.Duration {
	totals := make(map[string]time.Duration)
	for _, r := range reservations {
		duration := clampDuration(r, start, end)
		if duration <= 0 {
			continue
		}
		title := r.Title
		if title == "" {
			title = "(untitled)"
		}
		totals[title] += duration
	}
	return totals
}

// BookedTotal sums booked time within [start, end).
func BookedTotal(reservations []booking.Reservation, start, end time.Time) time.Duration {
	var total time.Duration
	for _, r := range reservations {
		total += clampDuration(r, start, end)
	}
	return total
}

// BookablePerDay is the length of the bookable part of a day.
func BookablePerDay(layout grid.Layout) time.Duration {
	return time.Duration(layout.EndHour-layout.FirstHour) * time.Hour
}
