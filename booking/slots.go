package booking

import (
	"sort"
	"time"

	"roomgrid/grid"
)

// FreeSlots merges the unbooked half-cells of day into maximal free ranges.
func FreeSlots(day time.Time, layout grid.Layout, reservations []Reservation) []TimeRange {
	cells := (layout.EndHour - layout.FirstHour) * 60 / grid.SlotMinutes
	first := grid.At(day, layout.FirstHour, 0)

	free := make([]bool, cells)
	for i := range free {
		cell := TimeRange{Start: first.Add(time.Duration(i) * slot)}
		cell.End = cell.Start.Add(slot)
		free[i] = IsAvailable(cell, reservations, "")
	}

	var out []TimeRange
	i := 0
	for i < cells {
		if !free[i] {
			i++
			continue
		}
		startIdx := i
		for i < cells && free[i] {
			i++
		}
		out = append(out, TimeRange{
			Start: first.Add(time.Duration(startIdx) * slot),
			End:   first.Add(time.Duration(i) * slot),
		})
	}
	return out
}

// SortByStart orders reservations by start time, then room.
func SortByStart(reservations []Reservation) {
	sort.Slice(reservations, func(i, j int) bool {
		if reservations[i].Start.Equal(reservations[j].Start) {
			return reservations[i].Room < reservations[j].Room
		}
		return reservations[i].Start.Before(reservations[j].Start)
	})
}

// OnDay returns the reservations that start on day's calendar date.
func OnDay(reservations []Reservation, day time.Time) []Reservation {
	var out []Reservation
	for _, r := range reservations {
		if grid.SameDay(r.Start, day) {
			out = append(out, r)
		}
	}
	return out
}
