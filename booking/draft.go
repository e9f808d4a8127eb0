package booking

import (
	"time"

	"roomgrid/grid"
)

const slot = grid.SlotMinutes * time.Minute

// Draft is the time range being edited in the creation or edit form.
// Every change goes through IsAvailable against the room's reservations.
type Draft struct {
	Room      Room
	Range     TimeRange
	ExcludeID string
}

// SetStart moves the start to t. When t is at or after the current end the
// end is pushed to t+30min. The change is rejected (false) if the resulting
// range is not available.
func (d *Draft) SetStart(t time.Time, existing []Reservation) bool {
	next := TimeRange{Start: t, End: d.Range.End}
	if !next.End.After(t) {
		next.End = t.Add(slot)
	}
	return d.apply(next, existing)
}

// SetEnd moves the end to t. When t is at or before the current start the
// start is pulled to t-30min.
func (d *Draft) SetEnd(t time.Time, existing []Reservation) bool {
	next := TimeRange{Start: d.Range.Start, End: t}
	if !t.After(next.Start) {
		next.Start = t.Add(-slot)
	}
	return d.apply(next, existing)
}

// ShiftStart moves the start by n half-cells.
func (d *Draft) ShiftStart(n int, existing []Reservation) bool {
	return d.SetStart(d.Range.Start.Add(time.Duration(n)*slot), existing)
}

// ShiftEnd moves the end by n half-cells.
func (d *Draft) ShiftEnd(n int, existing []Reservation) bool {
	return d.SetEnd(d.Range.End.Add(time.Duration(n)*slot), existing)
}

// Available reports whether the current range is free.
func (d *Draft) Available(existing []Reservation) bool {
	return IsAvailable(d.Range, ForRoom(existing, d.Room), d.ExcludeID)
}

func (d *Draft) apply(next TimeRange, existing []Reservation) bool {
	if !IsAvailable(next, ForRoom(existing, d.Room), d.ExcludeID) {
		return false
	}
	d.Range = next
	return true
}

// TimeOption is one selectable half-hour in a start/end picker.
type TimeOption struct {
	Time     time.Time
	Label    string
	Disabled bool
}

// TimeOptions lists the half-hour starts of day within the layout. Options
// whose half-cell is already booked in room are disabled.
func TimeOptions(day time.Time, layout grid.Layout, room Room, existing []Reservation, excludeID string) []TimeOption {
	existing = ForRoom(existing, room)
	var options []TimeOption
	for _, hour := range layout.Hours() {
		for _, minute := range []int{0, grid.SlotMinutes} {
			t := grid.At(day, hour, minute)
			cell := TimeRange{Start: t, End: t.Add(slot)}
			options = append(options, TimeOption{
				Time:     t,
				Label:    t.Format("15:04"),
				Disabled: !IsAvailable(cell, existing, excludeID),
			})
		}
	}
	return options
}
