// Package input adapts device events (terminal mouse via bubbletea or
// tcell, touch taps) to the three events the drag controller understands.
package input

import (
	"time"

	"roomgrid/drag"
)

// Kind of controller event.
type Kind int

const (
	Press Kind = iota
	Move
	Release
)

func (k Kind) String() string {
	switch k {
	case Press:
		return "press"
	case Move:
		return "move"
	default:
		return "release"
	}
}

// Event is the device-independent form of a pointer or touch event.
type Event struct {
	Kind Kind
	Cell drag.Cell // Press
	Day  time.Time // Move
	Y    float64   // Move, screen coordinate
}

// HitTester resolves screen coordinates against the rendered grid.
type HitTester interface {
	// CellAt returns the half-cell under (x, y).
	CellAt(x, y int) (drag.Cell, bool)
	// DayAt returns the day column under x.
	DayAt(x int) (time.Time, bool)
}

// Dispatch feeds ev to c and returns any selection the controller emits.
func Dispatch(c *drag.Controller, ev Event) (drag.Selection, bool) {
	switch ev.Kind {
	case Press:
		return c.Press(ev.Cell.Day, ev.Cell.Hour, ev.Cell.SecondHalf)
	case Move:
		c.Move(ev.Day, ev.Y)
		return drag.Selection{}, false
	default:
		return c.Release()
	}
}

// Tap is the touch adapter: a tap on a half-cell is a press and nothing
// else. The controller, in touch mode, emits from the press itself.
func Tap(hit HitTester, x, y int) (Event, bool) {
	cell, ok := hit.CellAt(x, y)
	if !ok {
		return Event{}, false
	}
	return Event{Kind: Press, Cell: cell}, true
}

func press(hit HitTester, x, y int) (Event, bool) {
	return Tap(hit, x, y)
}

func move(hit HitTester, x, y int) (Event, bool) {
	day, ok := hit.DayAt(x)
	if !ok {
		return Event{}, false
	}
	return Event{Kind: Move, Day: day, Y: float64(y)}, true
}
