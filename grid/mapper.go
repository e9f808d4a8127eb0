package grid

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// SlotMinutes is the length of a half-cell, the smallest selectable unit.
const SlotMinutes = 30

// ErrOutOfRange is returned for hours outside the configured grid.
var ErrOutOfRange = errors.New("hour outside grid range")

// Layout describes the vertical geometry of one day column: the hours it
// spans and how tall a one-hour cell is, in whatever unit the host renders
// (screen pixels in a browser, rows in a terminal).
type Layout struct {
	FirstHour  int     // first hour shown, inclusive
	EndHour    int     // last hour shown, exclusive
	CellHeight float64 // height of a one-hour cell
}

// DefaultLayout is the 07:00-21:00 grid with the given cell height.
func DefaultLayout(cellHeight float64) Layout {
	return Layout{FirstHour: 7, EndHour: 21, CellHeight: cellHeight}
}

// Validate reports whether the layout can be used for mapping.
func (l Layout) Validate() error {
	if l.FirstHour < 0 || l.EndHour > 24 || l.EndHour <= l.FirstHour {
		return fmt.Errorf("invalid hour range %d-%d", l.FirstHour, l.EndHour)
	}
	if l.CellHeight <= 0 {
		return fmt.Errorf("invalid cell height %v", l.CellHeight)
	}
	return nil
}

// Hours returns the hour labels of the grid, one per cell.
func (l Layout) Hours() []int {
	hours := make([]int, 0, l.EndHour-l.FirstHour)
	for h := l.FirstHour; h < l.EndHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Span is the total height of a day column.
func (l Layout) Span() float64 {
	return float64(l.EndHour-l.FirstHour) * l.CellHeight
}

// CellToInstant returns the wall-clock start of the half-cell at hour on day.
func (l Layout) CellToInstant(day time.Time, hour int, secondHalf bool) (time.Time, error) {
	if hour < l.FirstHour || hour >= l.EndHour {
		return time.Time{}, fmt.Errorf("%w: %d", ErrOutOfRange, hour)
	}
	minute := 0
	if secondHalf {
		minute = SlotMinutes
	}
	return At(day, hour, minute), nil
}

// PixelToInstant maps a vertical offset inside a day column to the start of
// the half-cell under it. Offsets before the first hour or at/after the end
// hour report false and must be ignored by the caller.
func (l Layout) PixelToInstant(day time.Time, offset float64) (time.Time, bool) {
	if offset < 0 || offset >= l.Span() || l.CellHeight <= 0 {
		return time.Time{}, false
	}
	hour := int(math.Floor(offset/l.CellHeight)) + l.FirstHour
	half := l.CellHeight / 2
	minute := int(math.Floor(math.Mod(offset, l.CellHeight)/half)) * SlotMinutes
	if hour >= l.EndHour {
		return time.Time{}, false
	}
	return At(day, hour, minute), true
}

// InstantToPixelTop is the inverse of PixelToInstant: the offset of t's top
// edge inside its day column.
func (l Layout) InstantToPixelTop(t time.Time) float64 {
	return float64(t.Hour()-l.FirstHour)*l.CellHeight + float64(t.Minute())*l.CellHeight/60
}

// Contains reports whether t falls on a half-cell boundary inside the grid.
func (l Layout) Contains(t time.Time) bool {
	return t.Hour() >= l.FirstHour && t.Hour() < l.EndHour && t.Minute()%SlotMinutes == 0
}

// At builds the wall-clock instant hour:minute on day's calendar date.
func At(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Mode selects the input device class of the host.
type Mode int

const (
	// Pointer hosts (mouse) support press, drag and release.
	Pointer Mode = iota
	// Touch hosts have no drag; a tap selects a default slot.
	Touch
)

func (m Mode) String() string {
	if m == Touch {
		return "touch"
	}
	return "pointer"
}

// Presets holds the two fixed cell heights, one per device class.
type Presets struct {
	Pointer float64
	Touch   float64
}

// CellHeight returns the preset for mode.
func (p Presets) CellHeight(mode Mode) float64 {
	if mode == Touch {
		return p.Touch
	}
	return p.Pointer
}
