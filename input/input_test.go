package input

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomgrid/booking"
	"roomgrid/drag"
	"roomgrid/grid"
)

var monday = time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local)

// termGrid: gutter of 6 columns, 10-column days, grid rows start at y=3,
// one row per half hour.
type termGrid struct{}

func (termGrid) DayAt(x int) (time.Time, bool) {
	if x < 6 || x >= 6+70 {
		return time.Time{}, false
	}
	return monday.AddDate(0, 0, (x-6)/10), true
}

func (g termGrid) CellAt(x, y int) (drag.Cell, bool) {
	day, ok := g.DayAt(x)
	if !ok || y < 3 || y >= 3+28 {
		return drag.Cell{}, false
	}
	row := y - 3
	return drag.Cell{Day: day, Hour: 7 + row/2, SecondHalf: row%2 == 1}, true
}

func (g termGrid) ColumnRect(day time.Time) (drag.AnchorRect, bool) {
	i := int(grid.DayStart(day).Sub(monday) / (24 * time.Hour))
	if i < 0 || i > 6 {
		return drag.AnchorRect{}, false
	}
	left := float64(6 + i*10)
	return drag.AnchorRect{Top: 3, Left: left, Right: left + 10, Width: 10}, true
}

func mouse(action tea.MouseAction, button tea.MouseButton, x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: button}
}

func TestTeaMouseDrag(t *testing.T) {
	g := termGrid{}
	c := drag.New(grid.DefaultLayout(2), g, booking.Checker{Room: booking.RoomOne})
	m := &TeaMouse{Hit: g}

	// Hover before press is ignored.
	_, ok := m.Translate(mouse(tea.MouseActionMotion, tea.MouseButtonNone, 10, 5))
	assert.False(t, ok)

	// Tuesday column, 14:00 row.
	ev, ok := m.Translate(mouse(tea.MouseActionPress, tea.MouseButtonLeft, 17, 3+14))
	require.True(t, ok)
	assert.Equal(t, Press, ev.Kind)
	assert.Equal(t, 14, ev.Cell.Hour)
	Dispatch(c, ev)

	ev, ok = m.Translate(mouse(tea.MouseActionMotion, tea.MouseButtonLeft, 18, 3+17))
	require.True(t, ok)
	assert.Equal(t, Move, ev.Kind)
	Dispatch(c, ev)

	ev, ok = m.Translate(mouse(tea.MouseActionRelease, tea.MouseButtonNone, 40, 0))
	require.True(t, ok)
	sel, emitted := Dispatch(c, ev)
	require.True(t, emitted)

	tue := monday.AddDate(0, 0, 1)
	assert.Equal(t, grid.At(tue, 14, 0), sel.Range.Start)
	assert.Equal(t, grid.At(tue, 15, 30), sel.Range.End)
	assert.Equal(t, drag.AnchorRect{Top: 3 + 14, Left: 16, Right: 26, Width: 10}, sel.Anchor)
	assert.False(t, m.Pressed())
}

func TestTeaMouseIgnoresOtherButtons(t *testing.T) {
	m := &TeaMouse{Hit: termGrid{}}
	_, ok := m.Translate(mouse(tea.MouseActionPress, tea.MouseButtonWheelDown, 10, 5))
	assert.False(t, ok)
	_, ok = m.Translate(mouse(tea.MouseActionPress, tea.MouseButtonRight, 10, 5))
	assert.False(t, ok)
	_, ok = m.Translate(mouse(tea.MouseActionRelease, tea.MouseButtonNone, 10, 5))
	assert.False(t, ok)
}

func TestTeaMousePressOutsideGrid(t *testing.T) {
	m := &TeaMouse{Hit: termGrid{}}
	_, ok := m.Translate(mouse(tea.MouseActionPress, tea.MouseButtonLeft, 2, 5))
	assert.False(t, ok)
	assert.False(t, m.Pressed())
}

func TestTcellTracker(t *testing.T) {
	g := termGrid{}
	c := drag.New(grid.DefaultLayout(2), g, booking.Checker{Room: booking.RoomOne})
	tr := &TcellTracker{Hit: g}

	ev, ok := tr.Translate(tcell.NewEventMouse(8, 3+4, tcell.Button1, tcell.ModNone))
	require.True(t, ok)
	assert.Equal(t, Press, ev.Kind)
	assert.Equal(t, 9, ev.Cell.Hour)
	Dispatch(c, ev)

	ev, ok = tr.Translate(tcell.NewEventMouse(8, 3+5, tcell.Button1, tcell.ModNone))
	require.True(t, ok)
	assert.Equal(t, Move, ev.Kind)
	Dispatch(c, ev)
	assert.True(t, c.HasMoved())

	ev, ok = tr.Translate(tcell.NewEventMouse(8, 3+5, tcell.ButtonNone, tcell.ModNone))
	require.True(t, ok)
	assert.Equal(t, Release, ev.Kind)
	_, emitted := Dispatch(c, ev)
	// 09:00 -> 09:30 on Monday.
	assert.True(t, emitted)

	_, ok = tr.Translate(tcell.NewEventMouse(8, 3+5, tcell.ButtonNone, tcell.ModNone))
	assert.False(t, ok)
}

func TestTapTouchMode(t *testing.T) {
	g := termGrid{}
	c := drag.New(grid.DefaultLayout(2), g, booking.Checker{Room: booking.RoomOne}, drag.WithMode(grid.Touch))

	ev, ok := Tap(g, 26, 3+2)
	require.True(t, ok)
	sel, emitted := Dispatch(c, ev)
	require.True(t, emitted)
	wed := monday.AddDate(0, 0, 2)
	assert.Equal(t, booking.TimeRange{Start: grid.At(wed, 8, 0), End: grid.At(wed, 9, 0)}, sel.Range)
	assert.Equal(t, drag.Idle, c.State())

	_, ok = Tap(g, 0, 0)
	assert.False(t, ok)
}
