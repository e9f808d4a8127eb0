package drag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomgrid/booking"
	"roomgrid/grid"
)

const cell = 48.0

var (
	monday  = time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local)
	tuesday = monday.AddDate(0, 0, 1)
)

func at(day time.Time, hour, minute int) time.Time {
	return grid.At(day, hour, minute)
}

// fakeGeometry lays columns out left to right, 100 wide, with the grid
// starting at y=200.
type fakeGeometry struct {
	hidden map[string]bool
}

func (g *fakeGeometry) ColumnRect(day time.Time) (AnchorRect, bool) {
	if g.hidden[day.Format("2006-01-02")] {
		return AnchorRect{}, false
	}
	i := float64(grid.DayStart(day).Sub(monday) / (24 * time.Hour))
	return AnchorRect{Top: 200, Left: 50 + i*100, Right: 150 + i*100, Width: 100}, true
}

func (g *fakeGeometry) hide(day time.Time) {
	if g.hidden == nil {
		g.hidden = map[string]bool{}
	}
	g.hidden[day.Format("2006-01-02")] = true
}

// y returns the screen y at the top of hour:minute plus a small nudge.
func y(hour, minute int) float64 {
	return 200 + float64(hour-7)*cell + float64(minute)*cell/60 + 1
}

func newController(existing booking.List, opts ...Option) (*Controller, *fakeGeometry) {
	g := &fakeGeometry{}
	checker := booking.Checker{Room: booking.RoomOne, Source: existing}
	return New(grid.DefaultLayout(cell), g, checker, opts...), g
}

func tenToEleven() booking.List {
	return booking.List{{
		ID: "r1", Room: booking.RoomOne,
		Start: at(monday, 10, 0), End: at(monday, 11, 0), Title: "standup",
	}}
}

func TestClickWithoutMoveConflicts(t *testing.T) {
	c, _ := newController(tenToEleven())

	_, ok := c.Press(monday, 9, true)
	assert.False(t, ok)
	assert.Equal(t, Dragging, c.State())

	// [09:30, 10:30) overlaps 10:00-11:00.
	_, ok = c.Release()
	assert.False(t, ok)
	assert.Equal(t, Idle, c.State())
}

func TestClickWithoutMoveAbutsBooking(t *testing.T) {
	c, _ := newController(tenToEleven())

	c.Press(monday, 9, false)
	sel, ok := c.Release()
	require.True(t, ok)
	assert.Equal(t, booking.TimeRange{Start: at(monday, 9, 0), End: at(monday, 10, 0)}, sel.Range)
	assert.Equal(t, AnchorRect{Top: 200 + 2*cell, Left: 50, Right: 150, Width: 100}, sel.Anchor)
}

func TestDragDown(t *testing.T) {
	c, _ := newController(nil)

	c.Press(monday, 14, false)
	c.Move(monday, y(15, 0))
	c.Move(monday, y(15, 30))
	assert.True(t, c.HasMoved())
	assert.True(t, c.Valid())

	sel, ok := c.Release()
	require.True(t, ok)
	assert.Equal(t, booking.TimeRange{Start: at(monday, 14, 0), End: at(monday, 15, 30)}, sel.Range)
	assert.Equal(t, 200+7*cell, sel.Anchor.Top)
}

func TestDragUpNormalizes(t *testing.T) {
	c, _ := newController(nil)

	c.Press(monday, 16, false)
	c.Move(monday, y(13, 30))

	r, ok := c.Preview()
	require.True(t, ok)
	assert.True(t, r.Start.Before(r.End))

	sel, ok := c.Release()
	require.True(t, ok)
	assert.Equal(t, at(monday, 13, 30), sel.Range.Start)
	assert.Equal(t, at(monday, 16, 0), sel.Range.End)
	assert.Equal(t, 200+6.5*cell, sel.Anchor.Top)
}

func TestDragAcrossBookingIsInvalid(t *testing.T) {
	c, _ := newController(tenToEleven())

	c.Press(monday, 9, false)
	c.Move(monday, y(11, 30))
	assert.False(t, c.Valid())

	_, ok := c.Release()
	assert.False(t, ok)
	assert.Equal(t, Idle, c.State())
}

func TestDragBackOntoStartIsEmpty(t *testing.T) {
	c, _ := newController(nil)

	c.Press(monday, 9, false)
	c.Move(monday, y(10, 0))
	c.Move(monday, y(9, 0))
	assert.True(t, c.HasMoved())
	assert.False(t, c.Valid())

	_, ok := c.Release()
	assert.False(t, ok)
}

func TestMoveOtherColumnIgnored(t *testing.T) {
	c, _ := newController(nil)

	c.Press(monday, 9, false)
	c.Move(tuesday, y(12, 0))
	assert.False(t, c.HasMoved())

	c.Move(monday, y(10, 0))
	c.Move(tuesday, y(15, 0))
	end, ok := c.End()
	require.True(t, ok)
	assert.True(t, grid.SameDay(monday, end.Day))
	assert.Equal(t, at(monday, 10, 0), end.Time)

	sel, ok := c.Release()
	require.True(t, ok)
	assert.True(t, grid.SameDay(monday, sel.Range.End))
}

func TestMoveOutsideGridIgnored(t *testing.T) {
	c, _ := newController(nil)

	c.Press(monday, 9, false)
	c.Move(monday, 100)       // above 07:00
	c.Move(monday, y(21, 10)) // below 21:00
	assert.False(t, c.HasMoved())
}

func TestPressOnBookedCell(t *testing.T) {
	c, _ := newController(tenToEleven())

	_, ok := c.Press(monday, 10, true)
	assert.False(t, ok)
	assert.Equal(t, Idle, c.State())
	got, flagged := c.InvalidCell()
	require.True(t, flagged)
	assert.Equal(t, 10, got.Hour)
	assert.True(t, got.SecondHalf)

	_, ok = c.Release()
	assert.False(t, ok)
	_, flagged = c.InvalidCell()
	assert.False(t, flagged)
}

func TestPressOutsideHours(t *testing.T) {
	c, _ := newController(nil)
	_, ok := c.Press(monday, 21, false)
	assert.False(t, ok)
	assert.Equal(t, Idle, c.State())
}

func TestReleaseWhileIdleIsNoop(t *testing.T) {
	c, _ := newController(nil)
	_, ok := c.Release()
	assert.False(t, ok)
	assert.Equal(t, Idle, c.State())
}

func TestMissingColumnDropsSelection(t *testing.T) {
	c, g := newController(nil)

	c.Press(monday, 9, false)
	g.hide(monday)
	_, ok := c.Release()
	assert.False(t, ok)
	assert.Equal(t, Idle, c.State())
}

func TestSecondPressDiscardsDrag(t *testing.T) {
	c, _ := newController(nil)

	c.Press(monday, 9, false)
	c.Move(monday, y(11, 0))
	c.Press(tuesday, 14, false)

	start, ok := c.Start()
	require.True(t, ok)
	assert.Equal(t, at(tuesday, 14, 0), start.Time)
	assert.False(t, c.HasMoved())

	sel, ok := c.Release()
	require.True(t, ok)
	assert.Equal(t, booking.TimeRange{Start: at(tuesday, 14, 0), End: at(tuesday, 15, 0)}, sel.Range)
	assert.Equal(t, 150.0, sel.Anchor.Left)
}

func TestReleaseUsesFreshestReservations(t *testing.T) {
	var current booking.List
	avail := AvailabilityFunc(func(r booking.TimeRange) bool {
		return booking.IsAvailable(r, current, "")
	})
	c := New(grid.DefaultLayout(cell), &fakeGeometry{}, avail)

	c.Press(monday, 9, false)
	c.Move(monday, y(10, 0))
	assert.True(t, c.Valid())

	// A refresh lands mid-drag.
	current = booking.List{{ID: "x", Start: at(monday, 9, 30), End: at(monday, 10, 0)}}
	_, ok := c.Release()
	assert.False(t, ok)
}

func TestTouchModeEmitsOnPress(t *testing.T) {
	var emitted []Selection
	c, _ := newController(tenToEleven(), WithMode(grid.Touch), WithSelectHandler(func(s Selection) {
		emitted = append(emitted, s)
	}))

	sel, ok := c.Press(monday, 8, false)
	require.True(t, ok)
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, booking.TimeRange{Start: at(monday, 8, 0), End: at(monday, 9, 0)}, sel.Range)
	assert.Len(t, emitted, 1)

	// One hour from 09:30 would overlap the 10:00 booking.
	_, ok = c.Press(monday, 9, true)
	assert.False(t, ok)
	assert.Equal(t, Idle, c.State())

	c.Move(monday, y(12, 0))
	_, ok = c.Release()
	assert.False(t, ok)
	assert.Len(t, emitted, 1)
}

func TestInRange(t *testing.T) {
	c, _ := newController(nil)
	c.Press(monday, 9, false)
	c.Move(monday, y(10, 0))

	assert.True(t, c.InRange(monday, at(monday, 9, 0)))
	assert.True(t, c.InRange(monday, at(monday, 9, 30)))
	assert.True(t, c.InRange(monday, at(monday, 10, 0)))
	assert.False(t, c.InRange(monday, at(monday, 10, 30)))
	assert.False(t, c.InRange(tuesday, at(tuesday, 9, 30)))
}
