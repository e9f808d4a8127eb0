package tui

import (
	"math"
	"time"

	"roomgrid/booking"
	"roomgrid/drag"
	"roomgrid/grid"
)

const (
	gutterWidth    = 6
	minColumnWidth = 6
	// Rows above the grid: bordered header (3) and day headers (1).
	gridTop = 4
)

// rowsPerHour rounds a configured cell height to an even row count so that
// each half hour covers whole rows.
func rowsPerHour(cellHeight float64) int {
	rows := int(math.Round(cellHeight))
	if rows < 2 {
		rows = 2
	}
	if rows%2 == 1 {
		rows++
	}
	return rows
}

// gridGeometry describes where the week grid is drawn. It is the drag
// controller's geometry provider and the mouse adapter's hit tester.
type gridGeometry struct {
	days        []time.Time
	layout      grid.Layout
	columnWidth int
	// visibleRows is how many grid rows fit on screen; scroll is the first
	// grid row shown.
	visibleRows int
	scroll      int
}

func newGridGeometry(layout grid.Layout) *gridGeometry {
	return &gridGeometry{layout: layout, columnWidth: minColumnWidth}
}

func (g *gridGeometry) rows() int {
	return int(g.layout.CellHeight)
}

func (g *gridGeometry) totalRows() int {
	return (g.layout.EndHour - g.layout.FirstHour) * g.rows()
}

// resize fits the grid into width x height screen cells starting at gridTop.
func (g *gridGeometry) resize(width, height int) {
	g.columnWidth = (width - gutterWidth) / grid.DaysPerWeek
	if g.columnWidth < minColumnWidth {
		g.columnWidth = minColumnWidth
	}
	g.visibleRows = height
	if g.visibleRows < 1 {
		g.visibleRows = 1
	}
	g.clampScroll()
}

func (g *gridGeometry) setWeek(anyDay time.Time) {
	g.days = grid.WeekDays(anyDay)
}

func (g *gridGeometry) scrollBy(rows int) {
	g.scroll += rows
	g.clampScroll()
}

// scrollTo brings t into view.
func (g *gridGeometry) scrollTo(t time.Time) {
	row := int(g.layout.InstantToPixelTop(t))
	if row < g.scroll || row >= g.scroll+g.visibleRows {
		g.scroll = row - g.visibleRows/3
		g.clampScroll()
	}
}

func (g *gridGeometry) clampScroll() {
	maxScroll := g.totalRows() - g.visibleRows
	if maxScroll < 0 {
		maxScroll = 0
	}
	if g.scroll > maxScroll {
		g.scroll = maxScroll
	}
	if g.scroll < 0 {
		g.scroll = 0
	}
}

func (g *gridGeometry) dayIndex(day time.Time) int {
	for i, d := range g.days {
		if grid.SameDay(d, day) {
			return i
		}
	}
	return -1
}

// ColumnRect implements drag.Geometry. Top is the screen row of the grid's
// first hour, which is above the screen when scrolled.
func (g *gridGeometry) ColumnRect(day time.Time) (drag.AnchorRect, bool) {
	i := g.dayIndex(day)
	if i < 0 {
		return drag.AnchorRect{}, false
	}
	left := float64(gutterWidth + i*g.columnWidth)
	return drag.AnchorRect{
		Top:   float64(gridTop - g.scroll),
		Left:  left,
		Right: left + float64(g.columnWidth),
		Width: float64(g.columnWidth),
	}, true
}

// DayAt implements input.HitTester.
func (g *gridGeometry) DayAt(x int) (time.Time, bool) {
	if x < gutterWidth || g.columnWidth <= 0 {
		return time.Time{}, false
	}
	i := (x - gutterWidth) / g.columnWidth
	if i >= len(g.days) {
		return time.Time{}, false
	}
	return g.days[i], true
}

// gridRow maps a screen row to a grid row.
func (g *gridGeometry) gridRow(y int) (int, bool) {
	if y < gridTop || y >= gridTop+g.visibleRows {
		return 0, false
	}
	row := y - gridTop + g.scroll
	if row >= g.totalRows() {
		return 0, false
	}
	return row, true
}

// CellAt implements input.HitTester.
func (g *gridGeometry) CellAt(x, y int) (drag.Cell, bool) {
	day, ok := g.DayAt(x)
	if !ok {
		return drag.Cell{}, false
	}
	row, ok := g.gridRow(y)
	if !ok {
		return drag.Cell{}, false
	}
	rows := g.rows()
	return drag.Cell{
		Day:        day,
		Hour:       g.layout.FirstHour + row/rows,
		SecondHalf: row%rows >= rows/2,
	}, true
}

// rowStart is the instant at the top of a grid row.
func (g *gridGeometry) rowStart(day time.Time, row int) time.Time {
	minutes := row * 60 / g.rows()
	return grid.At(day, g.layout.FirstHour, 0).Add(time.Duration(minutes) * time.Minute)
}

// reservationAt returns the reservation drawn under (x, y).
func (g *gridGeometry) reservationAt(x, y int, reservations []booking.Reservation) (booking.Reservation, bool) {
	day, ok := g.DayAt(x)
	if !ok {
		return booking.Reservation{}, false
	}
	row, ok := g.gridRow(y)
	if !ok {
		return booking.Reservation{}, false
	}
	t := g.rowStart(day, row)
	for _, r := range reservations {
		if r.Range().Contains(t) {
			return r, true
		}
	}
	return booking.Reservation{}, false
}
