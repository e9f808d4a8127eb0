// Package drag turns press/move/release events on a week grid into a
// validated time range and the screen rectangle a popup should anchor to.
package drag

import (
	"time"

	"go.uber.org/zap"

	"roomgrid/booking"
	"roomgrid/grid"
)

const (
	halfCell    = grid.SlotMinutes * time.Minute
	defaultSlot = 60 * time.Minute
)

// State of the controller.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// AnchorRect is a screen-space rectangle used to position a popup.
type AnchorRect struct {
	Top   float64
	Left  float64
	Right float64
	Width float64
}

// Geometry reports where a day column is currently rendered. ColumnRect
// returns false when the column is not on screen.
type Geometry interface {
	ColumnRect(day time.Time) (AnchorRect, bool)
}

// Availability decides whether a candidate range is free.
type Availability interface {
	Available(r booking.TimeRange) bool
}

// AvailabilityFunc adapts a function to Availability.
type AvailabilityFunc func(booking.TimeRange) bool

// Available calls f.
func (f AvailabilityFunc) Available(r booking.TimeRange) bool { return f(r) }

// Point is one end of a drag: the pressed column and the half-cell instant.
type Point struct {
	Day  time.Time
	Time time.Time
}

// Cell addresses a half-cell.
type Cell struct {
	Day        time.Time
	Hour       int
	SecondHalf bool
}

// Selection is the finalized result of a press or drag.
type Selection struct {
	Range  booking.TimeRange
	Anchor AnchorRect
}

// Controller is the drag state machine. It is not safe for concurrent use;
// hosts drive it from their single event loop.
type Controller struct {
	layout   grid.Layout
	geometry Geometry
	avail    Availability
	mode     grid.Mode
	onSelect func(Selection)
	logger   *zap.Logger

	state    State
	start    *Point
	end      *Point
	hasMoved bool
	valid    bool
	invalid  *Cell
}

// Option configures a Controller.
type Option func(*Controller)

// WithMode sets pointer or touch behaviour.
func WithMode(mode grid.Mode) Option {
	return func(c *Controller) { c.mode = mode }
}

// WithSelectHandler registers a callback invoked for every emitted selection.
func WithSelectHandler(fn func(Selection)) Option {
	return func(c *Controller) { c.onSelect = fn }
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// New creates an idle controller.
func New(layout grid.Layout, geometry Geometry, avail Availability, opts ...Option) *Controller {
	c := &Controller{
		layout:   layout,
		geometry: geometry,
		avail:    avail,
		logger:   zap.NewNop(),
		valid:    true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAvailability swaps the checker, e.g. when the active room changes.
func (c *Controller) SetAvailability(avail Availability) {
	c.avail = avail
}

// SetLayout replaces the layout, e.g. when the device class changes.
func (c *Controller) SetLayout(layout grid.Layout) {
	c.layout = layout
}

// Layout returns the active layout.
func (c *Controller) Layout() grid.Layout {
	return c.layout
}

// Mode returns the input mode.
func (c *Controller) Mode() grid.Mode {
	return c.mode
}

// State returns Idle or Dragging.
func (c *Controller) State() State {
	return c.state
}

// Start returns the drag start, if dragging.
func (c *Controller) Start() (Point, bool) {
	if c.start == nil {
		return Point{}, false
	}
	return *c.start, true
}

// End returns the live drag end, if dragging.
func (c *Controller) End() (Point, bool) {
	if c.end == nil {
		return Point{}, false
	}
	return *c.end, true
}

// HasMoved reports whether the current drag left its starting half-cell.
func (c *Controller) HasMoved() bool {
	return c.hasMoved
}

// Valid reports whether the last drag step produced an available range.
func (c *Controller) Valid() bool {
	return c.valid
}

// InvalidCell returns the half-cell of the last rejected press. It is a
// transient cue and is cleared by the next press or release.
func (c *Controller) InvalidCell() (Cell, bool) {
	if c.invalid == nil {
		return Cell{}, false
	}
	return *c.invalid, true
}

// Preview returns the normalized range currently covered by the drag.
func (c *Controller) Preview() (booking.TimeRange, bool) {
	if c.state != Dragging || c.start == nil || c.end == nil {
		return booking.TimeRange{}, false
	}
	return booking.Span(c.start.Time, c.end.Time), true
}

// InRange reports whether the half-cell starting at t on day is covered by
// the drag, bounds included.
func (c *Controller) InRange(day, t time.Time) bool {
	r, ok := c.Preview()
	if !ok || !grid.SameDay(c.start.Day, day) {
		return false
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

// Press starts a drag on a half-cell. In touch mode it evaluates a default
// one-hour slot immediately and never enters Dragging; the returned
// selection is only meaningful when ok is true.
func (c *Controller) Press(day time.Time, hour int, secondHalf bool) (Selection, bool) {
	c.reset()

	t, err := c.layout.CellToInstant(day, hour, secondHalf)
	if err != nil {
		c.logger.Debug("press outside grid", zap.Int("hour", hour), zap.Error(err))
		return Selection{}, false
	}

	if !c.available(booking.TimeRange{Start: t, End: t.Add(halfCell)}) {
		c.invalid = &Cell{Day: day, Hour: hour, SecondHalf: secondHalf}
		c.logger.Debug("press on booked cell", zap.Time("time", t))
		return Selection{}, false
	}

	if c.mode == grid.Touch {
		return c.emit(day, booking.TimeRange{Start: t, End: t.Add(defaultSlot)})
	}

	c.state = Dragging
	c.start = &Point{Day: day, Time: t}
	c.end = &Point{Day: day, Time: t}
	c.hasMoved = false
	c.valid = true
	return Selection{}, false
}

// Move updates the drag end from a screen y coordinate over the column of
// day. Moves over other columns, outside the grid, or while idle are
// ignored.
func (c *Controller) Move(day time.Time, screenY float64) {
	if c.state != Dragging || c.mode == grid.Touch || c.start == nil {
		return
	}
	if !grid.SameDay(c.start.Day, day) {
		return
	}
	rect, ok := c.geometry.ColumnRect(c.start.Day)
	if !ok {
		return
	}
	t, ok := c.layout.PixelToInstant(c.start.Day, screenY-rect.Top)
	if !ok || t.Equal(c.end.Time) {
		return
	}

	c.hasMoved = true
	c.end = &Point{Day: c.start.Day, Time: t}
	c.valid = c.available(booking.Span(c.start.Time, t))
}

// Release finishes the drag. A drag that never moved selects a one-hour
// slot from the pressed cell; otherwise the dragged range is used. The
// range is validated against the freshest reservations and nothing is
// emitted if it is taken or the column is no longer rendered. The
// controller is always Idle afterwards.
func (c *Controller) Release() (Selection, bool) {
	if c.state != Dragging || c.start == nil {
		c.reset()
		return Selection{}, false
	}
	start := *c.start
	end := *c.end
	moved := c.hasMoved
	c.reset()

	candidate := booking.Span(start.Time, end.Time)
	if !moved {
		candidate = booking.TimeRange{Start: start.Time, End: start.Time.Add(defaultSlot)}
	}
	return c.emit(start.Day, candidate)
}

// Cancel drops any drag in progress.
func (c *Controller) Cancel() {
	c.reset()
}

func (c *Controller) emit(day time.Time, candidate booking.TimeRange) (Selection, bool) {
	if !c.available(candidate) {
		c.logger.Debug("selection rejected", zap.Stringer("range", candidate))
		return Selection{}, false
	}
	rect, ok := c.geometry.ColumnRect(day)
	if !ok {
		c.logger.Debug("column not rendered, dropping selection", zap.Time("day", day))
		return Selection{}, false
	}

	sel := Selection{
		Range: candidate,
		Anchor: AnchorRect{
			Top:   rect.Top + c.layout.InstantToPixelTop(candidate.Start),
			Left:  rect.Left,
			Right: rect.Right,
			Width: rect.Width,
		},
	}
	if c.onSelect != nil {
		c.onSelect(sel)
	}
	return sel, true
}

func (c *Controller) available(r booking.TimeRange) bool {
	if !r.Valid() {
		return false
	}
	if c.avail == nil {
		return true
	}
	return c.avail.Available(r)
}

func (c *Controller) reset() {
	c.state = Idle
	c.start = nil
	c.end = nil
	c.hasMoved = false
	c.valid = true
	c.invalid = nil
}
