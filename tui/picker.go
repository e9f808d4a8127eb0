package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"roomgrid/booking"
	"roomgrid/drag"
	"roomgrid/grid"
	"roomgrid/input"
	"roomgrid/refresh"
)

// ErrPickCancelled is returned by Pick when the user leaves without
// choosing a range.
var ErrPickCancelled = errors.New("no time picked")

// PickOptions configures Pick. Screen, when set, must already be
// initialised; Pick then leaves it open.
type PickOptions struct {
	Options
	Screen tcell.Screen
}

func tcellColor(c lipgloss.Color) tcell.Color {
	return tcell.GetColor(string(c))
}

var (
	pickBase    = tcell.StyleDefault
	pickMuted   = pickBase.Foreground(tcellColor(ColorMuted))
	pickTitle   = pickBase.Foreground(tcellColor(ColorAccent)).Bold(true)
	pickError   = pickBase.Foreground(tcell.ColorRed)
	pickBooked  = pickBase.Background(tcellColor(ColorBooked)).Foreground(tcell.ColorWhite)
	pickValid   = pickBase.Background(tcellColor(ColorValid)).Foreground(tcell.ColorWhite)
	pickInvalid = pickBase.Background(tcellColor(ColorInvalid)).Foreground(tcell.ColorWhite)
)

// picker is the tcell host of the drag controller: a bare week grid with
// no popups. It returns the first selection instead of opening an editor.
type picker struct {
	screen    tcell.Screen
	refresher *refresh.Refresher
	drag      *drag.Controller
	mouse     *input.TcellTracker
	geo       *gridGeometry
	room      booking.Room
	touch     bool
	logger    *zap.Logger

	message string
}

// Pick draws the room's week on a tcell screen and blocks until the user
// drags out (or, in touch mode, taps) a free range. Esc or q cancels with
// ErrPickCancelled.
func Pick(ctx context.Context, opts PickOptions) (drag.Selection, error) {
	if opts.Bookings == nil {
		return drag.Selection{}, errors.New("pick: no booking service")
	}
	screen := opts.Screen
	if screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return drag.Selection{}, fmt.Errorf("open terminal: %w", err)
		}
		if err := s.Init(); err != nil {
			return drag.Selection{}, fmt.Errorf("init terminal: %w", err)
		}
		defer s.Fini()
		screen = s
	}
	screen.EnableMouse(tcell.MouseButtonEvents | tcell.MouseDragEvents)

	p := newPicker(screen, opts.Options)
	if err := p.refresher.Refresh(ctx); err != nil {
		return drag.Selection{}, fmt.Errorf("load reservations: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = screen.PostEvent(tcell.NewEventInterrupt(nil))
	}()

	return p.loop(ctx)
}

func newPicker(screen tcell.Screen, opts Options) *picker {
	clock := opts.Now
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	room := opts.Room
	if room == "" {
		room = booking.Rooms[0]
	}
	inputMode := grid.Pointer
	if opts.Touch {
		inputMode = grid.Touch
	}
	presets := grid.Presets{Pointer: opts.Config.Grid.PointerCellHeight, Touch: opts.Config.Grid.TouchCellHeight}
	layout := opts.Bookings.Layout()
	layout.CellHeight = float64(rowsPerHour(presets.CellHeight(inputMode)))

	now := clock()
	geo := newGridGeometry(layout)
	geo.setWeek(now)

	p := &picker{
		screen: screen,
		geo:    geo,
		room:   room,
		touch:  opts.Touch,
		logger: logger.Named("pick"),
	}
	p.refresher = refresh.New(opts.Bookings, p.query(), opts.Config.Refresh.Interval, logger.Named("refresh"))
	p.drag = drag.New(layout, geo, booking.Checker{Room: room, Source: p.refresher},
		drag.WithMode(inputMode),
		drag.WithLogger(logger.Named("drag")),
	)
	p.mouse = &input.TcellTracker{Hit: geo}
	p.resize()
	geo.scrollTo(now)
	return p
}

func (p *picker) query() refresh.Query {
	from, to := grid.WeekRange(p.geo.days[0])
	return refresh.Query{Room: p.room, Week: booking.TimeRange{Start: from, End: to}}
}

func (p *picker) resize() {
	w, h := p.screen.Size()
	p.geo.resize(w, h-gridTop)
}

func (p *picker) setWeek(ctx context.Context, day time.Time) {
	p.drag.Cancel()
	p.geo.setWeek(day)
	p.refresher.SetQuery(p.query())
	if err := p.refresher.Refresh(ctx); err != nil && !errors.Is(err, refresh.ErrInFlight) {
		p.message = "Could not load reservations."
		p.logger.Warn("reload failed", zap.Error(err))
	}
}

func (p *picker) loop(ctx context.Context) (drag.Selection, error) {
	for {
		p.draw()
		switch ev := p.screen.PollEvent().(type) {
		case nil:
			return drag.Selection{}, ErrPickCancelled
		case *tcell.EventInterrupt:
			if err := ctx.Err(); err != nil {
				return drag.Selection{}, err
			}
		case *tcell.EventResize:
			p.resize()
			p.screen.Sync()
		case *tcell.EventKey:
			if p.handleKey(ctx, ev) {
				return drag.Selection{}, ErrPickCancelled
			}
		case *tcell.EventMouse:
			if sel, ok := p.handleMouse(ev); ok {
				return sel, nil
			}
		}
	}
}

// handleKey reports whether the picker should close.
func (p *picker) handleKey(ctx context.Context, ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyLeft:
		p.setWeek(ctx, p.geo.days[0].AddDate(0, 0, -grid.DaysPerWeek))
	case tcell.KeyRight:
		p.setWeek(ctx, p.geo.days[0].AddDate(0, 0, grid.DaysPerWeek))
	case tcell.KeyUp:
		p.geo.scrollBy(-1)
	case tcell.KeyDown:
		p.geo.scrollBy(1)
	case tcell.KeyRune:
		return ev.Rune() == 'q'
	}
	return false
}

func (p *picker) handleMouse(ev *tcell.EventMouse) (drag.Selection, bool) {
	switch {
	case ev.Buttons()&tcell.WheelUp != 0:
		p.geo.scrollBy(-1)
		return drag.Selection{}, false
	case ev.Buttons()&tcell.WheelDown != 0:
		p.geo.scrollBy(1)
		return drag.Selection{}, false
	}

	in, ok := p.mouse.Translate(ev)
	if !ok {
		return drag.Selection{}, false
	}
	wasDragging := p.drag.State() == drag.Dragging
	sel, emitted := input.Dispatch(p.drag, in)
	if emitted {
		return sel, true
	}
	// A press that did not start a drag hit a booked cell.
	rejected := (in.Kind == input.Release && wasDragging) ||
		(in.Kind == input.Press && p.drag.State() != drag.Dragging)
	if rejected {
		p.message = "That time is not available."
	} else if in.Kind == input.Press {
		p.message = ""
	}
	return drag.Selection{}, false
}

func (p *picker) put(x, y int, text string, style tcell.Style) {
	for _, r := range text {
		p.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (p *picker) draw() {
	s := p.screen
	s.Clear()
	w, _ := s.Size()

	days := p.geo.days
	p.put(0, 0, fmt.Sprintf("%s  week of %s", p.room, days[0].Format("Mon 02 Jan")), pickTitle)
	hint := "drag over free time, esc to cancel"
	if p.touch {
		hint = "tap a free half hour, esc to cancel"
	}
	if len(hint) < w {
		p.put(w-len(hint), 0, hint, pickMuted)
	}
	p.put(0, 1, p.message, pickError)

	for i, day := range days {
		x := gutterWidth + i*p.geo.columnWidth
		p.put(x+1, gridTop-1, day.Format("Mon 02"), pickMuted)
	}

	reservations := booking.ForRoom(p.refresher.Reservations(), p.room)
	rows := p.geo.rows()
	for screenRow := 0; screenRow < p.geo.visibleRows; screenRow++ {
		row := screenRow + p.geo.scroll
		if row >= p.geo.totalRows() {
			break
		}
		y := gridTop + screenRow
		if row%rows == 0 {
			p.put(0, y, fmt.Sprintf("%02d:00", p.geo.layout.FirstHour+row/rows), pickMuted)
		}
		for i, day := range days {
			t := p.geo.rowStart(day, row)
			style := pickBase
			fill := '·'
			switch {
			case p.drag.InRange(day, t):
				style, fill = pickValid, ' '
				if !p.drag.Valid() {
					style = pickInvalid
				}
			case bookedAt(reservations, t):
				style, fill = pickBooked, ' '
			}
			x := gutterWidth + i*p.geo.columnWidth
			for dx := 1; dx < p.geo.columnWidth; dx++ {
				s.SetContent(x+dx, y, fill, nil, style)
			}
		}
	}
	s.Show()
}

func bookedAt(reservations []booking.Reservation, t time.Time) bool {
	for _, r := range reservations {
		if r.Range().Contains(t) {
			return true
		}
	}
	return false
}
