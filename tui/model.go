package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"roomgrid/booking"
	"roomgrid/drag"
	"roomgrid/grid"
	"roomgrid/input"
	"roomgrid/refresh"
	"roomgrid/service"
)

type mode int

const (
	modeGrid mode = iota
	modeEditor
	modeDetails
)

const (
	sidebarWidth    = 36
	sidebarMinWidth = 110
	clockInterval   = 30 * time.Second
	// Lines below the grid: message and footer.
	gridBottom = 2
)

type refreshedMsg struct{ err error }

type clockMsg time.Time

type savedMsg struct {
	text string
	err  error
}

type verifiedMsg struct {
	reservation booking.Reservation
	secret      string
	err         error
}

// Model is the bubbletea model of the week grid.
type Model struct {
	ctx       context.Context
	bookings  *service.Bookings
	refresher *refresh.Refresher
	drag      *drag.Controller
	mouse     *input.TeaMouse
	geo       *gridGeometry
	logger    *zap.Logger
	clock     func() time.Time

	room    booking.Room
	now     time.Time
	width   int
	height  int
	mode    mode
	editor  *editor
	details *details

	message      string
	messageError bool
}

// NewModel wires the grid geometry, drag controller and refresher for the
// room and week of opts.
func NewModel(ctx context.Context, opts Options) *Model {
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

	m := &Model{
		ctx:      ctx,
		bookings: opts.Bookings,
		geo:      geo,
		logger:   logger,
		clock:    clock,
		room:     room,
		now:      now,
		width:    80,
		height:   24,
	}
	m.refresher = refresh.New(opts.Bookings, m.query(), opts.Config.Refresh.Interval, logger.Named("refresh"))
	m.drag = drag.New(layout, geo, m.availability(),
		drag.WithMode(inputMode),
		drag.WithLogger(logger.Named("drag")),
	)
	m.mouse = &input.TeaMouse{Hit: geo}
	m.resize(m.width, m.height)
	geo.scrollTo(now)
	return m
}

func (m *Model) query() refresh.Query {
	from, to := grid.WeekRange(m.geo.days[0])
	return refresh.Query{Room: m.room, Week: booking.TimeRange{Start: from, End: to}}
}

func (m *Model) availability() booking.Checker {
	return booking.Checker{Room: m.room, Source: m.refresher}
}

// reservations is the current snapshot for the active room.
func (m *Model) reservations() []booking.Reservation {
	return booking.ForRoom(m.refresher.Reservations(), m.room)
}

func (m *Model) gridWidth() int {
	if m.width >= sidebarMinWidth {
		return m.width - sidebarWidth
	}
	return m.width
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.geo.resize(m.gridWidth(), height-gridTop-gridBottom)
}

func (m *Model) reload() tea.Cmd {
	ctx := m.ctx
	r := m.refresher
	return func() tea.Msg {
		err := r.Refresh(ctx)
		if errors.Is(err, refresh.ErrInFlight) {
			return nil
		}
		return refreshedMsg{err: err}
	}
}

func tickClock() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg { return clockMsg(t) })
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.reload(), tickClock())
}

// setWeek moves the grid to the week containing day.
func (m *Model) setWeek(day time.Time) tea.Cmd {
	m.drag.Cancel()
	m.mouse.Reset()
	m.geo.setWeek(day)
	m.refresher.SetQuery(m.query())
	return m.reload()
}

func (m *Model) setRoom(room booking.Room) tea.Cmd {
	m.drag.Cancel()
	m.mouse.Reset()
	m.room = room
	m.drag.SetAvailability(m.availability())
	m.refresher.SetQuery(m.query())
	return m.reload()
}

func (m *Model) flash(text string, isErr bool) {
	m.message = text
	m.messageError = isErr
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.FocusMsg:
		m.refresher.Resume()
		return m, m.reload()

	case tea.BlurMsg:
		m.refresher.Pause()
		return m, nil

	case clockMsg:
		m.now = m.clock()
		return m, tickClock()

	case refreshedMsg:
		if msg.err != nil {
			m.flash("Could not load reservations: "+msg.err.Error(), true)
		}
		return m, nil

	case savedMsg:
		return m, m.handleSaved(msg)

	case verifiedMsg:
		m.handleVerified(msg)
		return m, nil

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		switch m.mode {
		case modeEditor:
			return m, m.handleEditorKey(msg)
		case modeDetails:
			return m, m.handleDetailsKey(msg)
		}
		return m.handleGridKey(msg)
	}
	return m, nil
}

func (m *Model) handleGridKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		return m, m.setWeek(m.geo.days[0].AddDate(0, 0, -7))
	case "right", "l":
		return m, m.setWeek(m.geo.days[0].AddDate(0, 0, 7))
	case "t":
		m.now = m.clock()
		cmd := m.setWeek(m.now)
		m.geo.scrollTo(m.now)
		return m, cmd
	case "tab", "r":
		return m, m.setRoom(m.room.Next())
	case "R":
		m.flash("Reloaded.", false)
		return m, m.reload()
	case "up", "k":
		m.geo.scrollBy(-1)
	case "down", "j":
		m.geo.scrollBy(1)
	case "pgup":
		m.geo.scrollBy(-m.geo.rows())
	case "pgdown":
		m.geo.scrollBy(m.geo.rows())
	case "esc":
		m.drag.Cancel()
		m.mouse.Reset()
	}
	return m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.mode != modeGrid {
		return nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.geo.scrollBy(-1)
		return nil
	case tea.MouseButtonWheelDown:
		m.geo.scrollBy(1)
		return nil
	}

	if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
		if r, ok := m.geo.reservationAt(msg.X, msg.Y, m.reservations()); ok {
			anchor, _ := m.geo.ColumnRect(r.Start)
			anchor.Top += m.drag.Layout().InstantToPixelTop(r.Start)
			m.details = newDetails(r, anchor)
			m.mode = modeDetails
			return nil
		}
	}

	ev, ok := m.mouse.Translate(msg)
	if !ok {
		return nil
	}
	dragging := m.drag.State() == drag.Dragging
	sel, ok := input.Dispatch(m.drag, ev)
	if !ok {
		rejected := ev.Kind == input.Release && dragging
		if m.drag.Mode() == grid.Touch && ev.Kind == input.Press {
			rejected = true
		}
		if rejected {
			m.flash("That time is not available.", true)
		}
		return nil
	}
	m.openEditor(sel)
	return nil
}

func (m *Model) openEditor(sel drag.Selection) {
	m.logger.Debug("selection", zap.Stringer("range", sel.Range))
	m.editor = newCreateEditor(m.room, sel, m.drag.Layout())
	m.mode = modeEditor
	m.message = ""
}

func (m *Model) closePopup() {
	m.mode = modeGrid
	m.editor = nil
	m.details = nil
}

func (m *Model) handleEditorKey(msg tea.KeyMsg) tea.Cmd {
	e := m.editor
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "esc":
		m.closePopup()
		return nil
	case "tab":
		e.focusNext(1)
		return nil
	case "shift+tab":
		e.focusNext(-1)
		return nil
	case "up":
		if e.focus == fieldStart || e.focus == fieldEnd {
			e.shift(-1, m.reservations())
			return nil
		}
	case "down":
		if e.focus == fieldStart || e.focus == fieldEnd {
			e.shift(1, m.reservations())
			return nil
		}
	case "enter":
		if !e.draft.Available(m.reservations()) {
			e.err = "That time is no longer available."
			return nil
		}
		return m.submit(e)
	}
	return e.updateInput(msg)
}

// submit runs the create or update off the event loop.
func (m *Model) submit(e *editor) tea.Cmd {
	ctx := m.ctx
	svc := m.bookings
	title := e.title.Value()
	rng := e.draft.Range
	if e.editing() {
		id, secret := e.id, e.secret
		return func() tea.Msg {
			r, err := svc.Update(ctx, id, secret, rng, title)
			if err != nil {
				return savedMsg{err: err}
			}
			return savedMsg{text: "Updated " + r.Title + " " + r.Range().String()}
		}
	}
	req := service.NewReservation{Room: e.draft.Room, Range: rng, Title: title, Secret: e.secretInput.Value()}
	return func() tea.Msg {
		r, err := svc.Create(ctx, req)
		if err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{text: "Booked " + r.Title + " " + r.Range().String()}
	}
}

func (m *Model) handleSaved(msg savedMsg) tea.Cmd {
	if msg.err != nil {
		switch {
		case m.editor != nil:
			m.editor.err = describe(msg.err)
		case m.details != nil:
			m.details.err = describe(msg.err)
		default:
			m.flash(describe(msg.err), true)
		}
		// A conflict means our snapshot is stale.
		return m.reload()
	}
	m.closePopup()
	m.flash(msg.text, false)
	return m.reload()
}

func (m *Model) handleDetailsKey(msg tea.KeyMsg) tea.Cmd {
	d := m.details
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "esc":
		m.closePopup()
		return nil
	case "enter":
		ctx, svc := m.ctx, m.bookings
		id, secret := d.reservation.ID, d.secret.Value()
		return func() tea.Msg {
			r, err := svc.Verify(ctx, id, secret)
			return verifiedMsg{reservation: r, secret: secret, err: err}
		}
	case "ctrl+d":
		ctx, svc := m.ctx, m.bookings
		r, secret := d.reservation, d.secret.Value()
		return func() tea.Msg {
			if err := svc.Delete(ctx, r.ID, secret); err != nil {
				return savedMsg{err: err}
			}
			return savedMsg{text: "Cancelled " + r.Title + " " + r.Range().String()}
		}
	}
	var cmd tea.Cmd
	d.secret, cmd = d.secret.Update(msg)
	return cmd
}

func (m *Model) handleVerified(msg verifiedMsg) {
	if m.details == nil {
		return
	}
	if msg.err != nil {
		m.details.err = describe(msg.err)
		m.details.secret.SetValue("")
		return
	}
	anchor := m.details.anchor
	m.details = nil
	m.editor = newEditEditor(msg.reservation, msg.secret, anchor, m.drag.Layout())
	m.mode = modeEditor
}

// View implements tea.Model.
func (m *Model) View() string {
	base := renderMainView(m)
	var popup string
	var anchor drag.AnchorRect
	switch {
	case m.mode == modeEditor && m.editor != nil:
		popup, anchor = m.editor.view(m.reservations()), m.editor.anchor
	case m.mode == modeDetails && m.details != nil:
		popup, anchor = m.details.view(), m.details.anchor
	default:
		return base
	}
	x, y := placePopup(anchor, lipgloss.Width(popup), lipgloss.Height(popup), m.width, m.height)
	return overlay(base, popup, x, y)
}
