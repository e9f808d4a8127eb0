package tui

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"roomgrid/booking"
	"roomgrid/drag"
	"roomgrid/grid"
)

// Editor fields, in tab order.
const (
	fieldTitle = iota
	fieldSecret
	fieldStart
	fieldEnd
)

const popupWidth = 44

// editor is the create/edit form opened from a drag selection or from the
// details popup after the secret was accepted.
type editor struct {
	id     string // empty when creating
	secret string // verified secret of the edited reservation
	draft  booking.Draft
	layout grid.Layout

	title       textinput.Model
	secretInput textinput.Model
	focus       int
	anchor      drag.AnchorRect
	err         string
}

func newTitleInput(value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "What is it for?"
	ti.CharLimit = 80
	ti.Width = popupWidth - 14
	ti.Prompt = ""
	ti.SetValue(value)
	return ti
}

func newSecretInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "4 digits"
	ti.CharLimit = booking.SecretLength
	ti.Width = booking.SecretLength + 1
	ti.Prompt = ""
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	return ti
}

func newCreateEditor(room booking.Room, sel drag.Selection, layout grid.Layout) *editor {
	e := &editor{
		draft:       booking.Draft{Room: room, Range: sel.Range},
		layout:      layout,
		title:       newTitleInput(""),
		secretInput: newSecretInput(),
		anchor:      sel.Anchor,
	}
	e.title.Focus()
	return e
}

func newEditEditor(r booking.Reservation, secret string, anchor drag.AnchorRect, layout grid.Layout) *editor {
	e := &editor{
		id:          r.ID,
		secret:      secret,
		draft:       booking.Draft{Room: r.Room, Range: r.Range(), ExcludeID: r.ID},
		layout:      layout,
		title:       newTitleInput(r.Title),
		secretInput: newSecretInput(),
		anchor:      anchor,
	}
	e.title.Focus()
	return e
}

func (e *editor) editing() bool {
	return e.id != ""
}

func (e *editor) fields() []int {
	if e.editing() {
		return []int{fieldTitle, fieldStart, fieldEnd}
	}
	return []int{fieldTitle, fieldSecret, fieldStart, fieldEnd}
}

// focusNext moves focus by delta fields, wrapping around.
func (e *editor) focusNext(delta int) {
	fields := e.fields()
	idx := 0
	for i, f := range fields {
		if f == e.focus {
			idx = i
		}
	}
	idx = (idx + delta + len(fields)) % len(fields)
	e.focus = fields[idx]

	e.title.Blur()
	e.secretInput.Blur()
	switch e.focus {
	case fieldTitle:
		e.title.Focus()
	case fieldSecret:
		e.secretInput.Focus()
	}
}

// withinLayout reports whether r stays inside the bookable hours of its day.
func withinLayout(r booking.TimeRange, layout grid.Layout) bool {
	open := grid.At(r.Start, layout.FirstHour, 0)
	closing := grid.At(r.Start, layout.EndHour, 0)
	return !r.Start.Before(open) && !r.End.After(closing)
}

// shift moves the focused time field by n half-hours. The change is
// rejected when it would overlap a reservation or leave the grid hours.
func (e *editor) shift(n int, existing []booking.Reservation) bool {
	next := e.draft
	var ok bool
	switch e.focus {
	case fieldStart:
		ok = next.ShiftStart(n, existing)
	case fieldEnd:
		ok = next.ShiftEnd(n, existing)
	default:
		return false
	}
	if !ok || !withinLayout(next.Range, e.layout) {
		e.err = "That time is not available."
		return false
	}
	e.draft = next
	e.err = ""
	return true
}

// updateInput forwards msg to the focused text field.
func (e *editor) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch e.focus {
	case fieldTitle:
		e.title, cmd = e.title.Update(msg)
	case fieldSecret:
		e.secretInput, cmd = e.secretInput.Update(msg)
	}
	return cmd
}

// dayStrip draws one mark per half-hour of the draft's day: booked, part
// of the draft, or free.
func (e *editor) dayStrip(existing []booking.Reservation) string {
	options := booking.TimeOptions(e.draft.Range.Start, e.layout, e.draft.Room, existing, e.draft.ExcludeID)
	var b strings.Builder
	for _, opt := range options {
		switch {
		case e.draft.Range.Contains(opt.Time):
			b.WriteString(SuccessStyle.Render("█"))
		case opt.Disabled:
			b.WriteString(ErrorStyle.Render("█"))
		default:
			b.WriteString(DisabledStyle.Render("░"))
		}
	}
	return b.String()
}

func label(name string, focused bool) string {
	if focused {
		return FocusLabelStyle.Render(name)
	}
	return FieldLabelStyle.Render(name)
}

func (e *editor) view(existing []booking.Reservation) string {
	heading := "New reservation"
	if e.editing() {
		heading = "Edit reservation"
	}

	r := e.draft.Range
	timeField := func(t time.Time, focused bool) string {
		if focused {
			return "‹ " + t.Format("15:04") + " ›"
		}
		return "  " + t.Format("15:04")
	}

	lines := []string{
		PopupTitleStyle.Render(heading) + HintStyle.Render("  "+string(e.draft.Room)),
		HintStyle.Render(r.Start.Format("Mon 02 Jan") + "  " + FormatDurationShort(r.Duration())),
		"",
		label("Title", e.focus == fieldTitle) + e.title.View(),
	}
	if !e.editing() {
		lines = append(lines, label("Secret", e.focus == fieldSecret)+e.secretInput.View())
	}
	lines = append(lines,
		label("Start", e.focus == fieldStart)+timeField(r.Start, e.focus == fieldStart),
		label("End", e.focus == fieldEnd)+timeField(r.End, e.focus == fieldEnd),
		"",
		e.dayStrip(existing),
	)
	if e.err != "" {
		lines = append(lines, ErrorStyle.Render(e.err))
	}
	lines = append(lines, "", HintStyle.Render("tab next  ↑/↓ adjust  enter save  esc cancel"))

	return PopupStyle.Width(popupWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// details shows an existing reservation. Entering its secret unlocks
// editing and deletion.
type details struct {
	reservation booking.Reservation
	secret      textinput.Model
	anchor      drag.AnchorRect
	err         string
}

func newDetails(r booking.Reservation, anchor drag.AnchorRect) *details {
	d := &details{reservation: r, secret: newSecretInput(), anchor: anchor}
	d.secret.Focus()
	return d
}

func (d *details) view() string {
	r := d.reservation
	lines := []string{
		PopupTitleStyle.Foreground(GetTitleColor(r.Title)).Render(r.Title),
		HintStyle.Render(string(r.Room)),
		r.Start.Format("Mon 02 Jan") + "  " + r.Start.Format("15:04") + "-" + r.End.Format("15:04"),
		"",
		label("Secret", true) + d.secret.View(),
	}
	if d.err != "" {
		lines = append(lines, ErrorStyle.Render(d.err))
	}
	lines = append(lines, "", HintStyle.Render("enter edit  ctrl+d delete  esc close"))
	return PopupStyle.Width(popupWidth).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// describe turns a service error into a message for the popup.
func describe(err error) string {
	var conflict *booking.ConflictError
	switch {
	case errors.As(err, &conflict):
		return "Overlaps " + conflict.Existing.Title + " (" + conflict.Existing.Start.Format("15:04") + "-" + conflict.Existing.End.Format("15:04") + ")."
	case errors.Is(err, booking.ErrConflict):
		return "That time overlaps another reservation."
	case errors.Is(err, grid.ErrOutOfRange):
		return "That time is outside the bookable hours."
	case errors.Is(err, booking.ErrEmptyTitle):
		return "Please enter a title."
	case errors.Is(err, booking.ErrInvalidTitle):
		return "The title must fit on one line."
	case errors.Is(err, booking.ErrInvalidSecret):
		return "The secret must be 4 digits."
	case errors.Is(err, booking.ErrSecretMismatch):
		return "Incorrect secret."
	case errors.Is(err, booking.ErrTooManyAttempts):
		return "Too many attempts. Wait a minute."
	default:
		return err.Error()
	}
}

// placePopup returns the top-left screen cell of a w x h popup anchored to
// a day column: to the right of the column when it fits, else to the left,
// else centred. The top follows the anchor, kept on screen.
func placePopup(anchor drag.AnchorRect, w, h, screenW, screenH int) (int, int) {
	var x int
	right := int(anchor.Right) + 1
	left := int(anchor.Left) - 1 - w
	switch {
	case right+w <= screenW:
		x = right
	case left >= 0:
		x = left
	default:
		x = (screenW - w) / 2
		if x < 0 {
			x = 0
		}
	}

	y := int(anchor.Top)
	if y+h > screenH {
		y = screenH - h
	}
	if y < 0 {
		y = 0
	}
	return x, y
}

// overlay draws popup over base with its top-left corner at (x, y).
func overlay(base, popup string, x, y int) string {
	baseLines := strings.Split(base, "\n")
	for len(baseLines) < y {
		baseLines = append(baseLines, "")
	}
	for i, line := range strings.Split(popup, "\n") {
		row := y + i
		if row >= len(baseLines) {
			baseLines = append(baseLines, "")
		}
		under := baseLines[row]

		prefix := ansi.Truncate(under, x, "")
		if pw := ansi.StringWidth(prefix); pw < x {
			prefix += strings.Repeat(" ", x-pw)
		}
		suffix := ansi.TruncateLeft(under, x+ansi.StringWidth(line), "")
		baseLines[row] = prefix + ansi.ResetStyle + line + ansi.ResetStyle + suffix
	}
	return strings.Join(baseLines, "\n")
}
