package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomgrid/booking"
	"roomgrid/config"
	"roomgrid/grid"
	"roomgrid/service"
	"roomgrid/storage"
)

// Rows are 30 minutes in pointer mode, so 10:00 on the grid is screen row
// gridTop+6. Columns are 13 wide at 100 columns.
const colW = 13

func colX(day int) int { return gutterWidth + day*colW + 1 }

func rowY(hour, minute, rowsPerHour int) int {
	return gridTop + (hour-7)*rowsPerHour + minute*rowsPerHour/60
}

func newTestModel(t *testing.T, touch bool) (*Model, *service.Bookings) {
	t.Helper()
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "bookings.txt"), nil)
	svc := service.New(store, nil, grid.DefaultLayout(2), nil)
	cfg := config.Config{
		Grid:    config.GridConfig{FirstHour: 7, EndHour: 21, PointerCellHeight: 2, TouchCellHeight: 4},
		Refresh: config.RefreshConfig{Interval: time.Minute},
	}
	m := NewModel(context.Background(), Options{
		Config:   cfg,
		Bookings: svc,
		Room:     booking.RoomOne,
		Touch:    touch,
		Now:      func() time.Time { return grid.At(wednesday, 9, 0) },
	})
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	require.Equal(t, colW, m.geo.columnWidth)
	require.Equal(t, 0, m.geo.scroll)
	return m, svc
}

func mouse(action tea.MouseAction, x, y int) tea.MouseMsg {
	button := tea.MouseButtonLeft
	if action == tea.MouseActionRelease {
		button = tea.MouseButtonNone
	}
	return tea.MouseMsg{X: x, Y: y, Button: button, Action: action}
}

func typeText(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func key(m *Model, k tea.KeyType) tea.Cmd {
	_, cmd := m.Update(tea.KeyMsg{Type: k})
	return cmd
}

// run executes cmd and feeds the resulting message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	require.NotNil(t, msg)
	_, next := m.Update(msg)
	return next
}

func TestDragCreatesReservation(t *testing.T) {
	m, svc := newTestModel(t, false)

	m.Update(mouse(tea.MouseActionPress, colX(2), rowY(10, 0, 2)))
	m.Update(mouse(tea.MouseActionMotion, colX(2), rowY(11, 0, 2)))
	assert.Contains(t, m.View(), "10:00-11:00", "drag preview label")
	m.Update(mouse(tea.MouseActionMotion, colX(2), rowY(11, 30, 2)))
	m.Update(mouse(tea.MouseActionRelease, colX(5), 2))

	require.Equal(t, modeEditor, m.mode)
	want := booking.TimeRange{Start: grid.At(wednesday, 10, 0), End: grid.At(wednesday, 11, 30)}
	assert.Equal(t, want, m.editor.draft.Range)
	assert.Equal(t, float64(rowY(10, 0, 2)), m.editor.anchor.Top)
	assert.Contains(t, m.View(), "New reservation")

	typeText(m, "Planning")
	key(m, tea.KeyTab)
	typeText(m, "1234")
	next := run(t, m, key(m, tea.KeyEnter))
	assert.Equal(t, modeGrid, m.mode)
	assert.Contains(t, m.message, "Booked Planning")
	run(t, m, next)

	list := m.reservations()
	require.Len(t, list, 1)
	assert.Equal(t, "Planning", list[0].Title)
	assert.Equal(t, want, list[0].Range())

	stored, err := svc.List(context.Background(), booking.RoomOne, booking.TimeRange{})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestDragOverBookedRangeIsRejected(t *testing.T) {
	m, svc := newTestModel(t, false)
	_, err := svc.Create(context.Background(), service.NewReservation{
		Room:   booking.RoomOne,
		Range:  booking.TimeRange{Start: grid.At(wednesday, 11, 0), End: grid.At(wednesday, 12, 0)},
		Title:  "Standup",
		Secret: "1234",
	})
	require.NoError(t, err)
	require.NoError(t, m.refresher.Refresh(context.Background()))

	m.Update(mouse(tea.MouseActionPress, colX(2), rowY(10, 0, 2)))
	m.Update(mouse(tea.MouseActionMotion, colX(2), rowY(12, 0, 2)))
	assert.False(t, m.drag.Valid())
	m.Update(mouse(tea.MouseActionRelease, colX(2), rowY(12, 0, 2)))

	assert.Equal(t, modeGrid, m.mode)
	assert.True(t, m.messageError)
	assert.Nil(t, m.editor)
}

func TestTouchTapOpensOneHourSlot(t *testing.T) {
	m, _ := newTestModel(t, true)
	require.Equal(t, 4, m.geo.rows())

	m.Update(mouse(tea.MouseActionPress, colX(0), rowY(14, 30, 4)))
	require.Equal(t, modeEditor, m.mode)
	want := booking.TimeRange{Start: grid.At(monday, 14, 30), End: grid.At(monday, 15, 30)}
	assert.Equal(t, want, m.editor.draft.Range)
}

func TestEditorRejectsMissingTitle(t *testing.T) {
	m, _ := newTestModel(t, false)
	m.Update(mouse(tea.MouseActionPress, colX(1), rowY(9, 0, 2)))
	m.Update(mouse(tea.MouseActionRelease, colX(1), rowY(9, 0, 2)))
	require.Equal(t, modeEditor, m.mode)

	key(m, tea.KeyTab)
	typeText(m, "1234")
	run(t, m, key(m, tea.KeyEnter))
	assert.Equal(t, modeEditor, m.mode)
	assert.Equal(t, "Please enter a title.", m.editor.err)

	key(m, tea.KeyEsc)
	assert.Equal(t, modeGrid, m.mode)
}

func TestDetailsEditAndDelete(t *testing.T) {
	m, svc := newTestModel(t, false)
	ctx := context.Background()
	r, err := svc.Create(ctx, service.NewReservation{
		Room:   booking.RoomOne,
		Range:  booking.TimeRange{Start: grid.At(wednesday, 13, 0), End: grid.At(wednesday, 14, 0)},
		Title:  "Review",
		Secret: "4321",
	})
	require.NoError(t, err)
	require.NoError(t, m.refresher.Refresh(ctx))

	m.Update(mouse(tea.MouseActionPress, colX(2), rowY(13, 30, 2)))
	require.Equal(t, modeDetails, m.mode)
	assert.Equal(t, r.ID, m.details.reservation.ID)
	assert.Contains(t, m.View(), "Review")

	typeText(m, "0000")
	run(t, m, key(m, tea.KeyEnter))
	assert.Equal(t, modeDetails, m.mode)
	assert.Equal(t, "Incorrect secret.", m.details.err)

	typeText(m, "4321")
	run(t, m, key(m, tea.KeyEnter))
	require.Equal(t, modeEditor, m.mode)
	assert.True(t, m.editor.editing())

	// Move the end out by half an hour and save.
	key(m, tea.KeyTab)
	key(m, tea.KeyTab)
	require.Equal(t, fieldEnd, m.editor.focus)
	key(m, tea.KeyDown)
	next := run(t, m, key(m, tea.KeyEnter))
	assert.Equal(t, modeGrid, m.mode)
	run(t, m, next)

	list := m.reservations()
	require.Len(t, list, 1)
	assert.Equal(t, grid.At(wednesday, 14, 30), list[0].End)
	assert.Equal(t, "Review", list[0].Title)

	m.Update(mouse(tea.MouseActionPress, colX(2), rowY(13, 0, 2)))
	require.Equal(t, modeDetails, m.mode)
	typeText(m, "4321")
	next = run(t, m, key(m, tea.KeyCtrlD))
	assert.Equal(t, modeGrid, m.mode)
	assert.True(t, strings.HasPrefix(m.message, "Cancelled Review"))
	run(t, m, next)
	assert.Empty(t, m.reservations())
}

func TestGridKeys(t *testing.T) {
	m, _ := newTestModel(t, false)

	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.True(t, grid.SameDay(m.geo.days[0], monday.AddDate(0, 0, 7)))
	assert.True(t, grid.SameDay(m.refresher.Query().Week.Start, monday.AddDate(0, 0, 7)))

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	assert.True(t, grid.SameDay(m.geo.days[0], monday))

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, booking.RoomTwo, m.room)
	assert.Equal(t, booking.RoomTwo, m.refresher.Query().Room)

	m.Update(tea.BlurMsg{})
	assert.True(t, m.refresher.Paused())
	m.Update(tea.FocusMsg{})
	assert.False(t, m.refresher.Paused())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
