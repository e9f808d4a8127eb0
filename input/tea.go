package input

import tea "github.com/charmbracelet/bubbletea"

// TeaMouse translates bubbletea mouse messages. It remembers whether the
// left button is down so that plain hover motion is not treated as a drag.
type TeaMouse struct {
	Hit     HitTester
	pressed bool
}

// Translate converts msg into a controller event. Wheel and non-left
// buttons are not grid events and report false.
func (m *TeaMouse) Translate(msg tea.MouseMsg) (Event, bool) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return Event{}, false
		}
		ev, ok := press(m.Hit, msg.X, msg.Y)
		m.pressed = ok
		return ev, ok
	case tea.MouseActionMotion:
		if !m.pressed {
			return Event{}, false
		}
		return move(m.Hit, msg.X, msg.Y)
	case tea.MouseActionRelease:
		if !m.pressed {
			return Event{}, false
		}
		// Release is global: it ends the drag wherever the pointer is.
		m.pressed = false
		return Event{Kind: Release}, true
	}
	return Event{}, false
}

// Pressed reports whether a left-button gesture is in progress.
func (m *TeaMouse) Pressed() bool {
	return m.pressed
}

// Reset forgets any gesture in progress.
func (m *TeaMouse) Reset() {
	m.pressed = false
}
