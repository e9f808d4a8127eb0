package input

import "github.com/gdamore/tcell/v2"

// TcellTracker translates tcell mouse events. tcell reports button state
// rather than transitions, so the tracker derives press and release from
// the previous mask.
type TcellTracker struct {
	Hit  HitTester
	prev tcell.ButtonMask
	down bool
}

// Translate converts ev into a controller event.
func (t *TcellTracker) Translate(ev *tcell.EventMouse) (Event, bool) {
	buttons := ev.Buttons()
	x, y := ev.Position()
	wasDown := t.prev&tcell.Button1 != 0
	isDown := buttons&tcell.Button1 != 0
	t.prev = buttons

	switch {
	case isDown && !wasDown:
		out, ok := press(t.Hit, x, y)
		t.down = ok
		return out, ok
	case isDown && wasDown:
		if !t.down {
			return Event{}, false
		}
		return move(t.Hit, x, y)
	case !isDown && wasDown:
		if !t.down {
			return Event{}, false
		}
		t.down = false
		return Event{Kind: Release}, true
	}
	return Event{}, false
}
