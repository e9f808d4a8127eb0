package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"roomgrid/booking"
)

// HeaderInfo is what the header bar shows.
type HeaderInfo struct {
	Room     booking.Room
	Week     time.Time
	Mode     string
	Now      time.Time
	Dragging bool
}

// currentAndNext finds the reservation running at now and the next one
// starting later the same day.
func currentAndNext(reservations []booking.Reservation, now time.Time) (current, next *booking.Reservation) {
	for i := range reservations {
		r := &reservations[i]
		if r.Range().Contains(now) {
			current = r
			continue
		}
		if r.Start.After(now) && sameDate(r.Start, now) {
			if next == nil || r.Start.Before(next.Start) {
				next = r
			}
		}
	}
	return current, next
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// RenderHeader renders the bordered bar above the grid: room, week, input
// mode and what is happening in the room right now.
func RenderHeader(info HeaderInfo, reservations []booking.Reservation, width int, border, titleStyle, infoStyle, busyStyle, freeStyle lipgloss.Style, formatDuration func(time.Duration) string) string {
	weekEnd := info.Week.AddDate(0, 0, 6)
	left := titleStyle.Render(string(info.Room)) + "  " +
		infoStyle.Render(info.Week.Format("Mon 02 Jan")+" - "+weekEnd.Format("Mon 02 Jan 2006")) + "  " +
		infoStyle.Render("["+info.Mode+"]")
	if info.Dragging {
		left += "  " + freeStyle.Render("selecting...")
	}

	current, next := currentAndNext(reservations, info.Now)
	var status string
	switch {
	case current != nil:
		status = busyStyle.Render("Busy: " + current.Title + " until " + current.End.Format("15:04"))
	case next != nil:
		status = freeStyle.Render("Free for " + formatDuration(next.Start.Sub(info.Now)) + ", next: " + next.Title)
	default:
		status = freeStyle.Render("Free for the rest of the day")
	}
	status += "  " + infoStyle.Render(info.Now.Format("15:04"))

	// Account for border padding (2 chars on each side = 4 total)
	availableWidth := width - 4
	leftWidth := lipgloss.Width(left)
	statusWidth := lipgloss.Width(status)

	var content string
	if leftWidth+statusWidth+2 <= availableWidth {
		content = left + strings.Repeat(" ", availableWidth-leftWidth-statusWidth) + status
	} else {
		content = lipgloss.NewStyle().MaxWidth(availableWidth).Render(left)
	}
	return border.Width(width - 2).Render(content)
}
