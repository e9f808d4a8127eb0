package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"roomgrid/booking"
)

// DayGroup is one day of the agenda.
type DayGroup struct {
	Day          time.Time
	Duration     time.Duration
	Reservations []booking.Reservation
}

// RenderAgenda renders reservations as a day -> reservation tree.
func RenderAgenda(groups []DayGroup, width, height int, dayStyle, titleStyle, timeStyle, boxStyle lipgloss.Style, getTitleColor func(string) lipgloss.Color, formatDurationShort func(time.Duration) string) string {
	inner := width - 4
	if len(groups) == 0 {
		empty := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("Nothing booked this week.")
		return boxStyle.Width(width - 2).Height(height).Render(empty)
	}

	var lines []string
	maxLines := height
	lineCount := 0

	for _, group := range groups {
		if lineCount >= maxLines {
			break
		}

		total := formatDurationShort(group.Duration)
		dayLine := "> " + dayStyle.Render(group.Day.Format("Mon 02 Jan"))
		dots := strings.Repeat(".", max(0, inner-lipgloss.Width(dayLine)-len(total)-2))
		lines = append(lines, dayLine+" "+dots+" "+timeStyle.Render(total))
		lineCount++

		for _, r := range group.Reservations {
			if lineCount >= maxLines {
				break
			}
			span := r.Start.Format("15:04") + "-" + r.End.Format("15:04")
			title := ansi.Truncate(r.Title, max(0, inner-len(span)-5), "…")
			line := "  " + timeStyle.Render(span) + " " + titleStyle.Foreground(getTitleColor(r.Title)).Render(title)
			lines = append(lines, line)
			lineCount++
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return boxStyle.Width(width - 2).Height(height).Render(content)
}
