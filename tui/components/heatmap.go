package components

import (
	"time"

	"github.com/charmbracelet/lipgloss"

	"roomgrid/booking"
)

// DailyTotals sums booked time per day of days.
func DailyTotals(reservations []booking.Reservation, days []time.Time, clampDuration func(booking.Reservation, time.Time, time.Time) time.Duration) []time.Duration {
	totals := make([]time.Duration, len(days))
	for i, day := range days {
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		dayEnd := dayStart.AddDate(0, 0, 1)
		for _, r := range reservations {
			totals[i] += clampDuration(r, dayStart, dayEnd)
		}
	}
	return totals
}

func heatColor(intensity float64) lipgloss.Color {
	switch {
	case intensity == 0:
		return lipgloss.Color("#333333")
	case intensity < 0.25:
		return lipgloss.Color("#1A237E")
	case intensity < 0.5:
		return lipgloss.Color("#3949AB")
	case intensity < 0.75:
		return lipgloss.Color("#5C6BC0")
	default:
		return lipgloss.Color("#9FA8DA")
	}
}

// RenderWeekHeatmap renders one square per day, shaded by how much of the
// bookable day is taken.
func RenderWeekHeatmap(reservations []booking.Reservation, days []time.Time, bookablePerDay time.Duration, width, height int, clampDuration func(booking.Reservation, time.Time, time.Time) time.Duration, boxStyle lipgloss.Style) string {
	dailyTotals := DailyTotals(reservations, days, clampDuration)

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Render("Week"))

	var squares []string
	for i, total := range dailyTotals {
		intensity := 0.0
		if bookablePerDay > 0 {
			intensity = float64(total) / float64(bookablePerDay)
		}
		color := heatColor(intensity)

		square := lipgloss.NewStyle().
			Foreground(color).
			Render("██")
		dayName := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render(days[i].Format("Mon")[:2])
		squares = append(squares, lipgloss.JoinVertical(lipgloss.Center, square, dayName), " ")
	}

	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, squares...))

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return boxStyle.Width(width - 2).Height(height).Render(content)
}
