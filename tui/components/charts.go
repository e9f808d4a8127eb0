package components

import (
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TitleChartItem is one bar of the title chart.
type TitleChartItem struct {
	Title    string
	Duration time.Duration
	Percent  float64
}

// ChartItems sorts totals by duration, longest first, with Percent relative
// to the longest.
func ChartItems(totals map[string]time.Duration) []TitleChartItem {
	var items []TitleChartItem
	var maxDuration time.Duration
	for title, duration := range totals {
		items = append(items, TitleChartItem{Title: title, Duration: duration})
		if duration > maxDuration {
			maxDuration = duration
		}
	}
	for i := range items {
		if maxDuration > 0 {
			items[i].Percent = float64(items[i].Duration) / float64(maxDuration)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Duration == items[j].Duration {
			return items[i].Title < items[j].Title
		}
		return items[i].Duration > items[j].Duration
	})
	return items
}

// RenderTitleChart renders a horizontal bar chart of booked time per title.
func RenderTitleChart(totals map[string]time.Duration, width, height int, chartBarStyle, chartLabelStyle, chartPercentStyle, boxStyle lipgloss.Style, getTitleColor func(string) lipgloss.Color, formatDurationShort func(time.Duration) string) string {
	if len(totals) == 0 {
		empty := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("No bookings yet.")
		return boxStyle.Width(width - 2).Height(height).Render(empty)
	}

	items := ChartItems(totals)
	if len(items) > height {
		items = items[:height]
	}

	const labelWidth = 12
	barWidth := width - labelWidth - 12
	if barWidth < 4 {
		barWidth = 4
	}

	var lines []string
	for _, item := range items {
		filled := int(float64(barWidth) * item.Percent)
		if filled < 1 {
			filled = 1
		}
		if filled > barWidth {
			filled = barWidth
		}

		label := ansi.Truncate(item.Title, labelWidth-1, "…")
		label = chartLabelStyle.Foreground(getTitleColor(item.Title)).Render(label)
		label += strings.Repeat(" ", max(0, labelWidth-lipgloss.Width(label)))

		line := label +
			chartBarStyle.Render(strings.Repeat("█", filled)) + " " +
			chartPercentStyle.Render(formatDurationShort(item.Duration))
		lines = append(lines, line)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return boxStyle.Width(width - 2).Height(height).Render(content)
}
