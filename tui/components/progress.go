package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// RenderProgressBar renders a labelled fill bar of current against target.
func RenderProgressBar(current, target time.Duration, label string, width int, progressStyle lipgloss.Style, formatDuration func(time.Duration) string) string {
	if target <= 0 {
		return label + ": N/A"
	}

	percent := float64(current) / float64(target)
	if percent > 1.0 {
		percent = 1.0
	}

	barWidth := width - 12 // Leave space for label and percentage
	if barWidth < 10 {
		barWidth = 10
	}

	filled := int(float64(barWidth) * percent)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	return lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("%s: %d%%", label, int(percent*100)),
		progressStyle.Render(bar),
		formatDuration(current)+" of "+formatDuration(target)+" booked",
	)
}

// RenderUtilisation renders how much of the week's bookable time is taken.
func RenderUtilisation(booked, bookable time.Duration, width int, getProgressStyle func(time.Duration, time.Duration) lipgloss.Style, formatDuration func(time.Duration) string, boxStyle lipgloss.Style) string {
	bar := RenderProgressBar(booked, bookable, "Utilisation", width-4, getProgressStyle(booked, bookable), formatDuration)
	return boxStyle.Width(width - 2).Render(bar)
}
