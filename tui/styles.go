package tui

import (
	"fmt"
	"hash/fnv"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	ColorAccent  = lipgloss.Color("#7D56F4")
	ColorMuted   = lipgloss.Color("#888888")
	ColorGridBg  = lipgloss.Color("#1E1E1E")
	ColorBooked  = lipgloss.Color("#3C3C64")
	ColorValid   = lipgloss.Color("#2E7D32")
	ColorInvalid = lipgloss.Color("#C62828")
	ColorNow     = lipgloss.Color("#FFB300")

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	HeaderBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 1)
	HeaderTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	HeaderInfoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#DDDDDD"))

	DayHeaderStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#DDDDDD"))
	TodayHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorNow)
	GutterStyle      = lipgloss.NewStyle().Foreground(ColorMuted)

	FreeCellStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#333333"))
	BookedCellStyle  = lipgloss.NewStyle().Background(ColorBooked).Foreground(lipgloss.Color("#FFFFFF"))
	PreviewCellStyle = lipgloss.NewStyle().Background(ColorValid).Foreground(lipgloss.Color("#FFFFFF"))
	InvalidCellStyle = lipgloss.NewStyle().Background(ColorInvalid).Foreground(lipgloss.Color("#FFFFFF"))
	NowMarkerStyle   = lipgloss.NewStyle().Foreground(ColorNow)

	PopupStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(0, 1)
	PopupTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	FieldLabelStyle  = lipgloss.NewStyle().Foreground(ColorMuted).Width(8)
	FocusLabelStyle  = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Width(8)
	DisabledStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	HintStyle        = lipgloss.NewStyle().Foreground(ColorMuted)
	SuccessStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#66BB6A"))
	ErrorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF5350"))
	FooterStyle      = lipgloss.NewStyle().Foreground(ColorMuted)
	TreeDayStyle     = lipgloss.NewStyle().Bold(true)
	TreeTitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#DDDDDD"))
	TreeTimeStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	ChartBarStyle    = lipgloss.NewStyle().Foreground(ColorAccent)
	ChartLabelStyle  = lipgloss.NewStyle()
	ChartPercent     = lipgloss.NewStyle().Foreground(ColorMuted)
)

var titlePalette = []lipgloss.Color{
	"#4FC3F7", "#81C784", "#FFB74D", "#BA68C8", "#E57373", "#4DB6AC", "#F06292", "#AED581",
}

// GetTitleColor picks a stable color for a reservation title.
func GetTitleColor(title string) lipgloss.Color {
	h := fnv.New32a()
	_, _ = h.Write([]byte(title))
	return titlePalette[int(h.Sum32()%uint32(len(titlePalette)))]
}

// GetProgressStyle colors a utilisation bar by how full the week is.
func GetProgressStyle(current, target time.Duration) lipgloss.Style {
	if target <= 0 {
		return lipgloss.NewStyle().Foreground(ColorMuted)
	}
	ratio := float64(current) / float64(target)
	switch {
	case ratio >= 0.9:
		return lipgloss.NewStyle().Foreground(ColorInvalid)
	case ratio >= 0.6:
		return lipgloss.NewStyle().Foreground(ColorNow)
	default:
		return lipgloss.NewStyle().Foreground(ColorValid)
	}
}

// FormatDurationShort formats a duration as "2h30m", "45m" or "3h".
func FormatDurationShort(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%02dm", h, m)
	}
}
