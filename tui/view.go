package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"roomgrid/booking"
	"roomgrid/drag"
	"roomgrid/grid"
	"roomgrid/tui/components"
)

// fit truncates or pads s to exactly w cells.
func fit(s string, w int) string {
	if w <= 0 {
		return ""
	}
	s = ansi.Truncate(s, w, "…")
	if sw := ansi.StringWidth(s); sw < w {
		s += strings.Repeat(" ", w-sw)
	}
	return s
}

// renderMainView renders the header, grid, sidebar, message and footer.
func renderMainView(m *Model) string {
	width := m.width
	reservations := m.reservations()
	days := m.geo.days
	weekStart, weekEnd := grid.WeekRange(days[0])

	mode := m.drag.Mode().String()
	header := components.RenderHeader(components.HeaderInfo{
		Room:     m.room,
		Week:     weekStart,
		Mode:     mode,
		Now:      m.now,
		Dragging: m.drag.State() == drag.Dragging,
	}, reservations, width, HeaderBorder, HeaderTitleStyle, HeaderInfoStyle, ErrorStyle, SuccessStyle, FormatDurationShort)

	gridView := renderGrid(m, reservations)
	body := gridView
	if width >= sidebarMinWidth {
		sidebar := renderSidebar(m, reservations, weekStart, weekEnd)
		body = lipgloss.JoinHorizontal(lipgloss.Top, gridView, sidebar)
	}

	var messageLine string
	if m.message != "" {
		msgStyle := SuccessStyle
		if m.messageError {
			msgStyle = ErrorStyle
		}
		messageLine = msgStyle.Render(fit(m.message, width))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		messageLine,
		renderFooter(width),
	)
}

// renderGrid renders the day headers and the visible rows of the week.
func renderGrid(m *Model, reservations []booking.Reservation) string {
	g := m.geo
	colW := g.columnWidth

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", gutterWidth))
	for _, day := range g.days {
		style := DayHeaderStyle
		if grid.SameDay(day, m.now) {
			style = TodayHeaderStyle
		}
		b.WriteString(style.Render(fit(day.Format("Mon 02"), colW)))
	}

	rows := g.rows()
	total := g.totalRows()
	for i := 0; i < g.visibleRows; i++ {
		b.WriteString("\n")
		row := g.scroll + i
		if row >= total {
			continue
		}
		gutter := ""
		if row%rows == 0 {
			gutter = fmt.Sprintf("%02d:00", g.layout.FirstHour+row/rows)
		}
		b.WriteString(GutterStyle.Render(fit(gutter, gutterWidth)))
		for _, day := range g.days {
			b.WriteString(renderCell(m, day, row, reservations))
		}
	}
	return b.String()
}

// renderCell draws one grid row of one day column.
func renderCell(m *Model, day time.Time, row int, reservations []booking.Reservation) string {
	g := m.geo
	w := g.columnWidth - 1
	t := g.rowStart(day, row)
	rowLen := time.Duration(60/g.rows()) * time.Minute
	halfStart := grid.At(day, t.Hour(), (t.Minute()/grid.SlotMinutes)*grid.SlotMinutes)

	if cell, ok := m.drag.InvalidCell(); ok && grid.SameDay(cell.Day, day) &&
		cell.Hour == halfStart.Hour() && cell.SecondHalf == (halfStart.Minute() == grid.SlotMinutes) {
		return InvalidCellStyle.Render(fit("", w)) + " "
	}

	if m.drag.InRange(day, halfStart) {
		style := PreviewCellStyle
		if !m.drag.Valid() {
			style = InvalidCellStyle
		}
		text := ""
		if r, ok := m.drag.Preview(); ok && t.Equal(r.Start) {
			text = r.Start.Format("15:04") + "-" + r.End.Format("15:04")
		}
		return style.Render(fit(text, w)) + " "
	}

	for _, r := range reservations {
		if !r.Range().Contains(t) {
			continue
		}
		text := ""
		switch {
		case !t.After(r.Start) || row == g.scroll:
			text = r.Title
		case t.Sub(r.Start) < 2*rowLen:
			text = r.Start.Format("15:04") + "-" + r.End.Format("15:04")
		}
		style := BookedCellStyle.Foreground(GetTitleColor(r.Title))
		return style.Render(fit(text, w)) + " "
	}

	if grid.SameDay(day, m.now) && !m.now.Before(t) && m.now.Before(t.Add(rowLen)) {
		return NowMarkerStyle.Render(strings.Repeat("─", w)) + " "
	}
	if row%g.rows() == 0 {
		return FreeCellStyle.Render(fit("·", w)) + " "
	}
	return strings.Repeat(" ", w+1)
}

// renderSidebar renders week utilisation, heatmap, agenda and title chart.
func renderSidebar(m *Model, reservations []booking.Reservation, weekStart, weekEnd time.Time) string {
	height := m.geo.visibleRows + 1
	layout := m.drag.Layout()

	perDay := BookablePerDay(layout)
	booked := BookedTotal(reservations, weekStart, weekEnd)
	utilisation := components.RenderUtilisation(booked, perDay*grid.DaysPerWeek, sidebarWidth, GetProgressStyle, FormatDurationShort, BoxStyle)
	heatmap := components.RenderWeekHeatmap(reservations, m.geo.days, perDay, sidebarWidth, 3, clampDuration, BoxStyle)

	used := lipgloss.Height(utilisation) + lipgloss.Height(heatmap)
	remaining := height - used - 4
	agendaHeight := remaining * 2 / 3
	if agendaHeight < 3 {
		agendaHeight = 3
	}
	chartHeight := remaining - agendaHeight
	if chartHeight < 2 {
		chartHeight = 2
	}

	agenda := components.RenderAgenda(GroupByDay(reservations, m.geo.days), sidebarWidth, agendaHeight,
		TreeDayStyle, TreeTitleStyle, TreeTimeStyle, BoxStyle, GetTitleColor, FormatDurationShort)
	chart := components.RenderTitleChart(CalculateTitleTotals(reservations, weekStart, weekEnd), sidebarWidth, chartHeight,
		ChartBarStyle, ChartLabelStyle, ChartPercent, BoxStyle, GetTitleColor, FormatDurationShort)

	return lipgloss.JoinVertical(lipgloss.Left, utilisation, heatmap, agenda, chart)
}

// renderFooter renders the footer with help text.
func renderFooter(width int) string {
	helpLine := "[drag] Book  [click] Details  [←/→] Week  [t] Today  [tab] Room  [R] Reload  [q] Quit"
	return FooterStyle.Render(fit(helpLine, width))
}
