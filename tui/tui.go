// Package tui is the interactive week grid: drag over free half-hours to
// book a room, click a reservation to edit or cancel it.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"roomgrid/booking"
	"roomgrid/config"
	"roomgrid/service"
)

// Options configures Run.
type Options struct {
	Config   config.Config
	Bookings *service.Bookings
	Logger   *zap.Logger
	Room     booking.Room
	Touch    bool
	Now      func() time.Time
}

// Run launches the terminal UI and blocks until the user quits or ctx is
// cancelled. The reservation list is refreshed in the background and
// paused while the terminal is unfocused.
func Run(ctx context.Context, opts Options) error {
	if opts.Bookings == nil {
		return errors.New("tui: no booking service")
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(ctx, opts)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)

	go m.refresher.Run(ctx, func() { p.Send(refreshedMsg{}) })

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
