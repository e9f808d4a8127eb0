package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"roomgrid/booking"
	"roomgrid/config"
	"roomgrid/grid"
	"roomgrid/logging"
	"roomgrid/service"
	"roomgrid/storage"
	"roomgrid/tui"
)

const appVersion = "0.3.0"

// App carries what every command needs. Fields left nil are built from
// configuration before the command runs.
type App struct {
	Config   config.Config
	Logger   *zap.Logger
	Store    storage.Store
	Bookings *service.Bookings
	Now      func() time.Time

	owned bool
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return storage.LocalNow()
}

func (a *App) load(ctx context.Context, configPath string, forTUI bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if forTUI && cfg.Log.File == "" {
		// The TUI owns the terminal.
		cfg.Log.File = filepath.Join(filepath.Dir(storage.DefaultPath()), "roomgrid.log")
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}
	logger, err := logging.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}

	a.Config = cfg
	a.Logger = logger
	a.Store = store
	a.Bookings = service.New(store, booking.NewGate(cfg.Secret.AttemptsPerMinute, cfg.Secret.Burst), layoutFor(cfg), logger)
	a.owned = true
	return nil
}

func (a *App) close() error {
	if !a.owned {
		return nil
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return a.Store.Close()
}

func layoutFor(cfg config.Config) grid.Layout {
	return grid.Layout{
		FirstHour:  cfg.Grid.FirstHour,
		EndHour:    cfg.Grid.EndHour,
		CellHeight: cfg.Grid.PointerCellHeight,
	}
}

// Execute runs the command tree against the configured store.
func Execute() error {
	return NewRootCommand(nil).Execute()
}

// NewRootCommand builds the command tree. With a nil app, configuration,
// logger and store are loaded before each command.
func NewRootCommand(app *App) *cobra.Command {
	a := app
	if a == nil {
		a = &App{}
	}
	var configPath string

	root := &cobra.Command{
		Use:           "roomgrid",
		Short:         "Book meeting rooms on a weekly time grid",
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.Bookings != nil {
				return nil
			}
			return a.load(cmd.Context(), configPath, cmd.Name() == "tui" || cmd.Name() == "pick")
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.SetVersionTemplate("roomgrid v{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml")

	root.AddCommand(
		newTUICommand(a),
		newPickCommand(a),
		newListCommand(a),
		newFreeCommand(a),
		newBookCommand(a),
		newCancelCommand(a),
		newMoveCommand(a),
		newReportCommand(a),
		newCleanupCommand(a),
	)
	return root
}

func newTUICommand(a *App) *cobra.Command {
	var (
		touch bool
		room  string
	)
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive week grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := booking.ParseRoom(room)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), tui.Options{
				Config:   a.Config,
				Bookings: a.Bookings,
				Logger:   a.Logger,
				Room:     r,
				Touch:    touch || a.Config.Grid.Touch,
				Now:      a.Now,
			})
		},
	}
	cmd.Flags().BoolVar(&touch, "touch", false, "Touch input: a tap books one hour")
	cmd.Flags().StringVar(&room, "room", string(booking.RoomOne), "Room to show")
	return cmd
}

func newPickCommand(a *App) *cobra.Command {
	var (
		touch bool
		room  string
	)
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Drag out a free range on a plain grid and print it",
		Long: "Opens a minimal week grid without editing popups. The first free range\n" +
			"you drag out is printed as the --date, --start and --end flags of book.",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := booking.ParseRoom(room)
			if err != nil {
				return err
			}
			sel, err := tui.Pick(cmd.Context(), tui.PickOptions{Options: tui.Options{
				Config:   a.Config,
				Bookings: a.Bookings,
				Logger:   a.Logger,
				Room:     r,
				Touch:    touch || a.Config.Grid.Touch,
				Now:      a.Now,
			}})
			if errors.Is(err, tui.ErrPickCancelled) {
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "--room %q --date %s --start %s --end %s\n",
				string(r),
				sel.Range.Start.Format("2006-01-02"),
				sel.Range.Start.Format("15:04"),
				sel.Range.End.Format("15:04"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&touch, "touch", false, "Touch input: a tap picks one hour")
	cmd.Flags().StringVar(&room, "room", string(booking.RoomOne), "Room to show")
	return cmd
}

func parseWeek(value string, now time.Time) (booking.TimeRange, error) {
	day := now
	if value != "" {
		parsed, err := storage.ParseDate(value)
		if err != nil {
			return booking.TimeRange{}, fmt.Errorf("invalid week date: %w", err)
		}
		day = parsed
	}
	start, end := grid.WeekRange(day)
	return booking.TimeRange{Start: start, End: end}, nil
}

func parseOptionalRoom(value string) (booking.Room, error) {
	if value == "" {
		return "", nil
	}
	return booking.ParseRoom(value)
}

func newListCommand(a *App) *cobra.Command {
	var room, week string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reservations of a week",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseOptionalRoom(room)
			if err != nil {
				return err
			}
			window, err := parseWeek(week, a.now())
			if err != nil {
				return err
			}
			list, err := a.Bookings.List(cmd.Context(), r, window)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No reservations.")
				return nil
			}
			for _, res := range list {
				fmt.Fprintln(out, FormatReservation(res))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&room, "room", "", "Room name or number (default: all rooms)")
	cmd.Flags().StringVar(&week, "week", "", "Any date in the week, YYYY-MM-DD (default: this week)")
	return cmd
}

func newFreeCommand(a *App) *cobra.Command {
	var room, date string
	cmd := &cobra.Command{
		Use:   "free",
		Short: "Show free time ranges of a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := booking.ParseRoom(room)
			if err != nil {
				return err
			}
			day := grid.DayStart(a.now())
			if date != "" {
				if day, err = storage.ParseDate(date); err != nil {
					return fmt.Errorf("invalid date: %w", err)
				}
			}
			list, err := a.Bookings.List(cmd.Context(), r, booking.TimeRange{Start: day, End: day.AddDate(0, 0, 1)})
			if err != nil {
				return err
			}
			slots := booking.FreeSlots(day, a.Bookings.Layout(), list)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s, %s\n", r, day.Format("Mon 2006-01-02"))
			if len(slots) == 0 {
				fmt.Fprintln(out, "Fully booked.")
				return nil
			}
			for _, s := range slots {
				fmt.Fprintf(out, "- %s-%s (%s)\n", s.Start.Format("15:04"), s.End.Format("15:04"), FormatDuration(s.Duration()))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&room, "room", string(booking.RoomOne), "Room name or number")
	cmd.Flags().StringVar(&date, "date", "", "Day, YYYY-MM-DD (default: today)")
	return cmd
}

func newBookCommand(a *App) *cobra.Command {
	var room, date, start, end, title, secret string
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Create a reservation",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := booking.ParseRoom(room)
			if err != nil {
				return err
			}
			if date == "" {
				date = a.now().Format("2006-01-02")
			}
			from, err := storage.ParseSlot(date, start)
			if err != nil {
				return err
			}
			to, err := storage.ParseSlot(date, end)
			if err != nil {
				return err
			}
			res, err := a.Bookings.Create(cmd.Context(), service.NewReservation{
				Room:   r,
				Range:  booking.TimeRange{Start: from, End: to},
				Title:  title,
				Secret: secret,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Booked %s\n", FormatReservation(res))
			return nil
		},
	}
	cmd.Flags().StringVar(&room, "room", string(booking.RoomOne), "Room name or number")
	cmd.Flags().StringVar(&date, "date", "", "Day, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&start, "start", "", "Start HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "End HH:MM")
	cmd.Flags().StringVar(&title, "title", "", "What the room is booked for")
	cmd.Flags().StringVar(&secret, "secret", "", "4-digit secret needed to change or cancel")
	for _, name := range []string{"start", "end", "title", "secret"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newCancelCommand(a *App) *cobra.Command {
	var secret string
	cmd := &cobra.Command{
		Use:   "cancel ID",
		Short: "Delete a reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.Bookings.Delete(cmd.Context(), args[0], secret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "4-digit secret of the reservation")
	_ = cmd.MarkFlagRequired("secret")
	return cmd
}

func newMoveCommand(a *App) *cobra.Command {
	var date, start, end, title, secret string
	cmd := &cobra.Command{
		Use:   "move ID",
		Short: "Change the time or title of a reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			current, err := a.Store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			day := grid.DayStart(current.Start)
			if date != "" {
				if day, err = storage.ParseDate(date); err != nil {
					return fmt.Errorf("invalid date: %w", err)
				}
			}
			rng := current.Range()
			if start != "" {
				if rng.Start, err = storage.ParseOnDay(start, day); err != nil {
					return err
				}
			} else if date != "" {
				rng.Start = grid.At(day, current.Start.Hour(), current.Start.Minute())
			}
			if end != "" {
				if rng.End, err = storage.ParseOnDay(end, day); err != nil {
					return err
				}
			} else if date != "" {
				rng.End = grid.At(day, current.End.Hour(), current.End.Minute())
			}

			res, err := a.Bookings.Update(cmd.Context(), args[0], secret, rng, title)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved to %s\n", FormatReservation(res))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "New day, YYYY-MM-DD (default: unchanged)")
	cmd.Flags().StringVar(&start, "start", "", "New start HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "New end HH:MM")
	cmd.Flags().StringVar(&title, "title", "", "New title (default: unchanged)")
	cmd.Flags().StringVar(&secret, "secret", "", "4-digit secret of the reservation")
	_ = cmd.MarkFlagRequired("secret")
	return cmd
}

func newReportCommand(a *App) *cobra.Command {
	var (
		room, from, to string
		week, lastWeek bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize booked hours per title",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseOptionalRoom(room)
			if err != nil {
				return err
			}
			start, end, err := ReportRange(from, to, week, lastWeek, a.now())
			if err != nil {
				return err
			}
			list, err := a.Bookings.List(cmd.Context(), r, booking.TimeRange{Start: start, End: end})
			if err != nil {
				return err
			}
			WriteReport(cmd.OutOrStdout(), list, start, end)
			return nil
		},
	}
	cmd.Flags().StringVar(&room, "room", "", "Room name or number (default: all rooms)")
	cmd.Flags().StringVar(&from, "from", "", "First day, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&to, "to", "", "Last day, YYYY-MM-DD (default: --from)")
	cmd.Flags().BoolVar(&week, "week", false, "This week")
	cmd.Flags().BoolVar(&lastWeek, "last-week", false, "Last week")
	return cmd
}

func newCleanupCommand(a *App) *cobra.Command {
	var schedule bool
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete reservations that are over",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !schedule {
				n, err := a.Bookings.Cleanup(cmd.Context(), a.now())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d past reservation(s).\n", n)
				return nil
			}
			return runScheduledCleanup(cmd.Context(), a, out)
		},
	}
	cmd.Flags().BoolVar(&schedule, "schedule", false, "Keep running and clean up on the configured cron schedule")
	return cmd
}

func runScheduledCleanup(ctx context.Context, a *App, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	spec := a.Config.Cleanup.Schedule
	if spec == "" {
		return errors.New("cleanup.schedule is empty")
	}
	if _, err := storage.ScheduleCleanup(ctx, a.Store, spec, a.Now, a.Logger); err != nil {
		return err
	}
	fmt.Fprintf(out, "Cleaning up on schedule %q, press Ctrl+C to stop.\n", spec)
	<-ctx.Done()
	return nil
}
