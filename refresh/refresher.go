// Package refresh keeps a snapshot of the active room's reservations up to
// date with the booking store on a fixed cadence.
package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"roomgrid/booking"
)

// DefaultInterval is the refresh cadence when none is configured.
const DefaultInterval = 5 * time.Second

// ErrInFlight is returned when a refresh is skipped because another one is
// still running.
var ErrInFlight = errors.New("refresh already in flight")

// Lister is the read side of the booking store.
type Lister interface {
	List(ctx context.Context, room booking.Room, week booking.TimeRange) ([]booking.Reservation, error)
}

// Query selects what the refresher loads.
type Query struct {
	Room booking.Room
	Week booking.TimeRange
}

// Refresher owns the reservation snapshot the grid validates against. The
// snapshot is replaced atomically; readers never see a partial list.
type Refresher struct {
	store    Lister
	interval time.Duration
	logger   *zap.Logger

	mu    sync.Mutex
	query Query
	gen   uint64

	snapshot atomic.Pointer[[]booking.Reservation]
	inFlight atomic.Bool
	paused   atomic.Bool
	lastErr  atomic.Pointer[error]
}

// New creates a refresher. A non-positive interval uses DefaultInterval.
func New(store Lister, q Query, interval time.Duration, logger *zap.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Refresher{store: store, interval: interval, logger: logger, query: q}
	empty := []booking.Reservation{}
	r.snapshot.Store(&empty)
	return r
}

// Reservations returns the latest snapshot.
func (r *Refresher) Reservations() []booking.Reservation {
	return *r.snapshot.Load()
}

// Query returns what is currently being loaded.
func (r *Refresher) Query() Query {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.query
}

// SetQuery changes the room/week; the next Refresh loads it.
func (r *Refresher) SetQuery(q Query) {
	r.mu.Lock()
	r.query = q
	r.gen++
	r.mu.Unlock()
}

func (r *Refresher) current() (Query, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.query, r.gen
}

// Err returns the error of the last refresh, nil after a success.
func (r *Refresher) Err() error {
	if p := r.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Refresh loads the current query. It returns ErrInFlight without touching
// the store if a refresh is already running. If SetQuery is called while the
// store is being read, the result is dropped and the new query is loaded
// before returning, so the snapshot never holds another room or week. On
// failure the previous snapshot stays in place.
func (r *Refresher) Refresh(ctx context.Context) error {
	if !r.inFlight.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer r.inFlight.Store(false)

	for {
		q, gen := r.current()
		list, err := r.store.List(ctx, q.Room, q.Week)
		if _, now := r.current(); now != gen {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			r.logger.Debug("query changed during refresh, reloading",
				zap.String("room", string(q.Room)))
			continue
		}
		if err != nil {
			r.lastErr.Store(&err)
			r.logger.Warn("refresh failed, keeping previous reservations",
				zap.String("room", string(q.Room)), zap.Error(err))
			return err
		}
		r.publish(q, list)
		return nil
	}
}

func (r *Refresher) publish(q Query, list []booking.Reservation) {
	if list == nil {
		list = []booking.Reservation{}
	}
	r.snapshot.Store(&list)
	r.lastErr.Store(nil)
	r.logger.Debug("reservations refreshed",
		zap.String("room", string(q.Room)), zap.Int("count", len(list)))
}

// Pause stops ticks from refreshing, e.g. while the view is not visible.
func (r *Refresher) Pause() { r.paused.Store(true) }

// Resume re-enables ticks.
func (r *Refresher) Resume() { r.paused.Store(false) }

// Paused reports whether ticks are suppressed.
func (r *Refresher) Paused() bool { return r.paused.Load() }

// Run refreshes every interval until ctx is done. notify, if set, is called
// after each successful refresh. Ticks that arrive while paused or while a
// refresh is in flight are dropped.
func (r *Refresher) Run(ctx context.Context, notify func()) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.Paused() {
				continue
			}
			if err := r.Refresh(ctx); err != nil {
				continue
			}
			if notify != nil {
				notify()
			}
		}
	}
}
