package storage

import (
	"context"
	"errors"
	"time"

	"roomgrid/booking"
)

var (
	ErrNotFound       = errors.New("reservation not found")
	ErrUnknownBackend = errors.New("unknown store backend")
)

// Store persists reservations. Implementations do not check overlap; the
// service validates against List before writing.
type Store interface {
	// List returns the reservations of room that overlap window, ordered by
	// start. An empty room matches every room; a zero window matches all
	// times.
	List(ctx context.Context, room booking.Room, window booking.TimeRange) ([]booking.Reservation, error)
	Get(ctx context.Context, id string) (booking.Reservation, error)
	// Create stores r, assigning an ID and CreatedAt when they are unset.
	Create(ctx context.Context, r booking.Reservation) (booking.Reservation, error)
	Delete(ctx context.Context, id string) error
	// Update replaces the reservation id with r under a new ID.
	Update(ctx context.Context, id string, r booking.Reservation) (booking.Reservation, error)
	// DeleteBefore removes reservations that ended before t.
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
	Close() error
}

func matches(r booking.Reservation, room booking.Room, window booking.TimeRange) bool {
	if room != "" && r.Room != room {
		return false
	}
	if window.Start.IsZero() && window.End.IsZero() {
		return true
	}
	return r.Range().Overlaps(window)
}

func filter(all []booking.Reservation, room booking.Room, window booking.TimeRange) []booking.Reservation {
	out := []booking.Reservation{}
	for _, r := range all {
		if matches(r, room, window) {
			out = append(out, r)
		}
	}
	booking.SortByStart(out)
	return out
}
