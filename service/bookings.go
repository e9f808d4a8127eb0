// Package service runs the reservation lifecycle shared by the CLI and the
// TUI: validation, availability, secret checks and persistence.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"roomgrid/booking"
	"roomgrid/grid"
	"roomgrid/storage"
)

// NewReservation is the input of Create.
type NewReservation struct {
	Room   booking.Room
	Range  booking.TimeRange
	Title  string
	Secret string
}

// Bookings validates requests against the store before writing.
type Bookings struct {
	store  storage.Store
	gate   *booking.Gate
	layout grid.Layout
	logger *zap.Logger
}

// New builds the service. A nil gate allows unlimited secret attempts.
func New(store storage.Store, gate *booking.Gate, layout grid.Layout, logger *zap.Logger) *Bookings {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bookings{store: store, gate: gate, layout: layout, logger: logger}
}

// Layout returns the bookable hours.
func (b *Bookings) Layout() grid.Layout {
	return b.layout
}

// List returns the room's reservations in week.
func (b *Bookings) List(ctx context.Context, room booking.Room, week booking.TimeRange) ([]booking.Reservation, error) {
	return b.store.List(ctx, room, week)
}

// Create validates and stores a new reservation.
func (b *Bookings) Create(ctx context.Context, req NewReservation) (booking.Reservation, error) {
	title, err := booking.CleanTitle(req.Title)
	if err != nil {
		return booking.Reservation{}, err
	}
	room, err := booking.ParseRoom(string(req.Room))
	if err != nil {
		return booking.Reservation{}, err
	}
	if err := b.checkRange(req.Range); err != nil {
		return booking.Reservation{}, err
	}
	hash, err := booking.HashSecret(req.Secret)
	if err != nil {
		return booking.Reservation{}, err
	}
	if err := b.checkAvailable(ctx, room, req.Range, ""); err != nil {
		return booking.Reservation{}, err
	}

	r, err := b.store.Create(ctx, booking.Reservation{
		Room:       room,
		Start:      req.Range.Start,
		End:        req.Range.End,
		Title:      title,
		SecretHash: hash,
	})
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("store reservation: %w", err)
	}
	b.logger.Info("reservation created",
		zap.String("id", r.ID), zap.String("room", string(r.Room)), zap.Stringer("range", r.Range()))
	return r, nil
}

// Verify checks the secret of reservation id and returns it.
func (b *Bookings) Verify(ctx context.Context, id, secret string) (booking.Reservation, error) {
	r, err := b.store.Get(ctx, id)
	if err != nil {
		return booking.Reservation{}, err
	}
	if b.gate != nil {
		err = b.gate.Verify(r, secret)
	} else {
		err = booking.VerifySecret(r, secret)
	}
	if err != nil {
		b.logger.Warn("secret rejected", zap.String("id", id), zap.Error(err))
		return booking.Reservation{}, err
	}
	return r, nil
}

// Delete removes reservation id after checking its secret.
func (b *Bookings) Delete(ctx context.Context, id, secret string) error {
	if _, err := b.Verify(ctx, id, secret); err != nil {
		return err
	}
	if err := b.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if b.gate != nil {
		b.gate.Forget(id)
	}
	b.logger.Info("reservation deleted", zap.String("id", id))
	return nil
}

// Update moves and/or renames reservation id after checking its secret.
// An empty title keeps the current one. The stored record gets a new ID.
func (b *Bookings) Update(ctx context.Context, id, secret string, rng booking.TimeRange, title string) (booking.Reservation, error) {
	current, err := b.Verify(ctx, id, secret)
	if err != nil {
		return booking.Reservation{}, err
	}
	if strings.TrimSpace(title) == "" {
		title = current.Title
	} else if title, err = booking.CleanTitle(title); err != nil {
		return booking.Reservation{}, err
	}
	if err := b.checkRange(rng); err != nil {
		return booking.Reservation{}, err
	}
	if err := b.checkAvailable(ctx, current.Room, rng, id); err != nil {
		return booking.Reservation{}, err
	}

	next := current
	next.Start = rng.Start
	next.End = rng.End
	next.Title = title
	updated, err := b.store.Update(ctx, id, next)
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("update reservation: %w", err)
	}
	if b.gate != nil {
		b.gate.Forget(id)
	}
	b.logger.Info("reservation updated",
		zap.String("old", id), zap.String("id", updated.ID), zap.Stringer("range", updated.Range()))
	return updated, nil
}

// Cleanup removes reservations that ended before now.
func (b *Bookings) Cleanup(ctx context.Context, now time.Time) (int64, error) {
	return storage.Cleanup(ctx, b.store, now, b.logger)
}

// checkRange requires a positive range inside the bookable hours of a
// single day.
func (b *Bookings) checkRange(r booking.TimeRange) error {
	if !r.Valid() {
		return booking.ErrInvalidRange
	}
	day := grid.DayStart(r.Start)
	open := grid.At(day, b.layout.FirstHour, 0)
	closing := grid.At(day, b.layout.EndHour, 0)
	if r.Start.Before(open) || r.End.After(closing) {
		return fmt.Errorf("%w: %s is outside %02d:00-%02d:00", grid.ErrOutOfRange, r, b.layout.FirstHour, b.layout.EndHour)
	}
	return nil
}

func (b *Bookings) checkAvailable(ctx context.Context, room booking.Room, r booking.TimeRange, excludeID string) error {
	start, end := grid.WeekRange(r.Start)
	existing, err := b.store.List(ctx, room, booking.TimeRange{Start: start, End: end})
	if err != nil {
		return fmt.Errorf("load reservations: %w", err)
	}
	return booking.Check(r, existing, excludeID)
}
