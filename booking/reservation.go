package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

var (
	ErrInvalidRange = errors.New("end time must be after start time")
	ErrConflict     = errors.New("time range overlaps an existing reservation")
	ErrUnknownRoom  = errors.New("unknown room")
	ErrEmptyTitle   = errors.New("title is required")
	ErrInvalidTitle = errors.New("title must not contain control characters")
)

// CleanTitle trims title and rejects it when empty or when it holds a
// control character such as a newline or tab. Stores write one record per
// line, so a title must stay on one.
func CleanTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyTitle
	}
	if strings.ContainsFunc(title, unicode.IsControl) {
		return "", ErrInvalidTitle
	}
	return title, nil
}

// Room identifies the space a reservation is scoped to.
type Room string

const (
	RoomOne Room = "Room 1"
	RoomTwo Room = "Room 2"
)

// Rooms is the closed set of bookable rooms, in display order.
var Rooms = []Room{RoomOne, RoomTwo}

// ParseRoom accepts a room name ("Room 1") or its number ("1").
func ParseRoom(value string) (Room, error) {
	value = strings.TrimSpace(value)
	for _, r := range Rooms {
		if strings.EqualFold(value, string(r)) || value == strings.TrimPrefix(string(r), "Room ") {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRoom, value)
}

// Next cycles to the following room.
func (r Room) Next() Room {
	for i, room := range Rooms {
		if room == r {
			return Rooms[(i+1)%len(Rooms)]
		}
	}
	return Rooms[0]
}

// TimeRange is a half-open wall-clock interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Span builds a range ordered so that Start <= End.
func Span(a, b time.Time) TimeRange {
	if b.Before(a) {
		a, b = b, a
	}
	return TimeRange{Start: a, End: b}
}

// Valid reports whether the range has positive length.
func (r TimeRange) Valid() bool {
	return r.End.After(r.Start)
}

// Duration returns End - Start.
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Overlaps is the half-open overlap test; touching endpoints do not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && r.End.After(o.Start)
}

// Contains reports whether t lies in [Start, End).
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

func (r TimeRange) String() string {
	return r.Start.Format("2006-01-02 15:04") + " -> " + r.End.Format("15:04")
}

// Reservation is a booked interval in a room. SecretHash holds the bcrypt
// hash of the 4-digit secret that guards edits.
type Reservation struct {
	ID         string
	Room       Room
	Start      time.Time
	End        time.Time
	Title      string
	SecretHash string
	CreatedAt  time.Time
}

// Range returns the reserved interval.
func (r Reservation) Range() TimeRange {
	return TimeRange{Start: r.Start, End: r.End}
}

// ForRoom filters reservations down to one room.
func ForRoom(reservations []Reservation, room Room) []Reservation {
	var out []Reservation
	for _, r := range reservations {
		if r.Room == room {
			out = append(out, r)
		}
	}
	return out
}

// ConflictError names the reservation that blocks a candidate range.
type ConflictError struct {
	Existing Reservation
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %q %s", ErrConflict, e.Existing.Title, e.Existing.Range())
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}
