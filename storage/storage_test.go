package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"roomgrid/booking"
)

func wall(day, hour, minute int) time.Time {
	return time.Date(2024, 1, day, hour, minute, 0, 0, time.Local)
}

func sample(room booking.Room, day, h1, h2 int, title string) booking.Reservation {
	return booking.Reservation{
		Room:       room,
		Start:      wall(day, h1, 0),
		End:        wall(day, h2, 0),
		Title:      title,
		SecretHash: "$2a$10$abcdefghijklmnopqrstuv",
		CreatedAt:  wall(1, 8, 0),
	}
}

func TestFormatAndParseRoundTrip(t *testing.T) {
	r := sample(booking.RoomOne, 15, 10, 11, "Standup | weekly")
	r.ID = "abc"

	raw := FormatReservation(r)
	if !strings.HasPrefix(raw, "abc|Room 1|2024-01-15T10:00:00|2024-01-15T11:00:00|") {
		t.Errorf("Unexpected line: %q", raw)
	}
	parsed, err := ParseReservation(raw)
	if err != nil {
		t.Fatalf("Failed to parse reservation: %v", err)
	}

	if !parsed.Start.Equal(r.Start) || !parsed.End.Equal(r.End) {
		t.Errorf("Range mismatch: got %v, want %v", parsed.Range(), r.Range())
	}
	if parsed.Start.Hour() != 10 {
		t.Errorf("Wall clock not kept: got hour %d", parsed.Start.Hour())
	}
	if parsed.Title != r.Title {
		t.Errorf("Title mismatch: got %q, want %q", parsed.Title, r.Title)
	}
	if parsed.Room != booking.RoomOne || parsed.SecretHash != r.SecretHash || parsed.ID != "abc" {
		t.Errorf("Field mismatch: got %+v", parsed)
	}
}

func TestParseReservationRejectsMalformed(t *testing.T) {
	lines := []string{
		"no separators",
		"|Room 1|2024-01-15T10:00:00|2024-01-15T11:00:00|2024-01-01T08:00:00|h|t",
		"a|Room 9|2024-01-15T10:00:00|2024-01-15T11:00:00|2024-01-01T08:00:00|h|t",
		"a|Room 1|yesterday|2024-01-15T11:00:00|2024-01-01T08:00:00|h|t",
		"a|Room 1|2024-01-15T11:00:00|2024-01-15T10:00:00|2024-01-01T08:00:00|h|t",
	}
	for _, line := range lines {
		if _, err := ParseReservation(line); err == nil {
			t.Errorf("Expected error for %q", line)
		}
	}
}

func TestReadSkipsCommentsAndMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookings.txt")
	good := sample(booking.RoomTwo, 16, 9, 10, "Review")
	good.ID = "good"
	content := "# bookings\n\n" + FormatReservation(good) + "\nbroken line\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	all, err := ReadReservations(path)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if len(all) != 1 || all[0].ID != "good" {
		t.Errorf("Expected only the good line, got %+v", all)
	}
}

func TestReadMissingFile(t *testing.T) {
	all, err := ReadReservations(filepath.Join(t.TempDir(), "nested", "bookings.txt"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("Expected no reservations, got %d", len(all))
	}
}

func TestFileStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "bookings.txt"), nil)

	a, err := s.Create(ctx, sample(booking.RoomOne, 15, 10, 11, "Standup"))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if a.ID == "" || a.CreatedAt.IsZero() {
		t.Errorf("Expected ID and CreatedAt to be assigned, got %+v", a)
	}
	if _, err := s.Create(ctx, sample(booking.RoomOne, 15, 8, 9, "Early")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, sample(booking.RoomTwo, 15, 10, 11, "Other room")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Create(ctx, sample(booking.RoomOne, 23, 10, 11, "Next week")); err != nil {
		t.Fatal(err)
	}

	week := booking.TimeRange{Start: wall(15, 0, 0), End: wall(22, 0, 0)}
	list, err := s.List(ctx, booking.RoomOne, week)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].Title != "Early" || list[1].Title != "Standup" {
		t.Errorf("Expected [Early Standup], got %+v", list)
	}

	all, err := s.List(ctx, "", booking.TimeRange{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("Expected 4 reservations, got %d", len(all))
	}

	got, err := s.Get(ctx, a.ID)
	if err != nil || got.Title != "Standup" {
		t.Errorf("Get returned %+v, %v", got, err)
	}

	moved := a
	moved.Start = wall(15, 12, 0)
	moved.End = wall(15, 13, 0)
	updated, err := s.Update(ctx, a.ID, moved)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.ID == a.ID {
		t.Error("Expected Update to assign a new ID")
	}
	if _, err := s.Get(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected old ID to be gone, got %v", err)
	}
	got, err = s.Get(ctx, updated.ID)
	if err != nil || !got.Start.Equal(wall(15, 12, 0)) {
		t.Errorf("Updated reservation not stored: %+v, %v", got, err)
	}

	if err := s.Delete(ctx, updated.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, updated.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := s.Update(ctx, "missing", moved); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on update of missing id, got %v", err)
	}
}

func TestFileStoreDeleteBefore(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "bookings.txt"), nil)
	for _, r := range []booking.Reservation{
		sample(booking.RoomOne, 15, 9, 10, "Past"),
		sample(booking.RoomOne, 15, 10, 12, "Running"),
		sample(booking.RoomTwo, 16, 9, 10, "Future"),
	} {
		if _, err := s.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	n, err := Cleanup(ctx, s, wall(15, 11, 0), nil)
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 removed, got %d", n)
	}
	left, _ := s.List(ctx, "", booking.TimeRange{})
	if len(left) != 2 || left[0].Title != "Running" {
		t.Errorf("Unexpected remaining reservations: %+v", left)
	}

	n, err = s.DeleteBefore(ctx, wall(15, 11, 0))
	if err != nil || n != 0 {
		t.Errorf("Expected nothing more to remove, got %d, %v", n, err)
	}
}

func TestDefaultPathFromEnv(t *testing.T) {
	t.Setenv(PathEnvVar, "/tmp/roomgrid/../roomgrid/bookings.txt")
	if got := DefaultPath(); got != "/tmp/roomgrid/bookings.txt" {
		t.Errorf("Expected cleaned env path, got %q", got)
	}
}
