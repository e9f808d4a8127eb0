package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"roomgrid/booking"
)

const PathEnvVar = "ROOMGRID_PATH"

// DefaultPath returns the bookings file path from the environment variable
// or defaults to ~/.roomgrid/bookings.txt.
func DefaultPath() string {
	envValue := os.Getenv(PathEnvVar)
	if envValue != "" {
		return filepath.Clean(envValue)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return ".roomgrid/bookings.txt"
	}
	return filepath.Join(home, ".roomgrid", "bookings.txt")
}

// FormatReservation formats a reservation as a line in the bookings file.
// Format: ID|ROOM|START|END|CREATED|SECRET_HASH|title. Times are wall clock
// without a zone. The title is last so it may contain '|'.
func FormatReservation(r booking.Reservation) string {
	return strings.Join([]string{
		r.ID,
		string(r.Room),
		FormatWall(r.Start),
		FormatWall(r.End),
		FormatWall(r.CreatedAt),
		r.SecretHash,
		strings.TrimSpace(r.Title),
	}, "|")
}

// ParseReservation parses a single line from the bookings file.
func ParseReservation(raw string) (booking.Reservation, error) {
	parts := strings.SplitN(raw, "|", 7)
	if len(parts) != 7 {
		return booking.Reservation{}, fmt.Errorf("entry must have 7 '|' separated columns")
	}

	id := strings.TrimSpace(parts[0])
	if id == "" {
		return booking.Reservation{}, fmt.Errorf("entry has no id")
	}
	room, err := booking.ParseRoom(parts[1])
	if err != nil {
		return booking.Reservation{}, err
	}
	start, err := ParseWall(strings.TrimSpace(parts[2]))
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("invalid start time: %w", err)
	}
	end, err := ParseWall(strings.TrimSpace(parts[3]))
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("invalid end time: %w", err)
	}
	if !end.After(start) {
		return booking.Reservation{}, booking.ErrInvalidRange
	}
	created, err := ParseWall(strings.TrimSpace(parts[4]))
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("invalid created time: %w", err)
	}

	return booking.Reservation{
		ID:         id,
		Room:       room,
		Start:      start,
		End:        end,
		CreatedAt:  created,
		SecretHash: strings.TrimSpace(parts[5]),
		Title:      strings.TrimSpace(parts[6]),
	}, nil
}

// ReadReservations reads all reservations from the bookings file.
// Skips empty lines, lines starting with # and malformed lines.
func ReadReservations(path string) ([]booking.Reservation, error) {
	if path == "" {
		path = DefaultPath()
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create bookings directory: %w", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []booking.Reservation{}, nil
		}
		return nil, fmt.Errorf("failed to read bookings file: %w", err)
	}

	reservations := []booking.Reservation{}
	lines := strings.Split(string(content), "\n")
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, "#") {
			continue
		}

		r, err := ParseReservation(stripped)
		if err != nil {
			continue
		}
		reservations = append(reservations, r)
	}

	return reservations, nil
}

// WriteReservations rewrites the bookings file. The content goes to a
// temporary file first and is renamed into place.
func WriteReservations(reservations []booking.Reservation, path string) error {
	if path == "" {
		path = DefaultPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create bookings directory: %w", err)
	}

	var lines []string
	for _, r := range reservations {
		lines = append(lines, FormatReservation(r))
	}

	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write bookings file: %w", err)
	}
	return os.Rename(tmp, path)
}

// AppendReservation appends a single reservation to the bookings file.
func AppendReservation(r booking.Reservation, path string) error {
	if path == "" {
		path = DefaultPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create bookings directory: %w", err)
	}

	line := FormatReservation(r) + "\n"
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open bookings file: %w", err)
	}
	defer file.Close()

	_, err = file.WriteString(line)
	return err
}

// FileStore keeps reservations in a plain text file, one per line.
type FileStore struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFileStore opens the bookings file at path (DefaultPath when empty).
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if path == "" {
		path = DefaultPath()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the file backing the store.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) List(ctx context.Context, room booking.Room, window booking.TimeRange) ([]booking.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := ReadReservations(s.path)
	if err != nil {
		return nil, err
	}
	return filter(all, room, window), nil
}

func (s *FileStore) Get(ctx context.Context, id string) (booking.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := ReadReservations(s.path)
	if err != nil {
		return booking.Reservation{}, err
	}
	if i := indexOf(all, id); i >= 0 {
		return all[i], nil
	}
	return booking.Reservation{}, ErrNotFound
}

func (s *FileStore) Create(ctx context.Context, r booking.Reservation) (booking.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r = stamp(r)
	if err := AppendReservation(r, s.path); err != nil {
		return booking.Reservation{}, err
	}
	s.logger.Debug("reservation stored", zap.String("id", r.ID), zap.String("room", string(r.Room)))
	return r, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := ReadReservations(s.path)
	if err != nil {
		return err
	}
	i := indexOf(all, id)
	if i < 0 {
		return ErrNotFound
	}
	return WriteReservations(append(all[:i], all[i+1:]...), s.path)
}

// Update swaps the old line for the new one in a single rewrite.
func (s *FileStore) Update(ctx context.Context, id string, r booking.Reservation) (booking.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := ReadReservations(s.path)
	if err != nil {
		return booking.Reservation{}, err
	}
	i := indexOf(all, id)
	if i < 0 {
		return booking.Reservation{}, ErrNotFound
	}
	r.ID = ""
	r.CreatedAt = time.Time{}
	r = stamp(r)
	all[i] = r
	if err := WriteReservations(all, s.path); err != nil {
		return booking.Reservation{}, err
	}
	return r, nil
}

func (s *FileStore) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := ReadReservations(s.path)
	if err != nil {
		return 0, err
	}
	kept := all[:0]
	for _, r := range all {
		if !r.End.Before(t) {
			kept = append(kept, r)
		}
	}
	removed := int64(len(all) - len(kept))
	if removed == 0 {
		return 0, nil
	}
	return removed, WriteReservations(kept, s.path)
}

func (s *FileStore) Close() error {
	return nil
}

func indexOf(all []booking.Reservation, id string) int {
	for i, r := range all {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// stamp fills in the ID and creation time of a new record.
func stamp(r booking.Reservation) booking.Reservation {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = LocalNow()
	}
	return r
}
