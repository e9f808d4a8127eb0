package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"roomgrid/booking"
)

// Execer is satisfied by both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore keeps reservations in the bookings table. Columns are
// timestamp without time zone; values are written as wall-clock strings and
// relocated to the local zone on read.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore opens dsn with the pgx driver and applies migrations.
func NewPostgresStore(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresStore{db: db, logger: logger}, nil
}

const selectReservation = `
SELECT id, room, starts_at, ends_at, title, secret_hash, created_at
FROM bookings
`

func scanReservation(scan func(dest ...any) error) (booking.Reservation, error) {
	var (
		r                     booking.Reservation
		room                  string
		start, end, createdAt time.Time
	)
	if err := scan(&r.ID, &room, &start, &end, &r.Title, &r.SecretHash, &createdAt); err != nil {
		return booking.Reservation{}, err
	}
	r.Room = booking.Room(room)
	r.Start = Relocate(start)
	r.End = Relocate(end)
	r.CreatedAt = Relocate(createdAt)
	return r, nil
}

func (s *PostgresStore) List(ctx context.Context, room booking.Room, window booking.TimeRange) ([]booking.Reservation, error) {
	query := selectReservation + `WHERE ($1 = '' OR room = $1)`
	args := []any{string(room)}
	if !window.Start.IsZero() || !window.End.IsZero() {
		query += ` AND starts_at < $2::timestamp AND ends_at > $3::timestamp`
		args = append(args, FormatWall(window.End), FormatWall(window.Start))
	}
	query += ` ORDER BY starts_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	out := []booking.Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id string) (booking.Reservation, error) {
	row := s.db.QueryRowContext(ctx, selectReservation+`WHERE id = $1`, id)
	r, err := scanReservation(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Reservation{}, ErrNotFound
	}
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("get %s: %w", id, err)
	}
	return r, nil
}

func insertReservation(ctx context.Context, execer Execer, r booking.Reservation) error {
	const query = `
INSERT INTO bookings (id, room, starts_at, ends_at, title, secret_hash, created_at)
VALUES ($1, $2, $3::timestamp, $4::timestamp, $5, $6, $7::timestamp)
`
	_, err := execer.ExecContext(ctx, query,
		r.ID,
		string(r.Room),
		FormatWall(r.Start),
		FormatWall(r.End),
		r.Title,
		r.SecretHash,
		FormatWall(r.CreatedAt),
	)
	return err
}

func deleteReservation(ctx context.Context, execer Execer, id string) error {
	res, err := execer.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, r booking.Reservation) (booking.Reservation, error) {
	r = stamp(r)
	if err := insertReservation(ctx, s.db, r); err != nil {
		return booking.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	return deleteReservation(ctx, s.db, id)
}

// Update deletes the old row and inserts the new one in one transaction.
func (s *PostgresStore) Update(ctx context.Context, id string, r booking.Reservation) (booking.Reservation, error) {
	r.ID = ""
	r.CreatedAt = time.Time{}
	r = stamp(r)

	err := s.withTx(ctx, func(tx Execer) error {
		if err := deleteReservation(ctx, tx, id); err != nil {
			return err
		}
		return insertReservation(ctx, tx, r)
	})
	if err != nil {
		return booking.Reservation{}, err
	}
	return r, nil
}

func (s *PostgresStore) withTx(ctx context.Context, fn func(tx Execer) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return rollbackErr
		}
		return err
	}
	return tx.Commit()
}

func (s *PostgresStore) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookings WHERE ends_at < $1::timestamp`, FormatWall(t))
	if err != nil {
		return 0, fmt.Errorf("delete past reservations: %w", err)
	}
	return res.RowsAffected()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
