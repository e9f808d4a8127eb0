package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"roomgrid/booking"
)

const (
	redisPrefix  = "roomgrid:"
	redisEndsKey = redisPrefix + "ends"
)

// redisRecord is the JSON value stored per reservation. Times are wall
// clock strings so a reader in another zone sees the same grid position.
type redisRecord struct {
	ID         string `json:"id"`
	Room       string `json:"room"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Title      string `json:"title"`
	SecretHash string `json:"secretHash"`
	CreatedAt  string `json:"createdAt"`
}

func toRedisRecord(r booking.Reservation) redisRecord {
	return redisRecord{
		ID:         r.ID,
		Room:       string(r.Room),
		Start:      FormatWall(r.Start),
		End:        FormatWall(r.End),
		Title:      r.Title,
		SecretHash: r.SecretHash,
		CreatedAt:  FormatWall(r.CreatedAt),
	}
}

func (rec redisRecord) reservation() (booking.Reservation, error) {
	start, err := ParseWall(rec.Start)
	if err != nil {
		return booking.Reservation{}, err
	}
	end, err := ParseWall(rec.End)
	if err != nil {
		return booking.Reservation{}, err
	}
	created, err := ParseWall(rec.CreatedAt)
	if err != nil {
		return booking.Reservation{}, err
	}
	return booking.Reservation{
		ID:         rec.ID,
		Room:       booking.Room(rec.Room),
		Start:      start,
		End:        end,
		Title:      rec.Title,
		SecretHash: rec.SecretHash,
		CreatedAt:  created,
	}, nil
}

func reservationKey(id string) string {
	return redisPrefix + "booking:" + id
}

func roomKey(room booking.Room) string {
	return redisPrefix + "room:" + string(room)
}

func score(t time.Time) float64 {
	return float64(t.Unix())
}

// RedisStore keeps one JSON value per reservation plus a sorted set per
// room scored by start, and one scored by end for cleanup.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, logger: logger}, nil
}

func (s *RedisStore) List(ctx context.Context, room booking.Room, window booking.TimeRange) ([]booking.Reservation, error) {
	rooms := booking.Rooms
	if room != "" {
		rooms = []booking.Room{room}
	}
	max := "+inf"
	if !window.End.IsZero() {
		max = fmt.Sprintf("(%d", window.End.Unix())
	}

	var ids []string
	for _, rm := range rooms {
		got, err := s.client.ZRangeByScore(ctx, roomKey(rm), &redis.ZRangeBy{Min: "-inf", Max: max}).Result()
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", rm, err)
		}
		ids = append(ids, got...)
	}
	all, err := s.load(ctx, ids)
	if err != nil {
		return nil, err
	}
	return filter(all, room, window), nil
}

func (s *RedisStore) load(ctx context.Context, ids []string) ([]booking.Reservation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = reservationKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}
	out := make([]booking.Reservation, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a value; skip it.
			continue
		}
		var rec redisRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			s.logger.Warn("skipping malformed reservation", zap.String("id", ids[i]), zap.Error(err))
			continue
		}
		r, err := rec.reservation()
		if err != nil {
			s.logger.Warn("skipping malformed reservation", zap.String("id", ids[i]), zap.Error(err))
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (booking.Reservation, error) {
	raw, err := s.client.Get(ctx, reservationKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return booking.Reservation{}, ErrNotFound
	}
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("get %s: %w", id, err)
	}
	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return booking.Reservation{}, fmt.Errorf("decode %s: %w", id, err)
	}
	return rec.reservation()
}

func (s *RedisStore) add(ctx context.Context, pipe redis.Pipeliner, r booking.Reservation) error {
	data, err := json.Marshal(toRedisRecord(r))
	if err != nil {
		return err
	}
	pipe.Set(ctx, reservationKey(r.ID), data, 0)
	pipe.ZAdd(ctx, roomKey(r.Room), &redis.Z{Score: score(r.Start), Member: r.ID})
	pipe.ZAdd(ctx, redisEndsKey, &redis.Z{Score: score(r.End), Member: r.ID})
	return nil
}

func (s *RedisStore) remove(ctx context.Context, pipe redis.Pipeliner, r booking.Reservation) {
	pipe.Del(ctx, reservationKey(r.ID))
	pipe.ZRem(ctx, roomKey(r.Room), r.ID)
	pipe.ZRem(ctx, redisEndsKey, r.ID)
}

func (s *RedisStore) Create(ctx context.Context, r booking.Reservation) (booking.Reservation, error) {
	r = stamp(r)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		return s.add(ctx, pipe, r)
	})
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	return r, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	old, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.remove(ctx, pipe, old)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// Update removes the old record and adds the new one in one MULTI/EXEC.
func (s *RedisStore) Update(ctx context.Context, id string, r booking.Reservation) (booking.Reservation, error) {
	old, err := s.Get(ctx, id)
	if err != nil {
		return booking.Reservation{}, err
	}
	r.ID = ""
	r.CreatedAt = time.Time{}
	r = stamp(r)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.remove(ctx, pipe, old)
		return s.add(ctx, pipe, r)
	})
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("update %s: %w", id, err)
	}
	return r, nil
}

func (s *RedisStore) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	ids, err := s.client.ZRangeByScore(ctx, redisEndsKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("(%d", t.Unix()),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("find past reservations: %w", err)
	}
	past, err := s.load(ctx, ids)
	if err != nil {
		return 0, err
	}
	if len(past) == 0 {
		return 0, nil
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, r := range past {
			s.remove(ctx, pipe, r)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete past reservations: %w", err)
	}
	return int64(len(past)), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
