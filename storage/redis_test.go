package storage

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomgrid/booking"
)

func newRedisTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(context.Background(), mr.Addr(), "", 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, mr
}

func weekOf(day int) booking.TimeRange {
	return booking.TimeRange{Start: wall(day, 0, 0), End: wall(day+7, 0, 0)}
}

func TestRedisRecordKeepsWallClock(t *testing.T) {
	r := sample(booking.RoomTwo, 15, 10, 11, "Standup")
	r.ID = "abc"

	rec := toRedisRecord(r)
	assert.Equal(t, "2024-01-15T10:00:00", rec.Start)
	assert.Equal(t, "2024-01-15T11:00:00", rec.End)
	assert.Equal(t, "Room 2", rec.Room)

	back, err := rec.reservation()
	require.NoError(t, err)
	assert.Equal(t, r, back)

	// Values written with an offset are moved to the local zone.
	rec.Start = wall(15, 10, 0).UTC().Format(time.RFC3339)
	back, err = rec.reservation()
	require.NoError(t, err)
	assert.True(t, back.Start.Equal(wall(15, 10, 0)))
	assert.Equal(t, time.Local, back.Start.Location())

	rec.End = "tomorrow"
	_, err = rec.reservation()
	assert.Error(t, err)
}

func TestRedisCreateIndexesAndLists(t *testing.T) {
	s, mr := newRedisTestStore(t)
	ctx := context.Background()

	a, err := s.Create(ctx, sample(booking.RoomOne, 16, 9, 10, "Tuesday"))
	require.NoError(t, err)
	b, err := s.Create(ctx, sample(booking.RoomOne, 15, 10, 11, "Monday"))
	require.NoError(t, err)
	_, err = s.Create(ctx, sample(booking.RoomTwo, 15, 10, 11, "Other room"))
	require.NoError(t, err)
	_, err = s.Create(ctx, sample(booking.RoomOne, 22, 10, 11, "Next week"))
	require.NoError(t, err)
	// Ended before the window.
	_, err = s.Create(ctx, sample(booking.RoomOne, 8, 10, 11, "Last week"))
	require.NoError(t, err)

	raw, err := mr.Get(reservationKey(b.ID))
	require.NoError(t, err)
	var rec redisRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Equal(t, "2024-01-15T10:00:00", rec.Start)

	startScore, err := mr.ZScore(roomKey(booking.RoomOne), b.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(wall(15, 10, 0).Unix()), startScore)
	endScore, err := mr.ZScore(redisEndsKey, b.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(wall(15, 11, 0).Unix()), endScore)

	list, err := s.List(ctx, booking.RoomOne, weekOf(15))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID, "sorted by start")
	assert.Equal(t, a.ID, list[1].ID)

	all, err := s.List(ctx, "", booking.TimeRange{})
	require.NoError(t, err)
	assert.Len(t, all, 5)

	got, err := s.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestRedisListSkipsBrokenEntries(t *testing.T) {
	s, mr := newRedisTestStore(t)
	ctx := context.Background()

	ok, err := s.Create(ctx, sample(booking.RoomOne, 15, 10, 11, "Kept"))
	require.NoError(t, err)

	at := float64(wall(15, 12, 0).Unix())
	_, err = mr.ZAdd(roomKey(booking.RoomOne), at, "ghost")
	require.NoError(t, err)
	_, err = mr.ZAdd(roomKey(booking.RoomOne), at, "garbled")
	require.NoError(t, err)
	require.NoError(t, mr.Set(reservationKey("garbled"), "{not json"))

	list, err := s.List(ctx, booking.RoomOne, weekOf(15))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ok.ID, list[0].ID)
}

func TestRedisUpdateReplacesAllKeys(t *testing.T) {
	s, mr := newRedisTestStore(t)
	ctx := context.Background()

	old, err := s.Create(ctx, sample(booking.RoomOne, 15, 10, 11, "Standup"))
	require.NoError(t, err)

	next := old
	next.Start = wall(15, 14, 0)
	next.End = wall(15, 15, 0)
	next.Title = "Moved"
	updated, err := s.Update(ctx, old.ID, next)
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, updated.ID)
	assert.Equal(t, old.SecretHash, updated.SecretHash)

	assert.False(t, mr.Exists(reservationKey(old.ID)))
	assert.True(t, mr.Exists(reservationKey(updated.ID)))

	members, err := mr.ZMembers(roomKey(booking.RoomOne))
	require.NoError(t, err)
	assert.Equal(t, []string{updated.ID}, members)
	ends, err := mr.ZMembers(redisEndsKey)
	require.NoError(t, err)
	assert.Equal(t, []string{updated.ID}, ends)

	_, err = s.Get(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Update(ctx, old.ID, next)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisDeleteBeforeUsesEndIndex(t *testing.T) {
	s, mr := newRedisTestStore(t)
	ctx := context.Background()

	past, err := s.Create(ctx, sample(booking.RoomOne, 15, 9, 10, "Past"))
	require.NoError(t, err)
	edge, err := s.Create(ctx, sample(booking.RoomTwo, 15, 10, 11, "Ends at cutoff"))
	require.NoError(t, err)
	_, err = s.Create(ctx, sample(booking.RoomOne, 15, 10, 12, "Running"))
	require.NoError(t, err)

	n, err := s.DeleteBefore(ctx, wall(15, 11, 0))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.False(t, mr.Exists(reservationKey(past.ID)))

	ends, err := mr.ZMembers(redisEndsKey)
	require.NoError(t, err)
	assert.Len(t, ends, 2)
	assert.Contains(t, ends, edge.ID)

	n, err = s.DeleteBefore(ctx, wall(1, 0, 0))
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, s.Delete(ctx, edge.ID))
	assert.ErrorIs(t, s.Delete(ctx, edge.ID), ErrNotFound)
	assert.False(t, mr.Exists(roomKey(booking.RoomTwo)))
}

func TestRedisStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(context.Background(), addr, "", 0, nil)
	assert.ErrorContains(t, err, "connect to redis")
}
