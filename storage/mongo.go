package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"roomgrid/booking"
)

const mongoCollection = "bookings"

type mongoReservation struct {
	ID         string    `bson:"id"`
	Room       string    `bson:"room"`
	Start      time.Time `bson:"start"`
	End        time.Time `bson:"end"`
	Title      string    `bson:"title"`
	SecretHash string    `bson:"secretHash"`
	CreatedAt  time.Time `bson:"createdAt"`
}

func toMongo(r booking.Reservation) mongoReservation {
	return mongoReservation{
		ID:         r.ID,
		Room:       string(r.Room),
		Start:      r.Start,
		End:        r.End,
		Title:      r.Title,
		SecretHash: r.SecretHash,
		CreatedAt:  r.CreatedAt,
	}
}

// BSON dates come back in UTC.
func (m mongoReservation) reservation() booking.Reservation {
	return booking.Reservation{
		ID:         m.ID,
		Room:       booking.Room(m.Room),
		Start:      m.Start.In(time.Local),
		End:        m.End.In(time.Local),
		Title:      m.Title,
		SecretHash: m.SecretHash,
		CreatedAt:  m.CreatedAt.In(time.Local),
	}
}

// MongoStore keeps reservations in the bookings collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewMongoStore connects, pings and ensures the indexes exist.
func NewMongoStore(ctx context.Context, uri, database string, logger *zap.Logger) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(mongoCollection),
		logger: logger,
	}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "room", Value: 1}, {Key: "start", Value: 1}}},
		{Keys: bson.D{{Key: "end", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create booking indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, room booking.Room, window booking.TimeRange) ([]booking.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if room != "" {
		filter["room"] = string(room)
	}
	if !window.Start.IsZero() || !window.End.IsZero() {
		filter["start"] = bson.M{"$lt": window.End}
		filter["end"] = bson.M{"$gt": window.Start}
	}
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoReservation
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reservations: %w", err)
	}
	out := make([]booking.Reservation, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.reservation())
	}
	return out, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (booking.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc mongoReservation
	err := s.coll.FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return booking.Reservation{}, ErrNotFound
	}
	if err != nil {
		return booking.Reservation{}, fmt.Errorf("get %s: %w", id, err)
	}
	return doc.reservation(), nil
}

func (s *MongoStore) Create(ctx context.Context, r booking.Reservation) (booking.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	r = stamp(r)
	if _, err := s.coll.InsertOne(ctx, toMongo(r)); err != nil {
		return booking.Reservation{}, fmt.Errorf("create reservation: %w", err)
	}
	return r, nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Update inserts the new document, then deletes the old one. Readers may
// briefly see both; a failed delete leaves both and is reported.
func (s *MongoStore) Update(ctx context.Context, id string, r booking.Reservation) (booking.Reservation, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return booking.Reservation{}, err
	}
	r.ID = ""
	r.CreatedAt = time.Time{}
	created, err := s.Create(ctx, r)
	if err != nil {
		return booking.Reservation{}, err
	}
	if err := s.Delete(ctx, id); err != nil {
		s.logger.Error("old reservation left behind after update",
			zap.String("old", id), zap.String("new", created.ID), zap.Error(err))
		return created, fmt.Errorf("remove replaced reservation %s: %w", id, err)
	}
	return created, nil
}

func (s *MongoStore) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.coll.DeleteMany(ctx, bson.M{"end": bson.M{"$lt": t}})
	if err != nil {
		return 0, fmt.Errorf("delete past reservations: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
