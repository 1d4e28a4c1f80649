// Package mongo stores status checks in a MongoDB collection.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JakeFAU/school-portal-api/internal/school"
)

const defaultCollection = "status_checks"

// Config addresses the collection holding status checks.
type Config struct {
	URL            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
}

// StatusStore reads and writes status checks in MongoDB.
type StatusStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewStatusStore connects to MongoDB. The driver connects lazily, so an
// unreachable server surfaces on the first operation or Ping.
func NewStatusStore(ctx context.Context, cfg Config) (*StatusStore, error) {
	if cfg.URL == "" || cfg.Database == "" {
		return nil, fmt.Errorf("mongo url and database are required")
	}
	collection := cfg.Collection
	if collection == "" {
		collection = defaultCollection
	}
	opts := options.Client().ApplyURI(cfg.URL)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
		opts.SetServerSelectionTimeout(cfg.ConnectTimeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return &StatusStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(collection),
	}, nil
}

// NewStatusStoreWithCollection wraps an existing collection (primarily for
// testing). Close does not disconnect its client.
func NewStatusStoreWithCollection(coll *mongo.Collection) *StatusStore {
	return &StatusStore{coll: coll}
}

// InsertStatusCheck inserts one document.
func (s *StatusStore) InsertStatusCheck(ctx context.Context, check school.StatusCheck) error {
	if _, err := s.coll.InsertOne(ctx, check); err != nil {
		return fmt.Errorf("insert status check: %w", err)
	}
	return nil
}

// ListStatusChecks returns documents in natural order.
func (s *StatusStore) ListStatusChecks(ctx context.Context, limit int) ([]school.StatusCheck, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find status checks: %w", err)
	}
	checks := []school.StatusCheck{}
	if err := cursor.All(ctx, &checks); err != nil {
		return nil, fmt.Errorf("decode status checks: %w", err)
	}
	return checks, nil
}

// Ping runs the ping command against the store's database.
func (s *StatusStore) Ping(ctx context.Context) error {
	if err := s.coll.Database().RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err(); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *StatusStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}
