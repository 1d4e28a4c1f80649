package school

import (
	"context"
	"time"
)

// StatusStore persists status checks in a document store.
type StatusStore interface {
	InsertStatusCheck(ctx context.Context, check StatusCheck) error
	// ListStatusChecks returns records in natural storage order. A limit <= 0
	// returns every record.
	ListStatusChecks(ctx context.Context, limit int) ([]StatusCheck, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// NoticeSource returns the notices to show. It never fails.
type NoticeSource interface {
	Notices(ctx context.Context) []Notice
}

// Fetcher fetches a URL and returns the body plus metadata.
type Fetcher interface {
	Fetch(ctx context.Context, request FetchRequest) (FetchResponse, error)
}

// Publisher pushes events to Pub/Sub, RabbitMQ or similar.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces status check IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
