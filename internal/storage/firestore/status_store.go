// Package firestore stores status checks in a Firestore collection.
package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/JakeFAU/school-portal-api/internal/school"
)

const defaultCollection = "status_checks"

// ErrDuplicateID is returned when a document with the same id exists.
var ErrDuplicateID = errors.New("status check already exists")

// Config addresses the Firestore database.
type Config struct {
	ProjectID  string
	DatabaseID string
	Collection string
}

// StatusStore keeps one document per status check, keyed by its id.
type StatusStore struct {
	db         *firestore.Client
	collection string
	eb         *goerr.Builder
}

// NewStatusStore creates the Firestore client.
func NewStatusStore(ctx context.Context, cfg Config) (*StatusStore, error) {
	databaseID := cfg.DatabaseID
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	collection := cfg.Collection
	if collection == "" {
		collection = defaultCollection
	}

	db, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project_id", cfg.ProjectID),
			goerr.V("database_id", databaseID))
	}

	return &StatusStore{
		db:         db,
		collection: collection,
		eb: goerr.NewBuilder(
			goerr.V("repository", "firestore"),
			goerr.V("project_id", cfg.ProjectID),
			goerr.V("database_id", databaseID),
			goerr.V("collection", collection),
		),
	}, nil
}

// InsertStatusCheck creates the document. It fails if the id is taken.
func (s *StatusStore) InsertStatusCheck(ctx context.Context, check school.StatusCheck) error {
	if check.ID == "" {
		return s.eb.New("status check ID is empty")
	}
	_, err := s.db.Collection(s.collection).Doc(check.ID).Create(ctx, check)
	if status.Code(err) == codes.AlreadyExists {
		return s.eb.Wrap(ErrDuplicateID, "failed to create status check", goerr.V("id", check.ID))
	}
	if err != nil {
		return s.eb.Wrap(err, "failed to create status check", goerr.V("id", check.ID))
	}
	return nil
}

// ListStatusChecks returns documents ordered by timestamp.
func (s *StatusStore) ListStatusChecks(ctx context.Context, limit int) ([]school.StatusCheck, error) {
	query := s.db.Collection(s.collection).OrderBy("timestamp", firestore.Asc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	iter := query.Documents(ctx)
	defer iter.Stop()

	checks := []school.StatusCheck{}
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, s.eb.Wrap(err, "failed to iterate status checks")
		}

		var check school.StatusCheck
		if err := doc.DataTo(&check); err != nil {
			return nil, s.eb.Wrap(err, "failed to decode status check", goerr.V("doc_id", doc.Ref.ID))
		}
		check.Timestamp = check.Timestamp.UTC()
		checks = append(checks, check)
	}
	return checks, nil
}

// Ping reads at most one document.
func (s *StatusStore) Ping(ctx context.Context) error {
	iter := s.db.Collection(s.collection).Limit(1).Documents(ctx)
	defer iter.Stop()
	if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return s.eb.Wrap(err, "failed to reach firestore")
	}
	return nil
}

// Close releases the client.
func (s *StatusStore) Close(context.Context) error {
	if err := s.db.Close(); err != nil {
		return s.eb.Wrap(err, "failed to close firestore client")
	}
	return nil
}
