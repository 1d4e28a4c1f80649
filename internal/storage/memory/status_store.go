// Package memory provides in-memory implementations for development/testing.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/JakeFAU/school-portal-api/internal/school"
)

// ErrDuplicateID is returned when a status check id is stored twice.
var ErrDuplicateID = errors.New("status check already exists")

// StatusStore keeps status checks in insertion order.
type StatusStore struct {
	mu     sync.RWMutex
	checks []school.StatusCheck
	ids    map[string]struct{}
}

// NewStatusStore constructs an empty StatusStore.
func NewStatusStore() *StatusStore {
	return &StatusStore{ids: make(map[string]struct{})}
}

// InsertStatusCheck appends a status check.
func (s *StatusStore) InsertStatusCheck(_ context.Context, check school.StatusCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.ids[check.ID]; exists {
		return ErrDuplicateID
	}
	s.ids[check.ID] = struct{}{}
	s.checks = append(s.checks, check)
	return nil
}

// ListStatusChecks returns a copy of up to limit status checks.
func (s *StatusStore) ListStatusChecks(_ context.Context, limit int) ([]school.StatusCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.checks)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]school.StatusCheck, n)
	copy(out, s.checks[:n])
	return out, nil
}

// Ping always succeeds.
func (s *StatusStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op.
func (s *StatusStore) Close(context.Context) error {
	return nil
}
