// Package profile persists the one-to-one profile rows created at
// registration. Profiles are fetched, never mutated in place by the gateway.
package profile

import (
	"context"
	"fmt"
	"sync"

	"ashram/internal/identity"
	id "ashram/pkg/domain"
	"ashram/pkg/platform/sentinel"
)

// FindByUser returns sentinel.ErrNotFound for zero rows. Callers decide
// whether that is tolerable; the auth state store treats it as "no profile
// yet", not a failure.

// InMemoryProfileStore stores profiles in memory for tests/dev.
type InMemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[id.UserID]*identity.Profile
}

// New constructs an empty in-memory profile store.
func New() *InMemoryProfileStore {
	return &InMemoryProfileStore{profiles: make(map[id.UserID]*identity.Profile)}
}

func (s *InMemoryProfileStore) Create(_ context.Context, p *identity.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; ok {
		return fmt.Errorf("profile already exists: %w", sentinel.ErrConflict)
	}
	clone := *p
	s.profiles[p.ID] = &clone
	return nil
}

func (s *InMemoryProfileStore) FindByUser(_ context.Context, userID id.UserID) (*identity.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[userID]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, fmt.Errorf("profile not found: %w", sentinel.ErrNotFound)
}
