package legacyadmin

import (
	"context"
	"fmt"
	"sync"

	"ashram/pkg/platform/sentinel"
)

// InMemoryMarkerStore holds the marker in memory for tests/dev.
type InMemoryMarkerStore struct {
	mu      sync.RWMutex
	marker  *Marker
	corrupt bool
}

// NewInMemoryMarkerStore constructs an empty in-memory marker store.
func NewInMemoryMarkerStore() *InMemoryMarkerStore {
	return &InMemoryMarkerStore{}
}

func (s *InMemoryMarkerStore) Read(_ context.Context) (*Marker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.corrupt {
		return nil, fmt.Errorf("admin marker corrupt: %w", sentinel.ErrInvalidState)
	}
	if s.marker == nil {
		return nil, fmt.Errorf("admin marker absent: %w", sentinel.ErrNotFound)
	}
	clone := *s.marker
	return &clone, nil
}

func (s *InMemoryMarkerStore) Write(_ context.Context, marker Marker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = &marker
	s.corrupt = false
	return nil
}

func (s *InMemoryMarkerStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = nil
	s.corrupt = false
	return nil
}

// Corrupt simulates an unreadable marker for fail-closed tests.
func (s *InMemoryMarkerStore) Corrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corrupt = true
}
