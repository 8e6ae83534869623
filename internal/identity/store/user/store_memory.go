// Package user persists identity records. The password hash lives only
// behind this boundary; callers above the provider see identity.User.
package user

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	id "ashram/pkg/domain"
	"ashram/pkg/platform/sentinel"
)

// Record is the stored identity row, credentials included.
type Record struct {
	ID           id.UserID
	Email        string
	PasswordHash string
	Verified     bool
	CreatedAt    time.Time
}

// Error contract: methods return sentinel.ErrNotFound when the entity does
// not exist, sentinel.ErrConflict on unique violations, nil on success, and
// wrapped errors for infrastructure failures.

// InMemoryUserStore stores users in memory for tests/dev.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[id.UserID]*Record
	byEmail map[string]id.UserID
}

// New constructs an empty in-memory user store.
func New() *InMemoryUserStore {
	return &InMemoryUserStore{
		byID:    make(map[id.UserID]*Record),
		byEmail: make(map[string]id.UserID),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *InMemoryUserStore) Create(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalizeEmail(record.Email)
	if _, ok := s.byEmail[key]; ok {
		return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
	}
	clone := *record
	s.byID[record.ID] = &clone
	s.byEmail[key] = record.ID
	return nil
}

func (s *InMemoryUserStore) FindByID(_ context.Context, userID id.UserID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.byID[userID]; ok {
		clone := *record
		return &clone, nil
	}
	return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryUserStore) FindByEmail(_ context.Context, email string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if userID, ok := s.byEmail[normalizeEmail(email)]; ok {
		clone := *s.byID[userID]
		return &clone, nil
	}
	return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryUserStore) MarkVerified(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.byID[userID]
	if !ok {
		return fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	record.Verified = true
	return nil
}
