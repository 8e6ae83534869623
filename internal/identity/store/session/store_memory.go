// Package session persists issued sessions. The memory store backs tests and
// single-node dev; the Redis store is the production-recommended backend so
// multiple gateway instances share session state.
package session

import (
	"context"
	"fmt"
	"sync"

	"ashram/internal/identity"
	id "ashram/pkg/domain"
	"ashram/pkg/platform/sentinel"
)

// Error contract: methods return sentinel.ErrNotFound when the session does
// not exist, nil on success, and wrapped errors for infrastructure failures.

// InMemorySessionStore stores sessions in memory for tests/dev.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[id.SessionID]*identity.Session
}

// New constructs an empty in-memory session store.
func New() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[id.SessionID]*identity.Session)}
}

func (s *InMemorySessionStore) Create(_ context.Context, session *identity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *session
	s.sessions[session.ID] = &clone
	return nil
}

func (s *InMemorySessionStore) FindByID(_ context.Context, sessionID id.SessionID) (*identity.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[sessionID]; ok {
		clone := *session
		return &clone, nil
	}
	return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
}

// Delete removes the session. Deleting an unknown session is a no-op so
// repeated sign-out stays safe.
func (s *InMemorySessionStore) Delete(_ context.Context, sessionID id.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// DeleteByUser removes every session belonging to userID.
func (s *InMemorySessionStore) DeleteByUser(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, key)
		}
	}
	return nil
}
