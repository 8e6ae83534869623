// Package role persists role assignments. Assignment is idempotent: granting
// a role the user already holds succeeds without creating a duplicate row.
package role

import (
	"context"
	"fmt"
	"sync"

	id "ashram/pkg/domain"
	"ashram/pkg/platform/sentinel"
)

// InMemoryRoleStore stores role assignments in memory for tests/dev.
type InMemoryRoleStore struct {
	mu    sync.RWMutex
	roles map[id.UserID]id.RoleSet
}

// New constructs an empty in-memory role store.
func New() *InMemoryRoleStore {
	return &InMemoryRoleStore{roles: make(map[id.UserID]id.RoleSet)}
}

// Assign grants the role. Duplicate assignment is success, not an error.
func (s *InMemoryRoleStore) Assign(_ context.Context, userID id.UserID, role id.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.roles[userID]
	if !ok {
		set = id.NewRoleSet()
		s.roles[userID] = set
	}
	set[role] = struct{}{}
	return nil
}

// Remove revokes the role. Removing a role the user does not hold returns
// sentinel.ErrNotFound so the caller can distinguish the no-op.
func (s *InMemoryRoleStore) Remove(_ context.Context, userID id.UserID, role id.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.roles[userID]
	if !ok || !set.Has(role) {
		return fmt.Errorf("role assignment not found: %w", sentinel.ErrNotFound)
	}
	delete(set, role)
	return nil
}

// ListByUser returns the user's roles. No assignments yields an empty slice.
func (s *InMemoryRoleStore) ListByUser(_ context.Context, userID id.UserID) ([]id.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.roles[userID]
	if !ok {
		return []id.Role{}, nil
	}
	return set.Slice(), nil
}
