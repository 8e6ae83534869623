package domain

import dErrors "ashram/pkg/domain-errors"

// Role is the closed set of backend role assignments. A user may hold several
// roles simultaneously; role sets have set semantics (unique, unordered).
type Role string

const (
	RoleDevotee Role = "devotee"
	RoleMentor  Role = "mentor"
	RoleAdmin   Role = "admin"
)

// validRoles is the single source of truth for supported roles.
var validRoles = map[Role]bool{
	RoleDevotee: true,
	RoleMentor:  true,
	RoleAdmin:   true,
}

// ParseRole constructs a Role from external input.
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool { return validRoles[r] }

// String returns the string representation of the role.
func (r Role) String() string { return string(r) }

// RoleSet is a unique, order-irrelevant collection of roles.
type RoleSet map[Role]struct{}

// NewRoleSet builds a set from the given roles, dropping duplicates.
func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the role.
func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

// Intersects reports whether the set shares at least one role with required.
// An empty required slice never intersects.
func (s RoleSet) Intersects(required []Role) bool {
	for _, r := range required {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Slice returns the set's roles in unspecified order.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	return out
}
