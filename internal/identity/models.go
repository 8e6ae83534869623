// Package identity defines the identity provider port: the contract the rest
// of the gateway programs against for authentication, sessions, and the
// profile/role tables. The hosted implementation lives behind this interface;
// internal/identity/local is the in-process implementation.
package identity

import (
	"time"

	id "ashram/pkg/domain"
)

// User is the primary identity record. The password hash never leaves the
// user store boundary; this type carries only what callers may see.
type User struct {
	ID       id.UserID
	Email    string
	Verified bool
}

// Profile is the one-to-one profile row created server-side on registration.
// Fetched, never locally mutated except via explicit refresh.
type Profile struct {
	ID        id.UserID
	Email     string
	FullName  *string
	AvatarURL *string
}

// Session is an issued authentication session. Device is a human-readable
// label parsed from the User-Agent at sign-in.
type Session struct {
	ID        id.SessionID
	UserID    id.UserID
	Email     string
	Device    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has passed its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && s.ExpiresAt.Before(now)
}

// RoleAssignment is one row of the user_roles table. A user may hold several
// roles simultaneously.
type RoleAssignment struct {
	UserID id.UserID
	Role   id.Role
}

// AuthEvent identifies a change pushed through OnAuthStateChange.
type AuthEvent string

const (
	EventSignedIn       AuthEvent = "signed_in"
	EventSignedOut      AuthEvent = "signed_out"
	EventTokenRefreshed AuthEvent = "token_refreshed"
)

// SignUpParams carries registration input. FullName is stored on the profile
// row, mirroring the provider's metadata field.
type SignUpParams struct {
	Email    string
	Password string
	FullName string
}

// SignInResult is returned on successful password sign-in. Token is the
// bearer token clients present on subsequent requests.
type SignInResult struct {
	Token   string
	Session *Session
}
