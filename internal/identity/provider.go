package identity

import (
	"context"

	id "ashram/pkg/domain"
)

//go:generate mockgen -source=provider.go -destination=mocks/provider-mocks.go -package=mocks

// ChangeListener receives auth state changes: sign-in, sign-out, and token
// refresh. The session is nil for sign-out events.
//
// Listeners run inside the provider's notification critical section; they
// must not call back into the provider synchronously. Defer heavy work
// (profile/role loading) to another goroutine.
type ChangeListener func(event AuthEvent, session *Session)

// Subscription is a handle to a registered change listener.
type Subscription interface {
	Unsubscribe()
}

// Provider is the identity provider port. Implementations own the user,
// profile, role, and session tables; the gateway holds read-only cached
// copies only.
//
// Error contract: bad credentials and invalid tokens surface as coded domain
// errors (CodeUnauthorized); infrastructure failures are wrapped sentinel
// errors. Providers never panic across this boundary.
type Provider interface {
	// SignInWithPassword authenticates and issues a session. The change
	// listener fires after the session is durable.
	SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error)

	// SignUp registers a new identity and creates its profile row. It does
	// not issue a session; verification may be required first.
	SignUp(ctx context.Context, params SignUpParams) (*User, error)

	// SignOut destroys the session carried by token. Unknown tokens are a
	// no-op so repeated sign-out is safe.
	SignOut(ctx context.Context, token string) error

	// GetSession resolves a bearer token to its live session, or
	// sentinel.ErrNotFound / sentinel.ErrExpired.
	GetSession(ctx context.Context, token string) (*Session, error)

	// OnAuthStateChange registers a listener for session lifecycle events.
	OnAuthStateChange(listener ChangeListener) Subscription

	// Profile reads the profile row for userID. Zero rows is a fact, not a
	// failure: sentinel.ErrNotFound.
	Profile(ctx context.Context, userID id.UserID) (*Profile, error)

	// Roles reads all role assignments for userID. No rows yields an empty
	// slice, not an error.
	Roles(ctx context.Context, userID id.UserID) ([]id.Role, error)
}
