// Package authstate holds the process-wide authentication snapshot: the
// current session, profile, and role set for the interactive principal. The
// snapshot is a read-only cache over the identity provider; the provider's
// change listener is the only writer of session state.
package authstate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"ashram/internal/identity"
	"ashram/internal/notify"
	"ashram/internal/platform/metrics"
	id "ashram/pkg/domain"
	"ashram/pkg/platform/sentinel"
)

// loadTimeout bounds the background profile/role fetch after a session
// change.
const loadTimeout = 10 * time.Second

// Store is the reactive auth-state holder. All accessors return snapshots;
// mutation happens through provider events and the explicit operations below.
type Store struct {
	provider identity.Provider
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger

	mu      sync.RWMutex
	token   string
	session *identity.Session
	profile *identity.Profile
	roles   id.RoleSet
	loading bool

	readyOnce sync.Once
	ready     chan struct{}

	subscription identity.Subscription
}

// New constructs a Store in the loading state. Call Initialize before
// serving traffic.
func New(provider identity.Provider, notifier notify.Notifier, m *metrics.Metrics, logger *slog.Logger) *Store {
	return &Store{
		provider: provider,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		loading:  true,
		roles:    id.NewRoleSet(),
		ready:    make(chan struct{}),
	}
}

// Initialize registers the change listener and then resolves any previously
// issued token. The listener is registered first so a sign-in racing the
// initial check is never lost; whichever side lands last wins.
func (s *Store) Initialize(ctx context.Context, restoredToken string) {
	s.subscription = s.provider.OnAuthStateChange(func(event identity.AuthEvent, session *identity.Session) {
		s.handleChange(event, session)
	})

	if restoredToken == "" {
		s.markReady(nil)
		return
	}

	session, err := s.provider.GetSession(ctx, restoredToken)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) && !errors.Is(err, sentinel.ErrExpired) {
			s.logger.WarnContext(ctx, "restored session check failed", "error", err)
		}
		s.markReady(nil)
		return
	}

	s.mu.Lock()
	s.token = restoredToken
	s.mu.Unlock()
	s.markReady(session)
}

// Close unsubscribes the change listener.
func (s *Store) Close() {
	if s.subscription != nil {
		s.subscription.Unsubscribe()
	}
}

// markReady records the initial session resolution and unblocks WaitReady.
// A provider event that arrived first takes precedence over the initial
// check's result.
func (s *Store) markReady(session *identity.Session) {
	s.mu.Lock()
	apply := s.loading
	if apply {
		s.loading = false
		if s.session == nil && session != nil {
			s.session = session
			s.metrics.ObserveActiveSessions(1)
		}
	}
	current := s.session
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })

	if apply && current != nil {
		go s.loadUserData(context.Background(), current)
	}
}

// handleChange applies a provider event. Heavy loading is deferred to a
// goroutine because listeners must not call back into the provider
// synchronously.
func (s *Store) handleChange(event identity.AuthEvent, session *identity.Session) {
	switch event {
	case identity.EventSignedIn, identity.EventTokenRefreshed:
		if session == nil {
			return
		}
		s.mu.Lock()
		hadSession := s.session != nil
		s.session = session
		s.loading = false
		s.mu.Unlock()
		if !hadSession {
			s.metrics.ObserveActiveSessions(1)
		}
		s.readyOnce.Do(func() { close(s.ready) })
		go s.loadUserData(context.Background(), session)

	case identity.EventSignedOut:
		s.clearLocked()
		s.readyOnce.Do(func() { close(s.ready) })
	}
}

// loadUserData fetches profile and roles for the session. Failures leave the
// previous snapshot untouched; a stale result for a superseded session is
// discarded.
func (s *Store) loadUserData(ctx context.Context, session *identity.Session) {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	profile, err := s.provider.Profile(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			profile = nil
		} else {
			s.logger.ErrorContext(ctx, "profile load failed", "error", err, "user_id", session.UserID.String())
			return
		}
	}

	roleList, err := s.provider.Roles(ctx, session.UserID)
	if err != nil {
		s.logger.ErrorContext(ctx, "role load failed", "error", err, "user_id", session.UserID.String())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.session.ID != session.ID {
		return
	}
	s.profile = profile
	s.roles = id.NewRoleSet(roleList...)
}

func (s *Store) clearLocked() {
	s.mu.Lock()
	hadSession := s.session != nil
	s.token = ""
	s.session = nil
	s.profile = nil
	s.roles = id.NewRoleSet()
	s.loading = false
	s.mu.Unlock()
	if hadSession {
		s.metrics.ObserveActiveSessions(-1)
	}
}

// SignIn authenticates through the provider. Local state is not mutated
// here; the change listener populates the snapshot once the session is
// durable.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	result, err := s.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.metrics.ObserveSignIn("failure")
		s.notifier.Notify(ctx, notify.LevelError, "Sign-in failed. Check your email and password.")
		return err
	}

	s.mu.Lock()
	s.token = result.Token
	s.mu.Unlock()

	s.metrics.ObserveSignIn("success")
	return nil
}

// SignUp registers a new account. No session is issued; the user must verify
// their email and sign in.
func (s *Store) SignUp(ctx context.Context, params identity.SignUpParams) error {
	if _, err := s.provider.SignUp(ctx, params); err != nil {
		s.notifier.Notify(ctx, notify.LevelError, "Registration failed.")
		return err
	}
	s.metrics.ObserveSignUp()
	s.notifier.Notify(ctx, notify.LevelInfo, "Registration successful. Check your email to verify your account.")
	return nil
}

// SignOut destroys the provider session and clears the snapshot. The local
// clear is immediate rather than waiting for the listener so the caller
// observes signed-out state on return.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token != "" {
		if err := s.provider.SignOut(ctx, token); err != nil {
			s.logger.ErrorContext(ctx, "provider sign-out failed", "error", err)
			return err
		}
	}
	s.clearLocked()
	return nil
}

// RefreshUserData re-fetches profile and roles for the current session, for
// use after a server-side mutation (e.g. a role grant).
func (s *Store) RefreshUserData(ctx context.Context) {
	s.mu.RLock()
	session := s.session
	s.mu.RUnlock()
	if session == nil {
		return
	}
	s.loadUserData(ctx, session)
}

// WaitReady blocks until the initial session resolution completes or the
// context is done. It reports whether the store became ready in time.
func (s *Store) WaitReady(ctx context.Context) bool {
	select {
	case <-s.ready:
		return true
	case <-ctx.Done():
		return false
	}
}

// SessionLoading reports whether the initial session check is still pending.
func (s *Store) SessionLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// IsAuthenticated reports whether a live session is held.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session != nil
}

// Session returns a snapshot of the current session, or nil.
func (s *Store) Session() *identity.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	clone := *s.session
	return &clone
}

// Profile returns a snapshot of the current profile, or nil.
func (s *Store) Profile() *identity.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	clone := *s.profile
	return &clone
}

// Token returns the current bearer token, or empty.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Roles returns a copy of the current role set.
func (s *Store) Roles() id.RoleSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := id.NewRoleSet()
	for role := range s.roles {
		out[role] = struct{}{}
	}
	return out
}

// IsDevotee reports whether the devotee role is held.
func (s *Store) IsDevotee() bool { return s.hasRole(id.RoleDevotee) }

// IsMentor reports whether the mentor role is held.
func (s *Store) IsMentor() bool { return s.hasRole(id.RoleMentor) }

// IsAdmin reports whether the backend admin role is held. This is distinct
// from the break-glass admin flag and never grants access to admin routes.
func (s *Store) IsAdmin() bool { return s.hasRole(id.RoleAdmin) }

func (s *Store) hasRole(role id.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles.Has(role)
}
