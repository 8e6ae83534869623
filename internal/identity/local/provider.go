// Package local is the in-process identity provider implementation. It owns
// the user/profile/role/session stores and implements the identity.Provider
// port the rest of the gateway programs against.
package local

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"ashram/internal/audit"
	"ashram/internal/email"
	"ashram/internal/identity"
	"ashram/internal/identity/store/user"
	id "ashram/pkg/domain"
)

// UserStore persists identity records.
type UserStore interface {
	Create(ctx context.Context, record *user.Record) error
	FindByID(ctx context.Context, userID id.UserID) (*user.Record, error)
	FindByEmail(ctx context.Context, email string) (*user.Record, error)
	MarkVerified(ctx context.Context, userID id.UserID) error
}

// ProfileStore persists profile rows.
type ProfileStore interface {
	Create(ctx context.Context, p *identity.Profile) error
	FindByUser(ctx context.Context, userID id.UserID) (*identity.Profile, error)
}

// RoleStore reads role assignments. Writes go through the admin service, not
// the provider.
type RoleStore interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]id.Role, error)
}

// SessionStore persists issued sessions.
type SessionStore interface {
	Create(ctx context.Context, session *identity.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*identity.Session, error)
	Delete(ctx context.Context, sessionID id.SessionID) error
	DeleteByUser(ctx context.Context, userID id.UserID) error
}

// Provider is the local identity provider. All state mutation happens behind
// the stores; Provider methods coordinate and notify.
type Provider struct {
	users    UserStore
	profiles ProfileStore
	roles    RoleStore
	sessions SessionStore

	tokens     *identity.JWTService
	sessionTTL time.Duration
	verifyTTL  time.Duration

	mail      email.Sender
	verifyURL string

	auditor *audit.Publisher
	logger  *slog.Logger
	tracer  trace.Tracer

	mu        sync.RWMutex
	listeners map[int]identity.ChangeListener
	nextSubID int
}

// Option configures a Provider.
type Option func(*Provider)

// WithSessionTTL overrides the default 24h session lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(p *Provider) { p.sessionTTL = ttl }
}

// WithVerifyURL sets the base URL embedded in verification emails.
func WithVerifyURL(url string) Option {
	return func(p *Provider) { p.verifyURL = url }
}

// New constructs the local provider.
func New(
	users UserStore,
	profiles ProfileStore,
	roles RoleStore,
	sessions SessionStore,
	tokens *identity.JWTService,
	mail email.Sender,
	auditor *audit.Publisher,
	logger *slog.Logger,
	opts ...Option,
) *Provider {
	p := &Provider{
		users:      users,
		profiles:   profiles,
		roles:      roles,
		sessions:   sessions,
		tokens:     tokens,
		sessionTTL: 24 * time.Hour,
		verifyTTL:  48 * time.Hour,
		mail:       mail,
		verifyURL:  "/auth/verify",
		auditor:    auditor,
		logger:     logger,
		tracer:     otel.Tracer("ashram/identity/local"),
		listeners:  make(map[int]identity.ChangeListener),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

var _ identity.Provider = (*Provider)(nil)

// logAudit emits an audit event, logging (never failing) on emit errors.
func (p *Provider) logAudit(ctx context.Context, category audit.EventCategory, action audit.AuditEvent, event audit.Event) {
	event.Category = category
	event.Action = string(action)
	if err := p.auditor.Emit(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to emit audit event", "error", err, "action", action)
	}
}
