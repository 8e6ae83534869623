package legacyadmin

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"ashram/internal/audit"
	dErrors "ashram/pkg/domain-errors"
	"ashram/pkg/platform/sentinel"
	"ashram/pkg/requestcontext"
)

// Checker evaluates and mutates the break-glass admin flag. Credentials are
// server configuration, never stored in the user table.
type Checker struct {
	email        string
	passwordHash string
	store        MarkerStore
	auditor      *audit.Publisher
	logger       *slog.Logger
}

// NewChecker constructs a checker. email is normalized once; passwordHash is
// a bcrypt hash.
func NewChecker(email, passwordHash string, store MarkerStore, auditor *audit.Publisher, logger *slog.Logger) *Checker {
	return &Checker{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: passwordHash,
		store:        store,
		auditor:      auditor,
		logger:       logger,
	}
}

// Enabled reports whether break-glass credentials are configured. When
// disabled, admin routes are unreachable by anyone.
func (c *Checker) Enabled() bool {
	return c.email != "" && c.passwordHash != ""
}

// Authenticate checks the presented credentials and, on success, persists the
// admin marker. Both the email comparison and the password hash comparison
// run unconditionally so response timing does not reveal which field failed.
func (c *Checker) Authenticate(ctx context.Context, email, password string) error {
	if !c.Enabled() {
		return dErrors.New(dErrors.CodeForbidden, "admin access is not configured")
	}

	normalized := strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(normalized), []byte(c.email)) == 1
	passwordErr := bcrypt.CompareHashAndPassword([]byte(c.passwordHash), []byte(password))

	if !emailOK || passwordErr != nil {
		c.emit(ctx, audit.CategorySecurity, audit.EventAuthFailed, audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Email:     normalized,
			Reason:    "break-glass credential mismatch",
			RequestID: requestcontext.RequestID(ctx),
		})
		return dErrors.New(dErrors.CodeUnauthorized, "invalid admin credentials")
	}

	if err := c.store.Write(ctx, Marker{Email: c.email, IsAdmin: true}); err != nil {
		return err
	}

	c.logger.WarnContext(ctx, "break-glass admin access granted", "email", c.email)
	c.emit(ctx, audit.CategorySecurity, audit.EventBreakGlassUsed, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Email:     c.email,
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// IsAdmin reads the persisted marker. Absence, corruption, and read failures
// all report false: the channel fails closed.
func (c *Checker) IsAdmin(ctx context.Context) bool {
	marker, err := c.store.Read(ctx)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			c.logger.WarnContext(ctx, "admin marker unreadable, treating as non-admin", "error", err)
		}
		return false
	}
	return marker.IsAdmin
}

// Revoke clears the persisted marker. Clearing an absent marker succeeds.
func (c *Checker) Revoke(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "break-glass admin access revoked")
	return nil
}

func (c *Checker) emit(ctx context.Context, category audit.EventCategory, action audit.AuditEvent, event audit.Event) {
	event.Category = category
	event.Action = string(action)
	if err := c.auditor.Emit(ctx, event); err != nil {
		c.logger.ErrorContext(ctx, "failed to emit audit event", "error", err, "action", action)
	}
}
