package local

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mssola/useragent"
	"golang.org/x/crypto/bcrypt"

	"ashram/internal/audit"
	"ashram/internal/identity"
	id "ashram/pkg/domain"
	dErrors "ashram/pkg/domain-errors"
	"ashram/pkg/platform/sentinel"
	"ashram/pkg/requestcontext"
)

// SignInWithPassword authenticates by email and password and issues a new
// session. The auth-state listener is notified only after the session row is
// durable, so a listener reading through GetSession always finds it.
func (p *Provider) SignInWithPassword(ctx context.Context, emailAddr, password string) (*identity.SignInResult, error) {
	ctx, span := p.tracer.Start(ctx, "local.SignInWithPassword")
	defer span.End()

	record, err := p.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			p.logAudit(ctx, audit.CategorySecurity, audit.EventAuthFailed, audit.Event{
				Timestamp: requestcontext.Now(ctx),
				Email:     emailAddr,
				Reason:    "unknown email",
				RequestID: requestcontext.RequestID(ctx),
			})
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return nil, fmt.Errorf("sign-in lookup failed: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)); err != nil {
		p.logAudit(ctx, audit.CategorySecurity, audit.EventAuthFailed, audit.Event{
			Timestamp: requestcontext.Now(ctx),
			UserID:    record.ID,
			Email:     record.Email,
			Reason:    "bad password",
			RequestID: requestcontext.RequestID(ctx),
		})
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	if !record.Verified {
		return nil, dErrors.New(dErrors.CodeForbidden, "email address not verified")
	}

	now := requestcontext.Now(ctx)
	session := &identity.Session{
		ID:        id.NewSessionID(),
		UserID:    record.ID,
		Email:     record.Email,
		Device:    deviceLabel(requestcontext.UserAgent(ctx)),
		CreatedAt: now,
		ExpiresAt: now.Add(p.sessionTTL),
	}
	if err := p.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("session create failed: %w", err)
	}

	token, err := p.tokens.MintAccessToken(record.ID, session.ID, record.Email, p.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("token mint failed: %w", err)
	}

	p.logger.InfoContext(ctx, "user signed in",
		"user_id", record.ID.String(),
		"session_id", session.ID.String(),
		"device", session.Device,
	)
	p.logAudit(ctx, audit.CategoryOperations, audit.EventSessionCreated, audit.Event{
		Timestamp: now,
		UserID:    record.ID,
		Email:     record.Email,
		RequestID: requestcontext.RequestID(ctx),
	})
	p.notifyListeners(identity.EventSignedIn, session)

	return &identity.SignInResult{Token: token, Session: session}, nil
}

// SignOut destroys the session carried by the token. Unknown or already
// destroyed sessions are a no-op.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	ctx, span := p.tracer.Start(ctx, "local.SignOut")
	defer span.End()

	claims, err := p.tokens.ValidateToken(token, identity.TokenPurposeAccess)
	if err != nil {
		// An invalid or expired token has nothing live to destroy.
		return nil
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return nil
	}

	if err := p.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("session delete failed: %w", err)
	}

	userID, _ := id.ParseUserID(claims.UserID)
	p.logger.InfoContext(ctx, "user signed out",
		"user_id", claims.UserID,
		"session_id", claims.SessionID,
	)
	p.logAudit(ctx, audit.CategoryOperations, audit.EventSessionDestroyed, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
		Email:     claims.Email,
		RequestID: requestcontext.RequestID(ctx),
	})
	p.notifyListeners(identity.EventSignedOut, nil)
	return nil
}

// GetSession resolves a bearer token to its live session.
func (p *Provider) GetSession(ctx context.Context, token string) (*identity.Session, error) {
	ctx, span := p.tracer.Start(ctx, "local.GetSession")
	defer span.End()

	claims, err := p.tokens.ValidateToken(token, identity.TokenPurposeAccess)
	if err != nil {
		return nil, err
	}
	sessionID, err := id.ParseSessionID(claims.SessionID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	session, err := p.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Expired(requestcontext.Now(ctx)) {
		return nil, fmt.Errorf("session %s: %w", sessionID, sentinel.ErrExpired)
	}
	return session, nil
}

// deviceLabel condenses a raw User-Agent into a short human-readable label
// for the session row.
func deviceLabel(rawUA string) string {
	if rawUA == "" {
		return "unknown device"
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	parts := make([]string, 0, 3)
	if name != "" {
		if version != "" {
			parts = append(parts, name+" "+version)
		} else {
			parts = append(parts, name)
		}
	}
	if os := ua.OS(); os != "" {
		parts = append(parts, "on "+os)
	}
	if len(parts) == 0 {
		return "unknown device"
	}
	return strings.Join(parts, " ")
}
