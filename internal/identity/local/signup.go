package local

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"ashram/internal/audit"
	"ashram/internal/email"
	"ashram/internal/identity"
	"ashram/internal/identity/store/user"
	id "ashram/pkg/domain"
	dErrors "ashram/pkg/domain-errors"
	"ashram/pkg/platform/sentinel"
	"ashram/pkg/requestcontext"
)

// SignUp registers a new identity, creates its profile row, and sends a
// verification email. No session is issued; the caller must verify and then
// sign in.
func (p *Provider) SignUp(ctx context.Context, params identity.SignUpParams) (*identity.User, error) {
	ctx, span := p.tracer.Start(ctx, "local.SignUp")
	defer span.End()

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("password hash failed: %w", err)
	}

	record := &user.Record{
		ID:           id.NewUserID(),
		Email:        params.Email,
		PasswordHash: string(hash),
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := p.users.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return nil, fmt.Errorf("user create failed: %w", err)
	}

	profile := &identity.Profile{
		ID:    record.ID,
		Email: record.Email,
	}
	if params.FullName != "" {
		fullName := params.FullName
		profile.FullName = &fullName
	}
	if err := p.profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("profile create failed: %w", err)
	}

	p.logger.InfoContext(ctx, "user registered", "user_id", record.ID.String())
	p.logAudit(ctx, audit.CategoryOperations, audit.EventUserCreated, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		UserID:    record.ID,
		Email:     record.Email,
		RequestID: requestcontext.RequestID(ctx),
	})

	p.sendVerification(ctx, record)

	return &identity.User{ID: record.ID, Email: record.Email, Verified: false}, nil
}

// sendVerification mints a verify token and mails it. Delivery failure does
// not fail the registration; the user can request a resend.
func (p *Provider) sendVerification(ctx context.Context, record *user.Record) {
	token, err := p.tokens.MintVerifyToken(record.ID, record.Email, p.verifyTTL)
	if err != nil {
		p.logger.ErrorContext(ctx, "verify token mint failed", "error", err, "user_id", record.ID.String())
		return
	}
	msg := email.Message{
		To:      record.Email,
		Subject: "Verify your email address",
		HTML: fmt.Sprintf(
			"<p>Welcome. Please confirm your email address by visiting:</p><p><a href=%q>%s?token=%s</a></p>",
			p.verifyURL+"?token="+token, p.verifyURL, token,
		),
	}
	if err := p.mail.Send(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "verification email failed", "error", err, "user_id", record.ID.String())
	}
}

// VerifyEmail consumes an email-verification token and marks the account
// verified. Verifying an already verified account succeeds.
func (p *Provider) VerifyEmail(ctx context.Context, token string) error {
	ctx, span := p.tracer.Start(ctx, "local.VerifyEmail")
	defer span.End()

	claims, err := p.tokens.ValidateToken(token, identity.TokenPurposeVerify)
	if err != nil {
		return err
	}
	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	if err := p.users.MarkVerified(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "account no longer exists")
		}
		return fmt.Errorf("mark verified failed: %w", err)
	}

	p.logger.InfoContext(ctx, "email verified", "user_id", claims.UserID)
	p.logAudit(ctx, audit.CategoryOperations, audit.EventUserVerified, audit.Event{
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
		Email:     claims.Email,
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}
