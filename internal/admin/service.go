// Package admin is the role-mutation service. It trusts nothing from the
// caller: the bearer token is re-validated and the caller's admin role is
// re-checked against the role table on every mutation.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"ashram/internal/audit"
	"ashram/internal/identity"
	"ashram/internal/platform/metrics"
	id "ashram/pkg/domain"
	dErrors "ashram/pkg/domain-errors"
	"ashram/pkg/platform/sentinel"
	"ashram/pkg/requestcontext"
)

// RoleStore is the write side of the role table.
type RoleStore interface {
	Assign(ctx context.Context, userID id.UserID, role id.Role) error
	Remove(ctx context.Context, userID id.UserID, role id.Role) error
	ListByUser(ctx context.Context, userID id.UserID) ([]id.Role, error)
}

// Service performs role mutations on behalf of an authenticated admin.
type Service struct {
	provider identity.Provider
	roles    RoleStore
	auditor  *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewService constructs the role-mutation service.
func NewService(provider identity.Provider, roles RoleStore, auditor *audit.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		roles:    roles,
		auditor:  auditor,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer("ashram/admin"),
	}
}

// authorize resolves the bearer token to a session and verifies the caller
// holds the admin role right now. Stale snapshots do not count.
func (s *Service) authorize(ctx context.Context, token string) (*identity.Session, error) {
	session, err := s.provider.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired session")
		}
		return nil, err
	}

	callerRoles, err := s.provider.Roles(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("caller role check failed: %w", err)
	}
	if !id.NewRoleSet(callerRoles...).Has(id.RoleAdmin) {
		s.logger.WarnContext(ctx, "role mutation refused for non-admin caller",
			"caller_id", session.UserID.String(),
		)
		return nil, dErrors.New(dErrors.CodeForbidden, "admin role required")
	}
	return session, nil
}

// AssignRole grants role to userID. Granting a role the user already holds
// succeeds without change.
func (s *Service) AssignRole(ctx context.Context, token string, userID id.UserID, role id.Role) error {
	ctx, span := s.tracer.Start(ctx, "admin.AssignRole")
	defer span.End()

	caller, err := s.authorize(ctx, token)
	if err != nil {
		s.metrics.ObserveRoleMutation("assign", "denied")
		return err
	}

	if err := s.roles.Assign(ctx, userID, role); err != nil {
		s.metrics.ObserveRoleMutation("assign", "error")
		return fmt.Errorf("role assign failed: %w", err)
	}

	s.metrics.ObserveRoleMutation("assign", "success")
	s.logger.InfoContext(ctx, "role assigned",
		"user_id", userID.String(),
		"role", role.String(),
		"actor_id", caller.UserID.String(),
	)
	s.emit(ctx, audit.EventRoleAssigned, userID, caller, role)
	return nil
}

// RemoveRole revokes role from userID.
// Errors: CodeNotFound when the user does not hold the role.
func (s *Service) RemoveRole(ctx context.Context, token string, userID id.UserID, role id.Role) error {
	ctx, span := s.tracer.Start(ctx, "admin.RemoveRole")
	defer span.End()

	caller, err := s.authorize(ctx, token)
	if err != nil {
		s.metrics.ObserveRoleMutation("remove", "denied")
		return err
	}

	if err := s.roles.Remove(ctx, userID, role); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.ObserveRoleMutation("remove", "not_found")
			return dErrors.New(dErrors.CodeNotFound, "user does not hold that role")
		}
		s.metrics.ObserveRoleMutation("remove", "error")
		return fmt.Errorf("role remove failed: %w", err)
	}

	s.metrics.ObserveRoleMutation("remove", "success")
	s.logger.InfoContext(ctx, "role removed",
		"user_id", userID.String(),
		"role", role.String(),
		"actor_id", caller.UserID.String(),
	)
	s.emit(ctx, audit.EventRoleRemoved, userID, caller, role)
	return nil
}

// ListRoles returns the target user's current roles, admin-only.
func (s *Service) ListRoles(ctx context.Context, token string, userID id.UserID) ([]id.Role, error) {
	ctx, span := s.tracer.Start(ctx, "admin.ListRoles")
	defer span.End()

	if _, err := s.authorize(ctx, token); err != nil {
		return nil, err
	}
	return s.roles.ListByUser(ctx, userID)
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, userID id.UserID, caller *identity.Session, role id.Role) {
	event := audit.Event{
		Category:  audit.CategorySecurity,
		Action:    string(action),
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
		Reason:    role.String(),
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   caller.UserID.String(),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "error", err, "action", action)
	}
}
