// Package audit captures structured audit events for the auth flows. Events
// are emitted from domain logic and fanned out to a store and optional sinks;
// keep the event transport-agnostic.
package audit

import (
	"time"

	id "ashram/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose, enabling
// different retention policies and routing.
type EventCategory string

const (
	// CategorySecurity covers events relevant to security monitoring:
	// auth failures, gate denials, break-glass use.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine lifecycle events: session creation,
	// sign-out, verification.
	CategoryOperations EventCategory = "operations"
)

// Event is one audit record.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	UserID    id.UserID     `json:"user_id,omitzero"`
	Action    string        `json:"action"`
	Email     string        `json:"email,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	// ActorID tracks who performed the action when different from UserID,
	// e.g. an admin mutating another user's roles.
	ActorID string `json:"actor_id,omitempty"`
}

// AuditEvent names the known actions.
type AuditEvent string

const (
	EventUserCreated      AuditEvent = "user_created"
	EventUserVerified     AuditEvent = "user_verified"
	EventSessionCreated   AuditEvent = "session_created"
	EventSessionDestroyed AuditEvent = "session_destroyed"
	EventAuthFailed       AuditEvent = "auth_failed"
	EventRoleAssigned     AuditEvent = "role_assigned"
	EventRoleRemoved      AuditEvent = "role_removed"
	EventGateDenied       AuditEvent = "gate_denied"
	EventBreakGlassUsed   AuditEvent = "break_glass_used"
)
