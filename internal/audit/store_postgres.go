package audit

import (
	"context"
	"database/sql"
	"fmt"

	id "ashram/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL for long retention.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (category, occurred_at, user_id, action, email, reason, request_id, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var userID any
	if !event.UserID.IsNil() {
		userID = event.UserID.String()
	}
	_, err := s.db.ExecContext(ctx, query,
		string(event.Category), event.Timestamp, userID, event.Action,
		event.Email, event.Reason, event.RequestID, event.ActorID)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]Event, error) {
	query := `
		SELECT category, occurred_at, user_id, action, email, reason, request_id, actor_id
		FROM audit_events
		WHERE user_id = $1
		ORDER BY occurred_at
	`
	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var category string
		var rawUserID sql.NullString
		if err := rows.Scan(&category, &event.Timestamp, &rawUserID, &event.Action,
			&event.Email, &event.Reason, &event.RequestID, &event.ActorID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = EventCategory(category)
		if rawUserID.Valid {
			parsed, err := id.ParseUserID(rawUserID.String)
			if err != nil {
				return nil, fmt.Errorf("parse stored user id: %w", err)
			}
			event.UserID = parsed
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}
