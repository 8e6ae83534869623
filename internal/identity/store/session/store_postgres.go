package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ashram/internal/identity"
	id "ashram/pkg/domain"
	"ashram/pkg/platform/sentinel"
)

// PostgresStore persists sessions in PostgreSQL. Expiry is enforced by the
// provider on read; a periodic cleanup job can prune expired rows.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed session store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, session *identity.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, email, device, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		session.ID.String(), session.UserID.String(), session.Email,
		session.Device, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, sessionID id.SessionID) (*identity.Session, error) {
	query := `
		SELECT id, user_id, email, device, created_at, expires_at
		FROM sessions
		WHERE id = $1
	`
	row := s.db.QueryRowContext(ctx, query, sessionID.String())

	var session identity.Session
	var rawID, rawUserID string
	err := row.Scan(&rawID, &rawUserID, &session.Email, &session.Device, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if session.ID, err = id.ParseSessionID(rawID); err != nil {
		return nil, fmt.Errorf("scan session id: %w", err)
	}
	if session.UserID, err = id.ParseUserID(rawUserID); err != nil {
		return nil, fmt.Errorf("scan session user id: %w", err)
	}
	return &session, nil
}

// Delete removes the session. Deleting an unknown session is a no-op.
func (s *PostgresStore) Delete(ctx context.Context, sessionID id.SessionID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID.String()); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteByUser removes every session belonging to userID.
func (s *PostgresStore) DeleteByUser(ctx context.Context, userID id.UserID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID.String()); err != nil {
		return fmt.Errorf("delete sessions by user: %w", err)
	}
	return nil
}
