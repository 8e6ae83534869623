package role

import (
	"context"
	"database/sql"
	"fmt"

	id "ashram/pkg/domain"
	"ashram/pkg/platform/sentinel"
)

// PostgresStore persists role assignments in PostgreSQL. The table carries a
// (user_id, role) primary key; idempotent assignment rides ON CONFLICT.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed role store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Assign grants the role. ON CONFLICT DO NOTHING makes duplicate assignment
// success-like without a second round trip.
func (s *PostgresStore) Assign(ctx context.Context, userID id.UserID, role id.Role) error {
	query := `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query, userID.String(), role.String())
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// Remove revokes the role; sentinel.ErrNotFound when no row matched.
func (s *PostgresStore) Remove(ctx context.Context, userID id.UserID, role id.Role) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role = $2`,
		userID.String(), role.String())
	if err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove role: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("role assignment not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

// ListByUser returns the user's roles. No rows yields an empty slice.
func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID) ([]id.Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role FROM user_roles WHERE user_id = $1`, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	roles := []id.Role{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		role, err := id.ParseRole(raw)
		if err != nil {
			return nil, fmt.Errorf("parse stored role %q: %w", raw, err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}
