package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	id "ashram/pkg/domain"
	"ashram/pkg/platform/sentinel"
)

// PostgresStore persists identity records in PostgreSQL.
// Pure I/O; credential checks and verification rules live in the provider.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

func (s *PostgresStore) Create(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO users (id, email, password_hash, verified, created_at)
		VALUES ($1, lower($2), $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID.String(), record.Email, record.PasswordHash, record.Verified, record.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("email already registered: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*Record, error) {
	query := `
		SELECT id, email, password_hash, verified, created_at
		FROM users
		WHERE id = $1
	`
	return scanUser(s.db.QueryRowContext(ctx, query, userID.String()))
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Record, error) {
	query := `
		SELECT id, email, password_hash, verified, created_at
		FROM users
		WHERE email = lower($1)
	`
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

func (s *PostgresStore) MarkVerified(ctx context.Context, userID id.UserID) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET verified = TRUE WHERE id = $1`, userID.String())
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func scanUser(row *sql.Row) (*Record, error) {
	var record Record
	var rawID string
	err := row.Scan(&rawID, &record.Email, &record.PasswordHash, &record.Verified, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	userID, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan user id: %w", err)
	}
	record.ID = userID
	return &record, nil
}
