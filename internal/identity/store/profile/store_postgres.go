package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"ashram/internal/identity"
	id "ashram/pkg/domain"
	"ashram/pkg/platform/sentinel"
)

// PostgresStore persists profile rows in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed profile store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

func (s *PostgresStore) Create(ctx context.Context, p *identity.Profile) error {
	query := `
		INSERT INTO profiles (id, email, full_name, avatar_url)
		VALUES ($1, lower($2), $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, p.ID.String(), p.Email, p.FullName, p.AvatarURL)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("profile already exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByUser(ctx context.Context, userID id.UserID) (*identity.Profile, error) {
	query := `
		SELECT id, email, full_name, avatar_url
		FROM profiles
		WHERE id = $1
	`
	var p identity.Profile
	var rawID string
	err := s.db.QueryRowContext(ctx, query, userID.String()).Scan(&rawID, &p.Email, &p.FullName, &p.AvatarURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	parsed, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan profile id: %w", err)
	}
	p.ID = parsed
	return &p, nil
}
