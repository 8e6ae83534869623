//go:build integration

package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ashram/internal/identity/store/user"
	id "ashram/pkg/domain"
	"ashram/pkg/platform/sentinel"
	"ashram/pkg/testutil/containers"
)

type PostgresUserStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.PostgresStore
}

func TestPostgresUserStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresUserStoreSuite))
}

func (s *PostgresUserStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *PostgresUserStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "users"))
}

func newRecord(email string) *user.Record {
	return &user.Record{
		ID:           id.NewUserID(),
		Email:        email,
		PasswordHash: "$2a$04$examplehashexamplehashexampleha",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func (s *PostgresUserStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	record := newRecord("devotee@ashram.example")
	s.Require().NoError(s.store.Create(ctx, record))

	byID, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(record.Email, byID.Email)
	s.False(byID.Verified)

	// Lookup is case-insensitive because emails are stored lowercased.
	byEmail, err := s.store.FindByEmail(ctx, "DEVOTEE@ashram.example")
	s.Require().NoError(err)
	s.Equal(record.ID, byEmail.ID)
}

func (s *PostgresUserStoreSuite) TestDuplicateEmailConflicts() {
	ctx := context.Background()
	s.Require().NoError(s.store.Create(ctx, newRecord("dup@ashram.example")))

	err := s.store.Create(ctx, newRecord("DUP@ashram.example"))
	s.True(errors.Is(err, sentinel.ErrConflict))
}

func (s *PostgresUserStoreSuite) TestMarkVerified() {
	ctx := context.Background()
	record := newRecord("verify@ashram.example")
	s.Require().NoError(s.store.Create(ctx, record))

	s.Require().NoError(s.store.MarkVerified(ctx, record.ID))
	found, err := s.store.FindByID(ctx, record.ID)
	s.Require().NoError(err)
	s.True(found.Verified)

	err = s.store.MarkVerified(ctx, id.NewUserID())
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresUserStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), id.NewUserID())
	s.True(errors.Is(err, sentinel.ErrNotFound))

	_, err = s.store.FindByEmail(context.Background(), "ghost@ashram.example")
	s.True(errors.Is(err, sentinel.ErrNotFound))
}
