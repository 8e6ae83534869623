//go:build integration

package role_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"ashram/internal/identity/store/role"
	id "ashram/pkg/domain"
	"ashram/pkg/testutil/containers"
)

type PostgresRoleStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *role.PostgresStore
}

func TestPostgresRoleStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresRoleStoreSuite))
}

func (s *PostgresRoleStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = role.NewPostgres(s.postgres.DB)
}

func (s *PostgresRoleStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "user_roles"))
}

// TestConcurrentAssignIsIdempotent verifies that racing duplicate grants all
// succeed and leave exactly one row.
func (s *PostgresRoleStoreSuite) TestConcurrentAssignIsIdempotent() {
	ctx := context.Background()
	userID := id.NewUserID()
	const goroutines = 25

	var wg sync.WaitGroup
	errs := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.store.Assign(ctx, userID, id.RoleMentor)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	roles, err := s.store.ListByUser(ctx, userID)
	s.Require().NoError(err)
	s.Equal([]id.Role{id.RoleMentor}, roles)
}

func (s *PostgresRoleStoreSuite) TestAssignRemoveList() {
	ctx := context.Background()
	userID := id.NewUserID()

	s.Require().NoError(s.store.Assign(ctx, userID, id.RoleDevotee))
	s.Require().NoError(s.store.Assign(ctx, userID, id.RoleAdmin))

	roles, err := s.store.ListByUser(ctx, userID)
	s.Require().NoError(err)
	s.ElementsMatch([]id.Role{id.RoleDevotee, id.RoleAdmin}, roles)

	s.Require().NoError(s.store.Remove(ctx, userID, id.RoleAdmin))
	s.Error(s.store.Remove(ctx, userID, id.RoleAdmin))

	roles, err = s.store.ListByUser(ctx, userID)
	s.Require().NoError(err)
	s.Equal([]id.Role{id.RoleDevotee}, roles)
}
