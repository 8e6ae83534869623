package admin

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"ashram/internal/audit"
	"ashram/internal/identity"
	"ashram/internal/identity/mocks"
	rolestore "ashram/internal/identity/store/role"
	id "ashram/pkg/domain"
	dErrors "ashram/pkg/domain-errors"
	"ashram/pkg/platform/sentinel"
)

const adminToken = "admin-bearer-token"

type serviceFixture struct {
	provider *mocks.MockProvider
	roles    *rolestore.InMemoryRoleStore
	auditLog *audit.InMemoryStore
	service  *Service
	adminID  id.UserID
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockProvider(ctrl)
	roles := rolestore.New()
	auditLog := audit.NewInMemoryStore()
	logger := slog.Default()

	return &serviceFixture{
		provider: provider,
		roles:    roles,
		auditLog: auditLog,
		service:  NewService(provider, roles, audit.NewPublisher(auditLog, logger), nil, logger),
		adminID:  id.NewUserID(),
	}
}

// expectCaller wires the token to a session holding the given roles.
func (f *serviceFixture) expectCaller(roles ...id.Role) {
	session := &identity.Session{
		ID:        id.NewSessionID(),
		UserID:    f.adminID,
		Email:     "admin@ashram.example",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	f.provider.EXPECT().GetSession(gomock.Any(), adminToken).Return(session, nil)
	f.provider.EXPECT().Roles(gomock.Any(), f.adminID).Return(roles, nil)
}

func TestService_AssignRole(t *testing.T) {
	ctx := context.Background()

	t.Run("admin caller assigns", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectCaller(id.RoleAdmin)
		target := id.NewUserID()

		require.NoError(t, f.service.AssignRole(ctx, adminToken, target, id.RoleMentor))

		got, err := f.roles.ListByUser(ctx, target)
		require.NoError(t, err)
		assert.Equal(t, []id.Role{id.RoleMentor}, got)

		trail, err := f.auditLog.ListByUser(ctx, target)
		require.NoError(t, err)
		require.Len(t, trail, 1)
		assert.Equal(t, string(audit.EventRoleAssigned), trail[0].Action)
		assert.Equal(t, f.adminID.String(), trail[0].ActorID)
	})

	t.Run("duplicate assignment succeeds without change", func(t *testing.T) {
		f := newServiceFixture(t)
		target := id.NewUserID()
		require.NoError(t, f.roles.Assign(ctx, target, id.RoleMentor))

		f.expectCaller(id.RoleAdmin)
		require.NoError(t, f.service.AssignRole(ctx, adminToken, target, id.RoleMentor))

		got, err := f.roles.ListByUser(ctx, target)
		require.NoError(t, err)
		assert.Equal(t, []id.Role{id.RoleMentor}, got)
	})

	t.Run("non-admin caller is a hard forbidden", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectCaller(id.RoleMentor, id.RoleDevotee)
		target := id.NewUserID()

		err := f.service.AssignRole(ctx, adminToken, target, id.RoleMentor)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

		got, listErr := f.roles.ListByUser(ctx, target)
		require.NoError(t, listErr)
		assert.Empty(t, got)
	})

	t.Run("invalid token is unauthorized", func(t *testing.T) {
		f := newServiceFixture(t)
		f.provider.EXPECT().GetSession(gomock.Any(), adminToken).Return(nil, sentinel.ErrNotFound)

		err := f.service.AssignRole(ctx, adminToken, id.NewUserID(), id.RoleMentor)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestService_RemoveRole(t *testing.T) {
	ctx := context.Background()

	t.Run("admin caller removes", func(t *testing.T) {
		f := newServiceFixture(t)
		target := id.NewUserID()
		require.NoError(t, f.roles.Assign(ctx, target, id.RoleDevotee))

		f.expectCaller(id.RoleAdmin)
		require.NoError(t, f.service.RemoveRole(ctx, adminToken, target, id.RoleDevotee))

		got, err := f.roles.ListByUser(ctx, target)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("removing an unheld role is not found", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectCaller(id.RoleAdmin)

		err := f.service.RemoveRole(ctx, adminToken, id.NewUserID(), id.RoleDevotee)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("non-admin caller cannot remove", func(t *testing.T) {
		f := newServiceFixture(t)
		target := id.NewUserID()
		require.NoError(t, f.roles.Assign(ctx, target, id.RoleDevotee))

		f.expectCaller(id.RoleDevotee)
		err := f.service.RemoveRole(ctx, adminToken, target, id.RoleDevotee)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))

		got, listErr := f.roles.ListByUser(ctx, target)
		require.NoError(t, listErr)
		assert.Equal(t, []id.Role{id.RoleDevotee}, got)
	})
}

func TestService_ListRoles(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	target := id.NewUserID()
	require.NoError(t, f.roles.Assign(ctx, target, id.RoleMentor))

	f.expectCaller(id.RoleAdmin)
	got, err := f.service.ListRoles(ctx, adminToken, target)
	require.NoError(t, err)
	assert.Equal(t, []id.Role{id.RoleMentor}, got)
}
