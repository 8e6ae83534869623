package role

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "ashram/pkg/domain"
	"ashram/pkg/platform/sentinel"
)

func TestInMemoryRoleStore_AssignIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := New()
	userID := id.NewUserID()

	require.NoError(t, store.Assign(ctx, userID, id.RoleMentor))
	require.NoError(t, store.Assign(ctx, userID, id.RoleMentor))
	require.NoError(t, store.Assign(ctx, userID, id.RoleMentor))

	roles, err := store.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []id.Role{id.RoleMentor}, roles)
}

func TestInMemoryRoleStore_MultipleRoles(t *testing.T) {
	ctx := context.Background()
	store := New()
	userID := id.NewUserID()

	require.NoError(t, store.Assign(ctx, userID, id.RoleDevotee))
	require.NoError(t, store.Assign(ctx, userID, id.RoleMentor))

	roles, err := store.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []id.Role{id.RoleDevotee, id.RoleMentor}, roles)
}

func TestInMemoryRoleStore_Remove(t *testing.T) {
	ctx := context.Background()
	store := New()
	userID := id.NewUserID()

	require.NoError(t, store.Assign(ctx, userID, id.RoleDevotee))
	require.NoError(t, store.Remove(ctx, userID, id.RoleDevotee))

	err := store.Remove(ctx, userID, id.RoleDevotee)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))

	err = store.Remove(ctx, id.NewUserID(), id.RoleAdmin)
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}

func TestInMemoryRoleStore_ListUnknownUserIsEmpty(t *testing.T) {
	store := New()
	roles, err := store.ListByUser(context.Background(), id.NewUserID())
	require.NoError(t, err)
	assert.NotNil(t, roles)
	assert.Empty(t, roles)
}
