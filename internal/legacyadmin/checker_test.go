package legacyadmin

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ashram/internal/audit"
	dErrors "ashram/pkg/domain-errors"
)

const (
	testAdminEmail    = "tridibesh.dspt@gmail.com"
	testAdminPassword = "open-sesame-9000"
)

func newTestChecker(t *testing.T, store MarkerStore) *Checker {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	logger := slog.Default()
	auditor := audit.NewPublisher(audit.NewInMemoryStore(), logger)
	return NewChecker(testAdminEmail, string(hash), store, auditor, logger)
}

func TestChecker_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials persist the marker", func(t *testing.T) {
		store := NewInMemoryMarkerStore()
		checker := newTestChecker(t, store)

		require.NoError(t, checker.Authenticate(ctx, testAdminEmail, testAdminPassword))
		assert.True(t, checker.IsAdmin(ctx))

		marker, err := store.Read(ctx)
		require.NoError(t, err)
		assert.True(t, marker.IsAdmin)
		assert.Equal(t, testAdminEmail, marker.Email)
	})

	t.Run("email comparison is case and whitespace insensitive", func(t *testing.T) {
		checker := newTestChecker(t, NewInMemoryMarkerStore())
		err := checker.Authenticate(ctx, "  Tridibesh.DSPT@GMAIL.com ", testAdminPassword)
		require.NoError(t, err)
	})

	t.Run("wrong password is rejected and leaves no marker", func(t *testing.T) {
		store := NewInMemoryMarkerStore()
		checker := newTestChecker(t, store)

		err := checker.Authenticate(ctx, testAdminEmail, "wrong")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.False(t, checker.IsAdmin(ctx))
	})

	t.Run("wrong email is rejected", func(t *testing.T) {
		checker := newTestChecker(t, NewInMemoryMarkerStore())
		err := checker.Authenticate(ctx, "someone@else.example", testAdminPassword)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("unconfigured checker refuses everyone", func(t *testing.T) {
		logger := slog.Default()
		auditor := audit.NewPublisher(audit.NewInMemoryStore(), logger)
		checker := NewChecker("", "", NewInMemoryMarkerStore(), auditor, logger)

		assert.False(t, checker.Enabled())
		err := checker.Authenticate(ctx, testAdminEmail, testAdminPassword)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}

func TestChecker_IsAdminFailsClosed(t *testing.T) {
	ctx := context.Background()

	t.Run("absent marker means non-admin", func(t *testing.T) {
		checker := newTestChecker(t, NewInMemoryMarkerStore())
		assert.False(t, checker.IsAdmin(ctx))
	})

	t.Run("corrupt marker means non-admin", func(t *testing.T) {
		store := NewInMemoryMarkerStore()
		checker := newTestChecker(t, store)
		require.NoError(t, checker.Authenticate(ctx, testAdminEmail, testAdminPassword))

		store.Corrupt()
		assert.False(t, checker.IsAdmin(ctx))
	})

	t.Run("marker with false flag means non-admin", func(t *testing.T) {
		store := NewInMemoryMarkerStore()
		checker := newTestChecker(t, store)
		require.NoError(t, store.Write(ctx, Marker{Email: testAdminEmail, IsAdmin: false}))
		assert.False(t, checker.IsAdmin(ctx))
	})
}

func TestChecker_Revoke(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryMarkerStore()
	checker := newTestChecker(t, store)

	require.NoError(t, checker.Authenticate(ctx, testAdminEmail, testAdminPassword))
	require.True(t, checker.IsAdmin(ctx))

	require.NoError(t, checker.Revoke(ctx))
	assert.False(t, checker.IsAdmin(ctx))

	// Revoking again stays a no-op.
	require.NoError(t, checker.Revoke(ctx))
}

func TestFileMarkerStore(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/adminAuth.json"
	store := NewFileMarkerStore(path)

	_, err := store.Read(ctx)
	require.Error(t, err)

	require.NoError(t, store.Write(ctx, Marker{Email: testAdminEmail, IsAdmin: true}))
	marker, err := store.Read(ctx)
	require.NoError(t, err)
	assert.True(t, marker.IsAdmin)

	// A fresh store at the same path sees the persisted marker.
	reopened := NewFileMarkerStore(path)
	marker, err = reopened.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, testAdminEmail, marker.Email)

	require.NoError(t, store.Clear(ctx))
	_, err = store.Read(ctx)
	require.Error(t, err)
}
