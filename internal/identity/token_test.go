package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "ashram/pkg/domain"
	dErrors "ashram/pkg/domain-errors"
)

func newTestJWTService() *JWTService {
	return NewJWTService("test-signing-key", "ashram-test", "ashram-web")
}

func TestJWTService_AccessTokenRoundTrip(t *testing.T) {
	svc := newTestJWTService()
	userID := id.NewUserID()
	sessionID := id.NewSessionID()

	token, err := svc.MintAccessToken(userID, sessionID, "devotee@ashram.example", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token, TokenPurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.Equal(t, "devotee@ashram.example", claims.Email)
}

func TestJWTService_PurposeMismatch(t *testing.T) {
	svc := newTestJWTService()
	userID := id.NewUserID()

	verifyToken, err := svc.MintVerifyToken(userID, "devotee@ashram.example", time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateToken(verifyToken, TokenPurposeAccess)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	accessToken, err := svc.MintAccessToken(userID, id.NewSessionID(), "devotee@ashram.example", time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateToken(accessToken, TokenPurposeVerify)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestJWTService_RejectsExpiredAndForeignTokens(t *testing.T) {
	svc := newTestJWTService()

	expired, err := svc.MintAccessToken(id.NewUserID(), id.NewSessionID(), "x@ashram.example", -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired, TokenPurposeAccess)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	otherKey := NewJWTService("different-key", "ashram-test", "ashram-web")
	foreign, err := otherKey.MintAccessToken(id.NewUserID(), id.NewSessionID(), "x@ashram.example", time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign, TokenPurposeAccess)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = svc.ValidateToken("not-a-token", TokenPurposeAccess)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}
