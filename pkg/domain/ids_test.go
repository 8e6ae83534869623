package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "ashram/pkg/domain-errors"
)

// TestParseID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs" at trust boundaries.
func TestParseID_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty string", "", true},
		{"not a uuid", "not-a-uuid", true},
		{"nil UUID", uuid.Nil.String(), true},
		{"path traversal", "../../../etc/passwd", true},
		{"oversized input", strings.Repeat("a", 1000), true},
		{"valid lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
		{"valid uppercase", "550E8400-E29B-41D4-A716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errUser := ParseUserID(tt.input)
			_, errSession := ParseSessionID(tt.input)
			if tt.wantErr {
				require.Error(t, errUser)
				require.Error(t, errSession)
				assert.True(t, dErrors.HasCode(errUser, dErrors.CodeInvalidInput))
				assert.True(t, dErrors.HasCode(errSession, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, errUser)
				require.NoError(t, errSession)
			}
		})
	}
}

// TestTypeDistinction verifies the compiler enforces type safety between
// user and session IDs. If this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	userID := NewUserID()
	sessionID := NewSessionID()

	// These would fail to compile if types were interchangeable:
	// var _ UserID = sessionID   // compile error
	// var _ SessionID = userID   // compile error

	assert.NotEqual(t, uuid.UUID(userID), uuid.UUID(sessionID))
}

// TestJSONEncoding pins the wire shape: IDs serialize as canonical UUID
// strings, never as byte arrays.
func TestJSONEncoding(t *testing.T) {
	type record struct {
		UserID    UserID    `json:"user_id"`
		SessionID SessionID `json:"session_id"`
	}

	in := record{UserID: NewUserID(), SessionID: NewSessionID()}

	raw, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(raw), fmt.Sprintf("%q", in.UserID.String()))
	assert.Contains(t, string(raw), fmt.Sprintf("%q", in.SessionID.String()))
	assert.NotContains(t, string(raw), "[", "IDs must not encode as byte arrays")

	var out record
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in, out)

	assert.Error(t, json.Unmarshal([]byte(`{"user_id":"not-a-uuid"}`), &out))
}
