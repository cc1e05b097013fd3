package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/deveshyaara/CryptLocker-Jovian786/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnectionState(t *testing.T) {
	for _, raw := range []string{"invitation", "request", "response", "active", "completed", "error"} {
		s, err := ParseConnectionState(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, ConnectionState(raw), s)
	}
}

func TestParseConnectionState_Unrecognized(t *testing.T) {
	for _, raw := range []string{"abandoned", "ACTIVE", "", "start"} {
		s, err := ParseConnectionState(raw)
		assert.Equal(t, ConnectionStateUnrecognized, s, raw)
		assert.True(t, errors.Is(err, common.ErrUnrecognizedState), raw)
	}
}

func TestConnectionState_IsTerminal(t *testing.T) {
	assert.True(t, ConnectionStateCompleted.IsTerminal())
	assert.True(t, ConnectionStateError.IsTerminal())
	assert.False(t, ConnectionStateActive.IsTerminal())
	assert.False(t, ConnectionStateUnrecognized.IsTerminal())
}

func TestUser_HashedPasswordNeverSerialized(t *testing.T) {
	b, err := json.Marshal(User{ID: 1, Username: "alice", HashedPassword: "$2a$12$secret"})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "secret")
	assert.NotContains(t, string(b), "hashed_password")
}

func TestClaims_Identity(t *testing.T) {
	c := &Claims{UserID: 7, Username: "bob"}
	assert.Equal(t, &Identity{UserID: 7, Username: "bob"}, c.Identity())
}
