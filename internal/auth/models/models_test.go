package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"playdex/internal/sentinel"
)

func TestNewPending(t *testing.T) {
	now := time.Unix(1700000000, 0)
	session := NewPending(uuid.New(), "Firefox on Linux", now, 24*time.Hour)

	assert.Equal(t, StatePendingProvider, session.State)
	assert.Nil(t, session.Identity)
	assert.Equal(t, now.Add(24*time.Hour), session.ExpiresAt)
	assert.False(t, session.Expired(now.Add(23*time.Hour)))
	assert.True(t, session.Expired(now.Add(25*time.Hour)))
}

func TestAuthenticateFromPending(t *testing.T) {
	now := time.Unix(1700000000, 0)
	session := NewPending(uuid.New(), "", now, 24*time.Hour)

	identity := &Identity{SteamID: "76561197960435530", Persona: "gabe"}
	require.NoError(t, session.Authenticate(identity))

	assert.True(t, session.Authenticated())
	assert.Equal(t, identity, session.Identity)
}

func TestAuthenticateInvalidTransitions(t *testing.T) {
	now := time.Unix(1700000000, 0)
	identity := &Identity{SteamID: "76561197960435530"}

	t.Run("already authenticated", func(t *testing.T) {
		session := NewPending(uuid.New(), "", now, time.Hour)
		require.NoError(t, session.Authenticate(identity))

		err := session.Authenticate(identity)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	t.Run("anonymous", func(t *testing.T) {
		session := NewPending(uuid.New(), "", now, time.Hour)
		session.Reset()

		err := session.Authenticate(identity)
		assert.ErrorIs(t, err, sentinel.ErrInvalidState)
	})

	t.Run("nil identity", func(t *testing.T) {
		session := NewPending(uuid.New(), "", now, time.Hour)

		err := session.Authenticate(nil)
		assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
	})
}

func TestResetClearsIdentity(t *testing.T) {
	now := time.Unix(1700000000, 0)
	session := NewPending(uuid.New(), "", now, time.Hour)
	require.NoError(t, session.Authenticate(&Identity{SteamID: "1"}))

	session.Reset()

	assert.Equal(t, StateAnonymous, session.State)
	assert.Nil(t, session.Identity)
	assert.False(t, session.Authenticated())
}
