// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package auth

import (
	"regexp"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSessionID(t *testing.T) {
	id, err := GenerateSessionID()
	require.NoError(t, err)

	// Canonical form: lowercase hex, 64 characters. The same string is
	// used as store key and cookie payload.
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), id)

	other, err := GenerateSessionID()
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
}

func TestNewSession(t *testing.T) {
	user := &User{
		ID:       ulid.Make(),
		Username: "alice",
		Email:    "alice@example.com",
	}

	session, err := NewSession(user, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, user.ID, session.UserID)
	assert.Equal(t, "alice", session.Username)
	assert.Equal(t, "alice@example.com", session.Email)
	assert.Len(t, session.ID, 64)
	assert.WithinDuration(t, session.CreatedAt.Add(time.Hour), session.ExpiresAt, time.Second)
	assert.False(t, session.IsExpired())
}

func TestNewSession_DefaultTTL(t *testing.T) {
	user := &User{ID: ulid.Make(), Username: "alice", Email: "alice@example.com"}

	session, err := NewSession(user, 0)
	require.NoError(t, err)
	assert.WithinDuration(t, session.CreatedAt.Add(DefaultSessionTTL), session.ExpiresAt, time.Second)
}

func TestNewSession_InvalidUser(t *testing.T) {
	_, err := NewSession(nil, time.Hour)
	require.Error(t, err)

	_, err = NewSession(&User{}, time.Hour)
	require.Error(t, err, "zero user ID is rejected")
}

func TestSession_IsExpiredAt(t *testing.T) {
	now := time.Now().UTC()
	session := &Session{ExpiresAt: now.Add(time.Minute)}

	assert.False(t, session.IsExpiredAt(now))
	assert.False(t, session.IsExpiredAt(now.Add(time.Minute)), "expiry instant itself is still valid")
	assert.True(t, session.IsExpiredAt(now.Add(time.Minute+time.Nanosecond)))
}
