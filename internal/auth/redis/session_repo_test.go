// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/oklog/ulid/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klickon/klickon-auth/internal/auth"
)

func setupRepo(t *testing.T) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewSessionRepository(client), mr
}

func testSession(t *testing.T, ttl time.Duration) *auth.Session {
	t.Helper()

	user := &auth.User{
		ID:       ulid.Make(),
		Username: "alice",
		Email:    "alice@example.com",
	}
	session, err := auth.NewSession(user, ttl)
	require.NoError(t, err)
	return session
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	repo, mr := setupRepo(t)
	ctx := context.Background()

	session := testSession(t, time.Hour)
	require.NoError(t, repo.Create(ctx, session))

	// The record lives under the canonical "session:" prefixed key.
	assert.True(t, mr.Exists("session:"+session.ID))

	got, err := repo.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, session.UserID, got.UserID)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "alice@example.com", got.Email)
}

func TestSessionRepository_Get_Unknown(t *testing.T) {
	repo, _ := setupRepo(t)

	_, err := repo.Get(context.Background(), "0badc0de")
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestSessionRepository_Get_Corrupt(t *testing.T) {
	repo, mr := setupRepo(t)

	require.NoError(t, mr.Set("session:corrupt", "{not json"))

	_, err := repo.Get(context.Background(), "corrupt")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrNotFound)
}

func TestSessionRepository_Create_RejectsExpired(t *testing.T) {
	repo, _ := setupRepo(t)

	session := testSession(t, time.Hour)
	session.ExpiresAt = time.Now().UTC().Add(-time.Minute)

	err := repo.Create(context.Background(), session)
	require.Error(t, err)
}

func TestSessionRepository_Create_RejectsEmptyID(t *testing.T) {
	repo, _ := setupRepo(t)

	session := testSession(t, time.Hour)
	session.ID = ""

	require.Error(t, repo.Create(context.Background(), session))
	require.Error(t, repo.Create(context.Background(), nil))
}

func TestSessionRepository_Expiry(t *testing.T) {
	repo, mr := setupRepo(t)
	ctx := context.Background()

	session := testSession(t, time.Minute)
	require.NoError(t, repo.Create(ctx, session))

	// The key TTL enforces expiry without any reaper of our own.
	mr.FastForward(2 * time.Minute)

	_, err := repo.Get(ctx, session.ID)
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestSessionRepository_Delete(t *testing.T) {
	repo, mr := setupRepo(t)
	ctx := context.Background()

	session := testSession(t, time.Hour)
	require.NoError(t, repo.Create(ctx, session))

	require.NoError(t, repo.Delete(ctx, session.ID))
	assert.False(t, mr.Exists("session:"+session.ID))

	// Idempotent: deleting again is not an error.
	require.NoError(t, repo.Delete(ctx, session.ID))
}

func TestSessionRepository_Touch(t *testing.T) {
	repo, mr := setupRepo(t)
	ctx := context.Background()

	session := testSession(t, time.Minute)
	require.NoError(t, repo.Create(ctx, session))

	require.NoError(t, repo.Touch(ctx, session.ID, time.Hour))

	// The rewritten record and the key TTL agree on the new horizon.
	got, err := repo.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), got.ExpiresAt, 5*time.Second)

	ttl := mr.TTL("session:" + session.ID)
	assert.Greater(t, ttl, 55*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestSessionRepository_Touch_Unknown(t *testing.T) {
	repo, _ := setupRepo(t)

	err := repo.Touch(context.Background(), "missing", time.Hour)
	require.ErrorIs(t, err, auth.ErrNotFound)

	err = repo.Touch(context.Background(), "missing", 0)
	require.Error(t, err)
}
