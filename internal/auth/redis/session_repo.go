// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

// Package redis implements the auth session store backed by Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	"github.com/klickon/klickon-auth/internal/auth"
)

// keyPrefix namespaces session keys in the shared Redis instance.
const keyPrefix = "session:"

// SessionRepository implements auth.SessionStore using Redis. Expiry is
// delegated to Redis TTLs, so expired sessions vanish without a reaper.
type SessionRepository struct {
	client goredis.UniversalClient
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(client goredis.UniversalClient) *SessionRepository {
	return &SessionRepository{client: client}
}

// Create stores a session under its canonical ID, expiring at
// Session.ExpiresAt.
func (r *SessionRepository) Create(ctx context.Context, session *auth.Session) error {
	if session == nil || session.ID == "" {
		return oops.Code("SESSION_INVALID").Errorf("session ID cannot be empty")
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return oops.Code("SESSION_INVALID").
			With("expires_at", session.ExpiresAt).
			Errorf("session is already expired")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "marshal session").
			Wrap(err)
	}

	if err := r.client.Set(ctx, keyPrefix+session.ID, payload, ttl).Err(); err != nil {
		return oops.Code("SESSION_CREATE_FAILED").
			With("operation", "set session key").
			Wrap(err)
	}
	return nil
}

// Get retrieves a session by ID.
func (r *SessionRepository) Get(ctx context.Context, id string) (*auth.Session, error) {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
		}
		return nil, oops.Code("SESSION_GET_FAILED").
			With("operation", "get session key").
			Wrap(err)
	}

	var session auth.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, oops.Code("SESSION_CORRUPT").
			With("operation", "unmarshal session").
			Wrap(err)
	}

	// The TTL normally enforces expiry; the record check covers clock
	// drift between writer and store.
	if session.IsExpired() {
		_ = r.client.Del(ctx, keyPrefix+id).Err() //nolint:errcheck // best effort cleanup
		return nil, oops.Code("SESSION_EXPIRED").Wrap(auth.ErrNotFound)
	}
	return &session, nil
}

// Delete removes a session. Deleting an absent key is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return oops.Code("SESSION_DELETE_FAILED").
			With("operation", "delete session key").
			Wrap(err)
	}
	return nil
}

// Touch extends the session's expiry to now+ttl, rewriting the stored
// record so the embedded expiry and the key TTL stay in agreement.
func (r *SessionRepository) Touch(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		return oops.Code("SESSION_INVALID").Errorf("ttl must be positive")
	}

	session, err := r.Get(ctx, id)
	if err != nil {
		return err //nolint:wrapcheck // Get already wraps with context
	}

	session.ExpiresAt = time.Now().UTC().Add(ttl)
	payload, err := json.Marshal(session)
	if err != nil {
		return oops.Code("SESSION_TOUCH_FAILED").
			With("operation", "marshal session").
			Wrap(err)
	}

	if err := r.client.Set(ctx, keyPrefix+id, payload, ttl).Err(); err != nil {
		return oops.Code("SESSION_TOUCH_FAILED").
			With("operation", "set session key").
			Wrap(err)
	}
	return nil
}

// Compile-time interface check.
var _ auth.SessionStore = (*SessionRepository)(nil)
