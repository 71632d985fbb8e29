// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Session identifier and lifetime configuration.
const (
	SessionIDBytes    = 32             // 32 bytes = 64 hex chars
	DefaultSessionTTL = 24 * time.Hour // server-side expiry
)

// Session represents a server-side session record. The client holds only
// a signed cookie carrying the session ID.
type Session struct {
	ID        string    `json:"id"`
	UserID    ulid.ULID `json:"user_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession creates a validated Session for the given user.
func NewSession(user *User, ttl time.Duration) (*Session, error) {
	if user == nil {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user cannot be nil")
	}
	if user.ID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("SESSION_INVALID_USER").Errorf("user ID cannot be zero")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	id, err := GenerateSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Session{
		ID:        id,
		UserID:    user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the session would be expired at the given
// time. Useful for testing with deterministic time values.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

// GenerateSessionID creates a cryptographically random session identifier.
//
// The identifier is lowercase hex, and that is its one canonical textual
// representation: the same string is the store key and the cookie value.
// Any other encoding of the underlying bytes would break every lookup
// performed with the text form.
func GenerateSessionID() (string, error) {
	buf := make([]byte, SessionIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", oops.Code("SESSION_ID_GENERATE_FAILED").
			With("requested_bytes", SessionIDBytes).
			Wrap(err)
	}
	return hex.EncodeToString(buf), nil
}

// SessionStore manages server-side session persistence with expiry.
type SessionStore interface {
	// Create stores a new session, expiring it at Session.ExpiresAt.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by ID. Returns an error wrapping
	// ErrNotFound for unknown or expired sessions.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session. Deleting a session that does not exist
	// is not an error.
	Delete(ctx context.Context, id string) error

	// Touch extends a session's expiry by ttl from now. Returns an error
	// wrapping ErrNotFound for unknown sessions.
	Touch(ctx context.Context, id string, ttl time.Duration) error
}
