// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/oops"
)

// BotVerifier is the bot-challenge oracle consulted during registration.
// Implementations perform an external verification call (e.g. reCAPTCHA).
type BotVerifier interface {
	// Verify reports whether the challenge token is valid. Callers treat
	// a false result and an error identically: verification fails closed.
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// Service orchestrates registration, login, logout, and session
// validation. All dependencies are injected; Service holds no mutable
// state across requests.
type Service struct {
	users      CredentialDirectory
	sessions   SessionStore
	hasher     PasswordHasher
	bots       BotVerifier
	sessionTTL time.Duration

	// dummyHash is verified against when a login targets an unknown
	// email, so the not-found path costs the same as a real mismatch.
	// Empty only if hashing failed at construction, in which case the
	// timing defense degrades gracefully.
	dummyHash string
}

// NewService creates an authentication Service. All dependencies are
// required. ttl <= 0 selects DefaultSessionTTL.
func NewService(users CredentialDirectory, sessions SessionStore, hasher PasswordHasher, bots BotVerifier, ttl time.Duration) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("credential directory is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("session store is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if bots == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("bot verifier is required")
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	// Best effort: a failure here only weakens the unknown-email timing
	// defense, it does not make the service unusable.
	dummy, err := hasher.Hash(context.Background(), "klickon-timing-defense-dummy")
	if err != nil {
		dummy = ""
	}

	return &Service{
		users:      users,
		sessions:   sessions,
		hasher:     hasher,
		bots:       bots,
		sessionTTL: ttl,
		dummyHash:  dummy,
	}, nil
}

// RegisterInput carries the registration form fields.
type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	ChallengeToken string
	RemoteIP       string
}

// LoginInput carries the login form fields. PriorSessionID is the session
// identifier presented by the client's cookie, if any; it is destroyed
// before a new session is issued.
type LoginInput struct {
	Email          string
	Password       string
	PriorSessionID string
}

// Register validates the input, verifies the bot challenge, hashes the
// password, and inserts the new user record.
//
// Error kinds, in check order: ValidationError for missing or malformed
// fields, ErrBotVerificationFailed (fail-closed), ErrHashingFailed, and
// ErrDuplicateEmail from the directory's uniqueness constraint.
func (s *Service) Register(ctx context.Context, in RegisterInput) error {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return NewValidationError("username", "username cannot be empty")
	}
	if strings.TrimSpace(in.Email) == "" {
		return NewValidationError("email", "email cannot be empty")
	}
	if in.Password == "" {
		return NewValidationError("password", "password cannot be empty")
	}

	ok, err := s.bots.Verify(ctx, in.ChallengeToken, in.RemoteIP)
	if err != nil {
		return oops.Code("AUTH_BOT_CHECK_FAILED").
			With("operation", "verify bot challenge").
			Wrap(errors.Join(ErrBotVerificationFailed, err))
	}
	if !ok {
		return oops.Code("AUTH_BOT_CHECK_FAILED").Wrap(ErrBotVerificationFailed)
	}

	email := NormalizeEmail(in.Email)
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(username, email, hash)
	if err != nil {
		return err
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return err //nolint:wrapcheck // repository already wraps with context
		}
		return oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}
	return nil
}

// Login authenticates a user and creates a new session.
//
// Unknown email and wrong password both return ErrInvalidCredentials with
// no distinguishing signal; the unknown-email path still performs a hash
// verification so response timing stays uniform. Any session identified
// by in.PriorSessionID is destroyed before the new session is created, so
// no prior claims can survive into the authenticated session.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	email := NormalizeEmail(in.Email)
	if email == "" {
		return nil, NewValidationError("email", "email cannot be empty")
	}
	if in.Password == "" {
		return nil, NewValidationError("password", "password cannot be empty")
	}

	user, lookupErr := s.users.GetByEmail(ctx, email)

	targetHash := s.dummyHash
	userExists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get user by email").
				Wrap(lookupErr)
		}
	} else {
		targetHash = user.PasswordHash
		userExists = true
	}

	valid := false
	if targetHash != "" {
		valid = s.hasher.Verify(ctx, in.Password, targetHash)
	}
	if !userExists || !valid {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	// Destroy any residual session before issuing a new one. Best
	// effort: the store's Delete is idempotent and a stale identifier
	// must never block a login.
	if in.PriorSessionID != "" {
		_ = s.sessions.Delete(ctx, in.PriorSessionID) //nolint:errcheck // fixation defense is best effort
	}

	session, err := NewSession(user, s.sessionTTL)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "create session").
			Wrap(err)
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}
	return session, nil
}

// Logout destroys the session. It is idempotent: an empty or unknown
// session identifier is not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			Wrap(err)
	}
	return nil
}

// Authenticate resolves a session identifier to its session record.
// Unknown, empty, and expired identifiers all return an error wrapping
// ErrNotFound.
func (s *Service) Authenticate(ctx context.Context, sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, oops.Code("SESSION_INVALID").Wrap(ErrNotFound)
	}

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err //nolint:wrapcheck // store already wraps with context
		}
		return nil, oops.Code("AUTH_SESSION_LOOKUP_FAILED").
			With("operation", "get session").
			Wrap(err)
	}
	if session.IsExpired() {
		_ = s.sessions.Delete(ctx, sessionID) //nolint:errcheck // best effort cleanup
		return nil, oops.Code("SESSION_EXPIRED").Wrap(ErrNotFound)
	}
	return session, nil
}
