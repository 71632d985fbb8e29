// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package auth

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Password length constraints, counted in characters (not bytes).
const (
	MinPasswordLength = 8
	MaxPasswordLength = 200
)

// validate is shared across calls; validator.Validate is safe for
// concurrent use.
var validate = validator.New()

// User represents a registered account. Records are immutable after
// creation: exactly one User exists per normalized email.
type User struct {
	ID           ulid.ULID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// NewUser creates a validated User. The email is normalized before
// validation; the ID is generated here so repositories never see a
// zero-value identifier.
func NewUser(username, email, passwordHash string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, NewValidationError("username", "username cannot be empty")
	}

	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	return &User{
		ID:           ulid.Make(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// NormalizeEmail lowercases and trims an email address. All storage and
// lookups operate on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks the address against RFC 5322 syntax including
// domain-label rules. The input is expected to be normalized already.
func ValidateEmail(email string) error {
	if email == "" {
		return NewValidationError("email", "email cannot be empty")
	}
	if err := validate.Var(email, "email"); err != nil {
		return NewValidationError("email", "email address is not valid")
	}
	return nil
}

// ValidatePassword checks the plaintext password length bounds.
func ValidatePassword(password string) error {
	if password == "" {
		return NewValidationError("password", "password cannot be empty")
	}
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return NewValidationError("password", "password must be at least 8 characters")
	}
	if n > MaxPasswordLength {
		return NewValidationError("password", "password must be at most 200 characters")
	}
	return nil
}

// CredentialDirectory manages durable user records keyed uniquely by
// normalized email.
type CredentialDirectory interface {
	// Insert stores a new user. Inserting an email that already exists
	// returns an error wrapping ErrDuplicateEmail; uniqueness is enforced
	// by the storage layer, not by a check-then-insert.
	Insert(ctx context.Context, user *User) error

	// GetByEmail retrieves a user by normalized email. Returns an error
	// wrapping ErrNotFound if no such user exists.
	GetByEmail(ctx context.Context, email string) (*User, error)
}
