// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// bcryptInputLimit is the maximum number of password bytes bcrypt consumes.
// Longer inputs are silently truncated by the algorithm, so anything above
// this limit is pre-hashed instead.
const bcryptInputLimit = 72

// DefaultHashConcurrency bounds how many bcrypt computations may run at
// once. Hashing is deliberately expensive; without a bound a burst of
// registrations could starve every other request of CPU.
const DefaultHashConcurrency = 8

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted, self-describing hash of the password.
	Hash(ctx context.Context, password string) (string, error)

	// Verify checks if the password matches the stored hash. A malformed
	// stored hash is treated as a mismatch, never an error.
	Verify(ctx context.Context, password, hash string) bool
}

// BcryptHasher implements PasswordHasher using bcrypt with a SHA-256
// pre-hash for oversized inputs.
//
// bcrypt only consumes the first 72 bytes of its input. Passwords whose
// UTF-8 encoding exceeds that limit are first digested with SHA-256 and
// hex-encoded (64 bytes), preserving the full entropy of the original
// password. Verify reproduces the exact same decision, keyed on the byte
// length of the candidate password.
type BcryptHasher struct {
	cost int
	sem  chan struct{}
}

// NewBcryptHasher creates a BcryptHasher with the given cost factor.
// Costs outside bcrypt's supported range fall back to bcrypt.DefaultCost.
// maxConcurrent bounds simultaneous hash computations; values <= 0 use
// DefaultHashConcurrency.
func NewBcryptHasher(cost, maxConcurrent int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultHashConcurrency
	}
	return &BcryptHasher{
		cost: cost,
		sem:  make(chan struct{}, maxConcurrent),
	}
}

// Hash produces a bcrypt hash of the password. The returned string is the
// standard self-describing bcrypt encoding (algorithm tag, cost, salt, and
// digest in one opaque value).
func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	if err := h.acquire(ctx); err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(fmt.Errorf("%w: %v", ErrHashingFailed, err))
	}
	defer h.release()

	hashed, err := bcrypt.GenerateFromPassword(normalizePassword(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(fmt.Errorf("%w: %v", ErrHashingFailed, err))
	}
	return string(hashed), nil
}

// Verify checks if the password matches the stored bcrypt hash. The
// comparison is constant-time with respect to the digest. Malformed stored
// hashes and cancelled contexts report a mismatch.
func (h *BcryptHasher) Verify(ctx context.Context, password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}

	if err := h.acquire(ctx); err != nil {
		return false
	}
	defer h.release()

	return bcrypt.CompareHashAndPassword([]byte(hash), normalizePassword(password)) == nil
}

func (h *BcryptHasher) acquire(ctx context.Context) error {
	select {
	case h.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err() //nolint:wrapcheck // callers wrap with context-specific info
	}
}

func (h *BcryptHasher) release() {
	<-h.sem
}

// normalizePassword returns the bytes actually fed to bcrypt: the raw
// UTF-8 encoding when it fits, or a hex-encoded SHA-256 digest when it
// exceeds the algorithm's input limit.
func normalizePassword(password string) []byte {
	b := []byte(password)
	if len(b) <= bcryptInputLimit {
		return b
	}
	sum := sha256.Sum256(b)
	return []byte(hex.EncodeToString(sum[:]))
}

// Compile-time interface check.
var _ PasswordHasher = (*BcryptHasher)(nil)
