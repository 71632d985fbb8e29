// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when registering an email that already
// has an account. The storage layer maps its uniqueness violation to this
// sentinel so callers never see raw database errors.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrInvalidCredentials is returned for both unknown-email and
// wrong-password logins. The two cases are deliberately indistinguishable
// to prevent account enumeration.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrBotVerificationFailed is returned when the bot-challenge token could
// not be verified. Verification errors fail closed into this sentinel.
var ErrBotVerificationFailed = errors.New("bot verification failed")

// ErrHashingFailed is returned when password hashing could not produce a
// usable hash. A partial or wrong-looking hash is never returned.
var ErrHashingFailed = errors.New("password hashing failed")

// ValidationError reports a user-correctable problem with a single input
// field. Its message is safe to show to the client.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
