// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

// Package auth provides the credential-issuance and session-authentication core.
//
// # Domain Types
//
// Domain types (User, Session) should be created using their constructors:
//   - NewUser - creates a User with a normalized, validated email and generated ID
//   - NewSession - creates a Session for a user with a generated identifier
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Service
//
// Service orchestrates registration, login, logout, and session validation on
// top of a CredentialDirectory, a SessionStore, a PasswordHasher, and a bot
// verification oracle. It is safe for concurrent use after construction.
package auth
