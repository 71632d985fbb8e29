// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package errutil

import (
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorCode fails the test unless err carries the given oops code.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oerr, ok := oops.AsOops(err)
	require.True(t, ok, "error %v carries no oops code", err)
	assert.Equal(t, code, oerr.Code(), "wrong error code")
}

// AssertErrorContext fails the test unless err carries the given
// key/value pair in its oops context.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	oerr, ok := oops.AsOops(err)
	require.True(t, ok, "error %v carries no oops context", err)
	got, present := oerr.Context()[key]
	require.True(t, present, "context key %q missing", key)
	assert.Equal(t, value, got)
}
