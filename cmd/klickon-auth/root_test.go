// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	assert.Equal(t, "klickon-auth", cmd.Use)

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "migrate")

	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag, "global --config flag must exist")
}

func TestRootCmd_Help(t *testing.T) {
	cmd := NewRootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "klickon-auth")
	assert.Contains(t, out.String(), "serve")
}

func TestServeCmd_Flags(t *testing.T) {
	cmd := NewServeCmd()

	for _, name := range []string{"addr", "mode", "metrics-addr", "log-format"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %q must exist", name)
	}
}

func TestMigrateCmd_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cmd := NewMigrateCmd()
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	require.Error(t, err)
}
