// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the klickon-auth CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "klickon-auth",
		Short: "Klickon authentication service",
		Long: `Klickon-auth issues credentials and authenticates sessions:
registration with bot verification, login with server-side sessions,
and Redis-backed rate limiting in front of both.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
