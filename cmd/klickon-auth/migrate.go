// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/klickon/klickon-auth/internal/config"
	"github.com/klickon/klickon-auth/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long:  `Run all pending database migrations against the PostgreSQL database.`,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err //nolint:wrapcheck // config errors carry their own context
	}
	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}

	migrator, err := store.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return err //nolint:wrapcheck // migrator errors carry their own context
	}
	defer migrator.Close() //nolint:errcheck // close error is uninteresting after Up

	cmd.Println("Running migrations...")
	if err := migrator.Up(); err != nil {
		return err //nolint:wrapcheck // migrator errors carry their own context
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err //nolint:wrapcheck // migrator errors carry their own context
	}
	cmd.Printf("Migrations completed successfully (version %d, dirty=%v)\n", version, dirty)
	return nil
}
