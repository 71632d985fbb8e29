// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

// Package store manages the PostgreSQL connection pool and schema
// migrations for the credential directory.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// connectRetries and connectBackoff shape the startup connection retry.
// Fibonacci backoff from 500ms gives roughly six seconds of patience,
// enough for a database container starting alongside the service.
const (
	connectRetries = 5
	connectBackoff = 500 * time.Millisecond
)

// Connect opens a pgx connection pool and verifies it with a ping,
// retrying while the database comes up.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").
			With("operation", "create connection pool").
			Wrap(err)
	}

	backoff := retry.WithMaxRetries(connectRetries, retry.NewFibonacci(connectBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_UNREACHABLE").
			With("operation", "ping database").
			Wrap(err)
	}

	return pool, nil
}
