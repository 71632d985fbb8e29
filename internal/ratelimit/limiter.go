// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

// Package ratelimit provides fixed-window request throttling backed by a
// shared Redis store, so all serving instances see one global view of
// each client's budget.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned (fail-closed mode only) when the counter
// store cannot be reached.
var ErrUnavailable = errors.New("rate limit storage unavailable")

// keyPrefix namespaces counter keys in the shared Redis instance.
const keyPrefix = "ratelimit:"

// Result reports the outcome of a limit check. When a request is denied,
// Rule names the rule that rejected it and RetryAfter is the time until
// that rule's window rolls over.
type Result struct {
	Allowed    bool
	Rule       Rule
	RetryAfter time.Duration
}

// Limiter enforces per-identity fixed-window request budgets using Redis
// counters.
//
// When the counter store is unreachable the limiter fails open by
// default: requests are allowed and the outage is logged. That keeps the
// service available during a Redis outage at the cost of unthrottled
// abuse for its duration — a deliberate, risky trade. Construct with
// failClosed=true to reject instead.
type Limiter struct {
	client     redis.UniversalClient
	failClosed bool
}

// NewLimiter creates a Limiter backed by the given Redis client.
func NewLimiter(client redis.UniversalClient, failClosed bool) *Limiter {
	return &Limiter{client: client, failClosed: failClosed}
}

// Allow checks the identity against every rule, incrementing each rule's
// counter for the current window. The request is allowed only if ALL
// rules have budget left.
func (l *Limiter) Allow(ctx context.Context, identity string, rules ...Rule) (Result, error) {
	now := time.Now()
	for _, rule := range rules {
		count, err := l.increment(ctx, counterKey(identity, rule, now), rule.Window)
		if err != nil {
			if l.failClosed {
				return Result{Allowed: false, Rule: rule}, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			slog.Warn("rate limit storage unreachable, allowing request",
				"identity", identity,
				"rule", rule.Name,
				"error", err,
			)
			return Result{Allowed: true}, nil
		}
		if count > int64(rule.Limit) {
			return Result{
				Allowed:    false,
				Rule:       rule,
				RetryAfter: windowEnd(now, rule.Window).Sub(now),
			}, nil
		}
	}
	return Result{Allowed: true}, nil
}

// increment bumps the window counter, attaching the TTL on first hit
// (fixed-window semantics).
func (l *Limiter) increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err //nolint:wrapcheck // caller wraps with availability context
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, err //nolint:wrapcheck // caller wraps with availability context
		}
	}
	return count, nil
}

// counterKey builds the Redis key for an identity's counter in the
// window containing now. Embedding the window start makes stale keys
// harmless even if their TTL outlives the window boundary.
func counterKey(identity string, rule Rule, now time.Time) string {
	windowStart := now.Truncate(rule.Window).Unix()
	return keyPrefix + rule.Name + ":" + identity + ":" + strconv.FormatInt(windowStart, 10)
}

// windowEnd returns the end of the fixed window containing now.
func windowEnd(now time.Time, window time.Duration) time.Time {
	return now.Truncate(window).Add(window)
}
