// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package ratelimit

import (
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"
)

// Rule describes one request budget: at most Limit requests per Window
// for a given identity.
type Rule struct {
	Name   string
	Limit  int
	Window time.Duration
}

// windows maps rule-string units to their durations.
var windows = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// ParseRule parses a rule string of the form "<limit>/<unit>", e.g.
// "5/minute", "50/hour", "200/day". The parsed string doubles as the
// rule's name.
func ParseRule(s string) (Rule, error) {
	limitStr, unit, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		return Rule{}, oops.Code("RATELIMIT_RULE_INVALID").
			With("rule", s).
			Errorf("rule must have the form <limit>/<unit>")
	}

	limit, err := strconv.Atoi(strings.TrimSpace(limitStr))
	if err != nil || limit <= 0 {
		return Rule{}, oops.Code("RATELIMIT_RULE_INVALID").
			With("rule", s).
			Errorf("rule limit must be a positive integer")
	}

	window, ok := windows[strings.ToLower(strings.TrimSpace(unit))]
	if !ok {
		return Rule{}, oops.Code("RATELIMIT_RULE_INVALID").
			With("rule", s).
			Errorf("rule unit must be one of second, minute, hour, day")
	}

	return Rule{
		Name:   strconv.Itoa(limit) + "/" + strings.ToLower(strings.TrimSpace(unit)),
		Limit:  limit,
		Window: window,
	}, nil
}

// ParseRules parses a list of rule strings, failing on the first invalid
// entry.
func ParseRules(specs []string) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, s := range specs {
		rule, err := ParseRule(s)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// MustParseRule is ParseRule for static rule literals; it panics on
// malformed input.
func MustParseRule(s string) Rule {
	rule, err := ParseRule(s)
	if err != nil {
		panic(err)
	}
	return rule
}
