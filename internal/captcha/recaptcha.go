// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

// Package captcha implements the bot-verification oracle consulted
// during registration.
package captcha

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"
)

// DefaultEndpoint is the reCAPTCHA server-side verification URL.
const DefaultEndpoint = "https://www.google.com/recaptcha/api/siteverify"

// defaultTimeout bounds the verification round-trip. Callers fail closed
// on timeout, so a slow verifier rejects registrations rather than
// hanging them.
const defaultTimeout = 10 * time.Second

// Recaptcha verifies bot-challenge tokens against the reCAPTCHA API.
type Recaptcha struct {
	secret   string
	endpoint string
	client   *http.Client
}

// Option configures a Recaptcha verifier.
type Option func(*Recaptcha)

// WithEndpoint overrides the verification URL. Used in tests.
func WithEndpoint(endpoint string) Option {
	return func(r *Recaptcha) { r.endpoint = endpoint }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Recaptcha) { r.client = client }
}

// NewRecaptcha creates a verifier with the given shared secret. An empty
// secret is accepted but verifies nothing: every token is rejected, so a
// misconfigured deployment refuses registrations instead of admitting bots.
func NewRecaptcha(secret string, opts ...Option) *Recaptcha {
	r := &Recaptcha{
		secret:   secret,
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// verifyResponse is the subset of the siteverify reply we consume.
type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks the challenge token with the remote API. Network and
// decode failures return an error; callers treat any error as a failed
// verification.
func (r *Recaptcha) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	if r.secret == "" {
		return false, nil
	}

	form := url.Values{}
	form.Set("secret", r.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return false, oops.Code("CAPTCHA_REQUEST_FAILED").
			With("operation", "build verify request").
			Wrap(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return false, oops.Code("CAPTCHA_REQUEST_FAILED").
			With("operation", "post verify request").
			Wrap(err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		return false, oops.Code("CAPTCHA_REQUEST_FAILED").
			With("status", resp.StatusCode).
			Errorf("verification endpoint returned %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, oops.Code("CAPTCHA_RESPONSE_INVALID").
			With("operation", "decode verify response").
			Wrap(err)
	}
	return body.Success, nil
}

// Static is a fixed-answer verifier for tests and explicitly insecure
// local development.
type Static bool

// Verify returns the fixed answer.
func (s Static) Verify(_ context.Context, _, _ string) (bool, error) {
	return bool(s), nil
}
