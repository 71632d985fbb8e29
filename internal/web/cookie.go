// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

// Package web provides the public HTTP surface: registration, login,
// logout, the dashboard, and the session cookie plumbing around them.
package web

import (
	"crypto/sha256"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/securecookie"
	"github.com/samber/oops"
)

// SessionCookieName is the default name of the session cookie.
const SessionCookieName = "klickon_session"

// CookieCodec signs session identifiers into tamper-evident cookie
// values. The cookie carries only the session ID; all session state
// lives server-side.
type CookieCodec struct {
	sc     *securecookie.SecureCookie
	name   string
	secure bool
}

// NewCookieCodec creates a codec keyed from the given secret. An empty
// secret gets a random per-process key: cookies then survive only until
// restart, which is acceptable for local development and nothing else.
func NewCookieCodec(secret, name string, secure bool) *CookieCodec {
	var hashKey []byte
	if secret == "" {
		hashKey = securecookie.GenerateRandomKey(32)
	} else {
		sum := sha256.Sum256([]byte(secret))
		hashKey = sum[:]
	}

	sc := securecookie.New(hashKey, nil)
	// Session lifetime is enforced server-side; the cookie itself does
	// not expire.
	sc.MaxAge(0)

	if name == "" {
		name = SessionCookieName
	}
	return &CookieCodec{sc: sc, name: name, secure: secure}
}

// Set writes the session cookie. MaxAge 0 makes it a browser-session
// cookie: it is discarded when the browser closes, and the server-side
// TTL bounds its validity regardless.
func (c *CookieCodec) Set(ctx *gin.Context, sessionID string) error {
	encoded, err := c.sc.Encode(c.name, sessionID)
	if err != nil {
		return oops.Code("COOKIE_ENCODE_FAILED").Wrap(err)
	}

	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     c.name,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Get reads and verifies the session cookie, returning the session ID.
// A missing, tampered, or malformed cookie returns the empty string:
// all three look identical to the caller, who treats the request as
// unauthenticated.
func (c *CookieCodec) Get(ctx *gin.Context) string {
	cookie, err := ctx.Cookie(c.name)
	if err != nil {
		return ""
	}

	var sessionID string
	if err := c.sc.Decode(c.name, cookie, &sessionID); err != nil {
		return ""
	}
	return sessionID
}

// Clear expires the session cookie.
func (c *CookieCodec) Clear(ctx *gin.Context) {
	http.SetCookie(ctx.Writer, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
