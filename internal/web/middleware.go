// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package web

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/klickon/klickon-auth/internal/ratelimit"
)

// sessionContextKey is the gin context key holding the authenticated
// session set by requireSession.
const sessionContextKey = "web.session"

// rateLimit builds a middleware enforcing the given rules against the
// client identity. A denied request gets 429 with a Retry-After header
// and never reaches the handler.
func (s *Server) rateLimit(route string, rules ...ratelimit.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := s.limiter.Allow(c.Request.Context(), c.ClientIP(), rules...)
		if err != nil {
			// Fail-closed mode: the limiter denied because its store is
			// down. Surface as throttling, not an internal error.
			slog.Warn("rate limit check failed",
				"route", route,
				"client", c.ClientIP(),
				"error", err,
			)
		}
		if !result.Allowed {
			if s.metrics != nil {
				s.metrics.RateLimitedTotal.WithLabelValues(route).Inc()
			}
			retryAfter := int(math.Ceil(result.RetryAfter.Seconds()))
			if retryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(retryAfter))
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded: " + result.Rule.Name,
			})
			return
		}
		c.Next()
	}
}

// requireSession authenticates the session cookie and stores the
// session in the request context. Requests without a valid session get
// a 403 forbidden page.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := s.cookies.Get(c)
		session, err := s.svc.Authenticate(c.Request.Context(), sessionID)
		if err != nil {
			// Invalid cookie contents are useless to the client; drop
			// them so the browser stops presenting them.
			if sessionID != "" {
				s.cookies.Clear(c)
			}
			c.HTML(http.StatusForbidden, "forbidden.html", gin.H{})
			c.Abort()
			return
		}
		c.Set(sessionContextKey, session)
		c.Next()
	}
}
