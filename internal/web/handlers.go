// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/klickon/klickon-auth/internal/auth"
)

// handleIndex renders the landing page with the registration and login
// forms. Outcome notices arrive as query parameters from the redirects
// the form handlers issue.
func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"SiteKey": s.siteKey,
		"Error":   c.Query("error"),
		"Message": c.Query("message"),
	})
}

// handleRegister processes the registration form. Every outcome
// redirects back to the landing page with a notice; the page never
// reveals which internal check rejected a submission beyond what the
// user needs to correct it.
func (s *Server) handleRegister(c *gin.Context) {
	in := auth.RegisterInput{
		Username:       c.PostForm("username"),
		Email:          c.PostForm("email"),
		Password:       c.PostForm("password"),
		ChallengeToken: c.PostForm("g-recaptcha-response"),
		RemoteIP:       c.ClientIP(),
	}

	err := s.svc.Register(c.Request.Context(), in)
	switch {
	case err == nil:
		s.countRegistration("created")
		redirectNotice(c, "message", "registration successful, you can now log in")
	case auth.IsValidationError(err):
		s.countRegistration("rejected")
		var verr *auth.ValidationError
		errors.As(err, &verr)
		redirectNotice(c, "error", verr.Message)
	case errors.Is(err, auth.ErrBotVerificationFailed):
		s.countRegistration("bot")
		redirectNotice(c, "error", "captcha verification failed, please try again")
	case errors.Is(err, auth.ErrDuplicateEmail):
		s.countRegistration("rejected")
		redirectNotice(c, "error", "that email is already registered")
	default:
		s.countRegistration("error")
		slog.Error("registration failed", "error", err)
		redirectNotice(c, "error", "registration failed, please try again later")
	}
}

// handleLogin processes the login form. Missing fields get a specific
// notice; unknown email and wrong password produce one identical
// notice. A successful login destroys any session the browser
// presented before issuing the new one.
func (s *Server) handleLogin(c *gin.Context) {
	in := auth.LoginInput{
		Email:          c.PostForm("email"),
		Password:       c.PostForm("password"),
		PriorSessionID: s.cookies.Get(c),
	}

	session, err := s.svc.Login(c.Request.Context(), in)
	switch {
	case err == nil:
		if err := s.cookies.Set(c, session.ID); err != nil {
			s.countLogin("error")
			slog.Error("session cookie write failed", "error", err)
			redirectNotice(c, "error", "login failed, please try again later")
			return
		}
		s.countLogin("success")
		c.Redirect(http.StatusSeeOther, "/dashboard")
	case auth.IsValidationError(err):
		s.countLogin("failure")
		var verr *auth.ValidationError
		errors.As(err, &verr)
		redirectNotice(c, "error", verr.Message)
	case errors.Is(err, auth.ErrInvalidCredentials):
		s.countLogin("failure")
		redirectNotice(c, "error", "invalid email or password")
	default:
		s.countLogin("error")
		slog.Error("login failed", "error", err)
		redirectNotice(c, "error", "login failed, please try again later")
	}
}

// handleDashboard renders the authenticated landing page.
func (s *Server) handleDashboard(c *gin.Context) {
	session := c.MustGet(sessionContextKey).(*auth.Session)
	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"Username": session.Username,
		"Email":    session.Email,
	})
}

// handleLogout destroys the presented session and clears the cookie.
// Logging out without a session is fine: the redirect is identical.
func (s *Server) handleLogout(c *gin.Context) {
	sessionID := s.cookies.Get(c)
	if err := s.svc.Logout(c.Request.Context(), sessionID); err != nil {
		// The cookie is cleared regardless; an orphaned server-side
		// record expires on its own TTL.
		slog.Error("logout failed", "error", err)
	}
	s.cookies.Clear(c)
	c.Redirect(http.StatusSeeOther, "/")
}

// handleHealth reports basic process health on the public surface.
// Deeper probes live on the observability listener.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// redirectNotice sends the browser back to the landing page carrying a
// notice in the named query parameter.
func redirectNotice(c *gin.Context, param, text string) {
	c.Redirect(http.StatusSeeOther, "/?"+param+"="+url.QueryEscape(text))
}

func (s *Server) countRegistration(result string) {
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.WithLabelValues(result).Inc()
	}
}

func (s *Server) countLogin(result string) {
	if s.metrics != nil {
		s.metrics.LoginsTotal.WithLabelValues(result).Inc()
	}
}
