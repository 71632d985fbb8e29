// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package web

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/klickon/klickon-auth/internal/auth"
	"github.com/klickon/klickon-auth/internal/observability"
	"github.com/klickon/klickon-auth/internal/ratelimit"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Config carries the web surface's settings.
type Config struct {
	// CaptchaSiteKey is rendered into the registration form so the
	// browser can request a challenge token.
	CaptchaSiteKey string
	// DefaultRules apply to every route.
	DefaultRules []ratelimit.Rule
	// RegisterRule and LoginRule are the per-route budgets layered on
	// top of DefaultRules.
	RegisterRule ratelimit.Rule
	LoginRule    ratelimit.Rule
}

// Server is the public HTTP surface.
type Server struct {
	svc     *auth.Service
	limiter *ratelimit.Limiter
	cookies *CookieCodec
	metrics *observability.Metrics

	siteKey      string
	defaultRules []ratelimit.Rule
	registerRule ratelimit.Rule
	loginRule    ratelimit.Rule
}

// NewServer creates the web server. metrics may be nil when the
// observability listener is disabled.
func NewServer(svc *auth.Service, limiter *ratelimit.Limiter, cookies *CookieCodec, metrics *observability.Metrics, cfg Config) *Server {
	return &Server{
		svc:          svc,
		limiter:      limiter,
		cookies:      cookies,
		metrics:      metrics,
		siteKey:      cfg.CaptchaSiteKey,
		defaultRules: cfg.DefaultRules,
		registerRule: cfg.RegisterRule,
		loginRule:    cfg.LoginRule,
	}
}

// Router builds the gin engine with all routes attached.
func (s *Server) Router() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	// The default budgets cover every route; register and login layer
	// their own tighter budgets on top.
	engine.Use(s.rateLimit("default", s.defaultRules...))

	tmpl := template.Must(template.ParseFS(templatesFS, "templates/*.html"))
	engine.SetHTMLTemplate(tmpl)

	engine.GET("/", s.handleIndex)
	engine.POST("/register", s.rateLimit("register", s.registerRule), s.handleRegister)
	engine.POST("/login", s.rateLimit("login", s.loginRule), s.handleLogin)
	engine.GET("/dashboard", s.requireSession(), s.handleDashboard)
	engine.GET("/logout", s.handleLogout)
	engine.POST("/logout", s.handleLogout)
	engine.GET("/health", s.handleHealth)

	return engine
}
