// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/klickon/klickon-auth/internal/auth"
	authpg "github.com/klickon/klickon-auth/internal/auth/postgres"
	authredis "github.com/klickon/klickon-auth/internal/auth/redis"
	"github.com/klickon/klickon-auth/internal/captcha"
	"github.com/klickon/klickon-auth/internal/config"
	"github.com/klickon/klickon-auth/internal/logging"
	"github.com/klickon/klickon-auth/internal/observability"
	"github.com/klickon/klickon-auth/internal/ratelimit"
	"github.com/klickon/klickon-auth/internal/store"
	"github.com/klickon/klickon-auth/internal/web"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication service",
		Long: `Start the HTTP server: the public registration/login surface on
--addr and, unless disabled, the metrics and health endpoints on
--metrics-addr.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8080", "public listen address")
	cmd.Flags().String("mode", "debug", "server mode: debug, release, or test")
	cmd.Flags().String("metrics-addr", "127.0.0.1:9100", "metrics listen address (empty to disable)")
	cmd.Flags().String("log-format", "json", "log format: json or text")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err //nolint:wrapcheck // config errors carry their own context
	}

	logging.SetDefault("klickon-auth", version, cfg.Log.Format)
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.RedisURL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("REDIS_URL environment variable is required")
	}

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err //nolint:wrapcheck // store errors carry their own context
	}
	defer pool.Close()

	if err := migrateUp(cfg.DatabaseURL); err != nil {
		return err
	}

	redisOpts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "parse redis url").Wrap(err)
	}
	redisClient := goredis.NewClient(redisOpts)
	defer redisClient.Close() //nolint:errcheck // shutdown path
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return oops.Code("REDIS_UNREACHABLE").With("operation", "ping redis").Wrap(err)
	}

	svc, err := buildService(cfg, pool, redisClient)
	if err != nil {
		return err
	}

	defaultRules, err := ratelimit.ParseRules(cfg.RateLimit.Default)
	if err != nil {
		return err //nolint:wrapcheck // rule errors carry their own context
	}
	registerRule, err := ratelimit.ParseRule(cfg.RateLimit.Register)
	if err != nil {
		return err //nolint:wrapcheck // rule errors carry their own context
	}
	loginRule, err := ratelimit.ParseRule(cfg.RateLimit.Login)
	if err != nil {
		return err //nolint:wrapcheck // rule errors carry their own context
	}

	if cfg.SessionSecret == "" {
		slog.Warn("SESSION_SECRET not set, session cookies will not survive restarts")
	}
	cookies := web.NewCookieCodec(cfg.SessionSecret, cfg.Session.CookieName, cfg.Session.SecureCookies)

	var metrics *observability.Metrics
	var obs *observability.Server
	var obsErrCh <-chan error
	if cfg.Metrics.Addr != "" {
		obs = observability.NewServer(cfg.Metrics.Addr, func() bool {
			probeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Ping(probeCtx) == nil && redisClient.Ping(probeCtx).Err() == nil
		})
		obsErrCh, err = obs.Start()
		if err != nil {
			return err //nolint:wrapcheck // observability errors carry their own context
		}
		metrics = obs.Metrics()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := obs.Stop(stopCtx); err != nil {
				slog.Error("observability server stop failed", "error", err)
			}
		}()
	}

	limiter := ratelimit.NewLimiter(redisClient, cfg.RateLimit.FailClosed)
	server := web.NewServer(svc, limiter, cookies, metrics, web.Config{
		CaptchaSiteKey: cfg.Captcha.SiteKey,
		DefaultRules:   defaultRules,
		RegisterRule:   registerRule,
		LoginRule:      loginRule,
	})

	engine := server.Router()
	if err := engine.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return oops.Code("CONFIG_INVALID").With("operation", "set trusted proxies").Wrap(err)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		slog.Info("http server started", "addr", cfg.Server.Addr, "mode", cfg.Server.Mode)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-serveErrCh:
		return oops.Code("SERVER_FAILED").With("operation", "serve http").Wrap(err)
	case err, ok := <-obsErrCh:
		if ok {
			return oops.Code("SERVER_FAILED").With("operation", "serve observability").Wrap(err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").With("operation", "shutdown http server").Wrap(err)
	}

	slog.Info("http server stopped")
	return nil
}

// migrateUp applies pending migrations at startup so a fresh deployment
// is usable without a separate migrate invocation.
func migrateUp(databaseURL string) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err //nolint:wrapcheck // migrator errors carry their own context
	}
	defer migrator.Close() //nolint:errcheck // close error is uninteresting after Up

	if err := migrator.Up(); err != nil {
		return err //nolint:wrapcheck // migrator errors carry their own context
	}
	return nil
}

// buildService assembles the auth service from its storage and
// verification dependencies.
func buildService(cfg *config.Config, pool authpg.Pool, redisClient goredis.UniversalClient) (*auth.Service, error) {
	hasher := auth.NewBcryptHasher(cfg.Hash.Cost, cfg.Hash.MaxConcurrent)
	users := authpg.NewUserRepository(pool)
	sessions := authredis.NewSessionRepository(redisClient)

	var bots auth.BotVerifier
	if cfg.Captcha.AllowInsecure {
		slog.Warn("bot verification disabled, accepting all registrations")
		bots = captcha.Static(true)
	} else {
		bots = captcha.NewRecaptcha(cfg.Captcha.Secret)
	}

	svc, err := auth.NewService(users, sessions, hasher, bots, cfg.Session.TTL)
	if err != nil {
		return nil, err //nolint:wrapcheck // service errors carry their own context
	}
	return svc, nil
}
