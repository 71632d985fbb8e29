// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klickon/klickon-auth/pkg/errutil"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Server.Mode)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "klickon_session", cfg.Session.CookieName)
	assert.Equal(t, []string{"200/day", "50/hour"}, cfg.RateLimit.Default)
	assert.Equal(t, "5/minute", cfg.RateLimit.Register)
	assert.Equal(t, "10/minute", cfg.RateLimit.Login)
	assert.False(t, cfg.RateLimit.FailClosed)

	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFileNoFlags(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9999"
session:
  ttl: 1h
  cookie_name: custom_session
ratelimit:
  register: 2/minute
`), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, "custom_session", cfg.Session.CookieName)
	assert.Equal(t, "2/minute", cfg.RateLimit.Register)

	// Untouched keys keep their defaults.
	assert.Equal(t, "10/minute", cfg.RateLimit.Login)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml", nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CONFIG_FILE_INVALID")
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9999\"\n"), 0o600))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("addr", ":8080", "")
	flags.String("log-format", "json", "")
	require.NoError(t, flags.Parse([]string{"--addr", ":7777", "--log-format", "text"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Addr, "explicit flag beats the file")
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_EnvironmentSecrets(t *testing.T) {
	t.Setenv("SESSION_SECRET", "shh")
	t.Setenv("DATABASE_URL", "postgres://localhost/klickon")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("RECAPTCHA_SITE_KEY", "site")
	t.Setenv("RECAPTCHA_SECRET_KEY", "secret")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "shh", cfg.SessionSecret)
	assert.Equal(t, "postgres://localhost/klickon", cfg.DatabaseURL)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.Equal(t, "site", cfg.Captcha.SiteKey)
	assert.Equal(t, "secret", cfg.Captcha.Secret)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad mode", func(c *Config) { c.Server.Mode = "production" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"non-positive ttl", func(c *Config) { c.Session.TTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
		})
	}
}

func TestValidate_ReleaseMode(t *testing.T) {
	release := func() Config {
		cfg := Default()
		cfg.Server.Mode = "release"
		cfg.SessionSecret = "shh"
		cfg.DatabaseURL = "postgres://localhost/klickon"
		cfg.RedisURL = "redis://localhost:6379/0"
		cfg.Session.SecureCookies = true
		cfg.Captcha.Secret = "secret"
		return cfg
	}

	releaseCfg := release()
	require.NoError(t, releaseCfg.Validate(), "fully configured release mode passes")

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing session secret", func(c *Config) { c.SessionSecret = "" }},
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }},
		{"missing redis url", func(c *Config) { c.RedisURL = "" }},
		{"insecure cookies", func(c *Config) { c.Session.SecureCookies = false }},
		{"missing captcha secret", func(c *Config) { c.Captcha.Secret = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := release()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}

	t.Run("insecure captcha opt-out", func(t *testing.T) {
		cfg := release()
		cfg.Captcha.Secret = ""
		cfg.Captcha.AllowInsecure = true
		require.NoError(t, cfg.Validate())
	})
}
