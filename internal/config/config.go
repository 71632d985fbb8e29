// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Klickon Contributors

// Package config loads service configuration from defaults, an optional
// YAML file, command-line flags, and environment variables. Secrets only
// ever come from the environment.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds the full service configuration.
type Config struct {
	Server    Server    `koanf:"server"`
	Metrics   Metrics   `koanf:"metrics"`
	Log       Log       `koanf:"log"`
	Session   Session   `koanf:"session"`
	RateLimit RateLimit `koanf:"ratelimit"`
	Captcha   Captcha   `koanf:"captcha"`
	Hash      Hash      `koanf:"hash"`

	// Secrets, read from the environment only.
	SessionSecret string `koanf:"-"`
	DatabaseURL   string `koanf:"-"`
	RedisURL      string `koanf:"-"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr string `koanf:"addr"`
	// Mode is the gin mode: debug, release, or test.
	Mode string `koanf:"mode"`
	// TrustedProxies lists proxies whose forwarding headers are honored
	// when deriving the client identity. Empty means trust none: the
	// TCP source address is the identity.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

// Metrics configures the observability listener.
type Metrics struct {
	// Addr is the metrics/health listen address; empty disables it.
	Addr string `koanf:"addr"`
}

// Log configures logging output.
type Log struct {
	Format string `koanf:"format"` // json or text
}

// Session configures session lifetime and the session cookie.
type Session struct {
	TTL        time.Duration `koanf:"ttl"`
	CookieName string        `koanf:"cookie_name"`
	// SecureCookies marks the session cookie HTTPS-only. Default false
	// suits local non-TLS runs only; production MUST set true, which
	// Validate enforces in release mode.
	SecureCookies bool `koanf:"secure_cookies"`
}

// RateLimit configures request throttling.
type RateLimit struct {
	// FailClosed rejects requests when the counter store is down
	// instead of the default fail-open behavior.
	FailClosed bool     `koanf:"fail_closed"`
	Default    []string `koanf:"default"`
	Register   string   `koanf:"register"`
	Login      string   `koanf:"login"`
}

// Captcha configures the bot-verification oracle.
type Captcha struct {
	SiteKey string `koanf:"-"` // RECAPTCHA_SITE_KEY
	Secret  string `koanf:"-"` // RECAPTCHA_SECRET_KEY
	// AllowInsecure skips verification entirely. Local development only.
	AllowInsecure bool `koanf:"allow_insecure"`
}

// Hash configures the password hasher.
type Hash struct {
	// Cost is the bcrypt work factor; 0 selects the library default.
	Cost int `koanf:"cost"`
	// MaxConcurrent bounds simultaneous hash computations.
	MaxConcurrent int `koanf:"max_concurrent"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: Server{
			Addr: ":8080",
			Mode: "debug",
		},
		Metrics: Metrics{
			Addr: "127.0.0.1:9100",
		},
		Log: Log{
			Format: "json",
		},
		Session: Session{
			TTL:        24 * time.Hour,
			CookieName: "klickon_session",
		},
		RateLimit: RateLimit{
			Default:  []string{"200/day", "50/hour"},
			Register: "5/minute",
			Login:    "10/minute",
		},
		Hash: Hash{
			MaxConcurrent: 8,
		},
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"addr":         "server.addr",
	"mode":         "server.mode",
	"metrics-addr": "metrics.addr",
	"log-format":   "log.format",
}

// Load builds the configuration: defaults, then the YAML file at path
// (if non-empty), then explicitly set flags, then environment secrets.
// A .env file in the working directory is honored if present.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env is optional

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_FILE_INVALID").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			if mapped, ok := flagKeys[key]; ok {
				return mapped, value
			}
			return "", nil
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_FLAGS_INVALID").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	cfg.SessionSecret = os.Getenv("SESSION_SECRET")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.Captcha.SiteKey = os.Getenv("RECAPTCHA_SITE_KEY")
	cfg.Captcha.Secret = os.Getenv("RECAPTCHA_SECRET_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration. Release mode is strict: secrets
// must be present and the session cookie must be HTTPS-only.
func (c *Config) Validate() error {
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return oops.Code("CONFIG_INVALID").
			With("mode", c.Server.Mode).
			Errorf("server.mode must be debug, release, or test")
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("format", c.Log.Format).
			Errorf("log.format must be json or text")
	}

	if c.Session.TTL <= 0 {
		return oops.Code("CONFIG_INVALID").Errorf("session.ttl must be positive")
	}

	if c.Server.Mode == "release" {
		if c.SessionSecret == "" {
			return oops.Code("CONFIG_INVALID").Errorf("SESSION_SECRET is required in release mode")
		}
		if c.DatabaseURL == "" {
			return oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL is required in release mode")
		}
		if c.RedisURL == "" {
			return oops.Code("CONFIG_INVALID").Errorf("REDIS_URL is required in release mode")
		}
		if !c.Session.SecureCookies {
			return oops.Code("CONFIG_INVALID").Errorf("session.secure_cookies must be true in release mode")
		}
		if c.Captcha.Secret == "" && !c.Captcha.AllowInsecure {
			return oops.Code("CONFIG_INVALID").Errorf("RECAPTCHA_SECRET_KEY is required in release mode")
		}
	}

	return nil
}
