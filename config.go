package authgate

import (
	"bytes"
	"errors"
	"net/http"
	"time"
)

// Config defines the engine configuration. Config instances are intended to be
// populated during initialization and then treated as immutable.
type Config struct {
	Token   TokenConfig
	Session SessionConfig
	Gate    GateConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig carries the signing secrets and lifetimes for both token
// purposes. Secrets are injected at construction and are never logged or
// embedded in tokens.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the credential store integration.
type SessionConfig struct {
	RedisPrefix string
	// StoreTimeout bounds the whole authentication decision including store
	// round-trips. Zero means the caller's context deadline alone applies.
	StoreTimeout time.Duration
}

/*
====================================
GATE CONFIG
====================================
*/

// GateConfig is consumed by the HTTP middleware: credential sources, rotation
// delivery, the public-path allowlist, and the per-IP request rate limit.
type GateConfig struct {
	PublicPrefixes    []string
	RefreshHeader     string
	AccessCookieName  string
	RefreshCookieName string
	SecureCookies     bool
	SameSitePolicy    http.SameSite

	// RateLimitEnabled turns on the per-IP fixed-window request limiter.
	// Unlike the gate itself it covers public paths too.
	RateLimitEnabled bool
	RateLimitWindow  time.Duration
	RateLimitMax     int
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration. Signing secrets must still
// be supplied by the caller; Validate rejects a config without them.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Session: SessionConfig{
			RedisPrefix:  "ag",
			StoreTimeout: 2 * time.Second,
		},
		Gate: GateConfig{
			PublicPrefixes:    []string{"/auth"},
			RefreshHeader:     "x-refresh-token",
			AccessCookieName:  "accessToken",
			RefreshCookieName: "refreshToken",
			SecureCookies:     true,
			SameSitePolicy:    http.SameSiteStrictMode,
			RateLimitEnabled:  false,
			RateLimitWindow:   time.Second,
			RateLimitMax:      10,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// Validate checks the configuration invariants that the engine depends on.
func (c Config) Validate() error {
	if len(c.Token.AccessSecret) == 0 {
		return errors.New("access token secret required")
	}
	if len(c.Token.RefreshSecret) == 0 {
		return errors.New("refresh token secret required")
	}
	// Key separation: a token signed for one purpose must never verify under
	// the other purpose's secret.
	if bytes.Equal(c.Token.AccessSecret, c.Token.RefreshSecret) {
		return errors.New("access and refresh secrets must differ")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("invalid access TTL configuration")
	}
	if c.Token.RefreshTTL <= c.Token.AccessTTL {
		return errors.New("refresh TTL must exceed access TTL")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("invalid leeway configuration")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("redis prefix required")
	}
	if c.Session.StoreTimeout < 0 {
		return errors.New("invalid store timeout configuration")
	}
	if c.Gate.RateLimitEnabled {
		if c.Gate.RateLimitWindow <= 0 {
			return errors.New("invalid rate limit window configuration")
		}
		if c.Gate.RateLimitMax <= 0 {
			return errors.New("invalid rate limit max configuration")
		}
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg

	out.Token.AccessSecret = append([]byte(nil), cfg.Token.AccessSecret...)
	out.Token.RefreshSecret = append([]byte(nil), cfg.Token.RefreshSecret...)
	out.Gate.PublicPrefixes = append([]string(nil), cfg.Gate.PublicPrefixes...)

	return out
}
