// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

// Package config loads and validates the Trailkeeper configuration from
// layered sources: built-in defaults, an optional YAML file, and
// environment variables, in ascending precedence.
package config

import (
	"time"

	"github.com/tomtom215/trailkeeper/internal/archive"
)

// Config is the complete Trailkeeper configuration.
type Config struct {
	Archive  ArchiveConfig  `koanf:"archive"`
	Store    StoreConfig    `koanf:"store"`
	Server   ServerConfig   `koanf:"server"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ArchiveConfig tunes the archival engine.
type ArchiveConfig struct {
	// Resource is the monitored storage resource name. Required; there
	// is no sensible default.
	Resource string `koanf:"resource"`

	// EventSource is the audit event source accepted by the relevance
	// filter.
	EventSource string `koanf:"event_source"`

	// TopN is the length of the top-actor and top-source-IP lists in
	// weekly summaries.
	TopN int `koanf:"top_n"`

	// MaxConflictRetries bounds optimistic-concurrency retries per week
	// merge.
	MaxConflictRetries int `koanf:"max_conflict_retries"`

	// MaxConcurrentWeeks bounds parallel week merges within one batch.
	MaxConcurrentWeeks int `koanf:"max_concurrent_weeks"`

	// BatchTimeout is the processing deadline for one ingested batch.
	BatchTimeout time.Duration `koanf:"batch_timeout"`

	// StoreRetryInitialInterval is the first backoff delay after a
	// transient store failure.
	StoreRetryInitialInterval time.Duration `koanf:"store_retry_initial_interval"`

	// StoreRetryMaxInterval caps the backoff delay.
	StoreRetryMaxInterval time.Duration `koanf:"store_retry_max_interval"`

	// StoreRetryMaxAttempts bounds transient-failure retries per store
	// operation.
	StoreRetryMaxAttempts uint64 `koanf:"store_retry_max_attempts"`
}

// StoreConfig tunes the durable archive store.
type StoreConfig struct {
	// Path is the on-disk directory for the key-value store. Ignored
	// when InMemory is set.
	Path string `koanf:"path"`

	// InMemory runs the store without durability. Intended for local
	// development only.
	InMemory bool `koanf:"in_memory"`

	// GCInterval is how often value-log garbage collection runs.
	GCInterval time.Duration `koanf:"gc_interval"`

	// GCDiscardRatio is the value-log rewrite threshold, in (0, 1].
	GCDiscardRatio float64 `koanf:"gc_discard_ratio"`
}

// ServerConfig tunes the HTTP API server.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// MaxBatchBytes caps the request body size of one ingested batch.
	MaxBatchBytes int64 `koanf:"max_batch_bytes"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests requests per RateLimitWindow per client IP.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// AuthMode selects how API requests are authenticated.
type AuthMode string

const (
	// AuthModeNone disables authentication. Suitable behind a trusted
	// reverse proxy only.
	AuthModeNone AuthMode = "none"

	// AuthModeToken requires a signed bearer token on every API
	// request.
	AuthModeToken AuthMode = "token"
)

// SecurityConfig tunes API authentication.
type SecurityConfig struct {
	AuthMode AuthMode `koanf:"auth_mode"`

	// JWTSecret signs and verifies bearer tokens. Required when
	// AuthMode is "token".
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTL is the validity window for issued tokens.
	TokenTTL time.Duration `koanf:"token_ttl"`
}

// LoggingConfig tunes structured log output.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is "json" or "console".
	Format string `koanf:"format"`

	// Caller adds file:line of the log call site.
	Caller bool `koanf:"caller"`
}

// defaultConfig returns the built-in defaults. These are applied first and
// then overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Archive: ArchiveConfig{
			Resource:                  "",
			EventSource:               archive.DefaultEventSource,
			TopN:                      archive.DefaultTopN,
			MaxConflictRetries:        5,
			MaxConcurrentWeeks:        4,
			BatchTimeout:              60 * time.Second,
			StoreRetryInitialInterval: 100 * time.Millisecond,
			StoreRetryMaxInterval:     5 * time.Second,
			StoreRetryMaxAttempts:     4,
		},
		Store: StoreConfig{
			Path:           "/data/trailkeeper",
			InMemory:       false,
			GCInterval:     10 * time.Minute,
			GCDiscardRatio: 0.5,
		},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8480,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			MaxBatchBytes:     32 << 20, // 32MB of raw audit records
			CORSOrigins:       nil,
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Security: SecurityConfig{
			AuthMode: AuthModeNone,
			TokenTTL: 12 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
