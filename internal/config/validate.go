// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package config

import (
	"fmt"
	"strings"
)

// ConfigurationError reports an invalid or missing configuration value.
// It always refers to startup-time state, never to a processed batch.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func configErr(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks the configuration for values the engine cannot run
// with. The first problem found is returned.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Archive.Resource) == "" {
		return configErr("archive.resource", "monitored resource name is required")
	}
	if c.Archive.TopN <= 0 {
		return configErr("archive.top_n", "must be positive")
	}
	if c.Archive.MaxConflictRetries < 0 {
		return configErr("archive.max_conflict_retries", "must not be negative")
	}
	if c.Archive.MaxConcurrentWeeks <= 0 {
		return configErr("archive.max_concurrent_weeks", "must be positive")
	}
	if c.Archive.BatchTimeout <= 0 {
		return configErr("archive.batch_timeout", "must be positive")
	}

	if !c.Store.InMemory && strings.TrimSpace(c.Store.Path) == "" {
		return configErr("store.path", "required unless store.in_memory is set")
	}
	if c.Store.GCDiscardRatio <= 0 || c.Store.GCDiscardRatio > 1 {
		return configErr("store.gc_discard_ratio", "must be in (0, 1]")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return configErr("server.port", "must be between 1 and 65535")
	}
	if c.Server.MaxBatchBytes <= 0 {
		return configErr("server.max_batch_bytes", "must be positive")
	}
	if !c.Server.RateLimitDisabled {
		if c.Server.RateLimitRequests <= 0 {
			return configErr("server.rate_limit_requests", "must be positive")
		}
		if c.Server.RateLimitWindow <= 0 {
			return configErr("server.rate_limit_window", "must be positive")
		}
	}

	switch c.Security.AuthMode {
	case AuthModeNone:
	case AuthModeToken:
		if len(c.Security.JWTSecret) < 32 {
			return configErr("security.jwt_secret", "must be at least 32 bytes in token mode")
		}
		if c.Security.TokenTTL <= 0 {
			return configErr("security.token_ttl", "must be positive")
		}
	default:
		return configErr("security.auth_mode", fmt.Sprintf("unknown mode %q", c.Security.AuthMode))
	}

	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return configErr("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return configErr("logging.format", fmt.Sprintf("unknown format %q", c.Logging.Format))
	}

	return nil
}
