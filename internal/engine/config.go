// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package engine

import (
	"time"

	"github.com/tomtom215/trailkeeper/internal/archive"
)

// Config holds engine tuning parameters.
type Config struct {
	// Resource is the monitored storage resource name. Required.
	Resource string

	// EventSource overrides the audit event source accepted by the
	// relevance filter. Empty means archive.DefaultEventSource.
	EventSource string

	// TopN is the length of top-actor and top-source-IP summary lists.
	TopN int

	// MaxConflictRetries bounds version-conflict retries per week.
	// Conflicts only occur under real concurrent writers to the same
	// week, so a small ceiling suffices.
	MaxConflictRetries int

	// MaxConcurrentWeeks bounds how many week merges of one batch run
	// in parallel.
	MaxConcurrentWeeks int

	// StoreRetryInitialInterval is the first backoff delay for
	// transient store failures.
	StoreRetryInitialInterval time.Duration

	// StoreRetryMaxInterval caps the backoff delay.
	StoreRetryMaxInterval time.Duration

	// StoreRetryMaxAttempts bounds transient-failure retries per store
	// operation.
	StoreRetryMaxAttempts uint64

	// Breaker configures the circuit breaker around store operations.
	Breaker BreakerConfig
}

// DefaultConfig returns production defaults for the given monitored
// resource.
func DefaultConfig(resource string) Config {
	return Config{
		Resource:                  resource,
		TopN:                      archive.DefaultTopN,
		MaxConflictRetries:        5,
		MaxConcurrentWeeks:        4,
		StoreRetryInitialInterval: 100 * time.Millisecond,
		StoreRetryMaxInterval:     5 * time.Second,
		StoreRetryMaxAttempts:     4,
		Breaker:                   DefaultBreakerConfig(),
	}
}

// withDefaults fills zero values so a partially populated Config behaves
// sanely.
func (c Config) withDefaults() Config {
	def := DefaultConfig(c.Resource)
	if c.TopN <= 0 {
		c.TopN = def.TopN
	}
	if c.MaxConflictRetries <= 0 {
		c.MaxConflictRetries = def.MaxConflictRetries
	}
	if c.MaxConcurrentWeeks <= 0 {
		c.MaxConcurrentWeeks = def.MaxConcurrentWeeks
	}
	if c.StoreRetryInitialInterval <= 0 {
		c.StoreRetryInitialInterval = def.StoreRetryInitialInterval
	}
	if c.StoreRetryMaxInterval <= 0 {
		c.StoreRetryMaxInterval = def.StoreRetryMaxInterval
	}
	if c.StoreRetryMaxAttempts == 0 {
		c.StoreRetryMaxAttempts = def.StoreRetryMaxAttempts
	}
	if c.Breaker.Name == "" {
		c.Breaker = DefaultBreakerConfig()
	}
	return c
}
