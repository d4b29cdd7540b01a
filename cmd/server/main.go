// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

// Package main is the entry point for the Trailkeeper server.
//
// Trailkeeper ingests batches of cloud audit records, filters the ones
// pertaining to a monitored storage resource, and merges them durably
// into per-week archives with recomputed access summaries. Delivery is
// at-least-once; merge-time deduplication makes redelivery safe.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered load from defaults, YAML file, and
//     TRAILKEEPER_* environment variables (Koanf v2)
//  2. Logging: structured zerolog output (json or console)
//  3. Archive store: BadgerDB key-value store with conditional writes
//  4. Engine: filtering, normalization, and per-week merge pipeline
//  5. HTTP API: batch ingestion and archive read endpoints (Chi)
//  6. Supervisor tree: suture-managed store maintenance and HTTP server
//
// # Configuration
//
// The only required setting is the monitored resource:
//
//	export TRAILKEEPER_RESOURCE=orders
//	./trailkeeper
//
// With bearer-token authentication:
//
//	export TRAILKEEPER_RESOURCE=orders
//	export TRAILKEEPER_AUTH_MODE=token
//	export TRAILKEEPER_JWT_SECRET=$(openssl rand -base64 32)
//	./trailkeeper
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, drains in-flight requests within the shutdown
// timeout, and closes the archive store last so every committed merge is
// durable.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/tomtom215/trailkeeper/internal/api"
	"github.com/tomtom215/trailkeeper/internal/config"
	"github.com/tomtom215/trailkeeper/internal/engine"
	"github.com/tomtom215/trailkeeper/internal/logging"
	"github.com/tomtom215/trailkeeper/internal/store"
	"github.com/tomtom215/trailkeeper/internal/supervisor"
	"github.com/tomtom215/trailkeeper/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Config errors are fatal at startup; the default logger is
		// used since logging is not configured yet.
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("resource", cfg.Archive.Resource).
		Str("store_path", cfg.Store.Path).
		Bool("store_in_memory", cfg.Store.InMemory).
		Str("auth_mode", string(cfg.Security.AuthMode)).
		Msg("Configuration loaded")

	var (
		archiveStore store.ArchiveStore
		badgerStore  *store.BadgerStore
	)
	if cfg.Store.InMemory {
		logging.Warn().Msg("In-memory store enabled, archives will not survive restarts")
		archiveStore = store.NewMemoryStore()
	} else {
		badgerStore, err = store.OpenBadger(cfg.Store.Path)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("Failed to open archive store")
		}
		archiveStore = badgerStore
	}
	defer func() {
		if err := archiveStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing archive store")
		}
	}()

	eng, err := engine.New(archiveStore, engine.Config{
		Resource:                  cfg.Archive.Resource,
		EventSource:               cfg.Archive.EventSource,
		TopN:                      cfg.Archive.TopN,
		MaxConflictRetries:        cfg.Archive.MaxConflictRetries,
		MaxConcurrentWeeks:        cfg.Archive.MaxConcurrentWeeks,
		StoreRetryInitialInterval: cfg.Archive.StoreRetryInitialInterval,
		StoreRetryMaxInterval:     cfg.Archive.StoreRetryMaxInterval,
		StoreRetryMaxAttempts:     cfg.Archive.StoreRetryMaxAttempts,
		Breaker:                   engine.DefaultBreakerConfig(),
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create archival engine")
	}

	handler := api.NewHandler(eng, archiveStore, api.HandlerConfig{
		BatchTimeout:  cfg.Archive.BatchTimeout,
		MaxBatchBytes: cfg.Server.MaxBatchBytes,
	})

	var auth *api.Authenticator
	if cfg.Security.AuthMode == config.AuthModeToken {
		auth = api.NewAuthenticator(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
		logging.Info().Msg("Bearer token authentication enabled")
	}

	mw := api.NewMiddleware(&api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		RateLimitRequests:  cfg.Server.RateLimitRequests,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
		RateLimitDisabled:  cfg.Server.RateLimitDisabled,
	})

	router := api.NewRouter(handler, mw, auth)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The slog adapter bridges zerolog to sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	if badgerStore != nil {
		tree.AddDataService(services.NewStoreGCService(badgerStore,
			cfg.Store.GCInterval, cfg.Store.GCDiscardRatio))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("Trailkeeper started")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
	}

	logging.Info().Msg("Trailkeeper stopped")
}
