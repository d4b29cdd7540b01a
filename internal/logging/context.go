// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	// batchIDKey carries the id of the audit batch being processed.
	batchIDKey contextKey = "batch_id"

	// requestIDKey carries the HTTP request id.
	requestIDKey contextKey = "request_id"
)

// NewBatchID creates a unique batch identifier.
func NewBatchID() string {
	return uuid.New().String()
}

// NewRequestID creates a unique HTTP request identifier.
func NewRequestID() string {
	return uuid.New().String()
}

// ContextWithBatchID returns a context carrying the given batch id.
func ContextWithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchIDKey, id)
}

// BatchIDFromContext returns the batch id, or "" when absent.
func BatchIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(batchIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRequestID returns a context carrying the given request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id, or "" when absent.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns a logger with batch_id and request_id fields populated from
// the context. This is the recommended way to log inside handlers and the
// merge engine.
//
//	logging.Ctx(ctx).Info().Msg("batch merged")
func Ctx(ctx context.Context) *zerolog.Logger {
	logger := Logger()

	lctx := logger.With()
	if id := BatchIDFromContext(ctx); id != "" {
		lctx = lctx.Str(string(batchIDKey), id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		lctx = lctx.Str(string(requestIDKey), id)
	}

	l := lctx.Logger()
	return &l
}
