// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/trailkeeper/internal/archive"
	"github.com/tomtom215/trailkeeper/internal/engine"
	"github.com/tomtom215/trailkeeper/internal/logging"
	"github.com/tomtom215/trailkeeper/internal/store"
)

// Handler serves the Trailkeeper API endpoints.
type Handler struct {
	engine *engine.Engine
	store  store.ArchiveStore

	batchTimeout  time.Duration
	maxBatchBytes int64
}

// HandlerConfig configures request handling limits.
type HandlerConfig struct {
	// BatchTimeout is the processing deadline applied to one ingested
	// batch. Weeks not attempted before the deadline are reported back
	// for redelivery.
	BatchTimeout time.Duration

	// MaxBatchBytes caps the request body size of one batch.
	MaxBatchBytes int64
}

// NewHandler creates the API handler.
func NewHandler(eng *engine.Engine, st store.ArchiveStore, cfg HandlerConfig) *Handler {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 60 * time.Second
	}
	if cfg.MaxBatchBytes <= 0 {
		cfg.MaxBatchBytes = 32 << 20
	}
	return &Handler{
		engine:        eng,
		store:         st,
		batchTimeout:  cfg.BatchTimeout,
		maxBatchBytes: cfg.MaxBatchBytes,
	}
}

// IngestBatch handles POST /api/v1/audit/batches. The full batch result
// is returned so delivery pipelines can decide whether to redeliver.
func (h *Handler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var batch engine.Batch
	body := http.MaxBytesReader(w, r.Body, h.maxBatchBytes)
	if err := json.NewDecoder(body).Decode(&batch); err != nil {
		rw.BadRequest("invalid batch payload: " + err.Error())
		return
	}
	if len(batch.Records) == 0 {
		rw.BadRequest("batch contains no records")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.batchTimeout)
	defer cancel()

	result, err := h.engine.ProcessBatch(ctx, batch)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Batch processing failed")
		rw.InternalError("batch processing failed")
		return
	}

	// Partial failure still answers 200: the result reports per-week
	// outcomes and the caller redelivers as needed.
	rw.Success(result)
}

// ListArchives handles GET /api/v1/archives.
func (h *Handler) ListArchives(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	refs, err := h.store.ListWeeks(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Archive listing failed")
		rw.ServiceUnavailable("archive store unavailable")
		return
	}
	if refs == nil {
		refs = []store.WeekRef{}
	}
	rw.Success(refs)
}

// LatestArchive handles GET /api/v1/archives/latest.
func (h *Handler) LatestArchive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	arc, _, err := h.store.Latest(r.Context())
	switch {
	case errors.Is(err, store.ErrNotFound):
		rw.NotFound("no archives stored")
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Latest archive fetch failed")
		rw.ServiceUnavailable("archive store unavailable")
	default:
		rw.Success(arc)
	}
}

// GetArchive handles GET /api/v1/archives/{week}.
func (h *Handler) GetArchive(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	arc, ok := h.fetchWeek(rw, r)
	if !ok {
		return
	}
	rw.Success(arc)
}

// GetArchiveSummary handles GET /api/v1/archives/{week}/summary.
func (h *Handler) GetArchiveSummary(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	arc, ok := h.fetchWeek(rw, r)
	if !ok {
		return
	}
	rw.Success(struct {
		Week    string          `json:"week"`
		Summary archive.Summary `json:"summary"`
	}{
		Week:    arc.Week.String(),
		Summary: arc.Summary,
	})
}

// fetchWeek resolves the {week} URL parameter and loads its archive,
// writing the error response itself when that fails.
func (h *Handler) fetchWeek(rw *ResponseWriter, r *http.Request) (*archive.WeekArchive, bool) {
	raw := chi.URLParam(r, "week")
	week, err := archive.ParseWeekKey(raw)
	if err != nil {
		rw.BadRequest(err.Error())
		return nil, false
	}

	arc, _, err := h.store.Get(r.Context(), week.String())
	switch {
	case errors.Is(err, store.ErrNotFound):
		rw.NotFound("no archive for week " + week.String())
		return nil, false
	case err != nil:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Archive fetch failed")
		rw.ServiceUnavailable("archive store unavailable")
		return nil, false
	}
	return arc, true
}

// Health handles GET /healthz. A reachable store answers 200 with store
// stats; an unreachable one answers 503 with an explicit degraded error
// so orchestrators can distinguish a hung process from a store outage.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := struct {
		Status   string `json:"status"`
		Resource string `json:"resource"`
		Weeks    int    `json:"weeks"`
	}{
		Status:   "ok",
		Resource: h.engine.Resource(),
	}

	refs, err := h.store.ListWeeks(r.Context())
	if err != nil {
		rw.ServiceUnavailable("degraded: archive store unreachable")
		return
	}
	status.Weeks = len(refs)
	rw.Success(status)
}
