// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	handler    *Handler
	middleware *Middleware
	auth       *Authenticator
}

// NewRouter creates the router. auth may be nil, in which case the API
// endpoints require no authentication.
func NewRouter(handler *Handler, mw *Middleware, auth *Authenticator) *Router {
	if mw == nil {
		mw = NewMiddleware(nil)
	}
	return &Router{handler: handler, middleware: mw, auth: auth}
}

// Setup builds the complete route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	// Operational endpoints stay outside rate limiting and auth so
	// orchestrators and scrapers are never locked out.
	r.Get("/healthz", router.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthz", router.handler.Health)

		r.Group(func(r chi.Router) {
			r.Use(router.middleware.RateLimit())
			r.Use(RequestMetrics())
			r.Use(RequestLogging())
			if router.auth != nil {
				r.Use(router.auth.Middleware)
			}

			r.Post("/audit/batches", router.handler.IngestBatch)

			r.Route("/archives", func(r chi.Router) {
				r.Get("/", router.handler.ListArchives)
				r.Get("/latest", router.handler.LatestArchive)
				r.Get("/{week}", router.handler.GetArchive)
				r.Get("/{week}/summary", router.handler.GetArchiveSummary)
			})
		})
	})

	return r
}
