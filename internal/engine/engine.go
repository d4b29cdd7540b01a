// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/trailkeeper/internal/archive"
	"github.com/tomtom215/trailkeeper/internal/logging"
	"github.com/tomtom215/trailkeeper/internal/metrics"
	"github.com/tomtom215/trailkeeper/internal/store"
)

// Engine merges audit record batches into per-week archives. It holds no
// mutable state across invocations; all coordination happens through the
// store's conditional writes.
type Engine struct {
	store      store.ArchiveStore
	filter     *archive.Filter
	normalizer *archive.Normalizer
	resolver   *archive.WeekResolver
	aggregator *archive.Aggregator
	breaker    *gobreaker.CircuitBreaker[any]
	cfg        Config
	now        func() time.Time
}

// New creates an engine over the given archive store. Returns
// ErrNoResource when the configuration names no monitored resource.
func New(st store.ArchiveStore, cfg Config) (*Engine, error) {
	return NewWithClock(st, cfg, time.Now)
}

// NewWithClock creates an engine with an injected clock. Tests use this to
// pin the missing-timestamp fallback and archive modification times.
func NewWithClock(st store.ArchiveStore, cfg Config, now func() time.Time) (*Engine, error) {
	if cfg.Resource == "" {
		return nil, ErrNoResource
	}
	cfg = cfg.withDefaults()

	eventSource := cfg.EventSource
	if eventSource == "" {
		eventSource = archive.DefaultEventSource
	}

	return &Engine{
		store:      st,
		filter:     archive.NewFilterForSource(cfg.Resource, eventSource),
		normalizer: archive.NewNormalizerWithClock(now),
		resolver:   archive.NewWeekResolverWithClock(now),
		aggregator: archive.NewAggregator(cfg.TopN),
		breaker:    newCircuitBreaker(cfg.Breaker),
		cfg:        cfg,
		now:        now,
	}, nil
}

// Resource returns the configured monitored resource name.
func (e *Engine) Resource() string {
	return e.cfg.Resource
}

// ProcessBatch filters, normalizes and merges one batch of raw audit
// records. Weeks are merged concurrently and independently; the returned
// result reports every record and week explicitly, including weeks not
// attempted because ctx expired mid-batch (safe to redeliver).
func (e *Engine) ProcessBatch(ctx context.Context, batch Batch) (*BatchResult, error) {
	start := time.Now()
	res := &BatchResult{
		BatchID:  logging.NewBatchID(),
		Received: len(batch.Records),
	}
	ctx = logging.ContextWithBatchID(ctx, res.BatchID)

	groups := e.groupByWeek(batch, res)

	weeks := make([]archive.WeekKey, 0, len(groups))
	for wk := range groups {
		weeks = append(weeks, wk)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	sem := make(chan struct{}, e.cfg.MaxConcurrentWeeks)

	for _, wk := range weeks {
		events := groups[wk]
		wg.Add(1)
		go func(wk archive.WeekKey, events []archive.Event) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				// Deadline reached before this week was attempted.
				// Already-merged weeks stay committed; this one is
				// reported for safe redelivery.
				metrics.RecordWeekNotAttempted()
				mu.Lock()
				res.NotAttempted = append(res.NotAttempted, wk.String())
				mu.Unlock()
				return
			}

			outcome := e.mergeWeek(ctx, wk, events)
			mu.Lock()
			res.Weeks = append(res.Weeks, outcome)
			mu.Unlock()
		}(wk, events)
	}
	wg.Wait()

	sort.Slice(res.Weeks, func(i, j int) bool { return res.Weeks[i].Week < res.Weeks[j].Week })
	sort.Strings(res.NotAttempted)

	for _, w := range res.Weeks {
		res.Merged += w.Applied
		res.Duplicates += w.Duplicates
	}

	metrics.ObserveBatch(start)
	metrics.CountRecords("filtered", res.FilteredOut)
	metrics.CountRecords("malformed", res.Malformed)
	metrics.CountRecords("applied", res.Merged)
	metrics.CountRecords("duplicate", res.Duplicates)

	logging.Ctx(ctx).Info().
		Int("received", res.Received).
		Int("filtered_out", res.FilteredOut).
		Int("malformed", res.Malformed).
		Int("merged", res.Merged).
		Int("duplicates", res.Duplicates).
		Int("weeks", len(res.Weeks)).
		Int("not_attempted", len(res.NotAttempted)).
		Dur("elapsed", time.Since(start)).
		Msg("Batch processed")

	return res, nil
}

// groupByWeek runs the filter and normalizer over the batch and partitions
// surviving events by week key. Malformed records (no request id) are
// counted and skipped, never aborting the batch.
func (e *Engine) groupByWeek(batch Batch, res *BatchResult) map[archive.WeekKey][]archive.Event {
	filter := e.filter
	if batch.Resource != "" && batch.Resource != e.cfg.Resource {
		eventSource := e.cfg.EventSource
		if eventSource == "" {
			eventSource = archive.DefaultEventSource
		}
		filter = archive.NewFilterForSource(batch.Resource, eventSource)
	}

	groups := make(map[archive.WeekKey][]archive.Event)
	for i := range batch.Records {
		rec := &batch.Records[i]
		if !filter.Relevant(rec) {
			res.FilteredOut++
			continue
		}
		if rec.RequestID == "" {
			res.Malformed++
			continue
		}
		ev := e.normalizer.Normalize(rec)
		wk := e.resolver.WeekOf(ev.Timestamp)
		groups[wk] = append(groups[wk], ev)
	}
	return groups
}
