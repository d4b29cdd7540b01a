// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package engine

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/trailkeeper/internal/archive"
	"github.com/tomtom215/trailkeeper/internal/logging"
	"github.com/tomtom215/trailkeeper/internal/metrics"
	"github.com/tomtom215/trailkeeper/internal/store"
)

// mergeWeek merges one week's events into its archive under optimistic
// concurrency. On a version conflict the archive is re-fetched and the
// merge recomputed against the fresh state, up to MaxConflictRetries
// times. The archive is only ever replaced wholesale by a conditional
// write, never partially updated.
func (e *Engine) mergeWeek(ctx context.Context, wk archive.WeekKey, events []archive.Event) WeekOutcome {
	key := wk.String()
	log := logging.Ctx(ctx).With().Str("week", key).Logger()

	for attempt := 0; ; attempt++ {
		current, version, err := e.fetchArchive(ctx, key)
		if err != nil {
			metrics.RecordMergeAttempt("store_error")
			log.Error().Err(err).Msg("Archive fetch failed")
			return failedOutcome(key, FailureStoreUnavailable, err)
		}

		merged, applied, dups := mergeEvents(wk, current, events, e.now().UTC())
		if applied == 0 {
			// Every event already archived. Nothing to write; the
			// redelivered batch is a no-op.
			metrics.RecordMergeAttempt("noop")
			log.Debug().Int("duplicates", dups).Msg("Merge no-op, all events already archived")
			return WeekOutcome{
				Week:       key,
				Duplicates: dups,
				Total:      len(current.Events),
				Summary:    &current.Summary,
			}
		}

		merged.Summary = e.aggregator.Aggregate(merged.Events)

		err = e.putArchive(ctx, key, merged, version)
		if err == nil {
			metrics.RecordMergeAttempt("applied")
			log.Info().
				Int("applied", applied).
				Int("duplicates", dups).
				Int("total", len(merged.Events)).
				Msg("Week archive merged")
			return WeekOutcome{
				Week:       key,
				Applied:    applied,
				Duplicates: dups,
				Total:      len(merged.Events),
				Summary:    &merged.Summary,
			}
		}

		if errors.Is(err, store.ErrVersionConflict) {
			if attempt >= e.cfg.MaxConflictRetries {
				metrics.RecordMergeAttempt("conflict_exhausted")
				log.Warn().Int("attempts", attempt+1).Msg("Merge conflict retries exhausted")
				return failedOutcome(key, FailureMergeConflict,
					ErrMergeConflict)
			}
			metrics.RecordConflictRetry()
			log.Debug().Int("attempt", attempt+1).Msg("Version conflict, re-fetching archive")
			continue
		}

		metrics.RecordMergeAttempt("store_error")
		log.Error().Err(err).Msg("Archive write failed")
		return failedOutcome(key, FailureStoreUnavailable, err)
	}
}

// mergeEvents folds the batch events into the current archive, deduplicating
// by request id both against the archive and within the batch. It returns a
// new archive value; current is never mutated.
func mergeEvents(wk archive.WeekKey, current *archive.WeekArchive, events []archive.Event, now time.Time) (*archive.WeekArchive, int, int) {
	var seen map[string]struct{}
	merged := &archive.WeekArchive{Week: wk, UpdatedAt: now}
	if current != nil {
		seen = current.EventIndex()
		merged.Events = append(merged.Events, current.Events...)
	} else {
		seen = make(map[string]struct{})
	}

	applied, dups := 0, 0
	for _, ev := range events {
		if _, ok := seen[ev.RequestID]; ok {
			dups++
			continue
		}
		seen[ev.RequestID] = struct{}{}
		merged.Events = append(merged.Events, ev)
		applied++
	}

	if applied == 0 && current != nil {
		return current, 0, dups
	}

	sort.Slice(merged.Events, func(i, j int) bool {
		a, b := merged.Events[i], merged.Events[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.Before(b.Timestamp)
		}
		return a.RequestID < b.RequestID
	})

	return merged, applied, dups
}

// fetchArchive reads the archive and its version through the circuit
// breaker, retrying transient failures. An absent archive is not an
// error; it yields a nil archive at version zero.
func (e *Engine) fetchArchive(ctx context.Context, key string) (*archive.WeekArchive, store.Version, error) {
	var (
		arc     *archive.WeekArchive
		version store.Version
	)
	err := e.execute(ctx, func() error {
		var err error
		arc, version, err = e.store.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			arc, version = nil, 0
			return nil
		}
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return arc, version, nil
}

// putArchive writes the merged archive conditionally on the version it was
// read at. Version conflicts pass through untouched for the caller's
// retry loop; only transient store failures are retried here.
func (e *Engine) putArchive(ctx context.Context, key string, arc *archive.WeekArchive, version store.Version) error {
	return e.execute(ctx, func() error {
		err := e.store.PutIfVersion(ctx, key, arc, version)
		if errors.Is(err, store.ErrVersionConflict) {
			return backoff.Permanent(err)
		}
		return err
	})
}

// execute runs a store operation through the circuit breaker with
// exponential backoff on transient errors. Non-transient errors fail
// immediately; an open breaker is reported as the store being
// unavailable.
func (e *Engine) execute(ctx context.Context, op func() error) error {
	_, err := e.breaker.Execute(func() (any, error) {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = e.cfg.StoreRetryInitialInterval
		bo.MaxInterval = e.cfg.StoreRetryMaxInterval
		return nil, backoff.Retry(func() error {
			err := op()
			if err == nil {
				return nil
			}
			if store.IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}, backoff.WithContext(backoff.WithMaxRetries(bo, e.cfg.StoreRetryMaxAttempts), ctx))
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return err
}

func failedOutcome(key string, kind FailureKind, err error) WeekOutcome {
	return WeekOutcome{
		Week:    key,
		Failure: &WeekFailure{Kind: kind, Message: err.Error()},
	}
}
