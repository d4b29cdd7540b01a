// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

// Package store provides the durable archive store: one versioned document
// per week key, with conditional writes for optimistic concurrency.
//
// The engine never overwrites an archive blindly. Every mutation is a
// fetch, merge, then PutIfVersion cycle; a concurrent writer makes the
// conditional write fail with ErrVersionConflict and the engine retries
// against fresh state.
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/tomtom215/trailkeeper/internal/archive"
)

// Version is the opaque concurrency token of a stored archive. Zero means
// "not present": PutIfVersion with expected version 0 is a create that
// fails if another writer created the archive first.
type Version uint64

// Sentinel errors returned by ArchiveStore implementations.
var (
	// ErrNotFound indicates no archive exists for the requested key.
	ErrNotFound = errors.New("archive not found")

	// ErrVersionConflict indicates the stored version no longer matches
	// the expected version; the caller must re-fetch and retry.
	ErrVersionConflict = errors.New("archive version conflict")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("archive store closed")
)

// ArchiveStore is the durable key-value abstraction holding one archive
// object per week. Implementations must make PutIfVersion atomic with
// respect to concurrent writers of the same key.
type ArchiveStore interface {
	// Get returns the archive stored under key and its version.
	// Returns ErrNotFound when the key is absent.
	Get(ctx context.Context, key string) (*archive.WeekArchive, Version, error)

	// PutIfVersion stores the archive under key only if the currently
	// stored version equals expected (0 for "must not exist yet").
	// Returns ErrVersionConflict otherwise.
	PutIfVersion(ctx context.Context, key string, a *archive.WeekArchive, expected Version) error

	// ListWeeks returns a reference for every stored week, ordered by
	// week key ascending.
	ListWeeks(ctx context.Context) ([]WeekRef, error)

	// Latest returns the most recently modified archive and its version.
	// Returns ErrNotFound when the store is empty.
	Latest(ctx context.Context) (*archive.WeekArchive, Version, error)

	// Close releases the store's resources.
	Close() error
}

// WeekRef is a lightweight listing entry for one stored week.
type WeekRef struct {
	Key         string          `json:"key"`
	Week        archive.WeekKey `json:"week"`
	UpdatedAt   time.Time       `json:"updated_at"`
	TotalEvents int             `json:"total_events"`
}

// sortWeekRefs orders listing entries by week key ascending.
func sortWeekRefs(refs []WeekRef) {
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Week.Before(refs[j].Week)
	})
}

// transientError marks a store failure as retryable (timeout, throttling,
// temporary unavailability) as opposed to a permanent one.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return "transient store error: " + e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// MarkTransient wraps err so IsTransient reports true for it.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err is a retryable store failure. Version
// conflicts are never transient; they require a re-fetch, not a replay of
// the same write.
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}
