// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package store

import (
	"context"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trailkeeper/internal/archive"
)

// MemoryStore is an in-process ArchiveStore used by tests and by the
// engine's concurrency tests. It honors the same conditional-write
// semantics as the durable store and supports fault injection through the
// optional hooks.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	closed  bool

	// GetHook, when set, runs before every Get; a non-nil return is
	// surfaced as the Get error. Used to inject transient failures.
	GetHook func(key string) error

	// PutHook, when set, runs before every PutIfVersion; a non-nil
	// return is surfaced as the put error.
	PutHook func(key string) error
}

type memoryEntry struct {
	data     []byte // archive document, stored serialized to isolate callers
	revision uint64
}

// NewMemoryStore creates an empty in-memory archive store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get returns a deep copy of the archive stored under key.
func (s *MemoryStore) Get(ctx context.Context, key string) (*archive.WeekArchive, Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, 0, ErrStoreClosed
	}
	if s.GetHook != nil {
		if err := s.GetHook(key); err != nil {
			return nil, 0, err
		}
	}

	entry, ok := s.entries[key]
	if !ok {
		return nil, 0, ErrNotFound
	}
	var a archive.WeekArchive
	if err := json.Unmarshal(entry.data, &a); err != nil {
		return nil, 0, err
	}
	return &a, Version(entry.revision), nil
}

// PutIfVersion stores the archive iff the current revision matches.
func (s *MemoryStore) PutIfVersion(ctx context.Context, key string, a *archive.WeekArchive, expected Version) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if s.PutHook != nil {
		if err := s.PutHook(key); err != nil {
			return err
		}
	}

	var current uint64
	if entry, ok := s.entries[key]; ok {
		current = entry.revision
	}
	if current != uint64(expected) {
		return ErrVersionConflict
	}

	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	s.entries[key] = memoryEntry{data: data, revision: current + 1}
	return nil
}

// ListWeeks returns references for all stored weeks, ordered by week key.
func (s *MemoryStore) ListWeeks(ctx context.Context) ([]WeekRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var refs []WeekRef
	for _, entry := range s.entries {
		var a archive.WeekArchive
		if err := json.Unmarshal(entry.data, &a); err != nil {
			return nil, err
		}
		refs = append(refs, WeekRef{
			Key:         a.Week.String(),
			Week:        a.Week,
			UpdatedAt:   a.UpdatedAt,
			TotalEvents: len(a.Events),
		})
	}
	sortWeekRefs(refs)
	return refs, nil
}

// Latest returns the most recently modified archive.
func (s *MemoryStore) Latest(ctx context.Context) (*archive.WeekArchive, Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, 0, ErrStoreClosed
	}

	var (
		latest    *archive.WeekArchive
		latestRev uint64
	)
	for _, entry := range s.entries {
		var a archive.WeekArchive
		if err := json.Unmarshal(entry.data, &a); err != nil {
			return nil, 0, err
		}
		if latest == nil || a.UpdatedAt.After(latest.UpdatedAt) {
			cp := a
			latest = &cp
			latestRev = entry.revision
		}
	}
	if latest == nil {
		return nil, 0, ErrNotFound
	}
	return latest, Version(latestRev), nil
}

// Close marks the store closed; further operations fail with
// ErrStoreClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
