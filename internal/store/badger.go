// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/trailkeeper/internal/archive"
	"github.com/tomtom215/trailkeeper/internal/logging"
	"github.com/tomtom215/trailkeeper/internal/metrics"
)

// archiveKeyPrefix namespaces archive documents in BadgerDB.
const archiveKeyPrefix = "archive:"

// envelope is the persisted wrapper around a week archive. The revision is
// stored inside the value so the compare-and-set check and the write commit
// in a single transaction.
type envelope struct {
	Revision uint64               `json:"revision"`
	Archive  *archive.WeekArchive `json:"archive"`
}

// BadgerStore implements ArchiveStore on BadgerDB. Suitable for durable
// single-node deployments; the version check runs inside one badger
// transaction, so concurrent writers of the same week serialize through
// the conditional write.
type BadgerStore struct {
	db     *badger.DB
	closed atomic.Bool
}

// OpenBadger opens (or creates) a BadgerDB-backed archive store at path.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is noisy; events are logged here

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}

	logging.Info().Str("path", path).Msg("Archive store opened")
	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an already opened BadgerDB instance. Used by tests
// and by callers that manage the DB lifecycle themselves.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Get returns the archive stored under key.
func (s *BadgerStore) Get(ctx context.Context, key string) (*archive.WeekArchive, Version, error) {
	if s.closed.Load() {
		return nil, 0, ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	start := time.Now()
	var env envelope
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(archiveKeyPrefix + key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get archive: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &env)
		})
	})
	metrics.ObserveStoreOp("get", start, err)

	if err != nil {
		return nil, 0, err
	}
	return env.Archive, Version(env.Revision), nil
}

// PutIfVersion stores the archive under key iff the stored revision still
// equals expected. The check and the write run in one transaction.
func (s *BadgerStore) PutIfVersion(ctx context.Context, key string, a *archive.WeekArchive, expected Version) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	err := s.db.Update(func(txn *badger.Txn) error {
		k := []byte(archiveKeyPrefix + key)

		var current uint64
		item, err := txn.Get(k)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			current = 0
		case err != nil:
			return fmt.Errorf("get current revision: %w", err)
		default:
			var env envelope
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			}); err != nil {
				return fmt.Errorf("decode current envelope: %w", err)
			}
			current = env.Revision
		}

		if current != uint64(expected) {
			return ErrVersionConflict
		}

		data, err := json.Marshal(&envelope{Revision: current + 1, Archive: a})
		if err != nil {
			return fmt.Errorf("marshal envelope: %w", err)
		}
		return txn.Set(k, data)
	})

	// Badger detects read-write overlap between concurrent transactions
	// itself; surface that the same way as a failed revision check.
	if errors.Is(err, badger.ErrConflict) {
		err = ErrVersionConflict
	}
	metrics.ObserveStoreOp("put", start, err)
	return err
}

// ListWeeks returns references for all stored weeks, ordered by week key.
func (s *BadgerStore) ListWeeks(ctx context.Context) ([]WeekRef, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var refs []WeekRef
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(archiveKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var env envelope
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			}); err != nil {
				return fmt.Errorf("decode envelope: %w", err)
			}
			if env.Archive == nil {
				continue
			}
			refs = append(refs, WeekRef{
				Key:         env.Archive.Week.String(),
				Week:        env.Archive.Week,
				UpdatedAt:   env.Archive.UpdatedAt,
				TotalEvents: len(env.Archive.Events),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortWeekRefs(refs)
	return refs, nil
}

// Latest returns the most recently modified archive.
func (s *BadgerStore) Latest(ctx context.Context) (*archive.WeekArchive, Version, error) {
	if s.closed.Load() {
		return nil, 0, ErrStoreClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	var (
		latest    *archive.WeekArchive
		latestRev uint64
	)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(archiveKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var env envelope
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &env)
			}); err != nil {
				return fmt.Errorf("decode envelope: %w", err)
			}
			if env.Archive == nil {
				continue
			}
			if latest == nil || env.Archive.UpdatedAt.After(latest.UpdatedAt) {
				latest = env.Archive
				latestRev = env.Revision
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	if latest == nil {
		return nil, 0, ErrNotFound
	}
	return latest, Version(latestRev), nil
}

// RunValueLogGC triggers one round of badger value-log garbage collection.
// Returns badger.ErrNoRewrite when there was nothing to reclaim.
func (s *BadgerStore) RunValueLogGC(discardRatio float64) error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return s.db.RunValueLogGC(discardRatio)
}

// Close closes the underlying BadgerDB.
func (s *BadgerStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}
