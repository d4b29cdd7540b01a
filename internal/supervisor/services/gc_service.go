// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package services

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/trailkeeper/internal/logging"
	"github.com/tomtom215/trailkeeper/internal/store"
)

// ValueLogGC matches the store's garbage collection entry point.
//
// Satisfied by *store.BadgerStore.
type ValueLogGC interface {
	RunValueLogGC(discardRatio float64) error
}

// StoreGCService periodically reclaims space in the archive store's value
// log. Badger only rewrites log files whose reclaimable fraction exceeds
// the discard ratio; after a successful rewrite another round runs
// immediately since more files may qualify.
type StoreGCService struct {
	store        ValueLogGC
	interval     time.Duration
	discardRatio float64
	name         string
}

// NewStoreGCService creates the garbage collection service.
func NewStoreGCService(st ValueLogGC, interval time.Duration, discardRatio float64) *StoreGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if discardRatio <= 0 || discardRatio > 1 {
		discardRatio = 0.5
	}
	return &StoreGCService{
		store:        st,
		interval:     interval,
		discardRatio: discardRatio,
		name:         "store-gc",
	}
}

// Serve implements suture.Service.
func (s *StoreGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.collect(ctx)
		}
	}
}

func (s *StoreGCService) collect(ctx context.Context) {
	start := time.Now()
	rounds := 0
	for {
		if ctx.Err() != nil {
			return
		}
		err := s.store.RunValueLogGC(s.discardRatio)
		switch {
		case err == nil:
			rounds++
			continue
		case errors.Is(err, badger.ErrNoRewrite):
			if rounds > 0 {
				logging.Debug().
					Int("rounds", rounds).
					Dur("elapsed", time.Since(start)).
					Msg("Value log garbage collection finished")
			}
			return
		case errors.Is(err, store.ErrStoreClosed):
			return
		default:
			logging.Warn().Err(err).Msg("Value log garbage collection failed")
			return
		}
	}
}

// String identifies the service in supervisor log messages.
func (s *StoreGCService) String() string {
	return s.name
}
