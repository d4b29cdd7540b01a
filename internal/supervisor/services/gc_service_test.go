// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// mockGC returns the queued errors in order, then ErrNoRewrite forever.
type mockGC struct {
	calls atomic.Int32
	errs  []error
}

func (m *mockGC) RunValueLogGC(discardRatio float64) error {
	n := int(m.calls.Add(1)) - 1
	if n < len(m.errs) {
		return m.errs[n]
	}
	return badger.ErrNoRewrite
}

func TestStoreGCServiceRunsUntilNoRewrite(t *testing.T) {
	// Two successful rewrites, then nothing left to reclaim.
	gc := &mockGC{errs: []error{nil, nil}}
	svc := NewStoreGCService(gc, 5*time.Millisecond, 0.5)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) && gc.calls.Load() < 3 {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-errCh

	// One tick drains all rewritable files: two rewrites plus the
	// terminating ErrNoRewrite round.
	if gc.calls.Load() < 3 {
		t.Fatalf("GC calls = %d, want at least 3", gc.calls.Load())
	}
}

func TestStoreGCServiceStopsOnCancel(t *testing.T) {
	gc := &mockGC{}
	svc := NewStoreGCService(gc, time.Hour, 0.5)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestStoreGCServiceDefaults(t *testing.T) {
	svc := NewStoreGCService(&mockGC{}, 0, 0)
	if svc.interval != 10*time.Minute {
		t.Errorf("interval = %v, want 10m", svc.interval)
	}
	if svc.discardRatio != 0.5 {
		t.Errorf("discard ratio = %v, want 0.5", svc.discardRatio)
	}
	if svc.String() != "store-gc" {
		t.Errorf("String() = %q, want store-gc", svc.String())
	}
}
