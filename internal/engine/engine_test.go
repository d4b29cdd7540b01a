// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/trailkeeper/internal/archive"
	"github.com/tomtom215/trailkeeper/internal/store"
)

const testResource = "orders"

func testClock() time.Time {
	return time.Date(2024, 2, 16, 10, 0, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T, st store.ArchiveStore) *Engine {
	t.Helper()
	cfg := DefaultConfig(testResource)
	cfg.StoreRetryInitialInterval = time.Millisecond
	cfg.StoreRetryMaxInterval = 5 * time.Millisecond
	eng, err := NewWithClock(st, cfg, testClock)
	if err != nil {
		t.Fatalf("NewWithClock() error = %v", err)
	}
	return eng
}

func record(requestID, eventName, eventTime string) archive.RawRecord {
	return archive.RawRecord{
		EventName:       eventName,
		EventSource:     archive.DefaultEventSource,
		EventTime:       eventTime,
		RequestID:       requestID,
		AWSRegion:       "us-east-1",
		SourceIPAddress: "198.51.100.7",
		UserAgent:       "aws-cli/2.15",
		UserIdentity: archive.UserIdentity{
			Type:     "IAMUser",
			UserName: "alice",
		},
		RequestParameters: archive.RequestParams{
			BucketName: testResource,
			Key:        "invoices/2024.csv",
		},
	}
}

func TestNewRequiresResource(t *testing.T) {
	_, err := New(store.NewMemoryStore(), Config{})
	if err != ErrNoResource {
		t.Fatalf("New() error = %v, want ErrNoResource", err)
	}
}

func TestProcessBatchMergesAndDeduplicates(t *testing.T) {
	st := store.NewMemoryStore()
	eng := newTestEngine(t, st)

	batch := Batch{Records: []archive.RawRecord{
		record("r1", "GetObject", "2024-02-14T09:00:00Z"),
		record("r2", "PutObject", "2024-02-14T10:00:00Z"),
		record("r1", "GetObject", "2024-02-14T09:00:00Z"),
	}}

	res, err := eng.ProcessBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}

	if res.Received != 3 || res.Merged != 2 || res.Duplicates != 1 {
		t.Fatalf("counts = received %d merged %d duplicates %d, want 3/2/1",
			res.Received, res.Merged, res.Duplicates)
	}
	if len(res.Weeks) != 1 {
		t.Fatalf("weeks = %d, want 1", len(res.Weeks))
	}

	w := res.Weeks[0]
	if w.Week != "2024-W07" {
		t.Errorf("week key = %q, want 2024-W07", w.Week)
	}
	if w.Applied != 2 || w.Total != 2 {
		t.Errorf("outcome = applied %d total %d, want 2/2", w.Applied, w.Total)
	}
	if w.Failure != nil {
		t.Errorf("unexpected failure: %+v", w.Failure)
	}
	if w.Summary == nil {
		t.Fatal("outcome summary is nil")
	}
	if w.Summary.TotalEvents != 2 {
		t.Errorf("summary total = %d, want 2", w.Summary.TotalEvents)
	}
	if got := w.Summary.TopOperations[archive.CategoryRead]; got != 1 {
		t.Errorf("READ count = %d, want 1", got)
	}
	if got := w.Summary.TopOperations[archive.CategoryWrite]; got != 1 {
		t.Errorf("WRITE count = %d, want 1", got)
	}

	arc, version, err := st.Get(context.Background(), "2024-W07")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if version != 1 {
		t.Errorf("version = %d, want 1", version)
	}
	if len(arc.Events) != 2 {
		t.Fatalf("stored events = %d, want 2", len(arc.Events))
	}
	// Events hold archive order: ascending timestamp.
	if arc.Events[0].RequestID != "r1" || arc.Events[1].RequestID != "r2" {
		t.Errorf("event order = %q, %q; want r1, r2",
			arc.Events[0].RequestID, arc.Events[1].RequestID)
	}
}

func TestProcessBatchIdempotent(t *testing.T) {
	st := store.NewMemoryStore()
	eng := newTestEngine(t, st)

	batch := Batch{Records: []archive.RawRecord{
		record("r1", "GetObject", "2024-02-14T09:00:00Z"),
		record("r2", "DeleteObject", "2024-02-14T11:00:00Z"),
	}}

	if _, err := eng.ProcessBatch(context.Background(), batch); err != nil {
		t.Fatalf("first ProcessBatch() error = %v", err)
	}

	res, err := eng.ProcessBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("second ProcessBatch() error = %v", err)
	}
	if res.Merged != 0 || res.Duplicates != 2 {
		t.Fatalf("redelivery = merged %d duplicates %d, want 0/2", res.Merged, res.Duplicates)
	}
	if res.Weeks[0].Summary.TotalEvents != 2 {
		t.Errorf("summary total = %d, want 2", res.Weeks[0].Summary.TotalEvents)
	}

	// A no-op merge writes nothing, so the stored revision must not move.
	_, version, err := st.Get(context.Background(), "2024-W07")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if version != 1 {
		t.Errorf("version after redelivery = %d, want 1", version)
	}
}

func TestProcessBatchFiltersAndCountsMalformed(t *testing.T) {
	st := store.NewMemoryStore()
	eng := newTestEngine(t, st)

	other := record("x1", "GetObject", "2024-02-14T09:00:00Z")
	other.RequestParameters.BucketName = "unrelated"

	noID := record("", "GetObject", "2024-02-14T09:00:00Z")

	wrongSource := record("x2", "GetObject", "2024-02-14T09:00:00Z")
	wrongSource.EventSource = "lambda.amazonaws.com"

	res, err := eng.ProcessBatch(context.Background(), Batch{Records: []archive.RawRecord{
		other,
		noID,
		wrongSource,
		record("r1", "GetObject", "2024-02-14T09:00:00Z"),
	}})
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}

	if res.FilteredOut != 2 {
		t.Errorf("filtered out = %d, want 2", res.FilteredOut)
	}
	if res.Malformed != 1 {
		t.Errorf("malformed = %d, want 1", res.Malformed)
	}
	if res.Merged != 1 {
		t.Errorf("merged = %d, want 1", res.Merged)
	}
}

func TestProcessBatchSpansWeeks(t *testing.T) {
	st := store.NewMemoryStore()
	eng := newTestEngine(t, st)

	res, err := eng.ProcessBatch(context.Background(), Batch{Records: []archive.RawRecord{
		record("r1", "GetObject", "2024-02-14T09:00:00Z"),  // 2024-W07
		record("r2", "PutObject", "2024-02-20T09:00:00Z"),  // 2024-W08
		record("r3", "HeadObject", "2024-02-21T09:00:00Z"), // 2024-W08
	}})
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}

	if len(res.Weeks) != 2 {
		t.Fatalf("weeks = %d, want 2", len(res.Weeks))
	}
	if res.Weeks[0].Week != "2024-W07" || res.Weeks[1].Week != "2024-W08" {
		t.Fatalf("week keys = %q, %q; want 2024-W07, 2024-W08",
			res.Weeks[0].Week, res.Weeks[1].Week)
	}
	if res.Weeks[0].Total != 1 || res.Weeks[1].Total != 2 {
		t.Errorf("totals = %d, %d; want 1, 2", res.Weeks[0].Total, res.Weeks[1].Total)
	}

	refs, err := st.ListWeeks(context.Background())
	if err != nil {
		t.Fatalf("ListWeeks() error = %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("stored weeks = %d, want 2", len(refs))
	}
}

func TestProcessBatchMissingTimestampUsesCurrentWeek(t *testing.T) {
	st := store.NewMemoryStore()
	eng := newTestEngine(t, st)

	res, err := eng.ProcessBatch(context.Background(), Batch{Records: []archive.RawRecord{
		record("r1", "GetObject", ""),
		record("r2", "GetObject", "not-a-timestamp"),
	}})
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}

	// The injected clock is 2024-02-16, which is ISO week 2024-W07.
	if len(res.Weeks) != 1 || res.Weeks[0].Week != "2024-W07" {
		t.Fatalf("weeks = %+v, want single 2024-W07", res.Weeks)
	}
	if res.Weeks[0].Applied != 2 {
		t.Errorf("applied = %d, want 2", res.Weeks[0].Applied)
	}

	arc, _, err := st.Get(context.Background(), "2024-W07")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	for _, ev := range arc.Events {
		if !ev.Timestamp.Equal(testClock()) {
			t.Errorf("event %s timestamp = %v, want clock time", ev.RequestID, ev.Timestamp)
		}
	}
}

func TestProcessBatchResourceOverride(t *testing.T) {
	st := store.NewMemoryStore()
	eng := newTestEngine(t, st)

	rec := record("r1", "GetObject", "2024-02-14T09:00:00Z")
	rec.RequestParameters.BucketName = "audit-logs"

	res, err := eng.ProcessBatch(context.Background(), Batch{
		Resource: "audit-logs",
		Records:  []archive.RawRecord{rec},
	})
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if res.Merged != 1 || res.FilteredOut != 0 {
		t.Fatalf("merged %d filtered %d, want 1/0", res.Merged, res.FilteredOut)
	}
}

func TestProcessBatchErrorEventsInSummary(t *testing.T) {
	st := store.NewMemoryStore()
	eng := newTestEngine(t, st)

	denied := record("r2", "GetObject", "2024-02-14T10:00:00Z")
	denied.ErrorCode = "AccessDenied"
	denied.ErrorMessage = "Access Denied"

	res, err := eng.ProcessBatch(context.Background(), Batch{Records: []archive.RawRecord{
		record("r1", "GetObject", "2024-02-14T09:00:00Z"),
		denied,
	}})
	if err != nil {
		t.Fatalf("ProcessBatch() error = %v", err)
	}
	if res.Weeks[0].Summary.ErrorCount != 1 {
		t.Errorf("error count = %d, want 1", res.Weeks[0].Summary.ErrorCount)
	}
}
