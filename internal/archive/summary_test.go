// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package archive

import (
	"bytes"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func summaryEvent(requestID, actor, ip string, op Category, errCode string) Event {
	return Event{
		RequestID: requestID,
		Timestamp: time.Date(2024, 2, 13, 10, 0, 0, 0, time.UTC),
		Operation: op,
		EventName: "GetObject",
		Who:       Who{Type: "IAMUser", Name: actor},
		How:       How{SourceIP: ip},
		Response:  Response{ErrorCode: errCode},
	}
}

func TestAggregator_Aggregate(t *testing.T) {
	agg := NewAggregator(DefaultTopN)

	events := []Event{
		summaryEvent("r1", "alice", "10.0.0.1", CategoryRead, ""),
		summaryEvent("r2", "alice", "10.0.0.1", CategoryRead, ""),
		summaryEvent("r3", "alice", "10.0.0.2", CategoryWrite, ""),
		summaryEvent("r4", "bob", "10.0.0.2", CategoryDelete, "AccessDenied"),
		summaryEvent("r5", "carol", "", CategoryOther, ""),
	}

	s := agg.Aggregate(events)

	if s.TotalEvents != 5 {
		t.Errorf("TotalEvents = %d, want 5", s.TotalEvents)
	}
	if s.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", s.ErrorCount)
	}
	if s.TopOperations[CategoryRead] != 2 || s.TopOperations[CategoryWrite] != 1 ||
		s.TopOperations[CategoryDelete] != 1 || s.TopOperations[CategoryOther] != 1 {
		t.Errorf("TopOperations = %v", s.TopOperations)
	}
	if s.DistinctActors != 3 {
		t.Errorf("DistinctActors = %d, want 3", s.DistinctActors)
	}
	if s.DistinctSourceIPs != 2 {
		t.Errorf("DistinctSourceIPs = %d, want 2 (empty IPs not counted)", s.DistinctSourceIPs)
	}
	if len(s.TopActors) != 3 || s.TopActors[0] != (KeyCount{Key: "alice", Count: 3}) {
		t.Errorf("TopActors = %v", s.TopActors)
	}
}

func TestAggregator_TieBreakIsLexicographic(t *testing.T) {
	agg := NewAggregator(DefaultTopN)

	events := []Event{
		summaryEvent("r1", "zoe", "10.0.0.9", CategoryRead, ""),
		summaryEvent("r2", "amy", "10.0.0.1", CategoryRead, ""),
		summaryEvent("r3", "mia", "10.0.0.5", CategoryRead, ""),
	}

	s := agg.Aggregate(events)
	want := []KeyCount{{"amy", 1}, {"mia", 1}, {"zoe", 1}}
	for i, kc := range want {
		if s.TopActors[i] != kc {
			t.Fatalf("TopActors = %v, want lexicographic tie-break %v", s.TopActors, want)
		}
	}
}

func TestAggregator_TopNTruncation(t *testing.T) {
	agg := NewAggregator(2)

	events := []Event{
		summaryEvent("r1", "alice", "10.0.0.1", CategoryRead, ""),
		summaryEvent("r2", "alice", "10.0.0.1", CategoryRead, ""),
		summaryEvent("r3", "bob", "10.0.0.2", CategoryRead, ""),
		summaryEvent("r4", "carol", "10.0.0.3", CategoryRead, ""),
	}

	s := agg.Aggregate(events)
	if len(s.TopActors) != 2 {
		t.Fatalf("TopActors length = %d, want 2", len(s.TopActors))
	}
	if s.TopActors[0].Key != "alice" || s.TopActors[1].Key != "bob" {
		t.Errorf("TopActors = %v", s.TopActors)
	}
	if s.DistinctActors != 3 {
		t.Errorf("DistinctActors = %d, truncation must not affect distinct counts", s.DistinctActors)
	}
}

func TestAggregator_Reproducible(t *testing.T) {
	agg := NewAggregator(DefaultTopN)

	events := []Event{
		summaryEvent("r1", "alice", "10.0.0.1", CategoryRead, ""),
		summaryEvent("r2", "bob", "10.0.0.2", CategoryWrite, "NoSuchKey"),
		summaryEvent("r3", "carol", "10.0.0.3", CategoryDelete, ""),
	}

	first, err := json.Marshal(agg.Aggregate(events))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// Shuffled input must produce byte-identical output.
	shuffled := []Event{events[2], events[0], events[1]}
	second, err := json.Marshal(agg.Aggregate(shuffled))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("aggregate output not reproducible:\n%s\n%s", first, second)
	}
}

func TestAggregator_EmptySet(t *testing.T) {
	s := NewAggregator(DefaultTopN).Aggregate(nil)
	if s.TotalEvents != 0 || s.ErrorCount != 0 {
		t.Errorf("empty aggregate = %+v", s)
	}
	if len(s.TopOperations) != 0 {
		t.Errorf("TopOperations = %v, want empty", s.TopOperations)
	}
	if s.TopActors != nil || s.TopSourceIPs != nil {
		t.Error("empty set must yield nil top lists")
	}
}
