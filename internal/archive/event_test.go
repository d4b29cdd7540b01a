// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package archive

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
)

// The serialized event layout is read by external query tooling; this test
// pins the field names and the who/what/how/response grouping.
func TestEvent_SerializedContract(t *testing.T) {
	ev := Event{
		RequestID: "req-1",
		Timestamp: time.Date(2024, 2, 13, 10, 0, 0, 0, time.UTC),
		Operation: CategoryRead,
		EventName: "GetObject",
		Who:       Who{Type: "IAMUser", Name: "alice"},
		What:      What{ResourceName: "orders", ObjectKey: "2024/a.json", ReferencedARNs: []string{"arn:aws:s3:::orders/2024/a.json"}},
		How:       How{SourceIP: "198.51.100.7", UserAgent: "aws-cli/2.15", Region: "eu-west-1"},
		Response:  Response{ErrorCode: "AccessDenied", ErrorMessage: "Access Denied"},
	}

	data, err := json.Marshal(&ev)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	for _, field := range []string{"request_id", "timestamp", "operation", "event_name", "who", "what", "how", "response"} {
		if _, ok := doc[field]; !ok {
			t.Errorf("missing top-level field %q", field)
		}
	}

	who := doc["who"].(map[string]any)
	if who["name"] != "alice" || who["type"] != "IAMUser" {
		t.Errorf("who = %v", who)
	}
	what := doc["what"].(map[string]any)
	if what["resource_name"] != "orders" || what["object_key"] != "2024/a.json" {
		t.Errorf("what = %v", what)
	}
	how := doc["how"].(map[string]any)
	if how["source_ip"] != "198.51.100.7" || how["region"] != "eu-west-1" {
		t.Errorf("how = %v", how)
	}
	resp := doc["response"].(map[string]any)
	if resp["error_code"] != "AccessDenied" {
		t.Errorf("response = %v", resp)
	}
}

func TestWeekArchive_EventIndex(t *testing.T) {
	a := WeekArchive{
		Week: WeekKey{Year: 2024, Week: 7},
		Events: []Event{
			{RequestID: "r1"},
			{RequestID: "r2"},
		},
	}

	idx := a.EventIndex()
	if len(idx) != 2 {
		t.Fatalf("index size = %d, want 2", len(idx))
	}
	if _, ok := idx["r1"]; !ok {
		t.Error("r1 missing from index")
	}
	if _, ok := idx["r9"]; ok {
		t.Error("r9 unexpectedly present")
	}
}
