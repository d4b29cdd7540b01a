// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package archive

import (
	"time"
)

// UnknownActor is the actor name used when a record carries no usable
// identity information.
const UnknownActor = "Unknown"

// Event is the canonical, engine-owned representation of one audit record.
//
// The JSON field names and who/what/how/response nesting form a stable
// contract read by external query tooling. Do not rename fields or change
// nesting without versioning the archive document.
//
// An Event is immutable once created. RequestID is the sole identity used
// for deduplication: two records with the same RequestID describe the same
// physical operation and are never both counted.
type Event struct {
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Operation Category  `json:"operation"`
	EventName string    `json:"event_name"`
	Who       Who       `json:"who"`
	What      What      `json:"what"`
	How       How       `json:"how"`
	Response  Response  `json:"response"`
}

// Who identifies the actor behind an event.
type Who struct {
	Type string `json:"type,omitempty"`
	Name string `json:"name"`
}

// What identifies the target of an event.
type What struct {
	ResourceName   string   `json:"resource_name,omitempty"`
	ObjectKey      string   `json:"object_key,omitempty"`
	ReferencedARNs []string `json:"referenced_arns,omitempty"`
}

// How records the access path of an event.
type How struct {
	SourceIP  string `json:"source_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Region    string `json:"region,omitempty"`
}

// Response records the outcome of an event. Empty error fields mean the
// operation succeeded.
type Response struct {
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// IsError reports whether the recorded operation failed.
func (e *Event) IsError() bool {
	return e.Response.ErrorCode != ""
}

// WeekKey is the archive partition key: the ISO year and week number of
// the Monday-aligned week containing an event. WeekKeys order totally by
// (year, week).
type WeekKey struct {
	Year int `json:"year"`
	Week int `json:"week"`
}

// String returns the external archive key, e.g. "2024-W07". This format is
// how external tooling addresses archive objects; keep it stable.
func (k WeekKey) String() string {
	return formatWeekKey(k)
}

// Before reports whether k orders before o.
func (k WeekKey) Before(o WeekKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Week < o.Week
}

// IsZero reports whether k is the zero key.
func (k WeekKey) IsZero() bool {
	return k.Year == 0 && k.Week == 0
}

// WeekArchive is the durable per-week aggregate: the deduplicated event
// set plus the summary derived from it. The summary is recomputed from the
// full event set on every merge and is never patched independently, so the
// two can never drift apart.
//
// Events are serialized as an array ordered by (timestamp, request_id) to
// keep the document deterministic; semantically they form a set keyed by
// request_id.
type WeekArchive struct {
	Week      WeekKey   `json:"week"`
	UpdatedAt time.Time `json:"updated_at"`
	Summary   Summary   `json:"summary"`
	Events    []Event   `json:"events"`
}

// EventIndex returns the set of request IDs already present in the
// archive, used for merge-time deduplication.
func (a *WeekArchive) EventIndex() map[string]struct{} {
	idx := make(map[string]struct{}, len(a.Events))
	for i := range a.Events {
		idx[a.Events[i].RequestID] = struct{}{}
	}
	return idx
}
