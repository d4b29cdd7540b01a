// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package archive

import (
	"sort"
	"time"
)

// Normalizer converts raw audit records into canonical events.
//
// Normalize is total: it never fails. Missing fields map to well-defined
// defaults (UnknownActor for a record without identity, empty response
// fields for success) and a missing or unparsable event time falls back to
// the clock's current instant, which files the event under the current
// processing week.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a normalizer using the wall clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NewNormalizerWithClock creates a normalizer with an injected clock.
// Tests use this to pin the missing-timestamp fallback.
func NewNormalizerWithClock(now func() time.Time) *Normalizer {
	return &Normalizer{now: now}
}

// Normalize converts a raw record into a canonical event.
func (n *Normalizer) Normalize(rec *RawRecord) Event {
	ts := rec.Time()
	if ts.IsZero() {
		ts = n.now().UTC()
	}

	return Event{
		RequestID: rec.RequestID,
		Timestamp: ts,
		Operation: Classify(rec.EventName),
		EventName: rec.EventName,
		Who: Who{
			Type: rec.UserIdentity.Type,
			Name: actorName(rec.UserIdentity),
		},
		What: What{
			ResourceName:   rec.RequestParameters.BucketName,
			ObjectKey:      rec.RequestParameters.Key,
			ReferencedARNs: referencedARNs(rec.Resources),
		},
		How: How{
			SourceIP:  rec.SourceIPAddress,
			UserAgent: rec.UserAgent,
			Region:    rec.AWSRegion,
		},
		Response: Response{
			ErrorCode:    rec.ErrorCode,
			ErrorMessage: rec.ErrorMessage,
		},
	}
}

// actorName resolves the actor display name. First non-empty wins:
// explicit user name, principal id, ARN, then UnknownActor.
func actorName(id UserIdentity) string {
	switch {
	case id.UserName != "":
		return id.UserName
	case id.PrincipalID != "":
		return id.PrincipalID
	case id.ARN != "":
		return id.ARN
	default:
		return UnknownActor
	}
}

// referencedARNs extracts the referenced resource identifiers as a sorted,
// deduplicated slice. Sorting keeps the serialized event deterministic.
func referencedARNs(refs []ResourceRef) []string {
	if len(refs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(refs))
	arns := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.ARN == "" {
			continue
		}
		if _, dup := seen[r.ARN]; dup {
			continue
		}
		seen[r.ARN] = struct{}{}
		arns = append(arns, r.ARN)
	}
	if len(arns) == 0 {
		return nil
	}
	sort.Strings(arns)
	return arns
}
