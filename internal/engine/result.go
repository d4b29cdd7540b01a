// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package engine

import (
	"github.com/tomtom215/trailkeeper/internal/archive"
)

// Batch is one delivery of raw audit records. Delivery is at-least-once:
// duplicates and out-of-order records across batches are expected and
// absorbed by merge-time deduplication.
type Batch struct {
	// Resource optionally overrides the engine's configured monitored
	// resource for this batch.
	Resource string `json:"resource,omitempty"`

	Records []archive.RawRecord `json:"records"`
}

// BatchResult reports the full outcome of one processed batch. Callers
// always get counts and per-week outcomes, never a bare boolean.
type BatchResult struct {
	BatchID string `json:"batch_id"`

	// Received is the number of records in the batch.
	Received int `json:"received"`

	// FilteredOut counts records not pertaining to the monitored
	// resource.
	FilteredOut int `json:"filtered_out"`

	// Malformed counts records skipped because they could not be
	// minimally parsed (no request id). They never abort the batch.
	Malformed int `json:"malformed"`

	// Merged counts events newly added to archives by this batch.
	Merged int `json:"merged"`

	// Duplicates counts relevant events that were already archived.
	Duplicates int `json:"duplicates"`

	// Weeks holds one outcome per attempted week, ordered by week key.
	Weeks []WeekOutcome `json:"weeks"`

	// NotAttempted lists week keys skipped because the batch deadline
	// was reached. Redelivering the batch is safe.
	NotAttempted []string `json:"not_attempted,omitempty"`
}

// Failed returns the outcomes of weeks whose merge failed.
func (r *BatchResult) Failed() []WeekOutcome {
	var failed []WeekOutcome
	for _, w := range r.Weeks {
		if w.Failure != nil {
			failed = append(failed, w)
		}
	}
	return failed
}

// WeekOutcome is the merge result for one week partition.
type WeekOutcome struct {
	// Week is the external archive key, e.g. "2024-W07".
	Week string `json:"week"`

	// Applied is the number of events added by this merge; 0 for an
	// idempotent no-op.
	Applied int `json:"applied"`

	// Duplicates counts events already present in the archive or
	// repeated within the batch.
	Duplicates int `json:"duplicates"`

	// Total is the archive's event count after the merge.
	Total int `json:"total"`

	Summary *archive.Summary `json:"summary,omitempty"`

	// Failure is set when the merge failed; the archive was left
	// untouched by this invocation.
	Failure *WeekFailure `json:"failure,omitempty"`
}

// WeekFailure describes why a week's merge failed.
type WeekFailure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}
