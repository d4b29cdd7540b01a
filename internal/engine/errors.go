// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package engine

import "errors"

// ErrNoResource is returned at construction when no monitored resource
// name is configured. This is fatal at startup, not a per-batch error.
var ErrNoResource = errors.New("configuration error: monitored resource name is required")

// ErrMergeConflict is returned for a week whose version-conflict retries
// were exhausted. Other weeks in the same batch are unaffected.
var ErrMergeConflict = errors.New("merge conflict: concurrent writers exhausted the retry budget")

// ErrStoreUnavailable is returned for a week whose store operations kept
// failing after the transient-retry budget. The batch can be redelivered
// safely; dedup makes the merge idempotent.
var ErrStoreUnavailable = errors.New("archive store unavailable")

// FailureKind classifies a per-week merge failure for callers.
type FailureKind string

const (
	FailureMergeConflict    FailureKind = "merge_conflict"
	FailureStoreUnavailable FailureKind = "store_unavailable"
)
