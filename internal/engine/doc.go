// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

// Package engine implements the archive merge engine: the orchestration of
// filter, normalizer, week resolver and aggregator over the archive store.
//
// Each batch is processed independently with no shared in-process state,
// so concurrent invocations coordinate exclusively through the store's
// conditional writes. Per week, the engine runs a fetch / dedup / merge /
// put-if-version cycle:
//
//   - duplicates (same request_id) are dropped at merge time, making
//     redelivery of a batch idempotent
//   - a version conflict means a concurrent writer got there first; the
//     merge restarts from freshly fetched state, bounded by a retry
//     ceiling
//   - transient store failures retry with exponential backoff behind a
//     circuit breaker
//
// Weeks within one batch are merged concurrently and independently: a
// failed week never rolls back or blocks another week's merge.
package engine
