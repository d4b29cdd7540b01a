// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

// Package archive defines the domain model for audit trail archival.
//
// It contains the pure, side-effect-free pieces of the pipeline:
//
//   - RawRecord: an audit record exactly as delivered by the audit source
//   - Filter: relevance decision for the monitored storage resource
//   - Normalizer: RawRecord -> Event conversion with operation classification
//   - WeekKey / WeekResolver: ISO-week partition key derivation
//   - Aggregator: deterministic summary statistics over an event set
//   - WeekArchive: the persisted per-week aggregate
//
// Everything here is deterministic given its inputs (the week resolver and
// normalizer take an injectable clock for the missing-timestamp fallback).
// Durability and concurrency control live in internal/store and
// internal/engine respectively.
package archive
