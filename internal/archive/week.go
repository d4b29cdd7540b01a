// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package archive

import (
	"fmt"
	"time"
)

// WeekResolver derives the archive partition key for an event timestamp.
//
// The week boundary is Monday 00:00 UTC and the key is the ISO 8601 year
// and week number of that Monday (time.Time.ISOWeek). The rule is
// load-bearing: external tooling addresses archive objects by the derived
// "<year>-W<week>" key and must agree on the numbering.
type WeekResolver struct {
	now func() time.Time
}

// NewWeekResolver creates a resolver using the wall clock for the
// missing-timestamp fallback.
func NewWeekResolver() *WeekResolver {
	return &WeekResolver{now: time.Now}
}

// NewWeekResolverWithClock creates a resolver with an injected clock.
func NewWeekResolverWithClock(now func() time.Time) *WeekResolver {
	return &WeekResolver{now: now}
}

// WeekOf returns the week key for t. A zero t (absent or unparsable event
// time upstream) resolves to the week of the current processing instant
// rather than failing the record. Best-effort on purpose; it can misfile
// events during backfills of old data.
func (r *WeekResolver) WeekOf(t time.Time) WeekKey {
	if t.IsZero() {
		t = r.now()
	}
	year, week := t.UTC().ISOWeek()
	return WeekKey{Year: year, Week: week}
}

// WeekOf returns the week key for t using the wall clock for the zero-time
// fallback.
func WeekOf(t time.Time) WeekKey {
	return NewWeekResolver().WeekOf(t)
}

// formatWeekKey renders the external archive key format.
func formatWeekKey(k WeekKey) string {
	return fmt.Sprintf("%04d-W%02d", k.Year, k.Week)
}

// ParseWeekKey parses an external archive key like "2024-W07".
func ParseWeekKey(s string) (WeekKey, error) {
	var k WeekKey
	if _, err := fmt.Sscanf(s, "%d-W%d", &k.Year, &k.Week); err != nil {
		return WeekKey{}, fmt.Errorf("invalid week key %q: %w", s, err)
	}
	if k.Year < 1 || k.Week < 1 || k.Week > 53 {
		return WeekKey{}, fmt.Errorf("invalid week key %q: out of range", s)
	}
	// Sscanf tolerates trailing input; only the canonical rendering is a
	// valid key.
	if formatWeekKey(k) != s {
		return WeekKey{}, fmt.Errorf("invalid week key %q: not in YYYY-Www form", s)
	}
	return k, nil
}
