// Trailkeeper - Cloud Audit Trail Archival Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trailkeeper

package archive

import (
	"sort"
)

// DefaultTopN is the default length of the top-actor and top-source-IP
// lists in a summary.
const DefaultTopN = 10

// Summary holds the rollup statistics for one week archive. It is purely
// derived: re-running the aggregator over the archive's event set must
// reproduce it exactly.
type Summary struct {
	TotalEvents int `json:"total_events"`
	ErrorCount  int `json:"error_count"`

	// TopOperations maps operation category to event count. Categories
	// with zero events are omitted.
	TopOperations map[Category]int `json:"top_operations"`

	TopActors    []KeyCount `json:"top_actors"`
	TopSourceIPs []KeyCount `json:"top_source_ips"`

	DistinctActors    int `json:"distinct_actors"`
	DistinctSourceIPs int `json:"distinct_source_ips"`
}

// KeyCount is one entry of a top-N list.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Aggregator computes summary statistics from an event set. It is pure and
// deterministic: the same event set always yields byte-identical output.
type Aggregator struct {
	topN int
}

// NewAggregator creates an aggregator producing top-N lists of the given
// length. Non-positive n falls back to DefaultTopN.
func NewAggregator(n int) *Aggregator {
	if n <= 0 {
		n = DefaultTopN
	}
	return &Aggregator{topN: n}
}

// Aggregate computes the summary for an event set. Input order is
// irrelevant; top-N lists order by descending count with lexicographic
// tie-break on the key.
func (a *Aggregator) Aggregate(events []Event) Summary {
	s := Summary{
		TopOperations: make(map[Category]int),
	}

	actors := make(map[string]int)
	ips := make(map[string]int)

	for i := range events {
		ev := &events[i]
		s.TotalEvents++
		if ev.IsError() {
			s.ErrorCount++
		}
		s.TopOperations[ev.Operation]++
		actors[ev.Who.Name]++
		if ev.How.SourceIP != "" {
			ips[ev.How.SourceIP]++
		}
	}

	s.TopActors = topN(actors, a.topN)
	s.TopSourceIPs = topN(ips, a.topN)
	s.DistinctActors = len(actors)
	s.DistinctSourceIPs = len(ips)

	return s
}

// topN ranks counts descending, breaking ties by lexicographic key order,
// and truncates to n entries.
func topN(counts map[string]int, n int) []KeyCount {
	if len(counts) == 0 {
		return nil
	}
	ranked := make([]KeyCount, 0, len(counts))
	for k, c := range counts {
		ranked = append(ranked, KeyCount{Key: k, Count: c})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Key < ranked[j].Key
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
