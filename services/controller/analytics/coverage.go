// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analytics implements the per-session analysis components of the
// interaction loop: state-coverage tracking, crash/freeze classification and
// reward scoring.
//
// # Thread Safety
//
// All types in this package are owned by a single interaction loop and are
// NOT safe for concurrent use. The loop publishes their outputs through the
// metrics aggregator; nothing else reads them directly.
package analytics

import (
	"github.com/AleutianAI/GameProbe/services/controller/gameenv"
)

// hashEdge is the side length of the downsampled grid used for the coverage
// fingerprint. An 8x8 average hash collapses frames that differ only by
// noise or sub-block motion into the same 64-bit state.
const hashEdge = 8

// rareVisitCeiling is the visit count below which a state still earns the
// rare-state reward bonus.
const rareVisitCeiling = 5

// Fingerprint is a 64-bit perceptual hash of an observation.
type Fingerprint uint64

// FingerprintOf computes the average hash of an observation: downsample to
// an 8x8 grid by block mean, then set one bit per cell brighter than the
// grid mean.
func FingerprintOf(obs gameenv.Observation) Fingerprint {
	if obs.Empty() || obs.Width < hashEdge || obs.Height < hashEdge {
		return 0
	}

	var cells [hashEdge * hashEdge]uint64
	cellW := obs.Width / hashEdge
	cellH := obs.Height / hashEdge
	for cy := 0; cy < hashEdge; cy++ {
		for cx := 0; cx < hashEdge; cx++ {
			var sum uint64
			for y := cy * cellH; y < (cy+1)*cellH; y++ {
				row := obs.Frame[y*obs.Width:]
				for x := cx * cellW; x < (cx+1)*cellW; x++ {
					sum += uint64(row[x])
				}
			}
			cells[cy*hashEdge+cx] = sum / uint64(cellW*cellH)
		}
	}

	var total uint64
	for _, c := range cells {
		total += c
	}
	mean := total / uint64(len(cells))

	var bits uint64
	for i, c := range cells {
		if c > mean {
			bits |= 1 << uint(i)
		}
	}
	return Fingerprint(bits)
}

// CoverageResult reports how one observation relates to the states seen so
// far in the session.
type CoverageResult struct {
	// Novel is true when the fingerprint was not seen before.
	Novel bool
	// Rare is true for previously seen states with few visits.
	Rare bool
	// Visits is the visit count for this fingerprint, including this one.
	Visits int
}

// CoverageTracker deduplicates observation fingerprints for one session.
//
// The fingerprint set is append-only; Unique() is monotonically
// non-decreasing for the tracker's lifetime.
type CoverageTracker struct {
	seen   map[Fingerprint]int
	unique int
}

// NewCoverageTracker creates an empty tracker.
func NewCoverageTracker() *CoverageTracker {
	return &CoverageTracker{seen: make(map[Fingerprint]int)}
}

// Observe fingerprints the observation and records the visit.
func (t *CoverageTracker) Observe(obs gameenv.Observation) CoverageResult {
	fp := FingerprintOf(obs)
	t.seen[fp]++
	visits := t.seen[fp]
	if visits == 1 {
		t.unique++
		return CoverageResult{Novel: true, Visits: 1}
	}
	return CoverageResult{Rare: visits < rareVisitCeiling, Visits: visits}
}

// Unique returns the cumulative count of distinct states.
func (t *CoverageTracker) Unique() int {
	return t.unique
}
