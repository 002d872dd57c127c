// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analytics

// RewardWeights is the fixed scoring configuration for one session.
type RewardWeights struct {
	// Novel is the bonus for reaching a never-seen state.
	Novel float64
	// Rare is the bonus for revisiting a state with few prior visits.
	// Zero disables the term.
	Rare float64
	// Crash is the penalty applied when the step ended the session
	// fatally (crash or freeze).
	Crash float64
	// StepPenalty is a small constant cost per step that discourages
	// inaction.
	StepPenalty float64
}

// DefaultRewardWeights returns the stock scoring configuration.
func DefaultRewardWeights() RewardWeights {
	return RewardWeights{
		Novel:       1.0,
		Rare:        0.0,
		Crash:       5.0,
		StepPenalty: 0.01,
	}
}

// RewardEngine converts step outcomes into scalar rewards and keeps the
// running mean the metrics snapshot reports.
//
// The mean is recomputed incrementally; no per-step history is retained.
type RewardEngine struct {
	weights RewardWeights
	count   int
	mean    float64
}

// NewRewardEngine creates an engine with the given weights.
func NewRewardEngine(weights RewardWeights) *RewardEngine {
	return &RewardEngine{weights: weights}
}

// Score computes the reward for one step and folds it into the running mean.
func (e *RewardEngine) Score(cov CoverageResult, crash CrashResult) float64 {
	r := -e.weights.StepPenalty
	if cov.Novel {
		r += e.weights.Novel
	} else if cov.Rare {
		r += e.weights.Rare
	}
	if crash.Fatal {
		r -= e.weights.Crash
	}

	e.count++
	e.mean += (r - e.mean) / float64(e.count)
	return r
}

// Mean returns the running arithmetic mean of all rewards scored so far.
// Zero before any step.
func (e *RewardEngine) Mean() float64 {
	return e.mean
}
