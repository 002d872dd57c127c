// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agent provides the trainable policy contract consumed by the
// interaction loop, plus the built-in lightweight policy families.
//
// # Description
//
// The loop treats a policy as opaque: act on an observation, learn from the
// resulting transition. The built-in families are deliberately small:
// tabular value estimates keyed by the coverage fingerprint for discrete
// spaces, and a reward-nudged Gaussian walk for the continuous racing space.
// They exist to drive exploration, not to play well; heavier learners can
// be swapped in behind the same interface.
//
// # Thread Safety
//
// Policies are owned by one interaction loop and are NOT safe for
// concurrent use.
package agent

import (
	"math/rand"

	"github.com/AleutianAI/GameProbe/services/controller/analytics"
	"github.com/AleutianAI/GameProbe/services/controller/gameenv"
	"github.com/AleutianAI/GameProbe/services/controller/strategy"
)

// Transition is one learning sample: the step's inputs and its scored
// outcome.
type Transition struct {
	Observation gameenv.Observation
	Action      gameenv.Action
	Reward      float64
	Next        gameenv.Observation
}

// Policy is an opaque trainable agent.
type Policy interface {
	// Act chooses the next action for an observation.
	Act(obs gameenv.Observation) gameenv.Action
	// Learn folds one transition into the policy.
	Learn(t Transition)
}

// New builds the policy for a selected strategy. seed makes the policy's
// exploration deterministic for tests; pass a clock-derived seed in
// production.
func New(s strategy.Strategy, seed int64) Policy {
	rng := rand.New(rand.NewSource(seed))
	switch s.Family {
	case strategy.FamilySAC:
		return newContinuousPolicy(s.Space, rng)
	case strategy.FamilyPPO:
		return newDiscretePolicy(s.Space, rng, 0.25, 0.2)
	case strategy.FamilyHRL:
		return newDiscretePolicy(s.Space, rng, 0.35, 0.1)
	default: // DQN
		return newDiscretePolicy(s.Space, rng, 0.30, 0.15)
	}
}

// discretePolicy is an epsilon-greedy tabular learner. State identity is
// the coverage fingerprint, which keeps the table bounded by the number of
// distinct states the tracker would count anyway.
type discretePolicy struct {
	space   gameenv.ActionSpace
	rng     *rand.Rand
	epsilon float64
	alpha   float64
	values  map[analytics.Fingerprint][]float64
}

func newDiscretePolicy(space gameenv.ActionSpace, rng *rand.Rand, epsilon, alpha float64) *discretePolicy {
	return &discretePolicy{
		space:   space,
		rng:     rng,
		epsilon: epsilon,
		alpha:   alpha,
		values:  make(map[analytics.Fingerprint][]float64),
	}
}

func (p *discretePolicy) row(obs gameenv.Observation) []float64 {
	fp := analytics.FingerprintOf(obs)
	row, ok := p.values[fp]
	if !ok {
		row = make([]float64, p.space.N)
		p.values[fp] = row
	}
	return row
}

func (p *discretePolicy) Act(obs gameenv.Observation) gameenv.Action {
	if p.rng.Float64() < p.epsilon {
		return gameenv.Action{Index: p.rng.Intn(p.space.N)}
	}
	row := p.row(obs)
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return gameenv.Action{Index: best}
}

func (p *discretePolicy) Learn(t Transition) {
	row := p.row(t.Observation)
	if t.Action.Index < 0 || t.Action.Index >= len(row) {
		return
	}
	row[t.Action.Index] += p.alpha * (t.Reward - row[t.Action.Index])
}

// continuousPolicy explores a bounded action vector with Gaussian noise and
// nudges its mean toward actions that scored above the rewards seen so far.
type continuousPolicy struct {
	space gameenv.ActionSpace
	rng   *rand.Rand
	mean  []float64
	sigma float64

	rewardCount int
	rewardMean  float64
}

func newContinuousPolicy(space gameenv.ActionSpace, rng *rand.Rand) *continuousPolicy {
	return &continuousPolicy{
		space: space,
		rng:   rng,
		mean:  make([]float64, space.Dims),
		sigma: 0.4,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (p *continuousPolicy) Act(obs gameenv.Observation) gameenv.Action {
	axes := make([]float64, p.space.Dims)
	for i := range axes {
		axes[i] = clamp(p.mean[i]+p.rng.NormFloat64()*p.sigma, p.space.Low, p.space.High)
	}
	return gameenv.Action{Axes: axes}
}

func (p *continuousPolicy) Learn(t Transition) {
	p.rewardCount++
	p.rewardMean += (t.Reward - p.rewardMean) / float64(p.rewardCount)

	if t.Reward <= p.rewardMean || len(t.Action.Axes) != len(p.mean) {
		return
	}
	for i, a := range t.Action.Axes {
		p.mean[i] = clamp(p.mean[i]+0.1*(a-p.mean[i]), p.space.Low, p.space.High)
	}
}
