// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agent

import (
	"testing"

	"github.com/AleutianAI/GameProbe/services/controller/gameenv"
	"github.com/AleutianAI/GameProbe/services/controller/strategy"
)

func testObs(fill byte) gameenv.Observation {
	pixels := make([]byte, 32*32)
	for i := range pixels {
		pixels[i] = fill
	}
	return gameenv.Observation{Frame: pixels, Width: 32, Height: 32}
}

func TestNewPolicyFamilies(t *testing.T) {
	for _, g := range strategy.Genres() {
		t.Run(string(g), func(t *testing.T) {
			s, err := strategy.Select(g)
			if err != nil {
				t.Fatalf("Select(%q) failed: %v", g, err)
			}
			p := New(s, 42)
			if p == nil {
				t.Fatal("New returned nil policy")
			}

			act := p.Act(testObs(1))
			switch s.Space.Kind {
			case gameenv.SpaceDiscrete:
				if act.Index < 0 || act.Index >= s.Space.N {
					t.Errorf("discrete action index %d outside [0,%d)", act.Index, s.Space.N)
				}
				if len(act.Axes) != 0 {
					t.Errorf("discrete action carries axes: %v", act.Axes)
				}
			case gameenv.SpaceContinuous:
				if len(act.Axes) != s.Space.Dims {
					t.Fatalf("axes = %d, want %d", len(act.Axes), s.Space.Dims)
				}
				for i, a := range act.Axes {
					if a < s.Space.Low || a > s.Space.High {
						t.Errorf("axis %d = %v outside [%v,%v]", i, a, s.Space.Low, s.Space.High)
					}
				}
			}
		})
	}
}

func TestPolicyDeterministicWithSeed(t *testing.T) {
	s, _ := strategy.Select(strategy.GenrePlatformer)
	a := New(s, 7)
	b := New(s, 7)

	obs := testObs(3)
	for i := 0; i < 100; i++ {
		if a.Act(obs).Index != b.Act(obs).Index {
			t.Fatalf("seeded policies diverged at step %d", i)
		}
	}
}

func TestDiscretePolicyLearns(t *testing.T) {
	s, _ := strategy.Select(strategy.GenrePlatformer)
	p := New(s, 1).(*discretePolicy)
	p.epsilon = 0 // force greedy so learning is observable

	obs := testObs(5)
	rewarded := gameenv.Action{Index: 2}
	for i := 0; i < 20; i++ {
		p.Learn(Transition{Observation: obs, Action: rewarded, Reward: 1.0, Next: obs})
	}

	if got := p.Act(obs); got.Index != rewarded.Index {
		t.Errorf("greedy action = %d, want the rewarded action %d", got.Index, rewarded.Index)
	}
}

func TestDiscretePolicyIgnoresOutOfRangeAction(t *testing.T) {
	s, _ := strategy.Select(strategy.GenrePlatformer)
	p := New(s, 1).(*discretePolicy)

	obs := testObs(5)
	p.Learn(Transition{Observation: obs, Action: gameenv.Action{Index: 99}, Reward: 1.0, Next: obs})
	p.Learn(Transition{Observation: obs, Action: gameenv.Action{Index: -1}, Reward: 1.0, Next: obs})

	for _, row := range p.values {
		for i, v := range row {
			if v != 0 {
				t.Errorf("value[%d] = %v after out-of-range learning, want 0", i, v)
			}
		}
	}
}

func TestContinuousPolicyNudgesMean(t *testing.T) {
	s, _ := strategy.Select(strategy.GenreRacing)
	p := New(s, 1).(*continuousPolicy)

	obs := testObs(5)
	// Establish a baseline mean reward, then feed an above-average action.
	p.Learn(Transition{Observation: obs, Action: gameenv.Action{Axes: []float64{0, 0}}, Reward: 0})
	p.Learn(Transition{Observation: obs, Action: gameenv.Action{Axes: []float64{0.8, -0.8}}, Reward: 5})

	if p.mean[0] <= 0 {
		t.Errorf("mean[0] = %v, want nudged toward 0.8", p.mean[0])
	}
	if p.mean[1] >= 0 {
		t.Errorf("mean[1] = %v, want nudged toward -0.8", p.mean[1])
	}
}
