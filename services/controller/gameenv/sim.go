// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gameenv

import (
	"context"
)

// SimConfig scripts the behavior of a SimAdapter.
//
// Zero values mean "never": a zero FreezeAfter never freezes, a zero
// DieAfter never dies, a zero DoneAfter never signals done.
type SimConfig struct {
	// Width and Height of generated frames. Defaults to 64x64.
	Width, Height int

	// FreezeAfter repeats the last frame verbatim once this many steps
	// have been taken.
	FreezeAfter int

	// DieAfter makes IsAlive return false once this many steps have been
	// taken.
	DieAfter int

	// DoneAfter makes Step return done=true at this step count.
	DoneAfter int

	// FailReset makes Reset return ErrEnvironmentUnavailable.
	FailReset bool

	// RepeatEvery repeats the previous frame on every Nth step, without
	// entering a sustained freeze. Used to exercise hysteresis.
	RepeatEvery int
}

// SimAdapter is a deterministic in-process environment.
//
// Frames are synthesized from an internal step counter, so by default every
// step yields a frame no earlier step produced. Scripted faults (freeze,
// process death, episode end) are driven by SimConfig.
type SimAdapter struct {
	cfg   SimConfig
	steps int
	last  Observation
}

// NewSimAdapter creates a simulated environment with the given script.
func NewSimAdapter(cfg SimConfig) *SimAdapter {
	if cfg.Width <= 0 {
		cfg.Width = 64
	}
	if cfg.Height <= 0 {
		cfg.Height = 64
	}
	return &SimAdapter{cfg: cfg}
}

func (s *SimAdapter) frame(seq int) Observation {
	pixels := make([]byte, s.cfg.Width*s.cfg.Height)
	// Cheap LCG keyed by the sequence number. Distinct seq values produce
	// frames whose 8x8 average hash differs, which is all the tests need.
	state := uint64(seq)*6364136223846793005 + 1442695040888963407
	for i := range pixels {
		state = state*6364136223846793005 + 1442695040888963407
		pixels[i] = byte(state >> 56)
	}
	return Observation{Frame: pixels, Width: s.cfg.Width, Height: s.cfg.Height}
}

// Reset acquires the simulated target.
func (s *SimAdapter) Reset(ctx context.Context) (Observation, error) {
	if s.cfg.FailReset {
		return Observation{}, ErrEnvironmentUnavailable
	}
	s.steps = 0
	s.last = s.frame(0)
	return s.last, nil
}

// Step advances the simulation one action.
func (s *SimAdapter) Step(ctx context.Context, action Action) (Observation, bool, error) {
	s.steps++

	frozen := s.cfg.FreezeAfter > 0 && s.steps > s.cfg.FreezeAfter
	repeat := s.cfg.RepeatEvery > 0 && s.steps%s.cfg.RepeatEvery == 0
	if !frozen && !repeat {
		s.last = s.frame(s.steps)
	}

	done := s.cfg.DoneAfter > 0 && s.steps >= s.cfg.DoneAfter
	return s.last, done, nil
}

// IsAlive reports the scripted process liveness.
func (s *SimAdapter) IsAlive(ctx context.Context) bool {
	return s.cfg.DieAfter == 0 || s.steps < s.cfg.DieAfter
}

// WindowFocused always reports true; the simulation has no real window.
func (s *SimAdapter) WindowFocused() bool { return true }

// Close is a no-op for the simulation.
func (s *SimAdapter) Close() error { return nil }
