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
	"errors"
	"testing"
)

func TestSimAdapterDistinctFrames(t *testing.T) {
	s := NewSimAdapter(SimConfig{})
	ctx := context.Background()

	obs, err := s.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if obs.Empty() {
		t.Fatal("Reset returned an empty observation")
	}

	seen := map[[32]byte]bool{obs.Digest(): true}
	for i := 0; i < 50; i++ {
		next, done, err := s.Step(ctx, Action{Index: 0})
		if err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
		if done {
			t.Fatalf("unscripted done at step %d", i)
		}
		if seen[next.Digest()] {
			t.Fatalf("step %d repeated an earlier frame", i)
		}
		seen[next.Digest()] = true
	}
}

func TestSimAdapterScriptedFreeze(t *testing.T) {
	s := NewSimAdapter(SimConfig{FreezeAfter: 3})
	ctx := context.Background()
	s.Reset(ctx)

	var last Observation
	for i := 0; i < 3; i++ {
		last, _, _ = s.Step(ctx, Action{})
	}
	for i := 0; i < 5; i++ {
		obs, _, _ := s.Step(ctx, Action{})
		if obs.Digest() != last.Digest() {
			t.Fatalf("frozen adapter changed frame at post-freeze step %d", i)
		}
	}
}

func TestSimAdapterScriptedDeath(t *testing.T) {
	s := NewSimAdapter(SimConfig{DieAfter: 2})
	ctx := context.Background()
	s.Reset(ctx)

	if !s.IsAlive(ctx) {
		t.Error("adapter dead before any step")
	}
	s.Step(ctx, Action{})
	s.Step(ctx, Action{})
	if s.IsAlive(ctx) {
		t.Error("adapter alive past DieAfter")
	}
}

func TestSimAdapterScriptedDone(t *testing.T) {
	s := NewSimAdapter(SimConfig{DoneAfter: 2})
	ctx := context.Background()
	s.Reset(ctx)

	_, done, _ := s.Step(ctx, Action{})
	if done {
		t.Error("done before DoneAfter")
	}
	_, done, _ = s.Step(ctx, Action{})
	if !done {
		t.Error("not done at DoneAfter")
	}
}

func TestSimAdapterFailReset(t *testing.T) {
	s := NewSimAdapter(SimConfig{FailReset: true})
	if _, err := s.Reset(context.Background()); !errors.Is(err, ErrEnvironmentUnavailable) {
		t.Errorf("err = %v, want ErrEnvironmentUnavailable", err)
	}
}

func TestSimAdapterResetRestartsSequence(t *testing.T) {
	s := NewSimAdapter(SimConfig{})
	ctx := context.Background()

	first, _ := s.Reset(ctx)
	s.Step(ctx, Action{})
	s.Step(ctx, Action{})
	again, _ := s.Reset(ctx)

	if first.Digest() != again.Digest() {
		t.Error("Reset did not restart the frame sequence")
	}
}
