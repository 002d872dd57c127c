// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gameenv defines the environment adapter contract for GameProbe.
//
// # Description
//
// The controller drives an external game through an Adapter: a thin wrapper
// around screen capture and input injection that exposes a reset/step/alive
// surface. Two implementations ship with the service: a RemoteAdapter that
// talks JSON to a capture daemon, and a SimAdapter used by tests and
// headless smoke runs.
//
// # Thread Safety
//
// An Adapter is driven by exactly one interaction loop at a time and is not
// required to be safe for concurrent use.
package gameenv

import (
	"context"
	"crypto/sha256"
	"errors"
)

// ErrEnvironmentUnavailable indicates the target process or window could not
// be acquired for capture.
var ErrEnvironmentUnavailable = errors.New("environment unavailable")

// SpaceKind distinguishes discrete and continuous action spaces.
type SpaceKind int

const (
	// SpaceDiscrete is a fixed enumerable action set.
	SpaceDiscrete SpaceKind = iota
	// SpaceContinuous is a bounded real-valued action vector.
	SpaceContinuous
)

func (k SpaceKind) String() string {
	if k == SpaceContinuous {
		return "continuous"
	}
	return "discrete"
}

// ActionSpace describes the shape of legal actions for one strategy.
//
// For discrete spaces N is the number of actions and Labels names them in
// index order. For continuous spaces Dims axes are emitted, each bounded to
// [Low, High].
type ActionSpace struct {
	Kind   SpaceKind
	N      int
	Labels []string
	Dims   int
	Low    float64
	High   float64
}

// Action is one command applied to the target. Discrete actions carry Index;
// continuous actions carry Axes with len == ActionSpace.Dims.
type Action struct {
	Index int       `json:"index"`
	Axes  []float64 `json:"axes,omitempty"`
}

// Observation is one processed frame of the target: grayscale pixels in
// row-major order. The zero value is the empty observation.
type Observation struct {
	Frame  []byte
	Width  int
	Height int
}

// Empty reports whether the observation carries no pixels.
func (o Observation) Empty() bool {
	return len(o.Frame) == 0
}

// Digest returns an exact-identity digest of the frame. Two observations
// with equal digests are pixel-identical; this is the signal the crash
// detector uses, deliberately stricter than the coverage fingerprint.
func (o Observation) Digest() [sha256.Size]byte {
	return sha256.Sum256(o.Frame)
}

// Adapter wraps capture and input injection for one target.
type Adapter interface {
	// Reset acquires the target and returns the initial observation.
	// Returns ErrEnvironmentUnavailable (possibly wrapped) when the target
	// cannot be acquired.
	Reset(ctx context.Context) (Observation, error)

	// Step applies the action and returns the resulting observation and a
	// done flag (the target signaled a natural episode end).
	Step(ctx context.Context, action Action) (Observation, bool, error)

	// IsAlive reports whether the target process is still running.
	IsAlive(ctx context.Context) bool

	// Close releases capture resources and any held inputs.
	Close() error
}
