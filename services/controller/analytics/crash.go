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

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/AleutianAI/GameProbe/services/controller/gameenv"
)

// CrashEventType classifies a detected fault.
type CrashEventType string

const (
	// EventCrash means the target process is gone.
	EventCrash CrashEventType = "crash"
	// EventFreeze means the target is alive but its output stopped changing.
	EventFreeze CrashEventType = "freeze"
)

// CrashEvent records one detected fault.
type CrashEvent struct {
	Type      CrashEventType `json:"type"`
	Step      int            `json:"step"`
	Timestamp time.Time      `json:"timestamp"`
	Note      string         `json:"note"`
}

// DetectorState is the hysteresis classifier state.
type DetectorState int

const (
	// StateOk means the target is producing changing output.
	StateOk DetectorState = iota
	// StateSuspect means recent frames repeated but below the threshold.
	StateSuspect
	// StateFreeze means the stale-frame run exceeded the threshold.
	StateFreeze
	// StateCrash means the process liveness check failed.
	StateCrash
)

func (s DetectorState) String() string {
	switch s {
	case StateSuspect:
		return "suspect"
	case StateFreeze:
		return "freeze"
	case StateCrash:
		return "crash"
	default:
		return "ok"
	}
}

// CrashResult is the outcome of one detector update.
type CrashResult struct {
	// Fatal means the session cannot continue (crash or sustained freeze).
	Fatal bool
	// Event is non-nil exactly when a new fault was classified this update.
	Event *CrashEvent
	// State is the detector state after the update.
	State DetectorState
}

// CrashDetector classifies target health from successive observations.
//
// # Description
//
// A single repeated frame is normal (paused animation, loading screen), so
// the detector requires a sustained run of pixel-identical frames before
// declaring a freeze. Identity uses an exact digest of the frame, not the
// coarse coverage fingerprint: a freeze is bytes-equal output, not merely
// a revisited state. Loss of process liveness is fatal immediately.
type CrashDetector struct {
	// freezeThreshold is the number of consecutive identical frames that
	// constitutes a freeze.
	freezeThreshold int

	state      DetectorState
	lastDigest [sha256.Size]byte
	haveLast   bool
	staleRun   int
}

// NewCrashDetector creates a detector. threshold is the consecutive
// identical-frame count that classifies as a freeze; values below 2 are
// clamped to 2 so a single repeat can never fire.
func NewCrashDetector(threshold int) *CrashDetector {
	if threshold < 2 {
		threshold = 2
	}
	return &CrashDetector{freezeThreshold: threshold, state: StateOk}
}

// Update classifies the target's condition after one step.
func (d *CrashDetector) Update(obs gameenv.Observation, isAlive bool, step int) CrashResult {
	if !isAlive {
		d.state = StateCrash
		return CrashResult{
			Fatal: true,
			State: StateCrash,
			Event: &CrashEvent{
				Type:      EventCrash,
				Step:      step,
				Timestamp: time.Now().UTC(),
				Note:      "target process liveness check failed",
			},
		}
	}

	digest := obs.Digest()
	identical := d.haveLast && digest == d.lastDigest
	d.lastDigest = digest
	d.haveLast = true

	if !identical {
		d.staleRun = 0
		d.state = StateOk
		return CrashResult{State: StateOk}
	}

	d.staleRun++
	if d.staleRun < d.freezeThreshold {
		d.state = StateSuspect
		return CrashResult{State: StateSuspect}
	}

	// Emit the freeze event once; the run count keeps growing but the
	// session is already being torn down.
	firstClassification := d.state != StateFreeze
	d.state = StateFreeze
	res := CrashResult{Fatal: true, State: StateFreeze}
	if firstClassification {
		res.Event = &CrashEvent{
			Type:      EventFreeze,
			Step:      step,
			Timestamp: time.Now().UTC(),
			Note:      fmt.Sprintf("%d consecutive identical frames", d.staleRun),
		}
	}
	return res
}

// State returns the current classifier state.
func (d *CrashDetector) State() DetectorState {
	return d.state
}
