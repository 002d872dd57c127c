// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the wire types of the controller service: session
// status values, metrics snapshots, history records and request payloads.
package datatypes

// Status is the session lifecycle state exposed to API callers.
type Status string

const (
	StatusIdle       Status = "Idle"
	StatusStarting   Status = "Starting"
	StatusTraining   Status = "Training"
	StatusStopping   Status = "Stopping"
	StatusStopped    Status = "Stopped"
	StatusCompleting Status = "Completing"
	StatusCompleted  Status = "Completed"
	StatusErroring   Status = "Erroring"
	StatusError      Status = "Error"
)

// Terminal reports whether the status is an end state a new session may
// start from.
func (s Status) Terminal() bool {
	switch s {
	case StatusIdle, StatusStopped, StatusCompleted, StatusError:
		return true
	}
	return false
}

// StartRequest is the POST /api/start-test payload.
type StartRequest struct {
	// Genre selects the testing strategy. Required.
	Genre string `json:"genre" binding:"required"`
	// Target is an opaque window/process handle for the capture daemon.
	Target string `json:"target,omitempty"`
}

// MetricsSnapshot is a point-in-time copy of the live session metrics.
//
// Published whole by the interaction loop; readers always see a complete
// snapshot, never a torn mix of two.
type MetricsSnapshot struct {
	Coverage         int     `json:"coverage"`
	Crashes          int     `json:"crashes"`
	FPS              float64 `json:"fps"`
	CurrentAlgorithm string  `json:"current_algorithm"`
	Status           Status  `json:"status"`
	TotalSteps       int     `json:"total_steps"`
	RewardMean       float64 `json:"reward_mean"`
	WindowFocused    bool    `json:"window_focused"`
	ErrorLog         string  `json:"error_log,omitempty"`
}

// IdleSnapshot is the default snapshot reported when nothing has run.
func IdleSnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		CurrentAlgorithm: "None",
		Status:           StatusIdle,
	}
}
