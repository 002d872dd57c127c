// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusIdle, StatusStopped, StatusCompleted, StatusError}
	active := []Status{StatusStarting, StatusTraining, StatusStopping,
		StatusCompleting, StatusErroring}

	for _, s := range terminal {
		assert.True(t, s.Terminal(), "%s should be terminal", s)
	}
	for _, s := range active {
		assert.False(t, s.Terminal(), "%s should not be terminal", s)
	}
}

// The dashboard reads these keys by name; renames break it silently.
func TestMetricsSnapshotJSONKeys(t *testing.T) {
	payload, err := json.Marshal(MetricsSnapshot{
		Coverage:         3,
		CurrentAlgorithm: "DQN",
		Status:           StatusTraining,
		WindowFocused:    true,
	})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(payload, &m))
	for _, key := range []string{
		"coverage", "crashes", "fps", "current_algorithm",
		"status", "total_steps", "reward_mean", "window_focused",
	} {
		assert.Contains(t, m, key)
	}
	assert.NotContains(t, m, "error_log", "empty error log must be omitted")
}

func TestIdleSnapshot(t *testing.T) {
	s := IdleSnapshot()
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, "None", s.CurrentAlgorithm)
	assert.Zero(t, s.TotalSteps)
}
