// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	s := Load()
	assert.Equal(t, "12320", s.Port)
	assert.Empty(t, s.EnvDaemonURL)
	assert.Equal(t, "data/history", s.HistoryPath)
	assert.Equal(t, 100000, s.StepBudget)
	assert.Equal(t, 30, s.FreezeThreshold)
	assert.Equal(t, 20.0, s.StepRate)
	assert.Equal(t, 1.0, s.Reward.Novel)
	assert.Equal(t, 5.0, s.Reward.Crash)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("GAMEPROBE_PORT", "9000")
	t.Setenv("GAMEPROBE_ENV_DAEMON_URL", "http://localhost:7001")
	t.Setenv("GAMEPROBE_STEP_BUDGET", "500")
	t.Setenv("GAMEPROBE_FREEZE_THRESHOLD", "10")
	t.Setenv("GAMEPROBE_STEP_RATE", "5.5")
	t.Setenv("GAMEPROBE_REWARD_RARE", "0.25")

	s := Load()
	assert.Equal(t, "9000", s.Port)
	assert.Equal(t, "http://localhost:7001", s.EnvDaemonURL)
	assert.Equal(t, 500, s.StepBudget)
	assert.Equal(t, 10, s.FreezeThreshold)
	assert.Equal(t, 5.5, s.StepRate)
	assert.Equal(t, 0.25, s.Reward.Rare)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("GAMEPROBE_STEP_BUDGET", "not-a-number")
	t.Setenv("GAMEPROBE_FREEZE_THRESHOLD", "-4")
	t.Setenv("GAMEPROBE_STEP_RATE", "-1")

	s := Load()
	assert.Equal(t, 100000, s.StepBudget)
	assert.Equal(t, 30, s.FreezeThreshold)
	assert.Equal(t, 20.0, s.StepRate)
}
