// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the controller service settings from environment
// variables, with defaults suitable for local runs.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/AleutianAI/GameProbe/services/controller/analytics"
)

// Settings is the controller service configuration, read once at startup.
type Settings struct {
	// Port the HTTP control surface listens on.
	Port string

	// EnvDaemonURL is the capture daemon base URL. Empty selects the
	// in-process simulated environment.
	EnvDaemonURL string

	// HistoryPath is the BadgerDB directory for the session archive.
	HistoryPath string

	// StepBudget is the per-session ceiling on loop steps. Reaching it is
	// a normal completion.
	StepBudget int

	// FreezeThreshold is the consecutive identical-frame count the crash
	// detector classifies as a freeze.
	FreezeThreshold int

	// StepRate caps loop steps per second so the agent does not outrun
	// the capture daemon. Zero disables pacing.
	StepRate float64

	// Reward holds the scoring weights.
	Reward analytics.RewardWeights

	// StopTimeout bounds how long stop() waits for the loop to confirm
	// finalization before returning anyway.
	StopTimeout time.Duration
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	return fallback
}

// Load reads settings from the environment.
func Load() Settings {
	reward := analytics.DefaultRewardWeights()
	reward.Novel = envFloat("GAMEPROBE_REWARD_NOVEL", reward.Novel)
	reward.Rare = envFloat("GAMEPROBE_REWARD_RARE", reward.Rare)
	reward.Crash = envFloat("GAMEPROBE_REWARD_CRASH", reward.Crash)
	reward.StepPenalty = envFloat("GAMEPROBE_REWARD_STEP_PENALTY", reward.StepPenalty)

	return Settings{
		Port:            envString("GAMEPROBE_PORT", "12320"),
		EnvDaemonURL:    envString("GAMEPROBE_ENV_DAEMON_URL", ""),
		HistoryPath:     envString("GAMEPROBE_HISTORY_PATH", "data/history"),
		StepBudget:      envInt("GAMEPROBE_STEP_BUDGET", 100000),
		FreezeThreshold: envInt("GAMEPROBE_FREEZE_THRESHOLD", 30),
		StepRate:        envFloat("GAMEPROBE_STEP_RATE", 20),
		Reward:          reward,
		StopTimeout:     10 * time.Second,
	}
}
