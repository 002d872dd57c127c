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

import "time"

// HistoryMetrics is the final-metrics subset archived with a session.
type HistoryMetrics struct {
	Coverage   int     `json:"coverage"`
	Crashes    int     `json:"crashes"`
	FPS        float64 `json:"fps"`
	TotalSteps int     `json:"total_steps"`
	RewardMean float64 `json:"reward_mean"`
}

// HistoryRecord is the immutable archive of one finished session. Created
// exactly once at finalization and never mutated.
type HistoryRecord struct {
	ID              string         `json:"id"`
	Timestamp       time.Time      `json:"timestamp"`
	Genre           string         `json:"genre"`
	Algorithm       string         `json:"algorithm"`
	Status          Status         `json:"status"`
	DurationSeconds float64        `json:"duration_seconds"`
	Metrics         HistoryMetrics `json:"metrics"`
	Notes           string         `json:"notes"`
}

// HistoryFilter narrows a history listing. Empty fields match everything;
// Limit <= 0 means unlimited.
type HistoryFilter struct {
	Genre     string
	Algorithm string
	Status    string
	Limit     int
}

// HistoryStatistics aggregates the archive for the dashboard.
type HistoryStatistics struct {
	Total           int            `json:"total"`
	ByGenre         map[string]int `json:"by_genre"`
	ByAlgorithm     map[string]int `json:"by_algorithm"`
	ByStatus        map[string]int `json:"by_status"`
	AverageCoverage float64        `json:"average_coverage"`
	AverageCrashes  float64        `json:"average_crashes"`
	TotalCrashes    int            `json:"total_crashes"`
}
