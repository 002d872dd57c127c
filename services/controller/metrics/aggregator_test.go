// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package metrics

import (
	"sync"
	"testing"

	"github.com/AleutianAI/GameProbe/services/controller/datatypes"
)

func TestAggregatorStartsIdle(t *testing.T) {
	a := NewAggregator()
	s := a.Snapshot()
	if s.Status != datatypes.StatusIdle {
		t.Errorf("initial status = %q, want idle", s.Status)
	}
	if s.CurrentAlgorithm != "None" {
		t.Errorf("initial algorithm = %q, want None", s.CurrentAlgorithm)
	}
}

func TestAggregatorPublishAndReset(t *testing.T) {
	a := NewAggregator()

	a.Publish(datatypes.MetricsSnapshot{
		Coverage:         12,
		Crashes:          1,
		CurrentAlgorithm: "DQN",
		Status:           datatypes.StatusTraining,
		TotalSteps:       340,
	})

	s := a.Snapshot()
	if s.Coverage != 12 || s.TotalSteps != 340 || s.Status != datatypes.StatusTraining {
		t.Errorf("snapshot did not round-trip: %+v", s)
	}

	a.Reset()
	if got := a.Snapshot(); got != datatypes.IdleSnapshot() {
		t.Errorf("reset snapshot = %+v, want idle", got)
	}
}

// One writer updating while many readers poll, the way the interaction loop
// and the API handlers share the aggregator. Run with -race.
func TestAggregatorConcurrentAccess(t *testing.T) {
	a := NewAggregator()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			a.Publish(datatypes.MetricsSnapshot{
				Coverage:   i,
				TotalSteps: i,
				Status:     datatypes.StatusTraining,
			})
		}
		close(stop)
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := a.Snapshot()
				// A snapshot must always be internally consistent.
				if s.Coverage != s.TotalSteps {
					t.Errorf("torn snapshot: coverage=%d steps=%d", s.Coverage, s.TotalSteps)
					return
				}
			}
		}()
	}

	wg.Wait()
}
