// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package metrics holds the live metrics snapshot shared between the
// interaction loop (single writer) and API pollers (many readers).
package metrics

import (
	"sync/atomic"

	"github.com/AleutianAI/GameProbe/services/controller/datatypes"
)

// Aggregator publishes whole MetricsSnapshot values atomically.
//
// # Thread Safety
//
// Safe for concurrent use. Publish replaces the entire snapshot in one
// atomic pointer swap, so readers observe either the previous complete
// snapshot or the new one, never a mix.
type Aggregator struct {
	current atomic.Pointer[datatypes.MetricsSnapshot]
}

// NewAggregator creates an aggregator holding the Idle snapshot.
func NewAggregator() *Aggregator {
	a := &Aggregator{}
	a.Reset()
	return a
}

// Publish replaces the current snapshot.
func (a *Aggregator) Publish(s datatypes.MetricsSnapshot) {
	a.current.Store(&s)
}

// Snapshot returns the most recently published snapshot.
func (a *Aggregator) Snapshot() datatypes.MetricsSnapshot {
	return *a.current.Load()
}

// Reset restores the default Idle snapshot.
func (a *Aggregator) Reset() {
	idle := datatypes.IdleSnapshot()
	a.current.Store(&idle)
}
