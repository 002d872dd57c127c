// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus instrumentation for the
// controller service. Metrics are exposed at /metrics; all operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "gameprobe"

// ControllerMetrics holds all Prometheus metrics for the test controller.
//
// # Fields
//
//   - SessionsTotal: Counter of finished sessions by genre and final status
//   - StepsTotal: Counter of interaction loop steps
//   - CrashEventsTotal: Counter of detected faults by type (crash, freeze)
//   - StepDurationSeconds: Histogram of single-step wall time
//   - CoverageStates: Gauge of unique states in the active session
//   - ActiveSessions: Gauge, 1 while a session holds the slot
type ControllerMetrics struct {
	SessionsTotal       *prometheus.CounterVec
	StepsTotal          prometheus.Counter
	CrashEventsTotal    *prometheus.CounterVec
	StepDurationSeconds prometheus.Histogram
	CoverageStates      prometheus.Gauge
	ActiveSessions      prometheus.Gauge
}

// NewControllerMetrics registers the controller metrics on a registerer.
// Pass prometheus.DefaultRegisterer in production; tests use a private
// registry so repeated construction does not panic on double registration.
func NewControllerMetrics(reg prometheus.Registerer) *ControllerMetrics {
	factory := promauto.With(reg)
	return &ControllerMetrics{
		SessionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_total",
			Help:      "Finished test sessions by genre and final status.",
		}, []string{"genre", "status"}),
		StepsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "steps_total",
			Help:      "Interaction loop steps executed.",
		}),
		CrashEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "crash_events_total",
			Help:      "Detected target faults by type.",
		}, []string{"type"}),
		StepDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time of one observe-act-learn step.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		CoverageStates: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "coverage_states",
			Help:      "Unique states discovered by the active session.",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "active_sessions",
			Help:      "Whether a test session currently holds the active slot.",
		}),
	}
}
