// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package session implements the test session controller and the
// environment interaction loop.
//
// # Description
//
// The controller owns session lifecycle. At most one session is active
// process-wide; the invariant is enforced by a compare-and-swap on a single
// atomic phase cell, so two concurrent Start calls resolve
// deterministically: exactly one claims the slot, the other fails fast.
// The interaction loop runs in its own goroutine, owns all loop-local state
// (coverage set, hysteresis counters, reward totals) and communicates only
// through published metrics snapshots and its cancellation context.
//
// # Thread Safety
//
// Controller is safe for concurrent use by request handlers. The loop is
// the sole mutator of session state; handlers only read snapshots or signal
// start/stop/reset.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/GameProbe/services/controller/agent"
	"github.com/AleutianAI/GameProbe/services/controller/analytics"
	"github.com/AleutianAI/GameProbe/services/controller/datatypes"
	"github.com/AleutianAI/GameProbe/services/controller/gameenv"
	"github.com/AleutianAI/GameProbe/services/controller/metrics"
	"github.com/AleutianAI/GameProbe/services/controller/observability"
	"github.com/AleutianAI/GameProbe/services/controller/strategy"
)

// phase is the value held in the controller's atomic status cell.
type phase int32

const (
	phaseIdle phase = iota
	phaseStarting
	phaseTraining
	phaseStopping
	phaseStopped
	phaseCompleting
	phaseCompleted
	phaseErroring
	phaseError
)

func (p phase) status() datatypes.Status {
	switch p {
	case phaseStarting:
		return datatypes.StatusStarting
	case phaseTraining:
		return datatypes.StatusTraining
	case phaseStopping:
		return datatypes.StatusStopping
	case phaseStopped:
		return datatypes.StatusStopped
	case phaseCompleting:
		return datatypes.StatusCompleting
	case phaseCompleted:
		return datatypes.StatusCompleted
	case phaseErroring:
		return datatypes.StatusErroring
	case phaseError:
		return datatypes.StatusError
	default:
		return datatypes.StatusIdle
	}
}

// startable reports whether a new session may claim the slot from p.
func (p phase) startable() bool {
	switch p {
	case phaseIdle, phaseStopped, phaseCompleted, phaseError:
		return true
	}
	return false
}

// Archive is the history sink the controller appends finished sessions to.
type Archive interface {
	Append(rec datatypes.HistoryRecord) error
}

// AdapterFactory builds the environment adapter for one session. target is
// the opaque handle from the start request, possibly empty.
type AdapterFactory func(target string) gameenv.Adapter

// PolicyFactory builds the trainable policy for a selected strategy.
type PolicyFactory func(s strategy.Strategy) agent.Policy

// Options configures a Controller.
type Options struct {
	// StepBudget is the per-session step ceiling. Required, > 0.
	StepBudget int

	// FreezeThreshold is the consecutive identical-frame count classified
	// as a freeze.
	FreezeThreshold int

	// StepRate caps steps per second. Zero disables pacing.
	StepRate float64

	// Reward holds the scoring weights.
	Reward analytics.RewardWeights

	// StopTimeout bounds how long Stop waits for loop confirmation.
	StopTimeout time.Duration

	// NewAdapter builds the per-session environment adapter. Required.
	NewAdapter AdapterFactory

	// NewPolicy builds the per-session policy. Nil uses the built-in
	// families with a clock-derived seed.
	NewPolicy PolicyFactory

	// Metrics receives Prometheus instrumentation. Optional.
	Metrics *observability.ControllerMetrics

	// Logger for controller and loop events. Nil uses slog.Default().
	Logger *slog.Logger
}

// liveSession is the controller's record of the in-flight run. Owned by
// the loop goroutine after Start hands it over; the controller only touches
// it under mu and only while holding lifecycle authority.
type liveSession struct {
	id        string
	genre     strategy.Genre
	strat     strategy.Strategy
	target    string
	startedAt time.Time
	doneCh    chan struct{}
	cancel    context.CancelFunc
}

// Controller orchestrates session lifecycle and the interaction loop.
type Controller struct {
	opts    Options
	logger  *slog.Logger
	agg     *metrics.Aggregator
	archive Archive

	// phaseCell is the process-wide active-session slot. All lifecycle
	// transitions go through CAS or store on this cell.
	phaseCell atomic.Int32

	mu      sync.Mutex
	current *liveSession
}

// NewController creates a controller in the Idle state.
func NewController(opts Options, agg *metrics.Aggregator, archive Archive) (*Controller, error) {
	if opts.StepBudget <= 0 {
		return nil, fmt.Errorf("step budget must be positive, got %d", opts.StepBudget)
	}
	if opts.NewAdapter == nil {
		return nil, fmt.Errorf("adapter factory is required")
	}
	if opts.FreezeThreshold <= 0 {
		opts.FreezeThreshold = 30
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 10 * time.Second
	}
	if opts.NewPolicy == nil {
		opts.NewPolicy = func(s strategy.Strategy) agent.Policy {
			return agent.New(s, time.Now().UnixNano())
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if agg == nil {
		agg = metrics.NewAggregator()
	}
	return &Controller{
		opts:    opts,
		logger:  opts.Logger.With(slog.String("component", "session_controller")),
		agg:     agg,
		archive: archive,
	}, nil
}

func (c *Controller) loadPhase() phase {
	return phase(c.phaseCell.Load())
}

func (c *Controller) casPhase(from, to phase) bool {
	return c.phaseCell.CompareAndSwap(int32(from), int32(to))
}

// Status returns the current lifecycle status.
func (c *Controller) Status() datatypes.Status {
	return c.loadPhase().status()
}

// Metrics returns the most recent published snapshot.
func (c *Controller) Metrics() datatypes.MetricsSnapshot {
	return c.agg.Snapshot()
}

// Start claims the active-session slot and spawns the interaction loop.
//
// # Description
//
// Validates the genre, atomically claims the slot (the losing side of a
// concurrent Start race gets ErrSessionAlreadyRunning), selects the
// strategy and returns immediately. The loop transitions Starting→Training
// once the environment reset succeeds, or finalizes with Error if it fails.
//
// # Inputs
//
//   - genre: one of platformer, fps, racing, rpg. Case-insensitive.
//   - target: opaque window/process handle, may be empty.
//
// # Outputs
//
//   - string: the new session ID.
//   - error: strategy.ErrInvalidGenre or ErrSessionAlreadyRunning.
func (c *Controller) Start(genre, target string) (string, error) {
	g, err := strategy.ParseGenre(genre)
	if err != nil {
		return "", err
	}
	strat, err := strategy.Select(g)
	if err != nil {
		return "", err
	}

	// Claim the slot. A single CAS attempt from the observed phase keeps
	// the race deterministic: of two concurrent starts, exactly one swap
	// succeeds.
	observed := c.loadPhase()
	if !observed.startable() || !c.casPhase(observed, phaseStarting) {
		return "", ErrSessionAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	sess := &liveSession{
		id:        uuid.NewString(),
		genre:     g,
		strat:     strat,
		target:    target,
		startedAt: time.Now(),
		doneCh:    make(chan struct{}),
		cancel:    cancel,
	}

	c.mu.Lock()
	c.current = sess
	c.mu.Unlock()

	c.agg.Publish(datatypes.MetricsSnapshot{
		CurrentAlgorithm: string(strat.Family),
		Status:           datatypes.StatusStarting,
	})
	if c.opts.Metrics != nil {
		c.opts.Metrics.ActiveSessions.Set(1)
	}

	c.logger.Info("session starting",
		"session_id", sess.id, "genre", g, "algorithm", strat.Family, "target", target)

	go c.run(ctx, sess)
	return sess.id, nil
}

// Stop requests cooperative cancellation of the active session.
//
// The flag is observed at the top of the next step; no Policy.act is
// invoked after it is seen. Stop waits up to StopTimeout for the loop to
// confirm finalization, then returns regardless; the loop still finalizes
// on its own once its in-flight environment call returns.
func (c *Controller) Stop() error {
	if !c.casPhase(phaseTraining, phaseStopping) {
		return ErrSessionNotRunning
	}

	c.mu.Lock()
	sess := c.current
	c.mu.Unlock()
	if sess == nil {
		// Slot said Training but no live session; repair to Idle.
		c.phaseCell.Store(int32(phaseIdle))
		return ErrSessionNotRunning
	}

	c.logger.Info("session stop requested", "session_id", sess.id)
	sess.cancel()

	select {
	case <-sess.doneCh:
	case <-time.After(c.opts.StopTimeout):
		c.logger.Warn("loop did not confirm stop within timeout",
			"session_id", sess.id, "timeout", c.opts.StopTimeout)
	}
	return nil
}

// ResetStatus returns a terminal status to Idle and clears the error note.
//
// Allowed only from Stopped, Completed, Error or Idle (a second reset is a
// no-op). Returns ErrInvalidState while a session is active.
func (c *Controller) ResetStatus() error {
	for {
		observed := c.loadPhase()
		switch observed {
		case phaseIdle:
			c.agg.Reset()
			return nil
		case phaseStopped, phaseCompleted, phaseError:
			if c.casPhase(observed, phaseIdle) {
				c.agg.Reset()
				c.logger.Info("status reset to idle", "from", observed.status())
				return nil
			}
			// Lost a race with a concurrent start or reset; re-examine.
		default:
			return fmt.Errorf("%w: status is %s", ErrInvalidState, observed.status())
		}
	}
}

// Close cancels any active session and waits for its loop to finalize.
// Used on service shutdown.
func (c *Controller) Close() {
	c.mu.Lock()
	sess := c.current
	c.mu.Unlock()
	if sess == nil {
		return
	}
	sess.cancel()
	select {
	case <-sess.doneCh:
	case <-time.After(c.opts.StopTimeout):
	}
}
