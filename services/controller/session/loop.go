// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/AleutianAI/GameProbe/services/controller/agent"
	"github.com/AleutianAI/GameProbe/services/controller/analytics"
	"github.com/AleutianAI/GameProbe/services/controller/datatypes"
	"github.com/AleutianAI/GameProbe/services/controller/gameenv"
)

// fpsSmoothing is the EMA weight of the previous smoothed step rate.
const fpsSmoothing = 0.9

// focusReporter is implemented by adapters that know whether the target
// window currently has input focus.
type focusReporter interface {
	WindowFocused() bool
}

// loopState is everything the interaction loop mutates. It lives entirely
// on the loop goroutine; nothing here is shared.
type loopState struct {
	tracker  *analytics.CoverageTracker
	detector *analytics.CrashDetector
	rewards  *analytics.RewardEngine

	stepCount int
	crashes   int
	fps       float64
	errorNote string
}

// run is the background interaction loop. It owns all loop-local state and
// communicates only through published snapshots and the phase cell.
func (c *Controller) run(ctx context.Context, sess *liveSession) {
	logger := c.logger.With(slog.String("session_id", sess.id))

	st := &loopState{
		tracker:  analytics.NewCoverageTracker(),
		detector: analytics.NewCrashDetector(c.opts.FreezeThreshold),
		rewards:  analytics.NewRewardEngine(c.opts.Reward),
	}

	adapter := c.opts.NewAdapter(sess.target)

	// A panic inside the adapter or policy must end the session, not the
	// process.
	defer func() {
		if r := recover(); r != nil {
			logger.Error("interaction loop panicked", "panic", r, "step", st.stepCount)
			st.errorNote = fmt.Sprintf("internal failure at step %d: %v", st.stepCount, r)
			c.finalize(sess, adapter, st, phaseError)
		}
	}()

	obs, err := adapter.Reset(ctx)
	if err != nil {
		if ctx.Err() != nil {
			c.finalize(sess, adapter, st, phaseStopped)
			return
		}
		logger.Error("environment reset failed", "error", err)
		st.errorNote = fmt.Sprintf("failed to acquire environment: %v", err)
		c.finalize(sess, adapter, st, phaseError)
		return
	}

	if !c.casPhase(phaseStarting, phaseTraining) {
		// Phase moved under us; only shutdown does that while Starting.
		c.finalize(sess, adapter, st, phaseStopped)
		return
	}
	c.publishSnapshot(sess, adapter, st, datatypes.StatusTraining)
	logger.Info("training started", "algorithm", sess.strat.Family)

	policy := c.opts.NewPolicy(sess.strat)

	var limiter *rate.Limiter
	if c.opts.StepRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(c.opts.StepRate), 1)
	}

	lastStep := time.Now()
	for {
		// Cancellation is checked once per step, before the policy acts.
		if ctx.Err() != nil {
			c.finalize(sess, adapter, st, phaseStopped)
			return
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				c.finalize(sess, adapter, st, phaseStopped)
				return
			}
		}

		action := policy.Act(obs)
		next, done, err := adapter.Step(ctx, action)
		if err != nil {
			if ctx.Err() != nil {
				c.finalize(sess, adapter, st, phaseStopped)
				return
			}
			logger.Error("environment step failed",
				"error", err, "step", st.stepCount)
			st.errorNote = fmt.Sprintf("environment failure at step %d: %v", st.stepCount, err)
			c.finalize(sess, adapter, st, phaseError)
			return
		}

		alive := adapter.IsAlive(ctx)
		crashRes := st.detector.Update(next, alive, st.stepCount)
		if crashRes.Event != nil {
			st.crashes++
			logger.Warn("fault detected",
				"type", crashRes.Event.Type, "step", crashRes.Event.Step,
				"note", crashRes.Event.Note)
			if c.opts.Metrics != nil {
				c.opts.Metrics.CrashEventsTotal.
					WithLabelValues(string(crashRes.Event.Type)).Inc()
			}
		}

		covRes := st.tracker.Observe(next)
		reward := st.rewards.Score(covRes, crashRes)
		policy.Learn(agent.Transition{
			Observation: obs,
			Action:      action,
			Reward:      reward,
			Next:        next,
		})

		st.stepCount++
		now := time.Now()
		if dt := now.Sub(lastStep).Seconds(); dt > 0 {
			inst := 1.0 / dt
			if st.fps == 0 {
				st.fps = inst
			} else {
				st.fps = fpsSmoothing*st.fps + (1-fpsSmoothing)*inst
			}
			if c.opts.Metrics != nil {
				c.opts.Metrics.StepDurationSeconds.Observe(dt)
			}
		}
		lastStep = now
		if c.opts.Metrics != nil {
			c.opts.Metrics.StepsTotal.Inc()
			c.opts.Metrics.CoverageStates.Set(float64(st.tracker.Unique()))
		}

		c.publishSnapshot(sess, adapter, st, datatypes.StatusTraining)

		switch {
		case crashRes.Fatal:
			if crashRes.Event != nil {
				st.errorNote = fmt.Sprintf("%s detected at step %d: %s",
					crashRes.Event.Type, crashRes.Event.Step, crashRes.Event.Note)
			} else {
				st.errorNote = fmt.Sprintf("fatal fault at step %d", st.stepCount)
			}
			c.finalize(sess, adapter, st, phaseError)
			return
		case done:
			logger.Info("environment signaled episode end", "step", st.stepCount)
			c.finalize(sess, adapter, st, phaseCompleted)
			return
		case st.stepCount >= c.opts.StepBudget:
			logger.Info("step budget reached", "budget", c.opts.StepBudget)
			c.finalize(sess, adapter, st, phaseCompleted)
			return
		}

		obs = next
	}
}

func windowFocused(adapter gameenv.Adapter) bool {
	if fr, ok := adapter.(focusReporter); ok {
		return fr.WindowFocused()
	}
	return false
}

func (c *Controller) publishSnapshot(sess *liveSession, adapter gameenv.Adapter,
	st *loopState, status datatypes.Status) {
	c.agg.Publish(datatypes.MetricsSnapshot{
		Coverage:         st.tracker.Unique(),
		Crashes:          st.crashes,
		FPS:              st.fps,
		CurrentAlgorithm: string(sess.strat.Family),
		Status:           status,
		TotalSteps:       st.stepCount,
		RewardMean:       st.rewards.Mean(),
		WindowFocused:    windowFocused(adapter),
		ErrorLog:         st.errorNote,
	})
}

// finalize ends the session: teardown, archive, slot release.
//
// The terminal phase is stored only after the history append returns, so a
// new session cannot start while the archive write is in flight. A failed
// append is logged and swallowed; history loss never blocks the slot.
func (c *Controller) finalize(sess *liveSession, adapter gameenv.Adapter,
	st *loopState, terminal phase) {
	logger := c.logger.With(slog.String("session_id", sess.id))

	var intermediate phase
	switch terminal {
	case phaseStopped:
		intermediate = phaseStopping
	case phaseCompleted:
		intermediate = phaseCompleting
	default:
		terminal = phaseError
		intermediate = phaseErroring
	}
	c.phaseCell.Store(int32(intermediate))

	if err := adapter.Close(); err != nil {
		logger.Warn("environment adapter close failed", "error", err)
	}

	endedAt := time.Now()
	final := datatypes.MetricsSnapshot{
		Coverage:         st.tracker.Unique(),
		Crashes:          st.crashes,
		FPS:              st.fps,
		CurrentAlgorithm: string(sess.strat.Family),
		Status:           terminal.status(),
		TotalSteps:       st.stepCount,
		RewardMean:       st.rewards.Mean(),
		ErrorLog:         st.errorNote,
	}

	rec := datatypes.HistoryRecord{
		ID:              sess.id,
		Timestamp:       endedAt.UTC(),
		Genre:           string(sess.genre),
		Algorithm:       string(sess.strat.Family),
		Status:          terminal.status(),
		DurationSeconds: endedAt.Sub(sess.startedAt).Seconds(),
		Metrics: datatypes.HistoryMetrics{
			Coverage:   final.Coverage,
			Crashes:    final.Crashes,
			FPS:        final.FPS,
			TotalSteps: final.TotalSteps,
			RewardMean: final.RewardMean,
		},
		Notes: st.errorNote,
	}
	if c.archive != nil {
		if err := c.archive.Append(rec); err != nil {
			logger.Error("failed to archive session; continuing", "error", err)
		}
	}

	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()

	// Slot release happens after the archive write above.
	c.phaseCell.Store(int32(terminal))
	c.agg.Publish(final)

	if c.opts.Metrics != nil {
		c.opts.Metrics.ActiveSessions.Set(0)
		c.opts.Metrics.CoverageStates.Set(0)
		c.opts.Metrics.SessionsTotal.
			WithLabelValues(string(sess.genre), string(terminal.status())).Inc()
	}

	logger.Info("session finalized",
		"status", terminal.status(),
		"steps", st.stepCount,
		"coverage", final.Coverage,
		"crashes", st.crashes,
		"duration_seconds", rec.DurationSeconds)

	close(sess.doneCh)
}
