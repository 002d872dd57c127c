// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the gin handlers of the controller service:
// the session-control surface, the history surface and the live metrics
// stream. Errors surface as {"detail": message} with no internal state
// leaked beyond a human-readable cause.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/GameProbe/services/controller/datatypes"
	"github.com/AleutianAI/GameProbe/services/controller/session"
	"github.com/AleutianAI/GameProbe/services/controller/strategy"
)

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// StartTest starts a new testing session.
func StartTest(ctrl *session.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.StartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "genre is required"})
			return
		}

		id, err := ctrl.Start(req.Genre, req.Target)
		switch {
		case errors.Is(err, strategy.ErrInvalidGenre):
			slog.Warn("rejected start request", "genre", req.Genre, "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		case errors.Is(err, session.ErrSessionAlreadyRunning):
			slog.Warn("rejected start request: session already running")
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		case err != nil:
			slog.Error("failed to start session", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to start session"})
			return
		}

		slog.Info("testing session started", "session_id", id, "genre", req.Genre)
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": fmt.Sprintf("Testing started for genre: %s", req.Genre),
		})
	}
}

// StopTest stops the active testing session.
func StopTest(ctrl *session.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ctrl.Stop(); err != nil {
			slog.Warn("rejected stop request", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Testing stopped successfully",
		})
	}
}

// GetMetrics returns the current metrics snapshot. Always succeeds; the
// Idle snapshot is returned when nothing has run.
func GetMetrics(ctrl *session.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, ctrl.Metrics())
	}
}

// GetStatus returns just the lifecycle status.
func GetStatus(ctrl *session.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": ctrl.Status()})
	}
}

// ResetStatus clears a terminal status back to Idle.
func ResetStatus(ctrl *session.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ctrl.ResetStatus(); err != nil {
			slog.Warn("rejected status reset", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": "Status reset to Idle",
		})
	}
}
