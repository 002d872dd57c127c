// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/GameProbe/services/controller/datatypes"
	"github.com/AleutianAI/GameProbe/services/controller/history"
)

const maxHistoryLimit = 1000

// ListHistory lists archived sessions, most recent first, with optional
// genre/algorithm/status filters and a limit.
func ListHistory(store *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := datatypes.HistoryFilter{
			Genre:     c.Query("genre"),
			Algorithm: c.Query("algorithm"),
			Status:    c.Query("status"),
		}
		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 1 || limit > maxHistoryLimit {
				c.JSON(http.StatusBadRequest, gin.H{
					"detail": fmt.Sprintf("limit must be an integer between 1 and %d", maxHistoryLimit),
				})
				return
			}
			filter.Limit = limit
		}

		records, total, err := store.List(filter)
		if err != nil {
			slog.Error("failed to list history", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to retrieve test history"})
			return
		}
		if records == nil {
			records = []datatypes.HistoryRecord{}
		}
		c.JSON(http.StatusOK, gin.H{"tests": records, "total": total})
	}
}

// GetHistoryRecord returns one archived session by ID.
func GetHistoryRecord(store *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		rec, err := store.Get(id)
		if errors.Is(err, history.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"detail": fmt.Sprintf("test with ID %s not found", id),
			})
			return
		}
		if err != nil {
			slog.Error("failed to load history record", "id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to retrieve test details"})
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

// GetHistoryStatistics aggregates the whole archive.
func GetHistoryStatistics(store *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := store.Statistics()
		if err != nil {
			slog.Error("failed to aggregate history", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to retrieve statistics"})
			return
		}
		c.JSON(http.StatusOK, stats)
	}
}

// DeleteHistoryRecord removes one archived session by ID.
func DeleteHistoryRecord(store *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		err := store.Delete(id)
		if errors.Is(err, history.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"detail": fmt.Sprintf("test with ID %s not found", id),
			})
			return
		}
		if err != nil {
			slog.Error("failed to delete history record", "id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to delete test"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": fmt.Sprintf("Test %s deleted successfully", id),
		})
	}
}

// ClearHistory removes every archived session.
func ClearHistory(store *history.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := store.Clear()
		if err != nil {
			slog.Error("failed to clear history", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"detail": "failed to clear history"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "success",
			"message": fmt.Sprintf("Cleared %d test history entries", count),
		})
	}
}
