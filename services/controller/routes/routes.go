// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/GameProbe/services/controller/handlers"
	"github.com/AleutianAI/GameProbe/services/controller/history"
	"github.com/AleutianAI/GameProbe/services/controller/session"
)

// SetupRoutes wires the controller service's HTTP surface.
//
// The /api group is the stable contract the dashboard depends on; its
// paths and payload shapes must not change.
func SetupRoutes(router *gin.Engine, ctrl *session.Controller, store *history.Store) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/start-test", handlers.StartTest(ctrl))
		api.POST("/stop-test", handlers.StopTest(ctrl))
		api.GET("/metrics", handlers.GetMetrics(ctrl))
		api.GET("/status", handlers.GetStatus(ctrl))
		api.POST("/reset-status", handlers.ResetStatus(ctrl))
		api.GET("/metrics/ws", handlers.StreamMetrics(ctrl))

		hist := api.Group("/history")
		{
			hist.GET("", handlers.ListHistory(store))
			hist.GET("/statistics", handlers.GetHistoryStatistics(store))
			hist.GET("/:id", handlers.GetHistoryRecord(store))
			hist.DELETE("/:id", handlers.DeleteHistoryRecord(store))
			hist.DELETE("", handlers.ClearHistory(store))
		}
	}
}
