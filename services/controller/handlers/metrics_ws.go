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
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/GameProbe/services/controller/datatypes"
	"github.com/AleutianAI/GameProbe/services/controller/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Dashboard runs on a different origin during development.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// metricsStreamInterval is how often the stream pushes a snapshot when the
// snapshot keeps changing.
const metricsStreamInterval = 500 * time.Millisecond

// StreamMetrics pushes metrics snapshots over a WebSocket until the client
// disconnects. Snapshots are republished only when they change, so an idle
// controller produces one frame and then silence.
func StreamMetrics(ctrl *session.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("failed to upgrade metrics websocket", "error", err)
			return
		}
		defer ws.Close()
		slog.Info("metrics stream client connected", "remote", ws.RemoteAddr())

		// Reader goroutine: we never expect client frames, but reading is
		// the only way to notice a close.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := ws.ReadMessage(); err != nil {
					return
				}
			}
		}()

		var last datatypes.MetricsSnapshot
		sent := false
		ticker := time.NewTicker(metricsStreamInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				slog.Info("metrics stream client disconnected", "remote", ws.RemoteAddr())
				return
			case <-ticker.C:
				snap := ctrl.Metrics()
				if sent && snap == last {
					continue
				}
				if err := ws.WriteJSON(snap); err != nil {
					slog.Warn("failed to write metrics frame", "error", err)
					return
				}
				last = snap
				sent = true
			}
		}
	}
}
