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
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/GameProbe/services/controller/datatypes"
	"github.com/AleutianAI/GameProbe/services/controller/history"
	"github.com/AleutianAI/GameProbe/storage/badger"
)

func newHistoryRouter(t *testing.T) (*gin.Engine, *history.Store) {
	t.Helper()
	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := history.NewStore(db, nil)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	hist := router.Group("/api/history")
	hist.GET("", ListHistory(store))
	hist.GET("/statistics", GetHistoryStatistics(store))
	hist.GET("/:id", GetHistoryRecord(store))
	hist.DELETE("/:id", DeleteHistoryRecord(store))
	hist.DELETE("", ClearHistory(store))
	return router, store
}

func seedHistory(t *testing.T, store *history.Store, n int) {
	t.Helper()
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		rec := datatypes.HistoryRecord{
			ID:        fmt.Sprintf("sess-%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Genre:     "platformer",
			Algorithm: "DQN",
			Status:    datatypes.StatusCompleted,
			Metrics:   datatypes.HistoryMetrics{Coverage: 10 * (i + 1), TotalSteps: 100},
		}
		if i%2 == 1 {
			rec.Genre = "racing"
			rec.Algorithm = "SAC"
		}
		require.NoError(t, store.Append(rec))
	}
}

func TestListHistory(t *testing.T) {
	t.Run("empty archive", func(t *testing.T) {
		router, _ := newHistoryRouter(t)

		w := doJSON(router, http.MethodGet, "/api/history", "")
		assert.Equal(t, http.StatusOK, w.Code)

		body := decodeBody(t, w)
		assert.Equal(t, float64(0), body["total"])
		assert.Empty(t, body["tests"])
		assert.NotNil(t, body["tests"], "tests must be an empty list, not null")
	})

	t.Run("lists newest first", func(t *testing.T) {
		router, store := newHistoryRouter(t)
		seedHistory(t, store, 4)

		w := doJSON(router, http.MethodGet, "/api/history", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Tests []datatypes.HistoryRecord `json:"tests"`
			Total int                       `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 4, body.Total)
		require.Len(t, body.Tests, 4)
		assert.Equal(t, "sess-3", body.Tests[0].ID)
	})

	t.Run("genre filter", func(t *testing.T) {
		router, store := newHistoryRouter(t)
		seedHistory(t, store, 4)

		w := doJSON(router, http.MethodGet, "/api/history?genre=racing", "")
		body := decodeBody(t, w)
		assert.Equal(t, float64(2), body["total"])
	})

	t.Run("limit reports full total", func(t *testing.T) {
		router, store := newHistoryRouter(t)
		seedHistory(t, store, 4)

		w := doJSON(router, http.MethodGet, "/api/history?limit=1", "")
		var body struct {
			Tests []datatypes.HistoryRecord `json:"tests"`
			Total int                       `json:"total"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, 4, body.Total)
		assert.Len(t, body.Tests, 1)
	})

	t.Run("invalid limits rejected", func(t *testing.T) {
		router, _ := newHistoryRouter(t)
		for _, limit := range []string{"0", "-1", "1001", "abc"} {
			w := doJSON(router, http.MethodGet, "/api/history?limit="+limit, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, "limit=%s", limit)
		}
	})
}

func TestGetHistoryRecord(t *testing.T) {
	router, store := newHistoryRouter(t)
	seedHistory(t, store, 2)

	t.Run("found", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/history/sess-0", "")
		assert.Equal(t, http.StatusOK, w.Code)

		var rec datatypes.HistoryRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
		assert.Equal(t, "sess-0", rec.ID)
		assert.Equal(t, 10, rec.Metrics.Coverage)
	})

	t.Run("missing", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/history/ghost", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, decodeBody(t, w)["detail"], "ghost")
	})
}

func TestDeleteHistoryRecord(t *testing.T) {
	router, store := newHistoryRouter(t)
	seedHistory(t, store, 2)

	w := doJSON(router, http.MethodDelete, "/api/history/sess-0", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/history/sess-0", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/history/sess-0", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClearHistory(t *testing.T) {
	router, store := newHistoryRouter(t)
	seedHistory(t, store, 3)

	w := doJSON(router, http.MethodDelete, "/api/history", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "Cleared 3")

	w = doJSON(router, http.MethodGet, "/api/history", "")
	assert.Equal(t, float64(0), decodeBody(t, w)["total"])
}

func TestGetHistoryStatistics(t *testing.T) {
	router, store := newHistoryRouter(t)
	seedHistory(t, store, 4)

	w := doJSON(router, http.MethodGet, "/api/history/statistics", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var stats datatypes.HistoryStatistics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.ByGenre["platformer"])
	assert.Equal(t, 2, stats.ByGenre["racing"])
	assert.Equal(t, 4, stats.ByStatus[string(datatypes.StatusCompleted)])
	assert.InDelta(t, 25.0, stats.AverageCoverage, 1e-9)
}
