// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gameenv

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDaemon mimics the capture daemon's HTTP surface.
type fakeDaemon struct {
	t *testing.T

	alive      bool
	done       bool
	focused    bool
	lastTarget string
	lastAction Action
	released   bool
	steps      int
}

func (d *fakeDaemon) frame(seq int) frameEnvelope {
	pixels := make([]byte, 16*16)
	for i := range pixels {
		pixels[i] = byte(seq)
	}
	return frameEnvelope{
		Frame:   base64.StdEncoding.EncodeToString(pixels),
		Width:   16,
		Height:  16,
		Done:    d.done,
		Focused: d.focused,
	}
}

func (d *fakeDaemon) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/reset", func(w http.ResponseWriter, r *http.Request) {
		var req resetRequest
		require.NoError(d.t, json.NewDecoder(r.Body).Decode(&req))
		d.lastTarget = req.Target
		d.steps = 0
		json.NewEncoder(w).Encode(d.frame(0))
	})
	mux.HandleFunc("/step", func(w http.ResponseWriter, r *http.Request) {
		var req stepRequest
		require.NoError(d.t, json.NewDecoder(r.Body).Decode(&req))
		d.lastAction = req.Action
		d.steps++
		json.NewEncoder(w).Encode(d.frame(d.steps))
	})
	mux.HandleFunc("/alive", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"alive": d.alive})
	})
	mux.HandleFunc("/release", func(w http.ResponseWriter, r *http.Request) {
		d.released = true
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func TestRemoteAdapterRoundTrip(t *testing.T) {
	daemon := &fakeDaemon{t: t, alive: true, focused: true}
	srv := httptest.NewServer(daemon.handler())
	defer srv.Close()

	a := NewRemoteAdapter(srv.URL, "game.exe", nil)
	ctx := context.Background()

	obs, err := a.Reset(ctx)
	require.NoError(t, err)
	assert.Equal(t, "game.exe", daemon.lastTarget)
	assert.Equal(t, 16, obs.Width)
	assert.True(t, a.WindowFocused())

	next, done, err := a.Step(ctx, Action{Index: 3})
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 3, daemon.lastAction.Index)
	assert.NotEqual(t, obs.Digest(), next.Digest())

	assert.True(t, a.IsAlive(ctx))

	require.NoError(t, a.Close())
	assert.True(t, daemon.released)
}

func TestRemoteAdapterDoneAndFocusFlags(t *testing.T) {
	daemon := &fakeDaemon{t: t, alive: true, done: true, focused: false}
	srv := httptest.NewServer(daemon.handler())
	defer srv.Close()

	a := NewRemoteAdapter(srv.URL, "", nil)
	_, err := a.Reset(context.Background())
	require.NoError(t, err)

	_, done, err := a.Step(context.Background(), Action{})
	require.NoError(t, err)
	assert.True(t, done)
	assert.False(t, a.WindowFocused())
}

func TestRemoteAdapterDaemonErrors(t *testing.T) {
	t.Run("http error maps to ErrEnvironmentUnavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no window", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		a := NewRemoteAdapter(srv.URL, "", nil)
		_, err := a.Reset(context.Background())
		assert.True(t, errors.Is(err, ErrEnvironmentUnavailable), "err = %v", err)
	})

	t.Run("unreachable daemon maps to ErrEnvironmentUnavailable", func(t *testing.T) {
		a := NewRemoteAdapter("http://127.0.0.1:1", "", nil)
		_, err := a.Reset(context.Background())
		assert.True(t, errors.Is(err, ErrEnvironmentUnavailable), "err = %v", err)
	})

	t.Run("dead daemon is not alive", func(t *testing.T) {
		a := NewRemoteAdapter("http://127.0.0.1:1", "", nil)
		assert.False(t, a.IsAlive(context.Background()))
	})

	t.Run("frame size mismatch is rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(frameEnvelope{
				Frame:  base64.StdEncoding.EncodeToString([]byte{1, 2, 3}),
				Width:  16,
				Height: 16,
			})
		}))
		defer srv.Close()

		a := NewRemoteAdapter(srv.URL, "", nil)
		_, err := a.Reset(context.Background())
		assert.Error(t, err)
	})
}
