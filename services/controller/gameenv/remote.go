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
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// RemoteAdapter drives a capture daemon over HTTP/JSON.
//
// # Description
//
// The daemon owns the platform-specific pieces (window discovery, screen
// capture, key and pad injection) and exposes them at /reset, /step and
// /alive. Frames travel base64-encoded; the daemon is expected to have
// already downsampled and grayscaled them.
type RemoteAdapter struct {
	baseURL string
	target  string
	client  *http.Client
	logger  *slog.Logger
	focused bool
}

// NewRemoteAdapter creates an adapter for the capture daemon at baseURL.
// target is the opaque window handle to acquire on Reset; empty means the
// daemon picks the foreground window.
func NewRemoteAdapter(baseURL, target string, logger *slog.Logger) *RemoteAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteAdapter{
		baseURL: baseURL,
		target:  target,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger.With(slog.String("component", "remote_adapter")),
	}
}

type frameEnvelope struct {
	Frame   string `json:"frame"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Done    bool   `json:"done"`
	Focused bool   `json:"focused"`
}

type resetRequest struct {
	Target string `json:"target,omitempty"`
}

type stepRequest struct {
	Action Action `json:"action"`
}

func (e frameEnvelope) observation() (Observation, error) {
	pixels, err := base64.StdEncoding.DecodeString(e.Frame)
	if err != nil {
		return Observation{}, fmt.Errorf("decode frame: %w", err)
	}
	if e.Width*e.Height != len(pixels) {
		return Observation{}, fmt.Errorf("frame size mismatch: %dx%d vs %d bytes",
			e.Width, e.Height, len(pixels))
	}
	return Observation{Frame: pixels, Width: e.Width, Height: e.Height}, nil
}

func (a *RemoteAdapter) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEnvironmentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: daemon returned %d: %s",
			ErrEnvironmentUnavailable, resp.StatusCode, bytes.TrimSpace(raw))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Reset acquires the target window and returns the first observation.
func (a *RemoteAdapter) Reset(ctx context.Context) (Observation, error) {
	var env frameEnvelope
	if err := a.post(ctx, "/reset", resetRequest{Target: a.target}, &env); err != nil {
		return Observation{}, err
	}
	a.focused = env.Focused
	return env.observation()
}

// Step applies action and returns the next observation plus the done flag.
func (a *RemoteAdapter) Step(ctx context.Context, action Action) (Observation, bool, error) {
	var env frameEnvelope
	if err := a.post(ctx, "/step", stepRequest{Action: action}, &env); err != nil {
		return Observation{}, false, err
	}
	a.focused = env.Focused
	obs, err := env.observation()
	return obs, env.Done, err
}

// WindowFocused reports whether the daemon said the target window had
// input focus on the most recent frame.
func (a *RemoteAdapter) WindowFocused() bool {
	return a.focused
}

// IsAlive asks the daemon whether the target process is still running.
// Transport failures count as not alive: if we cannot reach the daemon we
// cannot inject input either, so the session has no way to make progress.
func (a *RemoteAdapter) IsAlive(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/alive", nil)
	if err != nil {
		return false
	}
	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn("liveness probe failed", "error", err)
		return false
	}
	defer resp.Body.Close()

	var status struct {
		Alive bool `json:"alive"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return false
	}
	return status.Alive
}

// Close releases held inputs on the daemon side. Best effort.
func (a *RemoteAdapter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.post(ctx, "/release", struct{}{}, nil); err != nil {
		a.logger.Warn("failed to release daemon inputs", "error", err)
	}
	return nil
}
