// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/AleutianAI/GameProbe/pkg/logging"
	"github.com/AleutianAI/GameProbe/services/controller/datatypes"
)

// client is set by the root command's PersistentPreRun before any
// subcommand runs.
var client *apiClient

func setClient(c *apiClient) { client = c }

type apiClient struct {
	baseURL string
	http    *http.Client
	logger  *logging.Logger
}

func newClient(baseURL string, logger *logging.Logger) *apiClient {
	return &apiClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// call performs one request and decodes the JSON body into out (when
// non-nil). API errors arrive as {"detail": message} and are returned as
// plain errors.
func (c *apiClient) call(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("calling controller", "method", method, "path", path)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("controller unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Detail != "" {
			return fmt.Errorf("%s", apiErr.Detail)
		}
		return fmt.Errorf("controller returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *apiClient) startTest(genre, target string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := c.call(http.MethodPost, "/api/start-test",
		datatypes.StartRequest{Genre: genre, Target: target}, &resp)
	return resp.Message, err
}

func (c *apiClient) stopTest() (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	err := c.call(http.MethodPost, "/api/stop-test", nil, &resp)
	return resp.Message, err
}

func (c *apiClient) printMetrics(w io.Writer) error {
	var snap datatypes.MetricsSnapshot
	if err := c.call(http.MethodGet, "/api/metrics", nil, &snap); err != nil {
		return err
	}
	fmt.Fprintf(w, "Status:     %s\n", snap.Status)
	fmt.Fprintf(w, "Algorithm:  %s\n", snap.CurrentAlgorithm)
	fmt.Fprintf(w, "Steps:      %d\n", snap.TotalSteps)
	fmt.Fprintf(w, "Coverage:   %d unique states\n", snap.Coverage)
	fmt.Fprintf(w, "Crashes:    %d\n", snap.Crashes)
	fmt.Fprintf(w, "FPS:        %.1f\n", snap.FPS)
	fmt.Fprintf(w, "Reward:     %.3f mean\n", snap.RewardMean)
	if snap.ErrorLog != "" {
		fmt.Fprintf(w, "Error:      %s\n", snap.ErrorLog)
	}
	return nil
}

func (c *apiClient) printHistory(w io.Writer, genre string, limit int) error {
	q := url.Values{}
	if genre != "" {
		q.Set("genre", genre)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/history"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Tests []datatypes.HistoryRecord `json:"tests"`
		Total int                       `json:"total"`
	}
	if err := c.call(http.MethodGet, path, nil, &resp); err != nil {
		return err
	}
	for _, rec := range resp.Tests {
		fmt.Fprintf(w, "%s  %-10s %-4s %-9s steps=%-7d coverage=%-6d crashes=%d\n",
			rec.Timestamp.Local().Format("2006-01-02 15:04"),
			rec.Genre, rec.Algorithm, rec.Status,
			rec.Metrics.TotalSteps, rec.Metrics.Coverage, rec.Metrics.Crashes)
	}
	fmt.Fprintf(w, "%d shown, %d total\n", len(resp.Tests), resp.Total)
	return nil
}

func (c *apiClient) printStatistics(w io.Writer) error {
	var stats datatypes.HistoryStatistics
	if err := c.call(http.MethodGet, "/api/history/statistics", nil, &stats); err != nil {
		return err
	}
	fmt.Fprintf(w, "Total sessions:   %d\n", stats.Total)
	fmt.Fprintf(w, "Total crashes:    %d\n", stats.TotalCrashes)
	fmt.Fprintf(w, "Avg coverage:     %.1f\n", stats.AverageCoverage)
	fmt.Fprintf(w, "Avg crashes:      %.2f\n", stats.AverageCrashes)
	for status, n := range stats.ByStatus {
		fmt.Fprintf(w, "  %-10s %d\n", status, n)
	}
	return nil
}
