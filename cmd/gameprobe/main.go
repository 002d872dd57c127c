// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// gameprobe is the operator CLI for the GameProbe controller service.
// It talks to a running controller over its HTTP API.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/GameProbe/pkg/logging"
)

var (
	serverURL string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "gameprobe",
	Short: "Control and inspect a GameProbe test controller",
	Long: `gameprobe drives the GameProbe controller service: start and stop
testing sessions, watch live metrics and browse the session archive.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := logging.LevelWarn
		if verbose {
			level = logging.LevelDebug
		}
		logger := logging.New(logging.Config{Level: level, Service: "cli"})
		setClient(newClient(serverURL, logger))
	},
}

var startCmd = &cobra.Command{
	Use:   "start <genre>",
	Short: "Start a testing session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetString("target")
		msg, err := client.startTest(args[0], target)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active testing session",
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := client.stopTest()
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show controller status and live metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return client.printMetrics(os.Stdout)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse the session archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		genre, _ := cmd.Flags().GetString("genre")
		return client.printHistory(os.Stdout, genre, limit)
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return client.printStatistics(os.Stdout)
	},
}

func main() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server",
		envOr("GAMEPROBE_SERVER", "http://localhost:12320"),
		"controller service base URL")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	startCmd.Flags().String("target", "", "opaque window/process handle to test")
	historyCmd.Flags().Int("limit", 20, "maximum records to show")
	historyCmd.Flags().String("genre", "", "filter by genre")

	historyCmd.AddCommand(historyStatsCmd)
	rootCmd.AddCommand(startCmd, stopCmd, statusCmd, historyCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
