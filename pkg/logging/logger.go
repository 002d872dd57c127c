// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for GameProbe components.
//
// Built on the standard library slog package. Default output is stderr
// (Unix CLI convention); optional file logging writes JSON to
// "{service}_{date}.log" in a configured directory.
//
// # Basic Usage
//
//	logger := logging.Default()
//	logger.Info("session started", "session_id", id)
//
// With file logging:
//
//	logger := logging.New(logging.Config{
//	    Level:   logging.LevelDebug,
//	    LogDir:  "~/.gameprobe/logs",
//	    Service: "controller",
//	})
//	defer logger.Close()
//
// # Thread Safety
//
// Logger is safe for concurrent use.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents log severity, ordered Debug < Info < Warn < Error.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) toSlog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config configures the Logger. The zero value logs Info+ as text to
// stderr with no file output.
type Config struct {
	// Level is the minimum severity emitted.
	Level Level

	// LogDir enables file logging when non-empty. Supports a leading ~
	// for home expansion; created with 0750 if missing. File output is
	// always JSON.
	LogDir string

	// Service is attached to every entry as the "service" attribute and
	// names the log file.
	Service string

	// JSON switches stderr output from text to JSON.
	JSON bool

	// Quiet disables stderr output entirely (file-only daemons).
	Quiet bool
}

// Logger wraps slog with optional multi-destination output.
type Logger struct {
	*slog.Logger

	mu   sync.Mutex
	file *os.File
}

// Default returns a stderr-only logger at Info level.
func Default() *Logger {
	return New(Config{})
}

func expandHome(dir string) string {
	if !strings.HasPrefix(dir, "~") {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return dir
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~"))
}

// New creates a logger from config. Errors opening the log file degrade to
// stderr-only logging rather than failing; a logger you cannot construct
// helps nobody.
func New(cfg Config) *Logger {
	level := cfg.Level.toSlog()
	l := &Logger{}

	var writers []io.Writer
	var stderrHandler slog.Handler
	if !cfg.Quiet {
		if cfg.JSON {
			stderrHandler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		} else {
			stderrHandler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		}
	}

	if cfg.LogDir != "" {
		dir := expandHome(cfg.LogDir)
		if err := os.MkdirAll(dir, 0750); err == nil {
			name := cfg.Service
			if name == "" {
				name = "gameprobe"
			}
			path := filepath.Join(dir,
				fmt.Sprintf("%s_%s.log", name, time.Now().Format("2006-01-02")))
			f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640)
			if err == nil {
				l.file = f
				writers = append(writers, f)
			}
		}
	}

	var handler slog.Handler
	switch {
	case stderrHandler != nil && len(writers) > 0:
		fileHandler := slog.NewJSONHandler(writers[0], &slog.HandlerOptions{Level: level})
		handler = multiHandler{stderrHandler, fileHandler}
	case len(writers) > 0:
		handler = slog.NewJSONHandler(writers[0], &slog.HandlerOptions{Level: level})
	case stderrHandler != nil:
		handler = stderrHandler
	default:
		handler = slog.NewTextHandler(io.Discard, nil)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With(slog.String("service", cfg.Service))
	}
	l.Logger = logger
	return l
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
