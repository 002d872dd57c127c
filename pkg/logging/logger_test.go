// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogger(t *testing.T) {
	l := Default()
	require.NotNil(t, l)
	defer l.Close()

	// Must not panic on any severity.
	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")
}

func TestLevelToSlog(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.toSlog().String())
	assert.Equal(t, "INFO", LevelInfo.toSlog().String())
	assert.Equal(t, "WARN", LevelWarn.toSlog().String())
	assert.Equal(t, "ERROR", LevelError.toSlog().String())
}

func TestFileLogging(t *testing.T) {
	dir := t.TempDir()
	l := New(Config{
		Level:   LevelDebug,
		LogDir:  dir,
		Service: "testsvc",
		Quiet:   true,
	})
	l.Info("hello from the test", "key", "value")
	require.NoError(t, l.Close())

	path := filepath.Join(dir,
		"testsvc_"+time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)[0]
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "hello from the test", entry["msg"])
	assert.Equal(t, "value", entry["key"])
	assert.Equal(t, "testsvc", entry["service"])
}

func TestFileLoggingLevelFilter(t *testing.T) {
	dir := t.TempDir()
	l := New(Config{
		Level:   LevelWarn,
		LogDir:  dir,
		Service: "filtered",
		Quiet:   true,
	})
	l.Info("should be dropped")
	l.Warn("should be kept")
	require.NoError(t, l.Close())

	path := filepath.Join(dir,
		"filtered_"+time.Now().Format("2006-01-02")+".log")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "should be dropped")
	assert.Contains(t, string(data), "should be kept")
}

func TestQuietWithoutFileDiscards(t *testing.T) {
	l := New(Config{Quiet: true})
	defer l.Close()
	// Nothing to assert beyond not panicking with no destinations.
	l.Info("into the void")
}

func TestUnwritableLogDirDegrades(t *testing.T) {
	l := New(Config{LogDir: "/proc/definitely/not/writable"})
	defer l.Close()
	l.Info("still logs to stderr")
	assert.Nil(t, l.file)
}

func TestCloseIsIdempotent(t *testing.T) {
	l := New(Config{LogDir: t.TempDir(), Service: "twice"})
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "logs"), expandHome("~/logs"))
	assert.Equal(t, "/var/log", expandHome("/var/log"))
}
