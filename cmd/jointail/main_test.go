package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/jointail/internal/prefs"
)

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, _, err := newLogger(flags{logLevel: "loud"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func TestNewLoggerHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closeLog, err := newLogger(flags{logLevel: "warn"}, &buf)
	require.NoError(t, err)
	defer closeLog()

	logger.Info("hidden")
	logger.Warn("shown", "source", "a.log")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "source=a.log")
}

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.log")
	var buf bytes.Buffer
	logger, closeLog, err := newLogger(flags{logLevel: "debug", logFile: path, tui: true}, &buf)
	require.NoError(t, err)
	logger.Debug("to file")
	closeLog()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Empty(t, buf.String())
}

func TestRootCommandRunsAgainstFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("cycle_interval_us = 0\nfile_interval_us = 0\n"), 0o644))
	missing := filepath.Join(dir, "nothing", "*.log")

	cmd := newRootCmd()
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"--config", cfg, missing})

	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no input sources"), err.Error())
}

func TestRootCommandDefaultsPrefsPath(t *testing.T) {
	cmd := newRootCmd()
	flag := cmd.Flags().Lookup("prefs")
	require.NotNil(t, flag)
	assert.Equal(t, prefs.DefaultPath(), flag.DefValue)
}
