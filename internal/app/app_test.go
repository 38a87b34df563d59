package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/jointail/internal/config"
	"github.com/five82/jointail/internal/logtail"
	"github.com/five82/jointail/internal/prefs"
	"github.com/five82/jointail/internal/state"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunMergesSourcesIntoConsoleAndJoinedLog(t *testing.T) {
	dir := t.TempDir()
	api := filepath.Join(dir, "api.log")
	db := filepath.Join(dir, "db.log")
	joined := filepath.Join(dir, "joined.log")
	require.NoError(t, os.WriteFile(api, []byte("level=info msg=\"api up\"\n"), 0o644))
	require.NoError(t, os.WriteFile(db, []byte(`{"level":"error","msg":"db down"}`+"\n"), 0o644))
	require.NoError(t, os.WriteFile(joined, []byte("stale\n"), 0o644))

	cfgPath := writeConfig(t, dir, fmt.Sprintf(`
file_interval_us = 1000
cycle_interval_us = 1000
output = %q
prefix_tags = true
sources = [{ path = %q, tag = "api" }, { path = %q, tag = "db" }]
fields = [{ name = "level", width = -5 }, { name = "msg" }]
`, joined, api, db))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	var console bytes.Buffer
	err := Run(ctx, Options{ConfigPath: cfgPath, Console: &console, NoColor: true, Logger: discardLogger()})
	require.NoError(t, err)

	out := console.String()
	assert.Contains(t, out, "api\tinfo \tapi up\n")
	assert.Contains(t, out, "db\terror\tdb down\n")
	assert.Equal(t, 2, strings.Count(out, "=== "))

	data, err := os.ReadFile(joined)
	require.NoError(t, err)
	assert.Equal(t, out, string(data), "joined log mirrors the console")
}

func TestRunArgumentsReplaceConfiguredSources(t *testing.T) {
	dir := t.TempDir()
	configured := filepath.Join(dir, "configured.log")
	cli := filepath.Join(dir, "cli.log")
	require.NoError(t, os.WriteFile(configured, []byte("msg=configured\n"), 0o644))
	require.NoError(t, os.WriteFile(cli, []byte("msg=cli\n"), 0o644))

	cfgPath := writeConfig(t, dir, fmt.Sprintf(`
persist = false
cycle_interval_us = 1000
sources = [{ path = %q }]
fields = [{ name = "msg" }]
`, configured))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var console bytes.Buffer
	err := Run(ctx, Options{ConfigPath: cfgPath, Sources: []string{cli}, Console: &console, NoColor: true, Logger: discardLogger()})
	require.NoError(t, err)
	assert.Contains(t, console.String(), "cli\n")
	assert.NotContains(t, console.String(), "configured\n")
}

func TestRunRejectsBadFilterAtStartup(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, `
sources = [{ path = "a.log" }]
include = [{ field = "msg", tests = ["~ ("] }]
`)

	err := Run(context.Background(), Options{ConfigPath: cfgPath, Console: io.Discard, Logger: discardLogger()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile filters")
}

func TestRunEmptyFieldListIsFatal(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.log")
	require.NoError(t, os.WriteFile(src, []byte("msg=hello\n"), 0o644))
	cfgPath := writeConfig(t, dir, fmt.Sprintf(`
persist = false
cycle_interval_us = 1000
sources = [{ path = %q }]
fields = []
`, src))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := Run(ctx, Options{ConfigPath: cfgPath, Console: io.Discard, NoColor: true, Logger: discardLogger()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no output fields")
}

func TestOpenSourcesPrefersCheckpoint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.log")
	require.NoError(t, os.WriteFile(path, []byte("msg=one\nmsg=two\n"), 0o644))

	offsets, err := state.Load(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	offsets.Set(path, 8)

	sources, err := openSources([]config.Source{{Path: path, Tag: "a", Start: logtail.StartEnd}}, offsets, discardLogger())
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, int64(8), sources[0].Offset)
	assert.Equal(t, "a", sources[0].Tag)
}

func TestOpenSourcesIgnoresCheckpointPastEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.log")
	require.NoError(t, os.WriteFile(path, []byte("msg=one\n"), 0o644))

	offsets, err := state.Load(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	offsets.Set(path, 500)

	sources, err := openSources([]config.Source{{Path: path, Start: logtail.StartEnd}}, offsets, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, int64(len("msg=one\n")), sources[0].Offset, "falls back to the start mode")
}

func TestOpenSourcesStartModes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.log")
	require.NoError(t, os.WriteFile(path, []byte("a=1\nb=2\nc=3\n"), 0o644))

	tests := []struct {
		name string
		src  config.Source
		want int64
	}{
		{"beginning", config.Source{Path: path, Start: logtail.StartBeginning}, 0},
		{"end", config.Source{Path: path, Start: logtail.StartEnd}, 12},
		{"tail", config.Source{Path: path, Start: logtail.StartTail, TailLines: 1}, 8},
		{"missing", config.Source{Path: filepath.Join(dir, "none.log"), Start: logtail.StartEnd}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sources, err := openSources([]config.Source{tt.src}, nil, discardLogger())
			require.NoError(t, err)
			assert.Equal(t, tt.want, sources[0].Offset)
		})
	}
}

func TestViewerOptionsUsesDefaultPrefsPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "jointail")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prefs.toml"), []byte("theme = \"Slate\"\nfollow = false\n"), 0o644))

	opts, err := viewerOptions([]*logtail.Source{{Path: "/logs/a.log", Tag: "a"}}, "")
	require.NoError(t, err)

	assert.Equal(t, prefs.DefaultPath(), opts.PrefsPath)
	assert.Equal(t, "Slate", opts.Prefs.Theme)
	assert.False(t, opts.Prefs.Follow)
	assert.Equal(t, []string{"a"}, opts.Sources)
}

func TestViewerOptionsKeepsExplicitPrefsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewer.toml")

	opts, err := viewerOptions(nil, path)
	require.NoError(t, err)
	assert.Equal(t, path, opts.PrefsPath)
	assert.Equal(t, prefs.Defaults(), opts.Prefs)
}

func TestViewerStatusCarriesCheckpointTime(t *testing.T) {
	stats := Stats{Cycles: 3, Emitted: 2, Dropped: 1, Filtered: 4}

	status := viewerStatus(stats, nil)
	assert.Equal(t, int64(3), status.Cycles)
	assert.True(t, status.Checkpoint.IsZero())

	offsets, err := state.Load(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)
	offsets.Set("/logs/a.log", 10)
	require.NoError(t, offsets.Save())

	status = viewerStatus(stats, offsets)
	assert.Equal(t, offsets.Updated(), status.Checkpoint)
	assert.False(t, status.Checkpoint.IsZero())
}
