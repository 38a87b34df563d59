package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/five82/jointail/internal/logtail"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestExpandSources_GlobsSortedAndDeduplicated(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "svc", "b.log"))
	touch(t, filepath.Join(dir, "svc", "a.log"))
	touch(t, filepath.Join(dir, "svc", "deep", "c.log"))
	touch(t, filepath.Join(dir, "other.txt"))

	cfg := Config{Sources: []Source{
		{Path: filepath.Join(dir, "first.log")},
		{Path: filepath.Join(dir, "svc", "**", "*.log"), Tag: "svc", Start: logtail.StartEnd},
		{Path: filepath.Join(dir, "svc", "a.log"), Tag: "dup"},
	}}

	got, err := cfg.ExpandSources(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("ExpandSources returned error: %v", err)
	}

	want := []Source{
		{Path: filepath.Join(dir, "first.log"), Tag: "first.log"},
		{Path: filepath.Join(dir, "svc", "a.log"), Tag: "svc:a.log", Start: logtail.StartEnd},
		{Path: filepath.Join(dir, "svc", "b.log"), Tag: "svc:b.log", Start: logtail.StartEnd},
		{Path: filepath.Join(dir, "svc", "deep", "c.log"), Tag: "svc:c.log", Start: logtail.StartEnd},
	}
	if len(got) != len(want) {
		t.Fatalf("ExpandSources = %#v, want %#v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("source[%d] = %#v, want %#v", i, got[i], want[i])
		}
	}
}

func TestExpandSources_NothingLeftIsAnError(t *testing.T) {
	cfg := Config{Sources: []Source{{Path: filepath.Join(t.TempDir(), "*.log")}}}
	_, err := cfg.ExpandSources(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if !errors.Is(err, ErrNoSources) {
		t.Fatalf("ExpandSources error = %v, want ErrNoSources", err)
	}
}

func TestOverrideSources_ReplacesConfiguredList(t *testing.T) {
	cfg := Default()
	cfg.DefaultStart = logtail.StartEnd
	cfg.Sources = []Source{{Path: "/configured.log", Tag: "c"}}

	cfg.OverrideSources(nil)
	if len(cfg.Sources) != 1 || cfg.Sources[0].Path != "/configured.log" {
		t.Fatalf("empty override changed sources: %#v", cfg.Sources)
	}

	cfg.OverrideSources([]string{"/x.log", "/y.log"})
	if len(cfg.Sources) != 2 || cfg.Sources[0].Path != "/x.log" || cfg.Sources[1].Start != logtail.StartEnd {
		t.Fatalf("Sources = %#v", cfg.Sources)
	}
}
