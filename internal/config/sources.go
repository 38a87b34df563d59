package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// OverrideSources replaces the configured inputs with paths from the command
// line. Each path starts at the configured default position.
func (c *Config) OverrideSources(paths []string) {
	if len(paths) == 0 {
		return
	}
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, Source{Path: mustExpand(p), Start: c.DefaultStart})
	}
	c.Sources = sources
}

// ExpandSources resolves glob patterns into concrete files, keeping
// declaration order. Matches of one pattern are sorted. A path listed twice
// is kept at its first position. Plain paths are kept even when the file does
// not exist yet.
func (c Config) ExpandSources(logger *slog.Logger) ([]Source, error) {
	if logger == nil {
		logger = slog.Default()
	}

	seen := make(map[string]bool)
	var out []Source
	for _, src := range c.Sources {
		if !hasMeta(src.Path) {
			out = appendUnique(out, seen, src, src.Path)
			continue
		}

		matches, err := doublestar.FilepathGlob(src.Path, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", src.Path, err)
		}
		if len(matches) == 0 {
			logger.Warn("source pattern matched no files", "pattern", src.Path)
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			expanded := src
			// A pattern's tag names the group; each file still needs its own.
			if src.Tag != "" {
				expanded.Tag = src.Tag + ":" + filepath.Base(m)
			}
			out = appendUnique(out, seen, expanded, m)
		}
	}

	if len(out) == 0 {
		return nil, ErrNoSources
	}
	return out, nil
}

func appendUnique(out []Source, seen map[string]bool, src Source, path string) []Source {
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	if seen[path] {
		return out
	}
	seen[path] = true
	src.Path = path
	if src.Tag == "" {
		src.Tag = filepath.Base(path)
	}
	return append(out, src)
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}
