package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/muesli/termenv"

	"github.com/five82/jointail/internal/config"
	"github.com/five82/jointail/internal/logtail"
	"github.com/five82/jointail/internal/output"
	"github.com/five82/jointail/internal/predicate"
	"github.com/five82/jointail/internal/prefs"
	"github.com/five82/jointail/internal/projection"
	"github.com/five82/jointail/internal/state"
	"github.com/five82/jointail/internal/ui"
)

// Options configure a jointail run. Zero values defer to the config file.
type Options struct {
	ConfigPath string
	Sources    []string // replaces the configured sources when non-empty
	Output     string   // joined-log override
	StateFile  string   // checkpoint override
	NoColor    bool
	TUI        bool
	PrefsPath  string    // viewer preferences, defaults to prefs.DefaultPath()
	Console    io.Writer // defaults to stdout
	Logger     *slog.Logger
}

// Run tails the configured sources until ctx is cancelled or a fatal
// configuration problem is found.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.OverrideSources(opts.Sources)
	if opts.Output != "" {
		cfg.Output = opts.Output
	}
	if opts.StateFile != "" {
		cfg.StateFile = opts.StateFile
	}

	expanded, err := cfg.ExpandSources(logger)
	if err != nil {
		return err
	}

	filter, err := predicate.New(cfg.Include, cfg.Exclude)
	if err != nil {
		return fmt.Errorf("compile filters: %w", err)
	}
	projector, err := projection.New(cfg.Fields)
	if err != nil {
		return fmt.Errorf("compile fields: %w", err)
	}

	var offsets *state.Offsets
	if cfg.StateFile != "" {
		if offsets, err = state.Load(cfg.StateFile); err != nil {
			return err
		}
	}
	sources, err := openSources(expanded, offsets, logger)
	if err != nil {
		return err
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	var viewer *ui.Viewer
	if opts.TUI {
		viewerOpts, err := viewerOptions(sources, opts.PrefsPath)
		if err != nil {
			return err
		}
		viewer = ui.NewViewer(viewerOpts)
		console = viewer
	}

	profile := output.DetectProfile(os.Stdout)
	if opts.NoColor || os.Getenv("NO_COLOR") != "" {
		profile = termenv.Ascii
	}

	out, err := output.New(output.Options{
		Console:    console,
		JoinedPath: cfg.Output,
		Palette:    output.NewPalette(profile, cfg.Colors, cfg.ChangeColor),
		PrefixTags: cfg.PrefixTags,
		TimeFormat: cfg.TimestampFormat,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	pollerOpts := PollerOptions{
		Sources:         sources,
		Filter:          filter,
		Projector:       projector,
		Output:          out,
		LevelField:      cfg.LevelField,
		FileInterval:    cfg.FileInterval,
		CycleInterval:   cfg.CycleInterval,
		Offsets:         offsets,
		ResetOnTruncate: cfg.ResetOnTruncate,
		Logger:          logger,
	}

	logger.Info("jointail starting",
		"sources", len(sources),
		"joined_log", cfg.Output,
		"config", cfg.Path,
	)

	if viewer != nil {
		pollerOpts.OnCycle = func(s Stats) {
			viewer.UpdateStatus(viewerStatus(s, offsets))
		}
	}
	poller := NewPoller(pollerOpts)

	var runErr error
	if viewer != nil {
		runErr = runWithViewer(ctx, poller, viewer)
	} else {
		runErr = poller.Run(ctx)
	}

	if err := out.Close(); err != nil {
		logger.Warn("close output failed", "error", err)
	}
	stats := poller.Stats()
	logger.Info("jointail stopped", "cycles", stats.Cycles, "lines", stats.Lines, "emitted", stats.Emitted)
	for _, src := range poller.Sources() {
		logger.Debug("final offset", "source", src.Path, "offset", src.Offset)
	}
	if errors.Is(runErr, projection.ErrNoFields) {
		return fmt.Errorf("configuration produced no output fields: %w", runErr)
	}
	return runErr
}

// runWithViewer runs the poller in its own goroutine while the viewer owns
// the terminal. Quitting the viewer stops the poller.
func runWithViewer(ctx context.Context, poller *Poller, viewer *ui.Viewer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		err := poller.Run(ctx)
		if err != nil {
			viewer.Fail(err)
		}
		done <- err
	}()

	viewErr := viewer.Run(ctx)
	cancel()
	pollErr := <-done
	if pollErr != nil {
		return pollErr
	}
	return viewErr
}

// openSources resolves each source's starting offset. A checkpointed offset
// wins when it still fits inside the file.
func openSources(expanded []config.Source, offsets *state.Offsets, logger *slog.Logger) ([]*logtail.Source, error) {
	sources := make([]*logtail.Source, 0, len(expanded))
	for _, s := range expanded {
		src := &logtail.Source{Path: s.Path, Tag: s.Tag}

		resumed := false
		if offsets != nil {
			if saved, ok := offsets.Get(s.Path); ok {
				size, err := logtail.Size(s.Path)
				switch {
				case err != nil:
					src.Offset = saved
					resumed = true
				case saved <= size:
					src.Offset = saved
					resumed = true
				default:
					logger.Warn("checkpoint offset beyond end of file, ignoring", "source", s.Path, "offset", saved, "size", size)
				}
			}
		}
		if !resumed {
			offset, err := logtail.StartOffset(s.Path, s.Start, s.TailLines)
			if err != nil {
				return nil, fmt.Errorf("resolve start of %s: %w", s.Path, err)
			}
			src.Offset = offset
		}
		logger.Debug("source ready", "source", src.Path, "tag", src.Tag, "offset", src.Offset, "resumed", resumed)
		sources = append(sources, src)
	}
	return sources, nil
}

// viewerOptions loads stored preferences from prefsPath, or the default
// location when it is empty, so changes made in the viewer are kept.
func viewerOptions(sources []*logtail.Source, prefsPath string) (ui.Options, error) {
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	viewerPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		return ui.Options{}, fmt.Errorf("load prefs: %w", err)
	}
	return ui.Options{
		Sources:   sourceTags(sources),
		Prefs:     viewerPrefs,
		PrefsPath: prefsPath,
	}, nil
}

func viewerStatus(s Stats, offsets *state.Offsets) ui.Status {
	status := ui.Status{Cycles: s.Cycles, Emitted: s.Emitted, Dropped: s.Dropped, Filtered: s.Filtered}
	if offsets != nil {
		status.Checkpoint = offsets.Updated()
	}
	return status
}

func sourceTags(sources []*logtail.Source) []string {
	tags := make([]string, 0, len(sources))
	for _, s := range sources {
		tags = append(tags, s.Tag)
	}
	return tags
}
