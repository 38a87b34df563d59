package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/jointail/internal/app"
	"github.com/five82/jointail/internal/prefs"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "jointail: %v\n", err)
		return 1
	}
	return 0
}

type flags struct {
	configPath string
	output     string
	statePath  string
	logLevel   string
	logFile    string
	prefsPath  string
	tui        bool
	noColor    bool
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "jointail [flags] [file ...]",
		Short: "Follow several structured log files as one filtered, colored stream",
		Long: "jointail polls a set of log files, parses each new line as JSON or key=value,\n" +
			"filters and projects the records, and writes them to the console and a joined log.\n" +
			"Files given as arguments replace the sources from the config file.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd.Context(), f, args, cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "config file (default ~/.config/jointail/config.toml)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "joined log path (overrides config)")
	cmd.Flags().StringVar(&f.statePath, "state", "", "offset checkpoint file (overrides config)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "diagnostic level: debug, info, warn, error")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "write diagnostics to this file instead of stderr")
	cmd.Flags().StringVar(&f.prefsPath, "prefs", prefs.DefaultPath(), "viewer preferences file")
	cmd.Flags().BoolVar(&f.tui, "tui", false, "show the merged stream in a full-screen follow viewer")
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable ANSI colors on the console")
	return cmd
}

func execute(ctx context.Context, f flags, args []string, stderr io.Writer) error {
	logger, closeLog, err := newLogger(f, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	return app.Run(ctx, app.Options{
		ConfigPath: f.configPath,
		Sources:    args,
		Output:     f.output,
		StateFile:  f.statePath,
		NoColor:    f.noColor,
		TUI:        f.tui,
		PrefsPath:  f.prefsPath,
		Logger:     logger,
	})
}

// newLogger builds the diagnostic logger. In viewer mode stderr shares the
// terminal with the alternate screen, so diagnostics are dropped unless a
// log file is given.
func newLogger(f flags, stderr io.Writer) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(f.logLevel))); err != nil {
		return nil, nil, fmt.Errorf("parse log level: %w", err)
	}

	w := stderr
	closeLog := func() {}
	switch {
	case f.logFile != "":
		file, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = file
		closeLog = func() { _ = file.Close() }
	case f.tui:
		w = io.Discard
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler), closeLog, nil
}
