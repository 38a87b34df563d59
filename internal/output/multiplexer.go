package output

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// DefaultTimeFormat renders banner timestamps with millisecond precision.
const DefaultTimeFormat = "2006-01-02 15:04:05.000"

// Origin identifies the source that produced a line.
type Origin struct {
	Path string
	Tag  string
}

// Options configure a Multiplexer.
type Options struct {
	Console    io.Writer
	JoinedPath string // empty disables the joined log
	Palette    Palette
	PrefixTags bool
	TimeFormat string
	Now        func() time.Time
	Logger     *slog.Logger
}

// Multiplexer serialises all output. It is owned by a single goroutine.
type Multiplexer struct {
	console    io.Writer
	joinedPath string
	joined     *os.File
	palette    Palette
	prefixTags bool
	timeFormat string
	now        func() time.Time
	logger     *slog.Logger

	lastSource   string
	lastEmit     time.Time
	lastColor    string
	joinedFailed bool

	lines   int64
	banners int64
}

// New creates a Multiplexer and truncates the joined log.
func New(opts Options) (*Multiplexer, error) {
	m := &Multiplexer{
		console:    opts.Console,
		joinedPath: opts.JoinedPath,
		palette:    opts.Palette,
		prefixTags: opts.PrefixTags,
		timeFormat: opts.TimeFormat,
		now:        opts.Now,
		logger:     opts.Logger,
	}
	if m.console == nil {
		m.console = os.Stdout
	}
	if m.timeFormat == "" {
		m.timeFormat = DefaultTimeFormat
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.lastEmit = m.now()

	if m.joinedPath != "" {
		f, err := os.Create(m.joinedPath)
		if err != nil {
			return nil, fmt.Errorf("truncate joined log: %w", err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("truncate joined log: %w", err)
		}
	}
	return m, nil
}

// Emit writes line for src, preceded by a transition banner when src differs
// from the source of the previous line. A newline is added when line lacks
// one.
func (m *Multiplexer) Emit(src Origin, level, line string) error {
	now := m.now()

	if src.Path != m.lastSource {
		elapsed := now.Sub(m.lastEmit).Milliseconds()
		if elapsed < 0 {
			elapsed = 0
		}
		banner := fmt.Sprintf("=== %d ms %s %s\n", elapsed, src.Path, now.Format(m.timeFormat))
		if err := m.write(m.palette.Change(), banner); err != nil {
			return err
		}
		m.lastSource = src.Path
		m.banners++
	}

	text := line
	if m.prefixTags && src.Tag != "" {
		text = src.Tag + "\t" + text
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if err := m.write(m.palette.Level(level), text); err != nil {
		return err
	}
	m.lastEmit = now
	m.lines++
	return nil
}

func (m *Multiplexer) write(color, text string) error {
	var b strings.Builder
	if color != m.lastColor {
		if color == "" {
			b.WriteString(m.palette.Reset())
		} else {
			b.WriteString(color)
		}
		m.lastColor = color
	}
	b.WriteString(text)
	data := []byte(b.String())

	_, consoleErr := m.console.Write(data)
	m.writeJoined(data)
	if consoleErr != nil {
		return fmt.Errorf("write console: %w", consoleErr)
	}
	return nil
}

func (m *Multiplexer) writeJoined(data []byte) {
	if m.joinedPath == "" {
		return
	}
	if m.joined == nil {
		f, err := os.OpenFile(m.joinedPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			m.reportJoined("open joined log failed", err)
			return
		}
		m.joined = f
	}
	if _, err := m.joined.Write(data); err != nil {
		m.reportJoined("joined log write failed", err)
	}
}

// reportJoined logs at most once per cycle.
func (m *Multiplexer) reportJoined(msg string, err error) {
	if m.joinedFailed {
		return
	}
	m.joinedFailed = true
	m.logger.Warn(msg, "path", m.joinedPath, "error", err)
}

// EndCycle closes the joined log so the next write reopens it.
func (m *Multiplexer) EndCycle() error {
	m.joinedFailed = false
	if m.joined == nil {
		return nil
	}
	err := m.joined.Close()
	m.joined = nil
	if err != nil {
		return fmt.Errorf("close joined log: %w", err)
	}
	return nil
}

// Close restores the terminal color and closes the joined log.
func (m *Multiplexer) Close() error {
	var errs []error
	if m.lastColor != "" {
		if err := m.write("", ""); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.EndCycle(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Counts returns the number of lines and banners emitted so far.
func (m *Multiplexer) Counts() (lines, banners int64) {
	return m.lines, m.banners
}
