package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/five82/jointail/internal/logtail"
	"github.com/five82/jointail/internal/output"
	"github.com/five82/jointail/internal/predicate"
	"github.com/five82/jointail/internal/projection"
	"github.com/five82/jointail/internal/record"
	"github.com/five82/jointail/internal/state"
)

const (
	defaultFileInterval  = 10 * time.Millisecond
	defaultCycleInterval = 100 * time.Millisecond
)

// Stats counts what happened to the lines read so far.
type Stats struct {
	Cycles   int64
	Lines    int64 // complete lines read
	Emitted  int64
	Dropped  int64 // neither JSON nor key=value
	Filtered int64
}

// PollerOptions wire the pipeline stages into a Poller.
type PollerOptions struct {
	Sources         []*logtail.Source
	Filter          *predicate.Engine
	Projector       *projection.Projector
	Output          *output.Multiplexer
	LevelField      string
	FileInterval    time.Duration
	CycleInterval   time.Duration
	Offsets         *state.Offsets // optional checkpoint
	ResetOnTruncate bool
	Logger          *slog.Logger
	OnCycle         func(Stats) // called from the polling goroutine after each cycle
}

// Poller visits every source in order once per cycle and streams new lines
// through parse, filter, projection and output. It is not safe for
// concurrent use; a single goroutine owns all of its state.
type Poller struct {
	sources         []*logtail.Source
	filter          *predicate.Engine
	projector       *projection.Projector
	out             *output.Multiplexer
	levelField      string
	fileInterval    time.Duration
	cycleInterval   time.Duration
	offsets         *state.Offsets
	resetOnTruncate bool
	logger          *slog.Logger
	onCycle         func(Stats)

	unavailable map[string]bool
	shrunk      map[string]bool
	stats       Stats

	sleep func(ctx context.Context, d time.Duration) error
}

// fatalError marks pipeline failures that must stop the poll loop.
type fatalError struct{ err error }

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

// NewPoller returns a Poller with defaults applied.
func NewPoller(opts PollerOptions) *Poller {
	p := &Poller{
		sources:         opts.Sources,
		filter:          opts.Filter,
		projector:       opts.Projector,
		out:             opts.Output,
		levelField:      opts.LevelField,
		fileInterval:    opts.FileInterval,
		cycleInterval:   opts.CycleInterval,
		offsets:         opts.Offsets,
		resetOnTruncate: opts.ResetOnTruncate,
		logger:          opts.Logger,
		onCycle:         opts.OnCycle,
		unavailable:     make(map[string]bool),
		shrunk:          make(map[string]bool),
		sleep:           sleepContext,
	}
	if p.levelField == "" {
		p.levelField = "level"
	}
	if p.fileInterval < 0 {
		p.fileInterval = defaultFileInterval
	}
	if p.cycleInterval < 0 {
		p.cycleInterval = defaultCycleInterval
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Run polls until ctx is cancelled or a fatal error occurs. Cancellation is
// not an error.
func (p *Poller) Run(ctx context.Context) error {
	for {
		if err := p.sleep(ctx, p.cycleInterval); err != nil {
			return nil
		}
		if err := p.Cycle(ctx); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// Cycle performs one pass over all sources, then closes the joined log and
// records offsets. Only fatal pipeline errors are returned.
func (p *Poller) Cycle(ctx context.Context) error {
	var fatal error
	for _, src := range p.sources {
		if err := p.sleep(ctx, p.fileInterval); err != nil {
			break
		}
		if err := p.poll(src); err != nil {
			fatal = err
			break
		}
	}
	p.stats.Cycles++
	p.finishCycle()
	if p.onCycle != nil {
		p.onCycle(p.stats)
	}
	return fatal
}

func (p *Poller) finishCycle() {
	if err := p.out.EndCycle(); err != nil {
		p.logger.Warn("close joined log failed", "error", err)
	}
	if p.offsets == nil {
		return
	}
	for _, src := range p.sources {
		p.offsets.Set(src.Path, src.Offset)
	}
	if err := p.offsets.Save(); err != nil {
		p.logger.Warn("save offsets failed", "error", err)
	}
}

func (p *Poller) poll(src *logtail.Source) error {
	size, err := logtail.Size(src.Path)
	if err != nil {
		p.markUnavailable(src, err)
		return nil
	}
	p.markAvailable(src)

	if size < src.Offset {
		p.handleShrink(src, size)
		if size < src.Offset {
			return nil
		}
	} else {
		delete(p.shrunk, src.Path)
	}
	if size <= src.Offset {
		return nil
	}

	offset, err := logtail.Drain(*src, p.lineHandler(src))
	if offset > src.Offset {
		src.Offset = offset
	}
	if err != nil {
		var fe *fatalError
		if errors.As(err, &fe) {
			return fe.err
		}
		p.markUnavailable(src, err)
	}
	return nil
}

func (p *Poller) handleShrink(src *logtail.Source, size int64) {
	if p.resetOnTruncate {
		p.logger.Warn("source truncated, restarting from the beginning", "source", src.Path, "offset", src.Offset, "size", size)
		src.Offset = 0
		if p.offsets != nil {
			p.offsets.Reset(src.Path, 0)
		}
		return
	}
	if !p.shrunk[src.Path] {
		p.shrunk[src.Path] = true
		p.logger.Warn("source shrank below read offset, waiting for it to grow", "source", src.Path, "offset", src.Offset, "size", size)
	}
}

// markUnavailable logs once per outage rather than once per cycle.
func (p *Poller) markUnavailable(src *logtail.Source, err error) {
	if p.unavailable[src.Path] {
		return
	}
	p.unavailable[src.Path] = true
	p.logger.Warn("source unavailable, will retry", "source", src.Path, "error", err)
}

func (p *Poller) markAvailable(src *logtail.Source) {
	if !p.unavailable[src.Path] {
		return
	}
	delete(p.unavailable, src.Path)
	p.logger.Info("source available again", "source", src.Path)
}

func (p *Poller) lineHandler(src *logtail.Source) logtail.LineFunc {
	origin := output.Origin{Path: src.Path, Tag: src.Tag}
	return func(line string) error {
		p.stats.Lines++

		rec, format := record.Parse(line)
		if format == record.FormatNone {
			p.stats.Dropped++
			return nil
		}
		if !p.filter.Allow(rec) {
			p.stats.Filtered++
			return nil
		}

		text, err := p.projector.Line(rec)
		if err != nil {
			return &fatalError{err: err}
		}
		if err := p.out.Emit(origin, rec.Get(p.levelField), text); err != nil {
			p.logger.Warn("emit failed", "source", src.Path, "error", err)
			return nil
		}
		p.stats.Emitted++
		return nil
	}
}

// Stats returns the counters accumulated so far.
func (p *Poller) Stats() Stats {
	return p.stats
}

// Sources returns the tracked sources with their current offsets.
func (p *Poller) Sources() []logtail.Source {
	out := make([]logtail.Source, 0, len(p.sources))
	for _, src := range p.sources {
		out = append(out, *src)
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
