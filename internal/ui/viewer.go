package ui

import (
	"bytes"
	"context"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/termenv"

	"github.com/five82/jointail/internal/prefs"
)

// Options configures the viewer.
type Options struct {
	Sources   []string // source tags shown in the header
	Prefs     prefs.Prefs
	PrefsPath string
}

// Viewer is an io.Writer that feeds complete lines into a Bubble Tea
// program. Write may be called from any goroutine.
type Viewer struct {
	program *tea.Program
	send    func(tea.Msg)

	mu      sync.Mutex
	pending []byte
	sgr     string // color in effect at the end of the last line
}

// NewViewer builds the viewer program without starting it.
func NewViewer(opts Options) *Viewer {
	program := tea.NewProgram(newModel(opts), tea.WithAltScreen())
	return &Viewer{program: program, send: program.Send}
}

// Write splits p into lines and forwards the complete ones. Each forwarded
// line starts with the color that was active when it was written, so lines
// render correctly however the viewport is scrolled.
func (v *Viewer) Write(p []byte) (int, error) {
	v.mu.Lock()
	v.pending = append(v.pending, p...)
	var lines []string
	for {
		i := bytes.IndexByte(v.pending, '\n')
		if i < 0 {
			break
		}
		raw := string(v.pending[:i])
		v.pending = v.pending[i+1:]

		line := v.sgr + raw
		if seq, ok := lastSGR(raw); ok {
			v.sgr = seq
		}
		if v.sgr != "" || strings.Contains(line, termenv.CSI) {
			line += termenv.CSI + termenv.ResetSeq + "m"
		}
		lines = append(lines, line)
	}
	if len(v.pending) == 0 {
		v.pending = nil
	}
	v.mu.Unlock()

	if len(lines) > 0 {
		v.send(linesMsg(lines))
	}
	return len(p), nil
}

// UpdateStatus refreshes the counters in the status bar.
func (v *Viewer) UpdateStatus(s Status) {
	v.send(statusMsg(s))
}

// Fail shows err and stops the viewer.
func (v *Viewer) Fail(err error) {
	v.send(failMsg{err: err})
}

// Run blocks until the user quits, Fail is called or ctx is cancelled.
func (v *Viewer) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			v.program.Quit()
		case <-done:
		}
	}()
	_, err := v.program.Run()
	return err
}

// lastSGR returns the final color sequence in s. A reset clears the color.
func lastSGR(s string) (string, bool) {
	start := strings.LastIndex(s, termenv.CSI)
	if start < 0 {
		return "", false
	}
	end := strings.IndexByte(s[start:], 'm')
	if end < 0 {
		return "", false
	}
	seq := s[start : start+end+1]
	if seq == termenv.CSI+termenv.ResetSeq+"m" || seq == termenv.CSI+"m" {
		return "", true
	}
	return seq, true
}
