package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/jointail/internal/prefs"
)

// Status is the poller summary shown in the status bar.
type Status struct {
	Cycles   int64
	Emitted  int64
	Dropped  int64
	Filtered int64

	Checkpoint time.Time // last offset save, zero without a state file
}

type linesMsg []string

type statusMsg Status

type failMsg struct{ err error }

// model is the viewer state. It is only touched by the Bubble Tea loop.
type model struct {
	keys     keyMap
	help     help.Model
	theme    Theme
	sources  []string
	viewport viewport.Model

	lines  []string
	limit  int
	follow bool
	status Status
	err    error

	width  int
	height int
	ready  bool

	prefsPath string
	savePrefs func(path string, p prefs.Prefs) error
}

func newModel(opts Options) model {
	p := opts.Prefs
	if p == (prefs.Prefs{}) {
		p = prefs.Defaults()
	}
	limit := p.BufferLines
	if limit <= 0 {
		limit = prefs.Defaults().BufferLines
	}
	return model{
		keys:      defaultKeyMap(),
		help:      help.New(),
		theme:     GetTheme(p.Theme),
		sources:   opts.Sources,
		limit:     limit,
		follow:    p.Follow,
		prefsPath: opts.PrefsPath,
		savePrefs: prefs.Save,
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(m.width, m.logHeight())
			m.ready = true
		}
		m.help.Width = m.width
		m.resize()
		m.refresh()
		return m, nil

	case linesMsg:
		m.lines = trimLogBuffer(append(m.lines, msg...), m.limit)
		m.refresh()
		return m, nil

	case statusMsg:
		m.status = Status(msg)
		return m, nil

	case failMsg:
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.persist()

	case key.Matches(msg, m.keys.ToggleFollow):
		m.follow = !m.follow
		if m.follow {
			m.viewport.GotoBottom()
		}
		m.persist()

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		m.follow = false

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		m.follow = true

	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		m.follow = false

	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		m.follow = false

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		m.follow = false

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		m.follow = false

	case key.Matches(msg, m.keys.HalfPageUp):
		m.viewport.HalfViewUp()
		m.follow = false

	case key.Matches(msg, m.keys.HalfPageDown):
		m.viewport.HalfViewDown()
		m.follow = false
	}
	return m, nil
}

// persist saves theme and follow state; failures are not worth interrupting
// the viewer for.
func (m model) persist() {
	if m.prefsPath == "" || m.savePrefs == nil {
		return
	}
	_ = m.savePrefs(m.prefsPath, prefs.Prefs{
		Theme:       m.theme.Name,
		Follow:      m.follow,
		BufferLines: m.limit,
	})
}

func (m *model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func (m *model) resize() {
	if !m.ready {
		return
	}
	m.viewport.Width = m.width
	m.viewport.Height = m.logHeight()
	if m.follow {
		m.viewport.GotoBottom()
	}
}

// logHeight leaves one row each for the header and status bar, plus the
// full help block when it is open.
func (m model) logHeight() int {
	h := m.height - 2
	if m.help.ShowAll {
		h -= lipgloss.Height(m.help.View(m.keys))
	}
	if h > 0 {
		return h
	}
	return 1
}

// View implements tea.Model.
func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}
	styles := m.theme.Styles()
	parts := []string{
		m.renderHeader(styles),
		styles.Log.Width(m.width).Render(m.viewport.View()),
		m.renderStatus(styles),
	}
	if m.help.ShowAll {
		parts = append(parts, styles.Footer.Width(m.width).Render(m.help.View(m.keys)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m model) renderHeader(styles Styles) string {
	mode := styles.SuccessText.Render("FOLLOW")
	if !m.follow {
		mode = styles.WarningText.Render("PAUSED")
	}
	title := fmt.Sprintf("jointail  %d sources  ", len(m.sources))
	tags := styles.MutedText.Render(strings.Join(m.sources, " "))
	line := lipgloss.JoinHorizontal(lipgloss.Top, title, mode, "  ", tags)
	return styles.Header.Width(m.width).MaxHeight(1).Render(line)
}

func (m model) renderStatus(styles Styles) string {
	if m.err != nil {
		return styles.Footer.Width(m.width).Render(styles.DangerText.Render(m.err.Error()))
	}
	counts := fmt.Sprintf("cycles %d  emitted %d  filtered %d  dropped %d",
		m.status.Cycles, m.status.Emitted, m.status.Filtered, m.status.Dropped)
	if !m.status.Checkpoint.IsZero() {
		counts += "  saved " + m.status.Checkpoint.Local().Format("15:04:05")
	}
	line := styles.AccentText.Render(counts) + "   " + m.help.ShortHelpView(m.keys.ShortHelp())
	return styles.Footer.Width(m.width).MaxHeight(1).Render(line)
}

func trimLogBuffer(lines []string, limit int) []string {
	if overflow := len(lines) - limit; overflow > 0 {
		return append([]string(nil), lines[overflow:]...)
	}
	return lines
}
