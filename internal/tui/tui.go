// Package tui provides a Bubble Tea terminal dashboard for releasedash.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/handiism/releasedash/internal/config"
	"github.com/handiism/releasedash/internal/model"
	"github.com/handiism/releasedash/internal/pipeline"
	"github.com/handiism/releasedash/internal/progress"
	"github.com/handiism/releasedash/internal/view"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))
)

const maxLogs = 6

// State represents the current UI state.
type State int

const (
	StateLoading State = iota
	StateIdle
	StateRefreshing
	StateError
)

// Runner is the part of pipeline.Manager the dashboard drives.
type Runner interface {
	Load(ctx context.Context) ([]*model.Release, error)
	RunCycle(ctx context.Context) (*pipeline.Report, error)
	Snapshot() []*model.Release
}

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   progress.Level
}

// Model is the Bubble Tea model for the dashboard.
type Model struct {
	state     State
	searching bool
	search    textinput.Model
	spinner   spinner.Model
	settings  *config.Settings
	runner    Runner
	events    <-chan progress.Event
	logs      []LogEntry
	err       error

	ctx    context.Context
	cancel context.CancelFunc

	releases []*model.Release
	visible  []*model.Release
	sort     view.SortState
	filter   view.Filter
	genres   []string
	genreIdx int // 0 means all genres
	offset   int

	lastReport *pipeline.Report
	verbose    bool
	now        func() time.Time

	width  int
	height int
}

// NewModel creates a dashboard model. events may be nil.
func NewModel(settings *config.Settings, runner Runner, events <-chan progress.Event) Model {
	ti := textinput.New()
	ti.Placeholder = "title, artist or label"
	ti.CharLimit = 100
	ti.Width = 40
	ti.Prompt = "/ "

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:    StateLoading,
		search:   ti,
		spinner:  sp,
		settings: settings,
		runner:   runner,
		events:   events,
		ctx:      ctx,
		cancel:   cancel,
		sort:     view.SortState{Field: view.FieldDate, Desc: true},
		now:      time.Now,
		height:   24,
		width:    120,
	}
}

// Message types
type (
	// ProgressMsg carries a pipeline progress event.
	ProgressMsg struct {
		Event progress.Event
	}

	// LoadedMsg is sent when the cached snapshot has been read.
	LoadedMsg struct {
		Releases []*model.Release
		Err      error
	}

	// RefreshDoneMsg is sent when a refresh cycle completes.
	RefreshDoneMsg struct {
		Report   *pipeline.Report
		Releases []*model.Release
		Err      error
	}

	// AutoRefreshMsg fires on the polling interval.
	AutoRefreshMsg struct{}
)

// Init loads the cache and starts the first refresh.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load(), m.waitForEvent())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampOffset()
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		m.addLog(msg.Event)
		cmds = append(cmds, m.waitForEvent())

	case LoadedMsg:
		if msg.Err != nil {
			m.addLog(progress.Event{Message: msg.Err.Error(), Level: progress.LevelError})
		}
		m.setReleases(msg.Releases)
		m.state = StateRefreshing
		cmds = append(cmds, m.refresh())

	case RefreshDoneMsg:
		m.lastReport = msg.Report
		switch {
		case errors.Is(msg.Err, pipeline.ErrCycleRunning):
			// another cycle owns the state change
			return m, nil
		case msg.Err != nil && m.ctx.Err() == nil:
			m.err = msg.Err
			m.state = StateError
		default:
			m.err = nil
			m.state = StateIdle
		}
		if msg.Releases != nil {
			m.setReleases(msg.Releases)
		}
		cmds = append(cmds, m.scheduleRefresh())

	case AutoRefreshMsg:
		// ticks during a running cycle are dropped
		if m.state == StateIdle || m.state == StateError {
			m.state = StateRefreshing
			cmds = append(cmds, m.refresh(), m.spinner.Tick)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "ctrl+c", "q":
		m.cancel()
		return m, tea.Quit

	case "r":
		if m.state == StateIdle || m.state == StateError {
			m.state = StateRefreshing
			return m, tea.Batch(m.refresh(), m.spinner.Tick)
		}

	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink

	case "g":
		if len(m.genres) > 0 {
			m.genreIdx = (m.genreIdx + 1) % (len(m.genres) + 1)
			m.filter.Genre = ""
			if m.genreIdx > 0 {
				m.filter.Genre = m.genres[m.genreIdx-1]
			}
			m.applyView()
		}

	case "c":
		m.filter = view.Filter{}
		m.genreIdx = 0
		m.search.SetValue("")
		m.applyView()

	case "v":
		m.verbose = !m.verbose

	case "up", "k":
		m.offset--
		m.clampOffset()

	case "down", "j":
		m.offset++
		m.clampOffset()

	case "pgup":
		m.offset -= m.pageSize()
		m.clampOffset()

	case "pgdown":
		m.offset += m.pageSize()
		m.clampOffset()

	case "1", "2", "3", "4", "5", "6", "7", "8":
		idx := int(key[0] - '1')
		m.sort = m.sort.Toggle(view.Fields[idx])
		m.applyView()
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.filter.Search = ""
		m.applyView()
		return m, nil
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.filter.Search = m.search.Value()
	m.applyView()
	return m, cmd
}

func (m *Model) setReleases(releases []*model.Release) {
	m.releases = releases
	m.genres = view.Genres(releases)
	if m.genreIdx > len(m.genres) {
		m.genreIdx = 0
		m.filter.Genre = ""
	}
	m.applyView()
}

func (m *Model) applyView() {
	m.visible = m.filter.Apply(m.releases)
	m.sort.Sort(m.visible)
	m.clampOffset()
}

func (m *Model) addLog(e progress.Event) {
	if e.Level == progress.LevelVerbose && !m.verbose {
		return
	}
	m.logs = append(m.logs, LogEntry{Message: e.Message, Level: e.Level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// pageSize is the number of table rows that fit on screen.
func (m Model) pageSize() int {
	// header, status, table borders, logs and help
	n := m.height - 12 - maxLogs
	if n < 3 {
		n = 3
	}
	return n
}

func (m *Model) clampOffset() {
	limit := len(m.visible) - m.pageSize()
	if m.offset > limit {
		m.offset = limit
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("releasedash"))
	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	b.WriteString("\n")

	if m.searching || m.filter.Search != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}

	if len(m.visible) == 0 {
		b.WriteString(dimStyle.Render("No releases to show."))
		b.WriteString("\n")
	} else {
		end := min(m.offset+m.pageSize(), len(m.visible))
		b.WriteString(view.RenderTable(m.visible[m.offset:end], m.now(), view.TableOptions{
			Color: true,
			Sort:  m.sort,
		}))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("%d-%d of %d", m.offset+1, end, len(m.visible))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderLogs())
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewStatus() string {
	var parts []string
	switch m.state {
	case StateLoading:
		parts = append(parts, m.spinner.View()+" "+subtitleStyle.Render("Loading cache..."))
	case StateRefreshing:
		parts = append(parts, m.spinner.View()+" "+subtitleStyle.Render("Refreshing..."))
	case StateError:
		parts = append(parts, errorStyle.Render("Refresh failed: "+m.err.Error()))
	case StateIdle:
		if m.lastReport != nil {
			parts = append(parts, successStyle.Render(fmt.Sprintf("Updated %s", m.lastReport.Finished.Format("15:04"))))
		}
	}

	if m.lastReport != nil && len(m.lastReport.FailedFeeds) > 0 {
		parts = append(parts, warningStyle.Render("Failed feeds: "+strings.Join(m.lastReport.FailedFeeds, ", ")))
	}
	if m.filter.Genre != "" {
		parts = append(parts, infoStyle.Render("Genre: "+m.filter.Genre))
	}
	parts = append(parts, dimStyle.Render("Sort: "+m.sort.String()))

	return strings.Join(parts, "  ")
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case progress.LevelError:
			style = errorStyle
			prefix = "✗"
		case progress.LevelWarning:
			style = warningStyle
			prefix = "!"
		case progress.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case progress.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	if m.searching {
		return "enter: keep filter • esc: clear filter"
	}
	return "1-8: sort columns • /: search • g: genre • c: clear • r: refresh • v: verbose • ↑/↓: scroll • q: quit"
}

func (m Model) load() tea.Cmd {
	runner, ctx := m.runner, m.ctx
	return func() tea.Msg {
		releases, err := runner.Load(ctx)
		return LoadedMsg{Releases: releases, Err: err}
	}
}

func (m Model) refresh() tea.Cmd {
	runner, ctx := m.runner, m.ctx
	return func() tea.Msg {
		report, err := runner.RunCycle(ctx)
		return RefreshDoneMsg{Report: report, Releases: runner.Snapshot(), Err: err}
	}
}

func (m Model) scheduleRefresh() tea.Cmd {
	interval := m.settings.RefreshInterval()
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return AutoRefreshMsg{}
	})
}

func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return nil
		}
		return ProgressMsg{Event: e}
	}
}

// Run starts the dashboard and blocks until the user quits.
func Run(settings *config.Settings, runner Runner, events <-chan progress.Event) error {
	p := tea.NewProgram(NewModel(settings, runner, events), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// EventChannel returns a progress callback feeding a buffered channel for
// Run. Events are dropped when the dashboard falls behind.
func EventChannel() (progress.Func, <-chan progress.Event) {
	ch := make(chan progress.Event, 64)
	return func(e progress.Event) {
		select {
		case ch <- e:
		default:
		}
	}, ch
}
