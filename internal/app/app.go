package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/atinylittleshell/qline/internal/backend"
	"github.com/atinylittleshell/qline/internal/history"
	"github.com/atinylittleshell/qline/internal/preferences"
	"github.com/atinylittleshell/qline/internal/suggest"
	"github.com/atinylittleshell/qline/pkg/queryeditor"
)

// Executor runs a query on submit.
type Executor interface {
	Query(ctx context.Context, query string) (*backend.Result, *queryeditor.Stats, error)
}

type Options struct {
	Label        string
	Server       string
	Autocomplete bool
	Timeout      time.Duration
	HistoryLimit int
	// SuggestDelay overrides how long suggestions wait for typing to settle.
	SuggestDelay *time.Duration
}

type queryResultMsg struct {
	seq    int
	query  string
	result *backend.Result
	stats  *queryeditor.Stats
	err    error
}

type copiedMsg struct {
	err error
}

// Model is the interactive program: the query editor on top, results below.
// It owns the query text and hands it to the editor as a prop after every
// update.
type Model struct {
	opts           Options
	logger         *zap.Logger
	keys           KeyMap
	executor       Executor
	historyManager *history.HistoryManager
	navigator      *history.Navigator
	prefs          *preferences.Store

	editor    queryeditor.Editor
	results   viewport.Model
	indicator statusIndicator

	query     string
	errText   string
	notice    string
	stats     *queryeditor.Stats
	seq       int
	entry     *history.HistoryEntry
	result    *backend.Result
	lastQuery string
	ranAt     time.Time

	width    int
	height   int
	quitting bool
}

// New builds the program model. historyManager and prefs may be nil.
func New(
	opts Options,
	executor Executor,
	source suggest.Source,
	historyManager *history.HistoryManager,
	prefs *preferences.Store,
	device queryeditor.Detector,
	logger *zap.Logger,
) *Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	m := &Model{
		opts:           opts,
		logger:         logger,
		keys:           DefaultKeyMap(),
		executor:       executor,
		historyManager: historyManager,
		navigator:      history.NewNavigator(nil),
		prefs:          prefs,
		results:        viewport.New(80, 10),
	}

	if historyManager != nil {
		queries, err := historyManager.GetRecentQueries(opts.Server, opts.HistoryLimit)
		if err != nil {
			logger.Warn("failed to load query history", zap.Error(err))
		}
		m.navigator.Reset(queries)
	}

	engineOpts := []suggest.Option{}
	if opts.SuggestDelay != nil {
		engineOpts = append(engineOpts, suggest.WithDelay(*opts.SuggestDelay))
	}
	editorOpts := []queryeditor.EditorOption{
		queryeditor.WithLogger(logger),
		queryeditor.WithEngine(func(logger *zap.Logger) queryeditor.SuggestionEngine {
			return suggest.New(source, append(engineOpts, suggest.WithLogger(logger))...)
		}),
	}
	if device != nil {
		editorOpts = append(editorOpts, queryeditor.WithDevice(device))
	}
	if prefs != nil {
		editorOpts = append(editorOpts, queryeditor.WithPreferences(prefs))
	}
	m.editor = queryeditor.New(m.props(), editorOpts...)

	return m
}

func (m *Model) props() queryeditor.Props {
	return queryeditor.Props{
		Value:        m.query,
		Label:        m.opts.Label,
		Error:        m.errText,
		Stats:        m.stats,
		Autocomplete: m.opts.Autocomplete,
		OnChange:     m.onChange,
		OnEnter:      m.onEnter,
		OnArrowUp:    m.onArrowUp,
		OnArrowDown:  m.onArrowDown,
	}
}

func (m *Model) Init() tea.Cmd {
	return m.editor.Init()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	if m.quitting {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.editor.SetProps(m.props()))
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.editor.SetWidth(msg.Width)
		m.results.Width = msg.Width
		m.results.Height = max(3, msg.Height-lipgloss.Height(m.editor.View())-4)
		return nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return tea.Quit
		case key.Matches(msg, m.keys.ToggleQuick):
			return m.toggleQuick()
		case key.Matches(msg, m.keys.Copy):
			return m.copyQuery()
		case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			return cmd
		}
		m.notice = ""

	case queryResultMsg:
		m.finish(msg)
		return nil

	case copiedMsg:
		if msg.err != nil {
			m.notice = fmt.Sprintf("copy failed: %v", msg.err)
		} else {
			m.notice = "copied query to clipboard"
		}
		return nil

	case statusTickMsg:
		if m.indicator.advance() {
			return m.indicator.tick()
		}
		return nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return cmd
}

func (m *Model) onChange(query string) tea.Cmd {
	m.query = query
	m.navigator.Stop()
	return nil
}

func (m *Model) onArrowUp() tea.Cmd {
	query, err := m.navigator.Prev(m.query)
	if err != nil {
		return nil
	}
	m.query = query
	return nil
}

func (m *Model) onArrowDown() tea.Cmd {
	query, err := m.navigator.Next()
	if err != nil {
		return nil
	}
	m.query = query
	return nil
}

func (m *Model) onEnter() tea.Cmd {
	return m.submit()
}

// submit starts running the current query. A query submitted while another
// is in flight supersedes it.
func (m *Model) submit() tea.Cmd {
	query := strings.TrimSpace(m.query)
	if query == "" {
		return nil
	}

	m.seq++
	m.errText = ""
	m.notice = ""
	m.navigator.Push(m.query)
	m.entry = nil
	if m.historyManager != nil {
		entry, err := m.historyManager.StartQuery(m.query, m.opts.Server)
		if err != nil {
			m.logger.Warn("failed to record query in history", zap.Error(err))
		}
		m.entry = entry
	}

	m.indicator.setStatus(QueryStatusInFlight)
	m.logger.Debug("app submitting query", zap.Int("seq", m.seq), zap.String("query", query))

	return tea.Batch(m.execute(m.seq, query), m.indicator.tick())
}

func (m *Model) execute(seq int, query string) tea.Cmd {
	executor := m.executor
	timeout := m.opts.Timeout
	return func() tea.Msg {
		if executor == nil {
			return queryResultMsg{seq: seq, query: query, err: errors.New("no backend configured")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		result, stats, err := executor.Query(ctx, query)
		return queryResultMsg{seq: seq, query: query, result: result, stats: stats, err: err}
	}
}

func (m *Model) finish(msg queryResultMsg) {
	if msg.seq != m.seq {
		m.logger.Debug("app discarding superseded result",
			zap.Int("seq", msg.seq),
			zap.Int("currentSeq", m.seq))
		return
	}

	elapsed := time.Duration(0)
	if msg.result != nil {
		elapsed = msg.result.Elapsed
	}
	if m.historyManager != nil && m.entry != nil {
		if _, err := m.historyManager.FinishQuery(m.entry, msg.result.Len(), elapsed, msg.err); err != nil {
			m.logger.Warn("failed to record query outcome", zap.Error(err))
		}
	}
	m.entry = nil

	m.lastQuery = msg.query
	m.ranAt = time.Now()

	if msg.err != nil {
		m.logger.Info("query failed", zap.String("query", msg.query), zap.Error(msg.err))
		m.indicator.setStatus(QueryStatusError)
		m.errText = msg.err.Error()
		m.stats = nil
		m.result = nil
		m.results.SetContent("")
		return
	}

	m.indicator.setStatus(QueryStatusSuccess)
	m.errText = ""
	m.stats = msg.stats
	m.result = msg.result
	m.results.SetContent(FormatResult(msg.result))
	m.results.GotoTop()
}

func (m *Model) toggleQuick() tea.Cmd {
	if m.prefs == nil {
		return nil
	}
	quick := m.prefs.Toggle()
	if quick {
		m.notice = "quick suggestions on"
	} else {
		m.notice = "quick suggestions off"
	}
	return nil
}

func (m *Model) copyQuery() tea.Cmd {
	query := m.query
	if query == "" {
		return nil
	}
	return func() tea.Msg {
		return copiedMsg{err: clipboard.WriteAll(query)}
	}
}

// Close releases the editor's subscriptions.
func (m *Model) Close() {
	m.editor.Close()
}

var (
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(m.editor.View())
	sb.WriteString("\n")

	status := m.indicator.View() + " " + mutedStyle.Render(m.indicator.status.String())
	if m.notice != "" {
		status += "  " + noticeStyle.Render(m.notice)
	}
	sb.WriteString(status)
	sb.WriteString("\n")

	if m.lastQuery != "" {
		sb.WriteString(highlight(m.lastQuery))
		sb.WriteString("\n")
		if m.result != nil {
			sb.WriteString(mutedStyle.Render(summary(m.result, m.ranAt)))
			sb.WriteString("\n")
			sb.WriteString(m.results.View())
			sb.WriteString("\n")
		}
	}

	sb.WriteString(mutedStyle.Render(m.helpView()))
	return sb.String()
}

func (m *Model) helpView() string {
	bindings := append([]key.Binding{}, editorHelp...)
	bindings = append(bindings, m.keys.ToggleQuick, m.keys.Copy, m.keys.Quit)

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		part := h.Key + " " + h.Desc
		if b.Help() == m.keys.ToggleQuick.Help() && m.prefs != nil {
			if m.prefs.Current() {
				part += ": on"
			} else {
				part += ": off"
			}
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " · ")
}

// Run starts the program and blocks until it exits or ctx is done.
func Run(ctx context.Context, m *Model) error {
	defer m.Close()

	p := tea.NewProgram(m, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
