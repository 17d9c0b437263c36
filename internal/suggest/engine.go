package suggest

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/atinylittleshell/qline/pkg/queryeditor"
)

const (
	defaultDelay   = 150 * time.Millisecond
	defaultTimeout = 3 * time.Second
	defaultLimit   = 50
)

// KeyMap holds the keys the popup reacts to while it is open.
type KeyMap struct {
	Next    key.Binding
	Prev    key.Binding
	Accept  key.Binding
	Dismiss key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next:    key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "next suggestion")),
		Prev:    key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "previous suggestion")),
		Accept:  key.NewBinding(key.WithKeys("enter", "tab"), key.WithHelp("enter/tab", "accept suggestion")),
		Dismiss: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "dismiss suggestions")),
	}
}

type attemptMsg struct {
	stateID int
	text    string
	offset  int
}

type resultMsg struct {
	stateID int
	text    string
	query   QueryContext
	items   []Candidate
}

// Engine computes PromQL completions for the word under the caret. Lookups
// against the Source run off the UI goroutine; results computed for text
// that has since changed are discarded.
type Engine struct {
	source    Source
	logger    *zap.Logger
	keys      KeyMap
	styles    Styles
	delay     time.Duration
	timeout   time.Duration
	limit     int
	functions []Candidate

	stateID int
	list    listState
}

var _ queryeditor.SuggestionEngine = (*Engine)(nil)

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDelay sets how long the engine waits for typing to settle.
func WithDelay(delay time.Duration) Option {
	return func(e *Engine) {
		e.delay = delay
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		e.timeout = timeout
	}
}

func WithLimit(limit int) Option {
	return func(e *Engine) {
		e.limit = limit
	}
}

func WithKeyMap(keys KeyMap) Option {
	return func(e *Engine) {
		e.keys = keys
	}
}

func WithStyles(styles Styles) Option {
	return func(e *Engine) {
		e.styles = styles
	}
}

func New(source Source, opts ...Option) *Engine {
	e := &Engine{
		source:  source,
		logger:  zap.NewNop(),
		keys:    DefaultKeyMap(),
		styles:  DefaultStyles(),
		delay:   defaultDelay,
		timeout: defaultTimeout,
		limit:   defaultLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.source == nil {
		e.source = StaticSource{}
	}
	e.functions = append(Functions(), Aggregations()...)
	e.functions = append(e.functions, keywords...)
	e.list.reset()
	return e
}

// Recompute schedules a lookup for value once typing settles. Any lookup
// scheduled earlier becomes stale.
func (e *Engine) Recompute(value string, caret queryeditor.Caret) tea.Cmd {
	e.stateID++
	msg := attemptMsg{
		stateID: e.stateID,
		text:    value,
		offset:  caret.Offset(value),
	}
	if e.delay <= 0 {
		return func() tea.Msg { return msg }
	}
	return tea.Tick(e.delay, func(time.Time) tea.Msg { return msg })
}

func (e *Engine) Update(msg tea.Msg) (bool, tea.Cmd) {
	switch msg := msg.(type) {
	case attemptMsg:
		if msg.stateID != e.stateID {
			return true, nil
		}
		return true, e.lookup(msg)

	case resultMsg:
		if msg.stateID != e.stateID {
			e.logger.Debug("suggest discarding stale candidates",
				zap.Int("startStateId", msg.stateID),
				zap.Int("newStateId", e.stateID))
			return true, nil
		}
		e.list.items = msg.items
		e.list.query = msg.query
		e.list.text = msg.text
		e.list.stateID = msg.stateID
		e.list.selected = -1
		if len(msg.items) > 0 {
			e.list.selected = 0
		}
		return true, e.found()

	case tea.KeyMsg:
		return e.handleKey(msg)
	}

	return false, nil
}

func (e *Engine) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, e.keys.Next):
		e.list.next()
		return true, nil

	case key.Matches(msg, e.keys.Prev):
		e.list.prev()
		return true, nil

	case key.Matches(msg, e.keys.Accept):
		// the text changed since these candidates were computed
		if e.list.stateID != e.stateID {
			e.logger.Debug("suggest ignoring accept on outdated candidates",
				zap.Int("listStateId", e.list.stateID),
				zap.Int("stateId", e.stateID))
			return true, nil
		}
		candidate, ok := e.list.current()
		if !ok {
			return true, nil
		}
		value := e.list.apply(candidate)
		e.logger.Debug("suggest accepted candidate",
			zap.String("candidate", candidate.Value),
			zap.String("value", value))
		return true, func() tea.Msg { return queryeditor.SelectMsg{Value: value} }

	case key.Matches(msg, e.keys.Dismiss):
		// in-flight lookups must not reopen the list
		e.stateID++
		e.list.reset()
		return true, e.found()
	}

	return false, nil
}

func (e *Engine) found() tea.Cmd {
	options := make([]queryeditor.Option, len(e.list.items))
	for i, c := range e.list.items {
		options[i] = c.option()
	}
	return func() tea.Msg { return queryeditor.FoundOptionsMsg{Options: options} }
}

func (e *Engine) lookup(msg attemptMsg) tea.Cmd {
	source := e.source
	functions := e.functions
	timeout := e.timeout
	limit := e.limit
	logger := e.logger

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		qc := Analyze(msg.text, msg.offset)
		items, err := candidates(ctx, source, functions, qc)
		if err != nil {
			logger.Warn("suggest metadata lookup failed",
				zap.Stringer("context", qc.Type),
				zap.Error(err))
		}

		ranked := rank(qc.Word, items, limit)
		logger.Debug("suggest computed candidates",
			zap.Int("stateId", msg.stateID),
			zap.Stringer("context", qc.Type),
			zap.String("word", qc.Word),
			zap.Int("count", len(ranked)))

		return resultMsg{
			stateID: msg.stateID,
			text:    msg.text,
			query:   qc,
			items:   ranked,
		}
	}
}

// candidates gathers the unranked candidates for qc. On a lookup error the
// static candidates for the context are still returned.
func candidates(ctx context.Context, source Source, functions []Candidate, qc QueryContext) ([]Candidate, error) {
	switch qc.Type {
	case ContextLabelName:
		names, err := source.LabelNames(ctx, qc.Metric)
		return asCandidates(names, KindLabel, "label"), err

	case ContextLabelValue:
		values, err := source.LabelValues(ctx, qc.Metric, qc.Label)
		return asCandidates(values, KindLabelValue, qc.Label), err

	case ContextDuration:
		return durations, nil

	case ContextGrouping:
		names, err := source.LabelNames(ctx, "")
		return asCandidates(names, KindLabel, "label"), err

	default:
		if qc.Word == "" {
			return nil, nil
		}
		metrics, err := source.MetricNames(ctx)
		out := asCandidates(metrics, KindMetric, "metric")
		return append(out, functions...), err
	}
}

func asCandidates(values []string, kind Kind, description string) []Candidate {
	out := make([]Candidate, len(values))
	for i, v := range values {
		out[i] = Candidate{Value: v, Description: description, Kind: kind}
	}
	return out
}
