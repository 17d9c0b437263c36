package queryeditor

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

const maxInputHeight = 10

// Editor is a multi-line query input with live autocompletion. It wires a
// textarea to the key resolver, the visibility controller and an optional
// suggestion engine.
type Editor struct {
	props  Props
	logger *zap.Logger
	styles Styles

	input      textarea.Model
	engine     SuggestionEngine
	newEngine  EngineFactory
	visibility Visibility
	caret      CaretTracker

	prefs  Observable
	sub    *subscription
	device Detector

	width int
}

// EditorOption configures an Editor at construction time.
type EditorOption func(*Editor)

// WithEngine sets the factory used to mount the suggestion engine while the
// Autocomplete prop is set.
func WithEngine(factory EngineFactory) EditorOption {
	return func(e *Editor) {
		e.newEngine = factory
	}
}

// WithPreferences subscribes the editor to the quick-autocomplete preference.
func WithPreferences(prefs Observable) EditorOption {
	return func(e *Editor) {
		e.prefs = prefs
	}
}

// WithDevice sets the device-class detector consulted for initial focus.
func WithDevice(device Detector) EditorOption {
	return func(e *Editor) {
		e.device = device
	}
}

func WithLogger(logger *zap.Logger) EditorOption {
	return func(e *Editor) {
		e.logger = logger
	}
}

func WithStyles(styles Styles) EditorOption {
	return func(e *Editor) {
		e.styles = styles
	}
}

// New builds an editor for props. Call Close when the editor is discarded.
func New(props Props, opts ...EditorOption) Editor {
	e := Editor{
		props:  props,
		logger: zap.NewNop(),
		styles: DefaultStyles(),
	}
	for _, opt := range opts {
		opt(&e)
	}

	input := textarea.New()
	input.Prompt = "│ "
	input.Placeholder = "Enter a query"
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("enter", "ctrl+m", "ctrl+j"))
	input.SetValue(props.Value)
	e.input = input
	e.fitHeight()

	e.visibility = NewVisibility(props.Autocomplete)
	e.mountEngine()
	e.caret.Set(e.caretFromInput())

	if e.prefs != nil {
		e.sub = subscribe(e.prefs)
	}

	if !props.Disabled && (e.device == nil || !e.device.Compact()) {
		e.input.Focus()
	}

	return e
}

func (m Editor) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.sub.wait()}
	if m.engine != nil {
		cmds = append(cmds, m.engine.Recompute(m.input.Value(), m.caret.Position()))
	}
	return tea.Batch(cmds...)
}

func (m Editor) Update(msg tea.Msg) (Editor, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetWidth(msg.Width)
		return m, nil

	case FoundOptionsMsg:
		m.visibility.ReportCandidates(len(msg.Options))
		m.logger.Debug("queryeditor found options",
			zap.Int("count", len(msg.Options)),
			zap.Bool("open", m.visibility.Open()))
		return m, nil

	case SelectMsg:
		if m.props.Disabled {
			return m, nil
		}
		m.logger.Debug("queryeditor selected completion", zap.String("value", msg.Value))
		return m, callWith(m.props.OnChange, msg.Value)

	case PreferenceMsg:
		m.visibility.PreferenceChanged(msg.Quick)
		m.logger.Debug("queryeditor preference changed",
			zap.Bool("quick", msg.Quick),
			zap.Bool("open", m.visibility.Open()))
		return m, m.sub.wait()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.engine != nil {
		if handled, cmd := m.engine.Update(msg); handled {
			return m, cmd
		}
	}
	return m.forward(msg)
}

func (m Editor) handleKey(msg tea.KeyMsg) (Editor, tea.Cmd) {
	if m.props.Disabled {
		return m, nil
	}

	open := m.visibility.Open()
	ev := KeyEventFromMsg(msg, m.input.Value())
	res := Resolve(ev, open)

	cmds := []tea.Cmd{m.dispatch(res.Intent)}

	consumed := false
	if m.engine != nil && open && res.Intent == PassThrough {
		var cmd tea.Cmd
		consumed, cmd = m.engine.Update(msg)
		cmds = append(cmds, cmd)
	}

	if res.Intent != PassThrough || res.Suppress || consumed {
		m.logger.Debug("queryeditor resolved key",
			zap.String("key", ev.Key),
			zap.Stringer("intent", res.Intent),
			zap.Bool("suppress", res.Suppress),
			zap.Bool("consumed", consumed))
	}

	if res.Suppress || consumed {
		return m, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	m, cmd = m.forward(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Editor) dispatch(intent Intent) tea.Cmd {
	switch intent {
	case HistoryPrev:
		return call(m.props.OnArrowUp)
	case HistoryNext:
		return call(m.props.OnArrowDown)
	case Submit:
		return call(m.props.OnEnter)
	default:
		return nil
	}
}

// forward hands msg to the textarea and reports the resulting edits and caret
// moves.
func (m Editor) forward(msg tea.Msg) (Editor, tea.Cmd) {
	before := m.input.Value()

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds := []tea.Cmd{cmd}

	after := m.input.Value()
	edited := after != before
	if edited {
		m.fitHeight()
		cmds = append(cmds, callWith(m.props.OnChange, after))
	}

	moved := m.caret.Set(m.caretFromInput())
	if (edited || moved) && m.engine != nil {
		cmds = append(cmds, m.engine.Recompute(after, m.caret.Position()))
	}

	return m, tea.Batch(cmds...)
}

// SetProps replaces the editor's props. A Value different from the text on
// screen replaces it.
func (m *Editor) SetProps(props Props) tea.Cmd {
	prev := m.props
	m.props = props

	var cmds []tea.Cmd

	if props.Autocomplete != prev.Autocomplete {
		m.visibility.SetEnabled(props.Autocomplete)
		m.mountEngine()
	}

	if props.Disabled != prev.Disabled {
		if props.Disabled {
			m.input.Blur()
		} else if m.device == nil || !m.device.Compact() {
			cmds = append(cmds, m.input.Focus())
		}
	}

	if props.Value != m.input.Value() {
		m.input.SetValue(props.Value)
		m.fitHeight()
		m.caret.Set(m.caretFromInput())
		if m.engine != nil {
			cmds = append(cmds, m.engine.Recompute(props.Value, m.caret.Position()))
		}
	} else if m.engine != nil && props.Autocomplete && !prev.Autocomplete {
		cmds = append(cmds, m.engine.Recompute(props.Value, m.caret.Position()))
	}

	return tea.Batch(cmds...)
}

func (m *Editor) mountEngine() {
	if m.props.Autocomplete && m.newEngine != nil {
		if m.engine == nil {
			m.engine = m.newEngine(m.logger)
		}
		return
	}
	m.engine = nil
}

// Close releases the preference subscription.
func (m *Editor) Close() {
	m.sub.close()
}

func (m *Editor) Focus() tea.Cmd {
	if m.props.Disabled {
		return nil
	}
	return m.input.Focus()
}

func (m *Editor) Blur() {
	m.input.Blur()
}

func (m Editor) Focused() bool {
	return m.input.Focused()
}

func (m *Editor) SetWidth(width int) {
	m.width = width
	m.input.SetWidth(max(1, width-m.styles.Frame.GetHorizontalFrameSize()))
}

func (m Editor) Props() Props {
	return m.props
}

func (m Editor) Value() string {
	return m.input.Value()
}

func (m Editor) AutocompleteOpen() bool {
	return m.visibility.Open()
}

func (m Editor) Caret() Caret {
	return m.caret.Position()
}

// Label returns the base label augmented with execution statistics.
func (m Editor) Label() string {
	return ComputeLabel(m.props.Label, m.props.Stats)
}

func (m Editor) Warning() string {
	return ComputeWarning(m.props.Stats)
}

func (m Editor) caretFromInput() Caret {
	info := m.input.LineInfo()
	return Caret{
		Row: m.input.Line(),
		Col: info.StartColumn + info.ColumnOffset,
	}
}

func (m *Editor) fitHeight() {
	m.input.SetHeight(min(max(1, m.input.LineCount()), maxInputHeight))
}
