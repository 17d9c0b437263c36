package queryeditor

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// Option is a single completion candidate reported by a SuggestionEngine.
type Option struct {
	Value       string
	Description string
	Type        string
}

// FoundOptionsMsg is emitted by a SuggestionEngine whenever it finishes a
// recompute against the current text. Results for stale text are never
// emitted.
type FoundOptionsMsg struct {
	Options []Option
}

// SelectMsg is emitted by a SuggestionEngine when the operator accepts a
// candidate. Value is the complete query text after the completion.
type SelectMsg struct {
	Value string
}

// Anchor describes where the suggestion popup should be drawn relative to the
// editor: the caret column on screen and the available width.
type Anchor struct {
	Col   int
	Width int
}

// SuggestionEngine computes completion candidates for the text around the
// caret. It runs on the UI goroutine except for the work scheduled through
// the commands it returns.
type SuggestionEngine interface {
	// Recompute schedules a candidate computation. It eventually yields a
	// FoundOptionsMsg, possibly after later calls have superseded it.
	Recompute(value string, caret Caret) tea.Cmd

	// Update lets the engine react to its own messages and, while the list
	// is open, to navigation keys. handled reports whether the message was
	// consumed and must not reach the input control.
	Update(msg tea.Msg) (handled bool, cmd tea.Cmd)

	// View renders the popup anchored at anchor.
	View(anchor Anchor) string
}

// EngineFactory mounts a SuggestionEngine. It is only invoked while the
// autocomplete feature flag is set.
type EngineFactory func(logger *zap.Logger) SuggestionEngine
