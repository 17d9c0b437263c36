package queryeditor

import tea "github.com/charmbracelet/bubbletea"

// Props is the contract between the editor and its owner. Value is owned by
// the caller: the editor reports edits through OnChange and expects the
// caller to hand the new value back through SetProps.
//
// Callbacks run synchronously on the UI goroutine, from inside Update. The
// returned command, if any, is batched with the editor's own commands.
type Props struct {
	Value string
	Label string

	// Error is rendered verbatim below the input. The editor never
	// interprets it.
	Error string
	Stats *Stats

	Autocomplete bool
	Disabled     bool

	OnChange    func(query string) tea.Cmd
	OnEnter     func() tea.Cmd
	OnArrowUp   func() tea.Cmd
	OnArrowDown func() tea.Cmd
}

func call(fn func() tea.Cmd) tea.Cmd {
	if fn == nil {
		return nil
	}
	return fn()
}

func callWith(fn func(string) tea.Cmd, value string) tea.Cmd {
	if fn == nil {
		return nil
	}
	return fn(value)
}
