package app

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the program-level keys. They are matched before the editor
// sees a key.
type KeyMap struct {
	Quit        key.Binding
	ToggleQuick key.Binding
	Copy        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:        key.NewBinding(key.WithKeys("ctrl+c", "ctrl+d"), key.WithHelp("ctrl+c", "quit")),
		ToggleQuick: key.NewBinding(key.WithKeys("ctrl+@", "ctrl+ "), key.WithHelp("ctrl+space", "quick suggestions")),
		Copy:        key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("ctrl+y", "copy query")),
		PageUp:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
	}
}

// editorHelp describes keys the editor itself handles.
var editorHelp = []key.Binding{
	key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
	key.NewBinding(key.WithKeys("shift+enter"), key.WithHelp("ctrl+j", "newline")),
	key.NewBinding(key.WithKeys("ctrl+up"), key.WithHelp("ctrl+↑/↓", "history")),
}
