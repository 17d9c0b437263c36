package queryeditor

import tea "github.com/charmbracelet/bubbletea"

// KeyEventFromMsg translates a terminal key press into a KeyEvent against
// text. Terminals cannot report shift+enter, so ctrl+j stands in for it and
// the alt modifier is reported as Meta.
func KeyEventFromMsg(msg tea.KeyMsg, text string) KeyEvent {
	ev := KeyEvent{Meta: msg.Alt, Text: text}

	switch msg.Type {
	case tea.KeyEnter:
		ev.Key = KeyEnter
	case tea.KeyCtrlJ:
		ev.Key = KeyEnter
		ev.Shift = true
	case tea.KeyUp:
		ev.Key = KeyArrowUp
	case tea.KeyCtrlUp:
		ev.Key = KeyArrowUp
		ev.Ctrl = true
	case tea.KeyShiftUp:
		ev.Key = KeyArrowUp
		ev.Shift = true
	case tea.KeyCtrlShiftUp:
		ev.Key = KeyArrowUp
		ev.Ctrl = true
		ev.Shift = true
	case tea.KeyDown:
		ev.Key = KeyArrowDown
	case tea.KeyCtrlDown:
		ev.Key = KeyArrowDown
		ev.Ctrl = true
	case tea.KeyShiftDown:
		ev.Key = KeyArrowDown
		ev.Shift = true
	case tea.KeyCtrlShiftDown:
		ev.Key = KeyArrowDown
		ev.Ctrl = true
		ev.Shift = true
	default:
		ev.Key = msg.String()
	}

	return ev
}
