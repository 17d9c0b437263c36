package queryeditor

import "strings"

// Key names understood by Resolve. Any other key falls through.
const (
	KeyArrowUp   = "ArrowUp"
	KeyArrowDown = "ArrowDown"
	KeyEnter     = "Enter"
)

// KeyEvent is an immutable snapshot of a key press and the text it was
// pressed against.
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool
	Text  string
}

// Intent is the behavior a key press resolves to.
type Intent int

const (
	// PassThrough leaves the key to the input control.
	PassThrough Intent = iota
	// HistoryPrev recalls the previous query from history.
	HistoryPrev
	// HistoryNext recalls the next query from history.
	HistoryNext
	// Submit executes the current query.
	Submit
)

func (i Intent) String() string {
	switch i {
	case HistoryPrev:
		return "HistoryPrev"
	case HistoryNext:
		return "HistoryNext"
	case Submit:
		return "Submit"
	default:
		return "PassThrough"
	}
}

// Resolution is the outcome of resolving a single key press. Suppress means
// the input control must not apply its native handling of the key.
type Resolution struct {
	Suppress bool
	Intent   Intent
}

// Resolve maps a key press to an intent given whether the suggestion list is
// currently open. It is pure; the caller applies suppression and invokes the
// callback bound to the intent.
func Resolve(ev KeyEvent, autocompleteOpen bool) Resolution {
	isMultiline := strings.Contains(ev.Text, "\n")
	ctrlOrMeta := ev.Ctrl || ev.Meta

	res := Resolution{Intent: PassThrough}

	switch {
	case ev.Key == KeyArrowUp && ctrlOrMeta:
		res.Suppress = true
		res.Intent = HistoryPrev
	case ev.Key == KeyArrowDown && ctrlOrMeta:
		res.Suppress = true
		res.Intent = HistoryNext
	}

	// Enter belongs to the suggestion list while it is open.
	if ev.Key == KeyEnter && autocompleteOpen {
		res.Suppress = true
	}

	if ev.Key == KeyEnter && !ev.Shift && (!isMultiline || ctrlOrMeta) && !autocompleteOpen {
		res.Suppress = true
		res.Intent = Submit
	}

	return res
}
