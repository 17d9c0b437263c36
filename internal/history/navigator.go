package history

import "strings"

// Navigator walks a list of queries from newest to oldest. When navigation
// starts it remembers the text being edited as the draft and only visits
// entries starting with it; stepping forward past the newest entry restores
// the draft.
type Navigator struct {
	entries  []string
	filtered []string
	index    int
	draft    string
}

// NewNavigator takes entries oldest first.
func NewNavigator(entries []string) *Navigator {
	n := &Navigator{}
	n.Reset(entries)
	return n
}

// Reset replaces the entries and ends any navigation in progress.
func (n *Navigator) Reset(entries []string) {
	n.entries = append([]string{}, entries...)
	n.Stop()
}

// Push appends a just-submitted query and ends navigation. A query equal to
// the newest entry is not added again.
func (n *Navigator) Push(query string) {
	if query == "" {
		return
	}
	if len(n.entries) == 0 || n.entries[len(n.entries)-1] != query {
		n.entries = append(n.entries, query)
	}
	n.Stop()
}

// Stop ends navigation, keeping whatever text is in the editor.
func (n *Navigator) Stop() {
	n.filtered = nil
	n.index = -1
	n.draft = ""
}

// Navigating reports whether an entry from history is currently shown.
func (n *Navigator) Navigating() bool {
	return n.index >= 0
}

// Prev moves to the next older entry. current is the text in the editor and
// becomes the draft when navigation starts.
func (n *Navigator) Prev(current string) (string, error) {
	if n.index < 0 {
		n.draft = current
		n.filtered = filter(current, n.entries)
	}
	if n.index+1 >= len(n.filtered) {
		return "", ErrNoHistory
	}
	n.index++
	return n.filtered[n.index], nil
}

// Next moves to the next newer entry, or back to the draft.
func (n *Navigator) Next() (string, error) {
	if n.index < 0 {
		return "", ErrNoHistory
	}
	n.index--
	if n.index < 0 {
		draft := n.draft
		n.filtered = nil
		n.draft = ""
		return draft, nil
	}
	return n.filtered[n.index], nil
}

// filter returns the entries starting with prefix, newest first, without
// adjacent repeats.
func filter(prefix string, entries []string) []string {
	out := make([]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if prefix != "" && (entry == prefix || !strings.HasPrefix(entry, prefix)) {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == entry {
			continue
		}
		out = append(out, entry)
	}
	return out
}
