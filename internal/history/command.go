package history

import (
	"fmt"
	"io"
)

// DefaultListLimit is how many entries the history command lists when no
// count is given.
const DefaultListLimit = 20

// Command is one invocation of the history subcommand.
type Command struct {
	// Clear removes every entry.
	Clear bool
	// Delete removes the entry with this ID when non-zero.
	Delete uint
	// Limit caps how many entries are listed.
	Limit int
	// Server restricts listing to one server. Empty lists every server.
	Server string
	// Prefix restricts listing to queries starting with it.
	Prefix string
}

// Run executes cmd against historyManager, writing listings to w.
func (cmd Command) Run(w io.Writer, historyManager *HistoryManager) error {
	if cmd.Clear {
		return historyManager.ResetHistory()
	}
	if cmd.Delete != 0 {
		return historyManager.DeleteEntry(cmd.Delete)
	}

	limit := cmd.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var entries []HistoryEntry
	var err error
	if cmd.Prefix != "" {
		entries, err = historyManager.GetRecentEntriesByPrefix(cmd.Server, cmd.Prefix, limit)
	} else {
		entries, err = historyManager.GetRecentEntries(cmd.Server, limit)
	}
	if err != nil {
		return err
	}

	for _, entry := range entries {
		line := fmt.Sprintf("%d %s", entry.ID, entry.Query)
		switch {
		case entry.Error.Valid:
			line += "  # error: " + entry.Error.String
		case entry.ResultLength.Valid:
			line += fmt.Sprintf("  # %d series, %dms", entry.ResultLength.Int32, entry.DurationMsec.Int64)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
