package suggest

import "github.com/atinylittleshell/qline/pkg/queryeditor"

// Kind names the category a candidate belongs to.
type Kind string

const (
	KindMetric      Kind = "metric"
	KindFunction    Kind = "function"
	KindAggregation Kind = "aggregation"
	KindKeyword     Kind = "keyword"
	KindLabel       Kind = "label"
	KindLabelValue  Kind = "value"
	KindDuration    Kind = "duration"
)

// Candidate is a single completion. Value is inserted in place of the word
// under the caret.
type Candidate struct {
	Value       string
	Description string
	Kind        Kind
}

func (c Candidate) option() queryeditor.Option {
	return queryeditor.Option{
		Value:       c.Value,
		Description: c.Description,
		Type:        string(c.Kind),
	}
}

// listState tracks the candidates on screen and the highlighted one.
// stateID is the engine state the candidates were computed for.
type listState struct {
	items    []Candidate
	selected int
	query    QueryContext
	text     string
	stateID  int
}

func (ls *listState) reset() {
	ls.items = nil
	ls.selected = -1
	ls.query = QueryContext{}
	ls.text = ""
	ls.stateID = 0
}

func (ls *listState) next() {
	if len(ls.items) == 0 {
		return
	}
	ls.selected = (ls.selected + 1) % len(ls.items)
}

func (ls *listState) prev() {
	if len(ls.items) == 0 {
		return
	}
	ls.selected--
	if ls.selected < 0 {
		ls.selected = len(ls.items) - 1
	}
}

func (ls *listState) current() (Candidate, bool) {
	if ls.selected < 0 || ls.selected >= len(ls.items) {
		return Candidate{}, false
	}
	return ls.items[ls.selected], true
}

// apply returns the full text with the word under the caret replaced by c.
func (ls *listState) apply(c Candidate) string {
	runes := []rune(ls.text)
	start := min(max(0, ls.query.Start), len(runes))
	end := min(max(start, ls.query.End), len(runes))
	return string(runes[:start]) + c.Value + string(runes[end:])
}
