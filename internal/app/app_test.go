package app

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/common/model"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/atinylittleshell/qline/internal/backend"
	"github.com/atinylittleshell/qline/internal/history"
	"github.com/atinylittleshell/qline/internal/preferences"
	"github.com/atinylittleshell/qline/internal/suggest"
	"github.com/atinylittleshell/qline/pkg/queryeditor"
)

type fakeExecutor struct {
	queries []string
	result  *backend.Result
	stats   *queryeditor.Stats
	err     error
}

func (f *fakeExecutor) Query(ctx context.Context, query string) (*backend.Result, *queryeditor.Stats, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.result, f.stats, nil
}

type wideDevice struct{}

func (wideDevice) Compact() bool { return false }

var source = suggest.StaticSource{
	"up": {"job": {"api", "db"}},
}

func newTestModel(t *testing.T, executor Executor, hm *history.HistoryManager) (*Model, *preferences.Store) {
	prefs, err := preferences.Open("", nil)
	require.NoError(t, err)

	noDelay := time.Duration(0)
	m := New(Options{
		Label:        "Query",
		Server:       "http://localhost:9090",
		Autocomplete: true,
		Timeout:      time.Second,
		HistoryLimit: 100,
		SuggestDelay: &noDelay,
	}, executor, source, hm, prefs, wideDevice{}, zaptest.NewLogger(t))
	t.Cleanup(m.Close)
	return m, prefs
}

func typeText(m *Model, text string) {
	for _, r := range text {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

// collect runs cmd and flattens batches. Commands still waiting on a timer
// after a short grace period, like cursor blinks, are dropped.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(50 * time.Millisecond):
		return nil
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func resultMsgs(msgs []tea.Msg) []queryResultMsg {
	var out []queryResultMsg
	for _, msg := range msgs {
		if r, ok := msg.(queryResultMsg); ok {
			out = append(out, r)
		}
	}
	return out
}

func vectorResult(query string) *backend.Result {
	return &backend.Result{
		Query: query,
		Value: model.Vector{
			{Metric: model.Metric{"__name__": "up", "job": "api"}, Value: 1},
		},
		Elapsed: 5 * time.Millisecond,
	}
}

func TestTypingUpdatesOwnedQuery(t *testing.T) {
	m, _ := newTestModel(t, &fakeExecutor{}, nil)

	typeText(m, "up")
	assert.Equal(t, "up", m.query)
	assert.Equal(t, "up", m.editor.Value())
}

func TestSubmitRunsQueryAndShowsStats(t *testing.T) {
	hm, err := history.NewHistoryManager(":memory:")
	require.NoError(t, err)
	defer hm.Close()

	executor := &fakeExecutor{
		result: vectorResult("up"),
		stats: &queryeditor.Stats{
			ResultLength:      lo.ToPtr(1),
			ExecutionTimeMsec: lo.ToPtr(7),
		},
	}
	m, _ := newTestModel(t, executor, hm)

	typeText(m, "up")
	cmd := m.submit()
	results := resultMsgs(collect(cmd))
	require.Len(t, results, 1)
	assert.Equal(t, []string{"up"}, executor.queries)
	assert.Equal(t, QueryStatusInFlight, m.indicator.status)

	m.Update(results[0])
	assert.Equal(t, QueryStatusSuccess, m.indicator.status)
	assert.Equal(t, "Query (7ms)", m.editor.Label())
	assert.Empty(t, m.editor.Props().Error)

	view := m.View()
	assert.Contains(t, view, "Query (7ms)")
	assert.Contains(t, view, `up{job="api"}  1`)
	assert.Contains(t, view, "1 series")

	entries, err := hm.GetRecentEntries("", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "up", entries[0].Query)
	assert.Equal(t, int32(1), entries[0].ResultLength.Int32)
}

func TestSubmitFailureShowsError(t *testing.T) {
	executor := &fakeExecutor{err: &backend.APIError{Type: "bad_data", Message: "parse error"}}
	m, _ := newTestModel(t, executor, nil)

	typeText(m, "sum(")
	for _, r := range resultMsgs(collect(m.submit())) {
		m.Update(r)
	}

	assert.Equal(t, QueryStatusError, m.indicator.status)
	assert.Equal(t, "bad_data: parse error", m.editor.Props().Error)
	assert.Contains(t, m.View(), "bad_data: parse error")
}

func TestEmptyQueryIsNotSubmitted(t *testing.T) {
	executor := &fakeExecutor{}
	m, _ := newTestModel(t, executor, nil)

	typeText(m, "   ")
	assert.Nil(t, m.submit())
	assert.Empty(t, executor.queries)
}

func TestSupersededResultIsDiscarded(t *testing.T) {
	executor := &fakeExecutor{result: vectorResult("up")}
	m, _ := newTestModel(t, executor, nil)

	typeText(m, "up")
	first := resultMsgs(collect(m.submit()))
	second := resultMsgs(collect(m.submit()))
	require.Len(t, first, 1)
	require.Len(t, second, 1)

	m.Update(first[0])
	assert.Equal(t, QueryStatusInFlight, m.indicator.status)

	m.Update(second[0])
	assert.Equal(t, QueryStatusSuccess, m.indicator.status)
}

func TestHistoryNavigationThroughEditor(t *testing.T) {
	hm, err := history.NewHistoryManager(":memory:")
	require.NoError(t, err)
	defer hm.Close()
	for _, q := range []string{"up", "sum(up)"} {
		_, err := hm.StartQuery(q, "http://localhost:9090")
		require.NoError(t, err)
	}

	m, _ := newTestModel(t, &fakeExecutor{}, hm)
	typeText(m, "su")

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlUp})
	assert.Equal(t, "sum(up)", m.editor.Value())
	assert.Equal(t, "sum(up)", m.query)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlUp})
	assert.Equal(t, "sum(up)", m.editor.Value(), "only entries starting with the draft are visited")

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlDown})
	assert.Equal(t, "su", m.editor.Value())
}

func TestHistoryNavigationWithEmptyDraft(t *testing.T) {
	hm, err := history.NewHistoryManager(":memory:")
	require.NoError(t, err)
	defer hm.Close()
	for _, q := range []string{"up", "sum(up)"} {
		_, err := hm.StartQuery(q, "http://localhost:9090")
		require.NoError(t, err)
	}

	m, _ := newTestModel(t, &fakeExecutor{}, hm)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlUp})
	assert.Equal(t, "sum(up)", m.editor.Value())
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlUp})
	assert.Equal(t, "up", m.editor.Value())
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlUp})
	assert.Equal(t, "up", m.editor.Value(), "oldest entry stays")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlDown})
	assert.Equal(t, "sum(up)", m.editor.Value())
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlDown})
	assert.Equal(t, "", m.editor.Value())
}

func TestToggleQuickPersistsPreference(t *testing.T) {
	m, prefs := newTestModel(t, &fakeExecutor{}, nil)
	assert.False(t, prefs.Current())

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlAt})
	assert.True(t, prefs.Current())
	assert.Contains(t, m.View(), "quick suggestions on")

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlAt})
	assert.False(t, prefs.Current())
}

func TestQuitKey(t *testing.T) {
	m, _ := newTestModel(t, &fakeExecutor{}, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())
}

func TestCopiedNotice(t *testing.T) {
	m, _ := newTestModel(t, &fakeExecutor{}, nil)

	m.Update(copiedMsg{})
	assert.Contains(t, m.View(), "copied query to clipboard")

	m.Update(copiedMsg{err: errors.New("no clipboard")})
	assert.Contains(t, m.View(), "copy failed: no clipboard")

	assert.Nil(t, m.copyQuery(), "nothing to copy")
}

// openSuggestions types text and drives the resulting recompute until the
// suggestion list reports its candidates.
func openSuggestions(t *testing.T, m *Model, text string) {
	t.Helper()
	var pending []tea.Msg
	for _, r := range text {
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		pending = collect(cmd)
	}

	for i := 0; i < 4 && len(pending) > 0; i++ {
		var next []tea.Msg
		for _, msg := range pending {
			if _, ok := msg.(statusTickMsg); ok {
				continue
			}
			_, cmd := m.Update(msg)
			next = append(next, collect(cmd)...)
		}
		pending = next
	}
	require.True(t, m.editor.AutocompleteOpen())
}

func TestSuggestionRoundTrip(t *testing.T) {
	m, _ := newTestModel(t, &fakeExecutor{}, nil)
	openSuggestions(t, m, "up{")
	assert.Contains(t, m.View(), "job")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	for _, msg := range collect(cmd) {
		m.Update(msg)
	}
	assert.Equal(t, "up{job", m.query)
	assert.Equal(t, "up{job", m.editor.Value())
}

func TestEnterAfterTypingKeepsNewText(t *testing.T) {
	exec := &fakeExecutor{}
	m, _ := newTestModel(t, exec, nil)
	openSuggestions(t, m, "up{")

	// typed before the recompute for "up{}" lands
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'}'}})
	require.Equal(t, "up{}", m.query)
	require.True(t, m.editor.AutocompleteOpen())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	for _, msg := range collect(cmd) {
		m.Update(msg)
	}
	assert.Equal(t, "up{}", m.query)
	assert.Equal(t, "up{}", m.editor.Value())
	assert.Empty(t, exec.queries, "enter with the list open never submits")
}

func TestHelpViewShowsQuickState(t *testing.T) {
	m, prefs := newTestModel(t, &fakeExecutor{}, nil)
	assert.Contains(t, m.helpView(), "ctrl+space quick suggestions: off")
	prefs.Set(true)
	assert.Contains(t, m.helpView(), "ctrl+space quick suggestions: on")
}
