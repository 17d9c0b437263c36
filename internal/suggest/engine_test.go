package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/atinylittleshell/qline/pkg/queryeditor"
)

func newTestEngine(t *testing.T, source Source) *Engine {
	return New(source, WithDelay(0), WithLogger(zaptest.NewLogger(t)))
}

// settle drives a Recompute through to the FoundOptionsMsg it produces.
func settle(t *testing.T, e *Engine, text string) queryeditor.FoundOptionsMsg {
	t.Helper()
	caret := queryeditor.Caret{Row: 0, Col: len([]rune(text))}
	cmd := e.Recompute(text, caret)
	require.NotNil(t, cmd)

	handled, cmd := e.Update(cmd())
	require.True(t, handled)
	require.NotNil(t, cmd)

	handled, cmd = e.Update(cmd())
	require.True(t, handled)
	require.NotNil(t, cmd)

	found, ok := cmd().(queryeditor.FoundOptionsMsg)
	require.True(t, ok)
	return found
}

func optionValues(options []queryeditor.Option) []string {
	out := make([]string, len(options))
	for i, o := range options {
		out[i] = o.Value
	}
	return out
}

func TestEngineSuggestsMetricsAndFunctions(t *testing.T) {
	e := newTestEngine(t, testSource)

	found := settle(t, e, "http")
	assert.Equal(t, []string{"http_requests_total"}, optionValues(found.Options))
	assert.Equal(t, "metric", found.Options[0].Type)

	found = settle(t, e, "rat")
	assert.Contains(t, optionValues(found.Options), "rate(")
	assert.Equal(t, "rate(", found.Options[0].Value)
}

func TestEngineEmptyExpressionHasNoCandidates(t *testing.T) {
	e := newTestEngine(t, testSource)
	found := settle(t, e, "")
	assert.Empty(t, found.Options)
}

func TestEngineLabelContexts(t *testing.T) {
	e := newTestEngine(t, testSource)

	found := settle(t, e, "up{")
	assert.Equal(t, []string{"instance", "job"}, optionValues(found.Options))

	found = settle(t, e, `up{job="`)
	assert.Equal(t, []string{"api", "db"}, optionValues(found.Options))

	found = settle(t, e, "sum by (me")
	assert.Equal(t, []string{"method"}, optionValues(found.Options))

	found = settle(t, e, "rate(up[1")
	assert.Contains(t, optionValues(found.Options), "1m")
}

func TestEngineAcceptReplacesWord(t *testing.T) {
	e := newTestEngine(t, testSource)
	settle(t, e, "rate(http")

	handled, cmd := e.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, handled)
	require.NotNil(t, cmd)

	sel, ok := cmd().(queryeditor.SelectMsg)
	require.True(t, ok)
	assert.Equal(t, "rate(http_requests_total", sel.Value)
}

func TestEngineNavigationWrapsAndAcceptsSelection(t *testing.T) {
	e := newTestEngine(t, testSource)
	found := settle(t, e, "up{")
	require.Len(t, found.Options, 2)

	handled, _ := e.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.True(t, handled)
	handled, _ = e.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.True(t, handled)
	handled, _ = e.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.True(t, handled)

	_, cmd := e.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, queryeditor.SelectMsg{Value: "up{job"}, cmd())
}

func TestEngineDismissClosesAndDropsInFlight(t *testing.T) {
	e := newTestEngine(t, testSource)
	settle(t, e, "up{")

	attempt := e.Recompute("up{j", queryeditor.Caret{Col: 4})()

	handled, cmd := e.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.True(t, handled)
	assert.Equal(t, queryeditor.FoundOptionsMsg{Options: []queryeditor.Option{}}, cmd())
	assert.Empty(t, e.View(queryeditor.Anchor{}))

	handled, cmd = e.Update(attempt)
	assert.True(t, handled)
	assert.Nil(t, cmd)
}

func TestEngineDiscardsStaleResults(t *testing.T) {
	e := newTestEngine(t, testSource)

	first := e.Recompute("ht", queryeditor.Caret{Col: 2})()
	_, lookup := e.Update(first)
	require.NotNil(t, lookup)
	firstResult := lookup()

	// the operator keeps typing before the first lookup lands
	settle(t, e, "up{")

	handled, cmd := e.Update(firstResult)
	assert.True(t, handled)
	assert.Nil(t, cmd)
	assert.Contains(t, e.View(queryeditor.Anchor{}), "instance")
}

func TestEngineAcceptWithoutCandidatesIsNoop(t *testing.T) {
	e := newTestEngine(t, testSource)
	handled, cmd := e.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, handled)
	assert.Nil(t, cmd)
}

func TestEngineIgnoresOtherKeys(t *testing.T) {
	e := newTestEngine(t, testSource)
	handled, cmd := e.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.False(t, handled)
	assert.Nil(t, cmd)
}

type failingSource struct{ StaticSource }

func (failingSource) MetricNames(ctx context.Context) ([]string, error) {
	return nil, errors.New("backend unavailable")
}

func TestEngineDegradesWhenSourceFails(t *testing.T) {
	e := newTestEngine(t, failingSource{})
	found := settle(t, e, "sum_o")
	assert.Contains(t, optionValues(found.Options), "sum_over_time(")
}

func TestEngineView(t *testing.T) {
	e := newTestEngine(t, testSource)
	assert.Empty(t, e.View(queryeditor.Anchor{}))

	settle(t, e, "up{")
	view := e.View(queryeditor.Anchor{Col: 4, Width: 80})
	assert.Contains(t, view, "instance")
	assert.Contains(t, view, "job")
	for _, line := range strings.Split(view, "\n") {
		assert.True(t, strings.HasPrefix(line, "    "), "popup is indented to the caret: %q", line)
	}
}

func TestEngineViewTruncatesLongValues(t *testing.T) {
	long := "very_long_metric_name_" + strings.Repeat("x", 60)
	e := newTestEngine(t, StaticSource{long: {"job": {"api"}}})

	settle(t, e, "very_")
	view := e.View(queryeditor.Anchor{Width: 120})
	assert.Contains(t, view, "…")
	assert.NotContains(t, view, long)
}

func TestWindow(t *testing.T) {
	first, last := window(3, 0, 8)
	assert.Equal(t, 0, first)
	assert.Equal(t, 3, last)

	first, last = window(20, 10, 8)
	assert.Equal(t, 3, first)
	assert.Equal(t, 11, last)
}

func TestEngineAcceptIgnoresCandidatesForOlderText(t *testing.T) {
	e := newTestEngine(t, testSource)
	found := settle(t, e, "up{")
	require.NotEmpty(t, found.Options)

	// the operator types before the recompute for the new text lands
	pending := e.Recompute("up{j", queryeditor.Caret{Col: 4})

	handled, cmd := e.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, handled, "enter stays reserved for the open list")
	assert.Nil(t, cmd, "outdated candidates must not rewrite newer text")

	// once the lookup for the current text lands, accept works again
	_, lookup := e.Update(pending())
	require.NotNil(t, lookup)
	_, cmd = e.Update(lookup())
	require.NotNil(t, cmd)

	handled, cmd = e.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, handled)
	require.NotNil(t, cmd)
	assert.Equal(t, queryeditor.SelectMsg{Value: "up{job"}, cmd())
}
