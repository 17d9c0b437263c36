package suggest

import (
	"regexp"
	"strings"
	"unicode"
)

// ContextType classifies what the operator is typing at the caret.
type ContextType int

const (
	// ContextExpression is a bare identifier: metric, function, aggregation or keyword.
	ContextExpression ContextType = iota
	// ContextLabelName is inside a series selector, before the matcher operator.
	ContextLabelName
	// ContextLabelValue is inside a quoted matcher value.
	ContextLabelValue
	// ContextDuration is inside a range or subquery bracket.
	ContextDuration
	// ContextGrouping is inside by(...), without(...), on(...) or ignoring(...).
	ContextGrouping
)

func (c ContextType) String() string {
	switch c {
	case ContextLabelName:
		return "label_name"
	case ContextLabelValue:
		return "label_value"
	case ContextDuration:
		return "duration"
	case ContextGrouping:
		return "grouping"
	default:
		return "expression"
	}
}

// QueryContext describes the word under the caret. Start and End are rune
// offsets of the word being completed within the full text.
type QueryContext struct {
	Type   ContextType
	Word   string
	Start  int
	End    int
	Metric string
	Label  string
}

var (
	labelValueRegex = regexp.MustCompile(`([a-zA-Z_][a-zA-Z0-9_]*)\s*(=~|!~|!=|=)\s*"([^"]*)$`)
	groupingRegex   = regexp.MustCompile(`\b(by|without|on|ignoring|group_left|group_right)\s*\(([^()]*)$`)
)

func isMetricRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ':'
}

func isLabelRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isDurationRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == ':'
}

// Analyze inspects text up to the rune offset and reports the completion
// context at that point.
func Analyze(text string, offset int) QueryContext {
	runes := []rune(text)
	offset = min(max(0, offset), len(runes))
	before := string(runes[:offset])

	end := offset
	for end < len(runes) && isMetricRune(runes[end]) {
		end++
	}

	// series selector
	if open, closed := strings.LastIndex(before, "{"), strings.LastIndex(before, "}"); open > closed {
		selector := before[open+1:]
		metric := metricBefore(before[:open])
		if m := labelValueRegex.FindStringSubmatch(selector); m != nil {
			valueEnd := offset
			for valueEnd < len(runes) && runes[valueEnd] != '"' {
				valueEnd++
			}
			return QueryContext{
				Type:   ContextLabelValue,
				Word:   m[3],
				Start:  offset - len([]rune(m[3])),
				End:    valueEnd,
				Metric: metric,
				Label:  m[1],
			}
		}
		word := trailingWord(runes[:offset], isLabelRune)
		return QueryContext{
			Type:   ContextLabelName,
			Word:   word,
			Start:  offset - len([]rune(word)),
			End:    wordEnd(runes, offset, isLabelRune),
			Metric: metric,
		}
	}

	// range selector or subquery
	if open, closed := strings.LastIndex(before, "["), strings.LastIndex(before, "]"); open > closed {
		word := trailingWord(runes[:offset], isDurationRune)
		return QueryContext{
			Type:   ContextDuration,
			Word:   word,
			Start:  offset - len([]rune(word)),
			End:    wordEnd(runes, offset, isDurationRune),
			Metric: metricBefore(before[:open]),
		}
	}

	if m := groupingRegex.FindStringSubmatch(before); m != nil {
		word := trailingWord(runes[:offset], isLabelRune)
		return QueryContext{
			Type:  ContextGrouping,
			Word:  word,
			Start: offset - len([]rune(word)),
			End:   wordEnd(runes, offset, isLabelRune),
		}
	}

	word := trailingWord(runes[:offset], isMetricRune)
	return QueryContext{
		Type:  ContextExpression,
		Word:  word,
		Start: offset - len([]rune(word)),
		End:   end,
	}
}

func trailingWord(runes []rune, accept func(rune) bool) string {
	start := len(runes)
	for start > 0 && accept(runes[start-1]) {
		start--
	}
	return string(runes[start:])
}

func wordEnd(runes []rune, offset int, accept func(rune) bool) int {
	end := offset
	for end < len(runes) && accept(runes[end]) {
		end++
	}
	return end
}

// metricBefore extracts the metric name immediately preceding a bracket.
func metricBefore(text string) string {
	return trailingWord([]rune(strings.TrimRight(text, " \t\n")), isMetricRune)
}
