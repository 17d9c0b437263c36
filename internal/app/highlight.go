package app

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	highlightStyle = styles.Get("monokai")
	promqlLexer    = lexerFor("promql")
)

func lexerFor(name string) chroma.Lexer {
	lexer := lexers.Get(name)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// highlight renders query with PromQL syntax coloring. It returns the query
// unchanged if it cannot be tokenised.
func highlight(query string) string {
	if query == "" {
		return ""
	}

	iterator, err := promqlLexer.Tokenise(nil, query)
	if err != nil {
		return query
	}

	var sb strings.Builder
	for _, token := range iterator.Tokens() {
		style := styleEntryToLipgloss(highlightStyle.Get(token.Type))
		// render line by line so styles do not bleed across newlines
		lines := strings.Split(token.Value, "\n")
		for i, line := range lines {
			if i > 0 {
				sb.WriteString("\n")
			}
			if line != "" {
				sb.WriteString(style.Render(line))
			}
		}
	}

	// some lexers append a newline to their input
	out := sb.String()
	if !strings.HasSuffix(query, "\n") {
		out = strings.TrimSuffix(out, "\n")
	}
	return out
}

// styleEntryToLipgloss converts a chroma StyleEntry to a lipgloss Style
func styleEntryToLipgloss(entry chroma.StyleEntry) lipgloss.Style {
	style := lipgloss.NewStyle()

	if entry.Colour.IsSet() {
		style = style.Foreground(lipgloss.Color(entry.Colour.String()))
	}
	if entry.Bold == chroma.Yes {
		style = style.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		style = style.Italic(true)
	}
	if entry.Underline == chroma.Yes {
		style = style.Underline(true)
	}

	return style
}
