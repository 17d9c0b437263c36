package queryeditor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// Styles holds the lipgloss styles used to render the editor.
type Styles struct {
	Frame   lipgloss.Style
	Label   lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")), // Red
		Warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")), // Orange
	}
}

func (m Editor) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Label.Render(m.Label()))
	sb.WriteString("\n")

	frame := m.styles.Frame
	if m.props.Error != "" {
		frame = frame.BorderForeground(m.styles.Error.GetForeground())
	}
	sb.WriteString(frame.Render(m.input.View()))

	if m.props.Error != "" {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Error.Render(m.wrap(m.props.Error)))
	}

	if warning := m.Warning(); warning != "" {
		sb.WriteString("\n")
		sb.WriteString(m.styles.Warning.Render(m.wrap(warning)))
	}

	if m.engine != nil && m.visibility.Open() {
		if popup := m.engine.View(m.anchor()); popup != "" {
			sb.WriteString("\n")
			sb.WriteString(popup)
		}
	}

	return sb.String()
}

func (m Editor) wrap(s string) string {
	if m.width <= 0 {
		return s
	}
	return wordwrap.String(s, m.width)
}

// anchor places the popup under the caret column inside the frame.
func (m Editor) anchor() Anchor {
	offset := m.styles.Frame.GetBorderLeftSize() + m.styles.Frame.GetPaddingLeft() + lipgloss.Width(m.input.Prompt)
	return Anchor{
		Col:   offset + m.caret.Position().Col,
		Width: m.width,
	}
}
