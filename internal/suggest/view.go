package suggest

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/atinylittleshell/qline/pkg/queryeditor"
)

const (
	maxRows          = 8
	maxValueWidth    = 40
	maxDescWidth     = 36
	minPopupWidth    = 16
	popupBorderWidth = 2
)

type Styles struct {
	Box         lipgloss.Style
	Item        lipgloss.Style
	Selected    lipgloss.Style
	Description lipgloss.Style
	Footer      lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")),
		Item:        lipgloss.NewStyle(),
		Selected:    lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("12")),
		Description: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Footer:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
	}
}

// View renders the candidate popup below the caret column. It renders
// nothing when there are no candidates.
func (e *Engine) View(anchor queryeditor.Anchor) string {
	items := e.list.items
	if len(items) == 0 {
		return ""
	}

	first, last := window(len(items), e.list.selected, maxRows)

	valueWidth, descWidth := 0, 0
	for _, c := range items[first:last] {
		valueWidth = max(valueWidth, runewidth.StringWidth(c.Value))
		descWidth = max(descWidth, runewidth.StringWidth(c.Description))
	}
	valueWidth = min(valueWidth, maxValueWidth)
	descWidth = min(descWidth, maxDescWidth)

	rows := make([]string, 0, last-first+1)
	for i := first; i < last; i++ {
		c := items[i]
		value := runewidth.FillRight(runewidth.Truncate(c.Value, valueWidth, "…"), valueWidth)
		desc := runewidth.FillRight(runewidth.Truncate(c.Description, descWidth, "…"), descWidth)
		if i == e.list.selected {
			rows = append(rows, e.styles.Selected.Render(value+"  "+desc))
			continue
		}
		rows = append(rows, e.styles.Item.Render(value)+"  "+e.styles.Description.Render(desc))
	}
	if len(items) > last-first {
		rows = append(rows, e.styles.Footer.Render(footer(e.list.selected, len(items))))
	}

	box := e.styles.Box.Render(strings.Join(rows, "\n"))

	margin := anchor.Col
	if anchor.Width > 0 {
		boxWidth := max(lipgloss.Width(box), minPopupWidth+popupBorderWidth)
		margin = min(margin, max(0, anchor.Width-boxWidth))
	}
	if margin <= 0 {
		return box
	}
	return lipgloss.NewStyle().MarginLeft(margin).Render(box)
}

// window returns the [first, last) range of rows to show so that selected
// stays visible.
func window(total, selected, size int) (int, int) {
	if total <= size {
		return 0, total
	}
	first := 0
	if selected >= size {
		first = selected - size + 1
	}
	return first, first + size
}

func footer(selected, total int) string {
	return fmt.Sprintf("%d/%d", selected+1, total)
}
