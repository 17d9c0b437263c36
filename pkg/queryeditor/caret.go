package queryeditor

// Caret is a zero-based (row, column) position in the query text. Column is
// measured in runes on the row.
type Caret struct {
	Row int
	Col int
}

// CaretTracker stores the last caret position reported by the input control.
// Values are not validated.
type CaretTracker struct {
	caret Caret
}

// Set records c and reports whether it differs from the previous position.
func (t *CaretTracker) Set(c Caret) bool {
	changed := t.caret != c
	t.caret = c
	return changed
}

func (t CaretTracker) Position() Caret {
	return t.caret
}

// Offset converts the caret into a rune offset within text, clamping to the
// text bounds.
func (c Caret) Offset(text string) int {
	runes := []rune(text)
	row := 0
	for i, r := range runes {
		if row == c.Row {
			col := 0
			for j := i; j < len(runes); j++ {
				if col == c.Col || runes[j] == '\n' {
					return j
				}
				col++
			}
			return len(runes)
		}
		if r == '\n' {
			row++
		}
	}
	return len(runes)
}
