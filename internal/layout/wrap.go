package layout

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// TabWidth is the number of columns a tab expands to.
const TabWidth = 4

// ExpandTabs replaces tabs with spaces up to the next tab stop.
func ExpandTabs(text string) string {
	if !strings.ContainsRune(text, '\t') {
		return text
	}
	var b strings.Builder
	col := 0
	for _, r := range text {
		if r == '\t' {
			n := TabWidth - col%TabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return b.String()
}

// HardWrap breaks text into rows of at most width columns without regard
// for word boundaries. It always returns at least one row.
func HardWrap(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	var rows []string
	var b strings.Builder
	col := 0
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if col > 0 && col+w > width {
			rows = append(rows, b.String())
			b.Reset()
			col = 0
		}
		b.WriteRune(r)
		col += w
	}
	return append(rows, b.String())
}

// RowCount returns len(HardWrap(text, width)) without building the rows.
func RowCount(text string, width int) int {
	if width <= 0 {
		return 1
	}
	rows, col := 1, 0
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if col > 0 && col+w > width {
			rows++
			col = 0
		}
		col += w
	}
	return rows
}

// Wrap breaks text into rows of at most width columns at spaces. Words
// wider than a row are broken with HardWrap. Runs of spaces collapse.
func Wrap(text string, width int) []string {
	if width <= 0 || runewidth.StringWidth(text) <= width {
		return []string{text}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var rows []string
	line, lw := "", 0
	for _, word := range words {
		ww := runewidth.StringWidth(word)
		if ww > width {
			if lw > 0 {
				rows = append(rows, line)
			}
			parts := HardWrap(word, width)
			rows = append(rows, parts[:len(parts)-1]...)
			line = parts[len(parts)-1]
			lw = runewidth.StringWidth(line)
			continue
		}
		switch {
		case lw == 0:
			line, lw = word, ww
		case lw+1+ww <= width:
			line += " " + word
			lw += 1 + ww
		default:
			rows = append(rows, line)
			line, lw = word, ww
		}
	}
	return append(rows, line)
}
