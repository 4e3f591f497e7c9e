package layout

import (
	"fmt"
	"strings"

	"github.com/dshills/mdview/internal/markdown"
	"github.com/dshills/mdview/internal/preview"
)

// RowKind tells the drawing code how to style a row.
type RowKind int

const (
	RowText RowKind = iota
	RowHeading
	RowCode
	RowQuote
	RowRule
	RowBlank
	RowPageBreak
)

// Row is one laid out terminal row.
type Row struct {
	Kind  RowKind
	Level int // heading level
	Text  string
}

// codeIndent is the left padding of code block rows.
const codeIndent = "  "

// blockRows lays out a single block at width columns.
func blockRows(b markdown.Block, width int) []Row {
	var rows []Row
	emit := func(kind RowKind, lines []string) {
		for _, text := range lines {
			rows = append(rows, Row{Kind: kind, Level: b.Level, Text: text})
		}
	}

	switch b.Kind {
	case markdown.KindRule:
		emit(RowRule, []string{strings.Repeat("─", max(width, 1))})
	case markdown.KindCode:
		for _, line := range b.Lines {
			wrapped := HardWrap(ExpandTabs(line), width-len(codeIndent))
			for i := range wrapped {
				wrapped[i] = codeIndent + wrapped[i]
			}
			emit(RowCode, wrapped)
		}
	case markdown.KindTable, markdown.KindHTML:
		for _, line := range b.Lines {
			emit(RowText, HardWrap(ExpandTabs(line), width))
		}
	default:
		kind := RowText
		switch b.Kind {
		case markdown.KindHeading:
			kind = RowHeading
		case markdown.KindQuote:
			kind = RowQuote
		}
		for _, line := range b.Lines {
			emit(kind, Wrap(ExpandTabs(line), width))
		}
	}

	if len(rows) == 0 {
		rows = append(rows, Row{Kind: RowBlank})
	}
	return rows
}

// flow lays out blocks as one continuous column separated by blank rows.
func flow(blocks []markdown.Block, width int) ([]Row, []preview.TaggedElement) {
	var rows []Row
	var elements []preview.TaggedElement
	for i, b := range blocks {
		if i > 0 {
			rows = append(rows, Row{Kind: RowBlank})
		}
		top := len(rows)
		rows = append(rows, blockRows(b, width)...)
		if b.Tagged() {
			elements = append(elements, element(b, top, len(rows)))
		}
	}
	return rows, elements
}

// paginate lays out blocks on pages of pageHeight rows. Pages are padded
// to full height and separated by a page break row. A block that fits on
// an empty page is never split across pages.
func paginate(blocks []markdown.Block, width, pageHeight int) ([]Row, []preview.TaggedElement) {
	p := &pager{height: max(pageHeight, 1), width: width}
	var elements []preview.TaggedElement
	for _, b := range blocks {
		if p.used > 0 && p.used < p.height {
			p.add(Row{Kind: RowBlank})
		}
		br := blockRows(b, width)
		if len(br) <= p.height && p.used+len(br) > p.height {
			p.breakPage()
		}

		top := -1
		for _, r := range br {
			p.add(r)
			if top < 0 {
				top = len(p.rows) - 1
			}
		}
		if b.Tagged() {
			elements = append(elements, element(b, top, len(p.rows)))
		}
	}
	if p.used > 0 {
		p.pad()
	}
	return p.rows, elements
}

type pager struct {
	rows   []Row
	height int
	width  int
	used   int
	page   int
}

func (p *pager) add(r Row) {
	if p.used == p.height {
		p.breakPage()
	}
	p.rows = append(p.rows, r)
	p.used++
}

func (p *pager) pad() {
	for ; p.used < p.height; p.used++ {
		p.rows = append(p.rows, Row{Kind: RowBlank})
	}
}

func (p *pager) breakPage() {
	p.pad()
	p.page++
	label := fmt.Sprintf(" %d ", p.page+1)
	fill := max(p.width-len(label), 0)
	text := strings.Repeat("┄", fill/2) + label + strings.Repeat("┄", fill-fill/2)
	p.rows = append(p.rows, Row{Kind: RowPageBreak, Text: text})
	p.used = 0
}

func element(b markdown.Block, top, bottom int) preview.TaggedElement {
	return preview.TaggedElement{
		SourceLine: b.SourceLine,
		Top:        float64(top),
		Bottom:     float64(bottom),
	}
}
