package markdown

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// BlockKind classifies a top-level block.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindHeading
	KindCode
	KindList
	KindQuote
	KindRule
	KindTable
	KindHTML
)

var kindNames = [...]string{"paragraph", "heading", "code", "list", "quote", "rule", "table", "html"}

func (k BlockKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Block is a top-level block reduced to plain text lines for hosts that
// lay out text themselves.
type Block struct {
	Kind  BlockKind
	Level int // heading level
	// SourceLine is the tagged source line, or -1 for untagged blocks.
	SourceLine int
	Lines      []string
}

// Tagged reports whether the block carries a source line.
func (b Block) Tagged() bool {
	return b.SourceLine >= 0
}

func collectBlocks(doc ast.Node, src []byte) []Block {
	var blocks []Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		b := Block{SourceLine: -1}
		if line, ok := SourceLine(n); ok {
			b.SourceLine = line
		}

		switch v := n.(type) {
		case *ast.Heading:
			b.Kind, b.Level = KindHeading, v.Level
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			b.Kind = KindCode
		case *ast.List:
			b.Kind = KindList
		case *ast.Blockquote:
			b.Kind = KindQuote
		case *ast.ThematicBreak:
			b.Kind = KindRule
		case *east.Table:
			b.Kind = KindTable
		case *ast.HTMLBlock:
			b.Kind = KindHTML
		default:
			b.Kind = KindParagraph
		}
		b.Lines = blockText(n, src)
		blocks = append(blocks, b)
	}
	return blocks
}

// blockText flattens a block and its descendants into text lines.
func blockText(n ast.Node, src []byte) []string {
	switch v := n.(type) {
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		return rawLines(n, src)
	case *ast.ThematicBreak:
		return nil
	case *ast.List:
		return listText(v, src)
	case *ast.Blockquote:
		var out []string
		for c := v.FirstChild(); c != nil; c = c.NextSibling() {
			for _, line := range blockText(c, src) {
				out = append(out, "│ "+line)
			}
		}
		return out
	case *east.Table:
		var out []string
		for row := v.FirstChild(); row != nil; row = row.NextSibling() {
			var cells []string
			for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
				cells = append(cells, strings.TrimSpace(inlineText(cell, src)))
			}
			out = append(out, strings.Join(cells, " │ "))
		}
		return out
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		return strings.Split(inlineText(n, src), "\n")
	}

	var out []string
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() == ast.TypeBlock {
			out = append(out, blockText(c, src)...)
		}
	}
	return out
}

func listText(l *ast.List, src []byte) []string {
	var out []string
	num := l.Start
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if l.IsOrdered() {
			marker = strconv.Itoa(num) + string(l.Marker) + " "
			num++
		}
		indent := strings.Repeat(" ", len([]rune(marker)))

		first := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			for _, line := range blockText(c, src) {
				if first {
					out = append(out, marker+line)
					first = false
					continue
				}
				out = append(out, indent+line)
			}
		}
		if first {
			out = append(out, strings.TrimSpace(marker))
		}
	}
	return out
}

func rawLines(n ast.Node, src []byte) []string {
	segs := n.Lines()
	out := make([]string, 0, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		out = append(out, string(bytes.TrimRight(seg.Value(src), "\r\n")))
	}
	return out
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	writeInline(&b, n, src)
	return b.String()
}

func writeInline(b *strings.Builder, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
			switch {
			case v.HardLineBreak():
				b.WriteByte('\n')
			case v.SoftLineBreak():
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.AutoLink:
			b.Write(v.URL(src))
		case *ast.RawHTML:
		default:
			writeInline(b, c, src)
		}
	}
}
