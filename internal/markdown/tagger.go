package markdown

import (
	"sort"
	"strconv"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// SourceLineAttr is the attribute carrying a block's source line.
const SourceLineAttr = "data-source-line"

var lineOffsetKey = parser.NewContextKey()

// lineTagger annotates every top-level block with the zero-based source
// line it starts on, shifted by the line offset stored in the parser
// context. Blocks whose position cannot be recovered stay untagged.
type lineTagger struct{}

func (lineTagger) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	offset, _ := pc.Get(lineOffsetKey).(int)
	lines := newLineIndex(reader.Source())

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		line, ok := blockLine(n, lines)
		if !ok {
			continue
		}
		n.SetAttributeString(SourceLineAttr, []byte(strconv.Itoa(line+offset)))
	}
}

// SourceLine returns the source line a block was tagged with.
func SourceLine(n ast.Node) (int, bool) {
	v, ok := n.AttributeString(SourceLineAttr)
	if !ok {
		return 0, false
	}
	b, ok := v.([]byte)
	if !ok {
		return 0, false
	}
	line, err := strconv.Atoi(string(b))
	if err != nil {
		return 0, false
	}
	return line, true
}

// blockLine finds the body line a block starts on.
func blockLine(n ast.Node, lines lineIndex) (int, bool) {
	if n.Type() != ast.TypeBlock {
		return 0, false
	}
	if fc, ok := n.(*ast.FencedCodeBlock); ok {
		if fc.Info != nil {
			return lines.line(fc.Info.Segment.Start), true
		}
		if fc.Lines().Len() > 0 {
			return lines.line(fc.Lines().At(0).Start) - 1, true
		}
		return 0, false
	}
	if segs := n.Lines(); segs.Len() > 0 {
		return lines.line(segs.At(0).Start), true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if line, ok := blockLine(c, lines); ok {
			return line, true
		}
	}
	return 0, false
}

// lineIndex holds the byte offset of the start of every line.
type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	ix := lineIndex{0}
	for i, b := range src {
		if b == '\n' {
			ix = append(ix, i+1)
		}
	}
	return ix
}

// line returns the zero-based line containing byte offset off.
func (ix lineIndex) line(off int) int {
	return sort.Search(len(ix), func(i int) bool { return ix[i] > off }) - 1
}
