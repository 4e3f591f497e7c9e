package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "# Title\n" +
	"\n" +
	"First paragraph\n" +
	"continues here.\n" +
	"\n" +
	"- one\n" +
	"- two\n" +
	"\n" +
	"```go\n" +
	"fmt.Println()\n" +
	"```\n" +
	"\n" +
	"> quoted\n"

func convert(t *testing.T, src string, opts ...Option) *Document {
	t.Helper()
	doc, err := New(opts...).Convert(context.Background(), src)
	require.NoError(t, err)
	return doc
}

func sourceLines(blocks []Block) []int {
	lines := make([]int, len(blocks))
	for i, b := range blocks {
		lines[i] = b.SourceLine
	}
	return lines
}

func TestConvert_TagsTopLevelBlocks(t *testing.T) {
	doc := convert(t, sample)

	assert.Equal(t, []int{0, 2, 5, 8, 12}, sourceLines(doc.Blocks))
	assert.Equal(t, []BlockKind{KindHeading, KindParagraph, KindList, KindCode, KindQuote},
		[]BlockKind{doc.Blocks[0].Kind, doc.Blocks[1].Kind, doc.Blocks[2].Kind, doc.Blocks[3].Kind, doc.Blocks[4].Kind})

	html := string(doc.HTML)
	assert.Contains(t, html, `<h1 data-source-line="0">Title</h1>`)
	assert.Contains(t, html, `<p data-source-line="2">`)
	assert.Contains(t, html, `<ul data-source-line="5">`)
	assert.Contains(t, html, `<blockquote data-source-line="12">`)
}

func TestConvert_NestedBlocksAreNotTagged(t *testing.T) {
	doc := convert(t, "> para one\n>\n> para two\n")

	assert.Equal(t, 1, countOccurrences(string(doc.HTML), SourceLineAttr))
}

func TestConvert_BlockText(t *testing.T) {
	doc := convert(t, sample)

	assert.Equal(t, []string{"Title"}, doc.Blocks[0].Lines)
	assert.Equal(t, 1, doc.Blocks[0].Level)
	assert.Equal(t, []string{"First paragraph continues here."}, doc.Blocks[1].Lines)
	assert.Equal(t, []string{"• one", "• two"}, doc.Blocks[2].Lines)
	assert.Equal(t, []string{"fmt.Println()"}, doc.Blocks[3].Lines)
	assert.Equal(t, []string{"│ quoted"}, doc.Blocks[4].Lines)
}

func TestConvert_OrderedList(t *testing.T) {
	doc := convert(t, "3. three\n4. four\n")

	require.Len(t, doc.Blocks, 1)
	assert.Equal(t, []string{"3. three", "4. four"}, doc.Blocks[0].Lines)
}

func TestConvert_FenceWithoutInfo(t *testing.T) {
	doc := convert(t, "text\n\n```\ncode\n```\n")

	assert.Equal(t, []int{0, 2}, sourceLines(doc.Blocks))
}

func TestConvert_ThematicBreak(t *testing.T) {
	doc := convert(t, "above\n\n***\n\nbelow\n")

	require.Len(t, doc.Blocks, 3)
	assert.Equal(t, KindRule, doc.Blocks[1].Kind)
	assert.Empty(t, doc.Blocks[1].Lines)
	assert.Equal(t, 4, doc.Blocks[2].SourceLine)
}

func TestConvert_FrontMatterOffset(t *testing.T) {
	src := "---\ntitle: Notes\ntype: report\n---\n# Heading\n\nBody\n"
	doc := convert(t, src)

	assert.Equal(t, 4, doc.BodyOffset)
	assert.Equal(t, "Notes", doc.Meta.Title)
	assert.Equal(t, "report", doc.Meta.Type)
	assert.Equal(t, []int{4, 6}, sourceLines(doc.Blocks))
	assert.NotContains(t, string(doc.HTML), "title:")
}

func TestConvert_MalformedFrontMatterIsStripped(t *testing.T) {
	doc := convert(t, "---\ntitle: [unclosed\n---\ntext\n")

	assert.Equal(t, 3, doc.BodyOffset)
	assert.Empty(t, doc.Meta.Title)
	assert.Equal(t, []int{3}, sourceLines(doc.Blocks))
}

func TestConvert_EmptySource(t *testing.T) {
	doc := convert(t, "")

	assert.Empty(t, doc.Blocks)
	assert.Empty(t, doc.HTML)
}

func TestConvert_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Convert(ctx, sample)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConvert_WithFilter(t *testing.T) {
	f, err := NewFilter("todo", `function line(s) return (string.gsub(s, "TODO", "DONE")) end`)
	require.NoError(t, err)
	defer f.Close()

	doc := convert(t, "# TODO\n\nTODO later\n", WithFilter(f))

	assert.Equal(t, []string{"DONE"}, doc.Blocks[0].Lines)
	assert.Equal(t, []int{0, 2}, sourceLines(doc.Blocks))
}

func countOccurrences(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
