package layout

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/mdview/internal/markdown"
	"github.com/dshills/mdview/internal/preview"
)

func render(t *testing.T, src string, mode preview.LayoutMode, opts ...Option) *Surface {
	t.Helper()
	h := NewHost(markdown.New(), opts...)
	s, err := h.Render(context.Background(), preview.RenderRequest{Content: src, Mode: mode})
	require.NoError(t, err)
	return s.(*Surface)
}

func texts(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Text
	}
	return out
}

func TestRender_Plain(t *testing.T) {
	s := render(t, "# Title\n\nsome words here\n", preview.LayoutPlain, WithSize(10, 5))

	assert.Equal(t, []string{"Title", "", "some words", "here"}, texts(s.Rows(0, s.Len())))
	assert.Equal(t, []preview.TaggedElement{
		{SourceLine: 0, Top: 0, Bottom: 1},
		{SourceLine: 2, Top: 2, Bottom: 4},
	}, s.TaggedElements())
	assert.Equal(t, RowHeading, s.Rows(0, 1)[0].Kind)
	assert.Equal(t, preview.LayoutPlain, s.Mode())
}

func TestRender_Paginated(t *testing.T) {
	src := "a\n\nb\n\nc\n"
	s := render(t, src, preview.LayoutPaginated, WithSize(20, 5), WithPageHeight(2))

	assert.Equal(t, []preview.TaggedElement{
		{SourceLine: 0, Top: 0, Bottom: 1},
		{SourceLine: 2, Top: 3, Bottom: 4},
		{SourceLine: 4, Top: 6, Bottom: 7},
	}, s.TaggedElements())
	require.Equal(t, 8, s.Len())
	assert.Equal(t, RowPageBreak, s.Rows(2, 3)[0].Kind)
	assert.Equal(t, RowPageBreak, s.Rows(5, 6)[0].Kind)
	assert.Contains(t, s.Rows(2, 3)[0].Text, " 2 ")

	plain := render(t, src, preview.LayoutPlain, WithSize(20, 5))
	assert.Equal(t, 4.0, plain.TaggedElements()[2].Top, "page gaps shift later blocks")
}

func TestRender_PaginatedKeepsBlockTogether(t *testing.T) {
	src := "intro\n\n```\n1\n2\n```\n"
	s := render(t, src, preview.LayoutPaginated, WithSize(20, 5), WithPageHeight(3))

	// intro, blank, then the two-row code block moves to page 2.
	els := s.TaggedElements()
	require.Len(t, els, 2)
	assert.Equal(t, 4.0, els[1].Top)
	assert.Equal(t, 6.0, els[1].Bottom)
}

func TestRender_PaginatedSplitsOversizedBlock(t *testing.T) {
	src := "```\n1\n2\n3\n4\n5\n```\n"
	s := render(t, src, preview.LayoutPaginated, WithSize(20, 5), WithPageHeight(2))

	els := s.TaggedElements()
	require.Len(t, els, 1)
	assert.Equal(t, 0.0, els[0].Top)
	assert.Equal(t, 7.0, els[0].Bottom, "five rows plus two page breaks")
}

func TestRender_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHost(markdown.New()).Render(ctx, preview.RenderRequest{Content: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRender_UniqueIDs(t *testing.T) {
	a := render(t, "x", preview.LayoutPlain)
	b := render(t, "x", preview.LayoutPlain)

	assert.NotEqual(t, a.ID(), b.ID())
	_, err := uuid.Parse(a.ID())
	assert.NoError(t, err)
}

func TestHost_SetSizeAffectsLaterRenders(t *testing.T) {
	h := NewHost(markdown.New(), WithSize(80, 10))
	h.SetSize(5, 10)

	s, err := h.Render(context.Background(), preview.RenderRequest{Content: "aaa bbb"})
	require.NoError(t, err)
	assert.Equal(t, 2, s.(*Surface).Len())
}

func TestSurface_ScrollClampsAndNotifies(t *testing.T) {
	s := render(t, "a\n\nb\n\nc\n\nd\n", preview.LayoutPlain, WithSize(20, 3))
	require.Equal(t, 7, s.Len())

	var got []int
	unsubscribe := s.OnScroll(func(top int) { got = append(got, top) })

	s.ScrollTo(100)
	s.ScrollTo(4)
	s.ScrollBy(-1)
	s.ScrollTo(-5)
	unsubscribe()
	s.ScrollTo(2)

	assert.Equal(t, []int{4, 3, 0}, got)
	assert.Equal(t, 4, s.MaxScroll())
	assert.Equal(t, []string{"b", "", "c"}, texts(s.Visible()))
}

func TestSurface_SetSize(t *testing.T) {
	s := render(t, "one two three\n", preview.LayoutPlain, WithSize(20, 3))
	resized := 0
	s.OnResize(func() { resized++ })

	s.SetSize(20, 3)
	assert.Zero(t, resized)

	s.SetSize(8, 3)
	assert.Equal(t, 1, resized)
	assert.Equal(t, []string{"one two", "three"}, texts(s.Rows(0, s.Len())))
	assert.Equal(t, 2.0, s.TaggedElements()[0].Bottom)

	s.SetSize(8, 10)
	assert.Equal(t, 2, resized)
}

func TestSurface_Print(t *testing.T) {
	s := render(t, "# Head\n\n- item\n", preview.LayoutPlain)

	var buf bytes.Buffer
	require.NoError(t, s.Print(&buf))
	assert.Equal(t, "Head\n\n• item\n", buf.String())
}

func TestSurface_Meta(t *testing.T) {
	s := render(t, "---\ntitle: Doc\n---\nbody\n", preview.LayoutPlain)

	assert.Equal(t, "Doc", s.Meta().Title)
	assert.Equal(t, 3, s.TaggedElements()[0].SourceLine)
}
