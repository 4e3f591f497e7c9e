package layout

import (
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/dshills/mdview/internal/eventloop"
	"github.com/dshills/mdview/internal/markdown"
	"github.com/dshills/mdview/internal/preview"
)

// Surface is a laid out document shown in a terminal viewport. Render
// coordinates are rows. A Surface belongs to the event loop once it has
// been returned by Host.Render.
type Surface struct {
	id     string
	mode   preview.LayoutMode
	meta   markdown.Meta
	blocks []markdown.Block

	width      int
	height     int
	pageHeight int

	rows     []Row
	elements []preview.TaggedElement
	top      int

	scrollFns eventloop.Listeners[func(int)]
	resizeFns eventloop.Listeners[func()]
}

func newSurface(doc *markdown.Document, mode preview.LayoutMode, width, height, pageHeight int) *Surface {
	s := &Surface{
		id:         uuid.NewString(),
		mode:       mode,
		meta:       doc.Meta,
		blocks:     doc.Blocks,
		width:      width,
		height:     height,
		pageHeight: pageHeight,
	}
	s.relayout()
	return s
}

func (s *Surface) relayout() {
	if s.mode == preview.LayoutPaginated {
		s.rows, s.elements = paginate(s.blocks, s.width, s.pageHeight)
	} else {
		s.rows, s.elements = flow(s.blocks, s.width)
	}
	s.top = min(s.top, s.MaxScroll())
}

// ID returns the surface's unique identity.
func (s *Surface) ID() string { return s.id }

// Mode returns the layout mode the surface was laid out with.
func (s *Surface) Mode() preview.LayoutMode { return s.mode }

// Meta returns the document metadata.
func (s *Surface) Meta() markdown.Meta { return s.meta }

// TaggedElements returns the tagged blocks with their row extents.
func (s *Surface) TaggedElements() []preview.TaggedElement {
	return append([]preview.TaggedElement(nil), s.elements...)
}

// Len returns the total number of rows.
func (s *Surface) Len() int { return len(s.rows) }

// Size returns the viewport size.
func (s *Surface) Size() (width, height int) { return s.width, s.height }

// MaxScroll returns the largest valid scroll offset.
func (s *Surface) MaxScroll() int {
	return max(len(s.rows)-s.height, 0)
}

// ScrollTop returns the first visible row.
func (s *Surface) ScrollTop() int { return s.top }

// ScrollTo scrolls so row offset is the first visible row, clamped to the
// scrollable range. Scroll listeners run if the position changed.
func (s *Surface) ScrollTo(offset int) {
	offset = max(0, min(offset, s.MaxScroll()))
	if offset == s.top {
		return
	}
	s.top = offset
	s.scrollFns.Each(func(fn func(int)) { fn(offset) })
}

// ScrollBy scrolls by delta rows.
func (s *Surface) ScrollBy(delta int) {
	s.ScrollTo(s.top + delta)
}

// OnScroll registers fn to run after every scroll.
func (s *Surface) OnScroll(fn func(top int)) func() {
	return s.scrollFns.Add(fn)
}

// OnResize registers fn to run after the viewport size changes.
func (s *Surface) OnResize(fn func()) func() {
	return s.resizeFns.Add(fn)
}

// SetSize changes the viewport size. A width change lays the document out
// again. Resize listeners run if anything changed.
func (s *Surface) SetSize(width, height int) {
	if width == s.width && height == s.height {
		return
	}
	widthChanged := width != s.width
	s.width, s.height = width, height
	if widthChanged {
		s.relayout()
	} else {
		s.top = min(s.top, s.MaxScroll())
	}
	s.resizeFns.Each(func(fn func()) { fn() })
}

// Rows returns the rows in [from, to), clipped to the document.
func (s *Surface) Rows(from, to int) []Row {
	from = max(from, 0)
	to = min(to, len(s.rows))
	if from >= to {
		return nil
	}
	return s.rows[from:to]
}

// Visible returns the rows inside the viewport.
func (s *Surface) Visible() []Row {
	return s.Rows(s.top, s.top+s.height)
}

// Print writes every row as a line of plain text.
func (s *Surface) Print(w io.Writer) error {
	var b strings.Builder
	for _, r := range s.rows {
		b.WriteString(r.Text)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

var _ preview.Surface = (*Surface)(nil)
