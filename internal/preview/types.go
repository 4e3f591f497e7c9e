package preview

import (
	"context"
	"io"
)

// LayoutMode selects how the host lays out the rendered document.
type LayoutMode int

const (
	// LayoutPlain lays the document out as one continuous column.
	LayoutPlain LayoutMode = iota
	// LayoutPaginated breaks the document into fixed-height pages.
	LayoutPaginated
)

// String returns the mode name.
func (m LayoutMode) String() string {
	switch m {
	case LayoutPlain:
		return "plain"
	case LayoutPaginated:
		return "paginated"
	default:
		return "unknown"
	}
}

// RenderRequest is a snapshot of the content to render and how to lay it out.
type RenderRequest struct {
	Content string
	Mode    LayoutMode
}

// TaggedElement is a rendered block that carries the source line it was
// generated from. Top and Bottom are render-coordinate offsets of the
// element's bounding box.
type TaggedElement struct {
	SourceLine int
	Top        float64
	Bottom     float64
}

// LayoutProbe reports measured layout data for a rendered document.
type LayoutProbe interface {
	// TaggedElements returns every tagged element that participates in
	// scroll mapping for the surface's layout mode, in document order.
	TaggedElements() []TaggedElement
}

// Surface is a handle to the current rendered output.
// A surface is replaced wholesale on every completed render; its ID
// identifies it for cache keying.
type Surface interface {
	LayoutProbe

	// ID uniquely identifies this rendered output.
	ID() string

	// Mode returns the layout mode the surface was rendered with.
	Mode() LayoutMode

	// ScrollTop returns the current scroll offset of the preview view.
	ScrollTop() int

	// ScrollTo requests the preview view to scroll to offset.
	// Hosts clamp the offset to their scrollable range.
	ScrollTo(offset int)

	// OnScroll registers fn to be called with the new scroll offset after
	// every scroll of the preview view. The returned func unregisters it.
	OnScroll(fn func(top int)) (unsubscribe func())

	// OnResize registers fn to be called when the preview viewport size
	// changes. The returned func unregisters it.
	OnResize(fn func()) (unsubscribe func())

	// Print writes the rendered output to w.
	Print(w io.Writer) error
}

// Host turns source content into a Surface.
// Render may block; callers run it off the event loop.
type Host interface {
	Render(ctx context.Context, req RenderRequest) (Surface, error)
}

// HostFunc adapts a function to the Host interface.
type HostFunc func(ctx context.Context, req RenderRequest) (Surface, error)

// Render calls f(ctx, req).
func (f HostFunc) Render(ctx context.Context, req RenderRequest) (Surface, error) {
	return f(ctx, req)
}

// Editor is the source-text view as seen by the preview pipeline.
type Editor interface {
	// Content returns the current source text.
	Content() string

	// LineHeights returns the pixel height of every source line, in order.
	LineHeights() []int

	// ScrollTop returns the current scroll offset of the source view.
	ScrollTop() int

	// ScrollTo requests the source view to scroll to offset.
	ScrollTo(offset int)
}
