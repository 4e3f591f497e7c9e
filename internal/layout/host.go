// Package layout is a preview host for terminals. It converts markdown
// with the markdown package and lays the blocks out into rows, one row
// per render unit, either as a continuous column or on fixed-height pages.
package layout

import (
	"context"
	"sync"

	"github.com/dshills/mdview/internal/logging"
	"github.com/dshills/mdview/internal/markdown"
	"github.com/dshills/mdview/internal/preview"
)

// Default viewport and page dimensions.
const (
	DefaultWidth      = 80
	DefaultHeight     = 24
	DefaultPageHeight = 40
)

// Host renders markdown into terminal surfaces. Render may be called from
// any goroutine.
type Host struct {
	conv *markdown.Converter
	log  *logging.Logger

	mu         sync.Mutex
	width      int
	height     int
	pageHeight int
}

// Option configures a Host.
type Option func(*Host)

// WithSize sets the initial viewport size.
func WithSize(width, height int) Option {
	return func(h *Host) {
		h.width, h.height = width, height
	}
}

// WithPageHeight sets the number of content rows per page in paginated mode.
func WithPageHeight(rows int) Option {
	return func(h *Host) {
		h.pageHeight = rows
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(h *Host) {
		h.log = l
	}
}

// NewHost creates a host that converts with conv.
func NewHost(conv *markdown.Converter, opts ...Option) *Host {
	h := &Host{
		conv:       conv,
		width:      DefaultWidth,
		height:     DefaultHeight,
		pageHeight: DefaultPageHeight,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = logging.OrNop(h.log).WithComponent("layout")
	return h
}

// SetSize sets the viewport size used by later renders.
func (h *Host) SetSize(width, height int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.width, h.height = width, height
}

// SetPageHeight sets the page height used by later renders.
func (h *Host) SetPageHeight(rows int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pageHeight = rows
}

// Render converts req.Content and lays it out.
func (h *Host) Render(ctx context.Context, req preview.RenderRequest) (preview.Surface, error) {
	doc, err := h.conv.Convert(ctx, req.Content)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	width, height, pageHeight := h.width, h.height, h.pageHeight
	h.mu.Unlock()

	s := newSurface(doc, req.Mode, width, height, pageHeight)
	h.log.Debug("laid out %d blocks into %d rows (%s)", len(doc.Blocks), s.Len(), req.Mode)
	return s, nil
}

var _ preview.Host = (*Host)(nil)
