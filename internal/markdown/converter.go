// Package markdown converts markdown source into tagged output for the
// preview host.
//
// Every top-level block is annotated with the zero-based line of the full
// source buffer it starts on. In HTML output the annotation is the
// data-source-line attribute; Document.Blocks carries it for hosts that lay
// out text themselves. A leading YAML front matter block is stripped
// before parsing and its line count is added to every tag, so tags refer
// to lines of the buffer the user edits.
package markdown

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/dshills/mdview/internal/logging"
)

// Document is the result of converting one source buffer.
type Document struct {
	Meta Meta
	// BodyOffset is the number of source lines taken by front matter.
	BodyOffset int
	Body       string
	HTML       []byte
	Blocks     []Block
}

// Converter turns markdown source into a Document.
type Converter struct {
	md     goldmark.Markdown
	filter *Filter
	log    *logging.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithFilter runs f over the body before parsing.
func WithFilter(f *Filter) Option {
	return func(c *Converter) {
		c.filter = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Converter) {
		c.log = l
	}
}

// New creates a converter with GitHub flavored markdown enabled.
func New(opts ...Option) *Converter {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.OrNop(c.log).WithComponent("markdown")
	c.md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(lineTagger{}, 1000)),
		),
	)
	return c
}

// Convert parses src and renders it. Malformed front matter is logged and
// treated as empty metadata; the block is still stripped.
func (c *Converter) Convert(ctx context.Context, src string) (*Document, error) {
	raw, body, offset := SplitFrontMatter(src)
	meta, err := ParseMeta(raw)
	if err != nil {
		c.log.Warn("ignoring front matter: %v", err)
	}

	if c.filter != nil {
		body, err = c.filter.Apply(ctx, body)
		if err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source := []byte(body)
	pc := parser.NewContext()
	pc.Set(lineOffsetKey, offset)
	root := c.md.Parser().Parse(text.NewReader(source), parser.WithContext(pc))

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, source, root); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	return &Document{
		Meta:       meta,
		BodyOffset: offset,
		Body:       body,
		HTML:       buf.Bytes(),
		Blocks:     collectBlocks(root, source),
	}, nil
}
