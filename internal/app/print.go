package app

import (
	"context"
	"errors"
	"io"

	"github.com/dshills/mdview/internal/config"
	"github.com/dshills/mdview/internal/editor"
	"github.com/dshills/mdview/internal/eventloop"
	"github.com/dshills/mdview/internal/layout"
	"github.com/dshills/mdview/internal/logging"
	"github.com/dshills/mdview/internal/preview"
	"github.com/dshills/mdview/internal/preview/scheduler"
	"github.com/dshills/mdview/internal/preview/session"
)

// Print renders the document at opts.Path once, width columns wide, and
// writes the preview to w. No terminal is used.
func Print(ctx context.Context, w io.Writer, opts Options, width int) error {
	if opts.Path == "" {
		return ErrNoDocument
	}
	doc, err := OpenDocument(opts.Path)
	if err != nil {
		return err
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.New()
	}
	s := cfg.Settings()
	log := logging.OrNop(opts.Logger)

	conv, filter, err := newConverter(s, log)
	if err != nil {
		return err
	}
	if filter != nil {
		defer filter.Close()
	}

	width = max(width, 1)
	host := layout.NewHost(conv,
		layout.WithSize(width, s.Preview.PageHeight),
		layout.WithPageHeight(s.Preview.PageHeight),
		layout.WithLogger(log),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loop := eventloop.New(eventloop.WithLogger(log))
	var renderErr error
	sess := session.New(loop, editor.New(doc.Content(), width, s.Preview.PageHeight), scheduler.Async(ctx, host),
		session.WithLogger(log),
		session.WithMode(modeOf(s)),
		session.WithInstallHook(func(preview.Surface) { loop.Stop() }),
		session.WithErrorHandler(func(err error) {
			renderErr = err
			loop.Stop()
		}),
	)
	defer sess.Close()

	sess.ContentChanged()
	if err := loop.Run(ctx); err != nil {
		return err
	}
	if renderErr != nil {
		return renderErr
	}
	if sess.Surface() == nil {
		return errors.New("print: no output")
	}
	return sess.Print(w)
}
