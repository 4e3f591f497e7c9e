// Package app provides the main application structure and coordination
// for mdview. It wires the source pane, the preview session and the
// terminal backend together and runs them on one event loop.
package app

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/dshills/mdview/internal/config"
	"github.com/dshills/mdview/internal/config/watcher"
	"github.com/dshills/mdview/internal/editor"
	"github.com/dshills/mdview/internal/eventloop"
	"github.com/dshills/mdview/internal/layout"
	"github.com/dshills/mdview/internal/logging"
	"github.com/dshills/mdview/internal/markdown"
	"github.com/dshills/mdview/internal/preview"
	"github.com/dshills/mdview/internal/preview/scheduler"
	"github.com/dshills/mdview/internal/preview/session"
	"github.com/dshills/mdview/internal/renderer/backend"
)

// Focus names the pane that receives scroll keys.
type Focus int

const (
	FocusSource Focus = iota
	FocusPreview
)

// String returns the pane name.
func (f Focus) String() string {
	if f == FocusPreview {
		return "preview"
	}
	return "source"
}

// Options configures the application.
type Options struct {
	// Path is the markdown file to preview.
	Path string

	// Config supplies settings. Nil uses the built-in defaults.
	Config *config.Config

	// Logger receives application logs.
	Logger *logging.Logger

	// Watch reloads the document when it changes on disk.
	Watch bool

	// Clock throttles scroll syncs. Nil uses the event loop.
	Clock eventloop.Clock
}

// Application is the central coordinator for all mdview components.
// Apart from Run and New, its methods must be called from the event loop.
type Application struct {
	opts    Options
	cfg     *config.Config
	log     *logging.Logger
	backend backend.Backend
	loop    *eventloop.Loop
	metrics *Metrics

	// Renders run under ctx; cancel aborts them on shutdown.
	ctx    context.Context
	cancel context.CancelFunc

	doc      *Document
	editor   *editor.Editor
	settings config.Settings

	// Preview pipeline, rebuilt when settings it depends on change.
	filter  *markdown.Filter
	host    *layout.Host
	session *session.Session
	surface *layout.Surface

	width, height int
	focus         Focus
	status        string

	releases       []func()
	surfaceRelease func()
	docWatcher     *watcher.Watcher

	redrawPosted bool
	started      bool
	running      atomic.Bool
}

// New creates an application previewing opts.Path on b.
func New(b backend.Backend, opts Options) (*Application, error) {
	if opts.Path == "" {
		return nil, ErrNoDocument
	}
	doc, err := OpenDocument(opts.Path)
	if err != nil {
		return nil, err
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.New()
	}
	log := logging.OrNop(opts.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	return &Application{
		opts:    opts,
		cfg:     cfg,
		log:     log.WithComponent("app"),
		backend: b,
		loop:    eventloop.New(eventloop.WithLogger(log)),
		metrics: NewMetrics(),
		ctx:     ctx,
		cancel:  cancel,
		doc:     doc,
	}, nil
}

// Start initializes the backend, builds the preview pipeline and requests
// the first render. Run calls it; tests may call it and drive the loop.
func (a *Application) Start() error {
	if a.started {
		return nil
	}
	if err := a.backend.Init(); err != nil {
		return &InitError{Component: "backend", Err: err}
	}
	a.started = true

	a.settings = a.cfg.Settings()
	a.width, a.height = a.backend.Size()
	ew, _, ph := a.paneSizes()

	a.editor = editor.New(a.doc.Content(), ew, ph)
	if err := a.buildPipeline(a.settings); err != nil {
		return err
	}

	a.releases = append(a.releases,
		a.editor.OnChange(func() { a.session.ContentChanged() }),
		a.editor.OnScroll(func(top int) {
			a.session.SourceScrolled(top)
			a.invalidate()
		}),
		a.cfg.Subscribe(func(s config.Settings) {
			a.loop.Post(func() { a.applySettings(s) })
		}),
	)

	if a.opts.Watch {
		if err := a.watchDocument(); err != nil {
			a.log.Warn("not watching %s: %v", a.doc.Path, err)
		}
	}

	a.session.ContentChanged()
	a.invalidate()
	return nil
}

// Run starts the application and processes events until quit is
// requested or ctx is done.
func (a *Application) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer a.running.Store(false)

	if err := a.Start(); err != nil {
		return err
	}
	defer a.shutdown()

	go a.pollInput()

	err := a.loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// pollInput forwards backend events to the loop until the loop stops.
func (a *Application) pollInput() {
	for {
		ev := a.backend.PollEvent()
		if a.loop.Stopped() {
			return
		}
		if ev.Type == backend.EventNone {
			continue
		}
		a.loop.Post(func() {
			if err := a.handleEvent(ev); errors.Is(err, ErrQuit) {
				a.loop.Stop()
			}
		})
	}
}

// shutdown performs cleanup in reverse initialization order.
func (a *Application) shutdown() {
	a.loop.Stop()
	a.cancel()

	if a.docWatcher != nil {
		_ = a.docWatcher.Close()
	}
	for _, release := range a.releases {
		release()
	}
	a.releases = nil
	if a.surfaceRelease != nil {
		a.surfaceRelease()
	}
	if a.session != nil {
		a.session.Close()
	}
	if a.filter != nil {
		a.filter.Close()
	}

	a.backend.Shutdown()
}

// buildPipeline creates the converter, host and session for s, replacing
// the current ones. On error the current pipeline is kept.
func (a *Application) buildPipeline(s config.Settings) error {
	conv, filter, err := newConverter(s, a.log)
	if err != nil {
		return err
	}

	_, pw, ph := a.paneSizes()
	host := layout.NewHost(conv,
		layout.WithSize(pw, ph),
		layout.WithPageHeight(s.Preview.PageHeight),
		layout.WithLogger(a.log),
	)

	clock := a.opts.Clock
	if clock == nil {
		clock = a.loop
	}

	var sess *session.Session
	sess = session.New(a.loop, a.editor, a.renderFunc(host),
		session.WithLogger(a.log),
		session.WithClock(clock),
		session.WithThrottle(s.Preview.Throttle()),
		session.WithEditorOffset(s.Preview.EditorOffset),
		session.WithMode(modeOf(s)),
		session.WithInstallHook(a.installed),
		session.WithErrorHandler(func(err error) {
			if sess == a.session {
				a.renderFailed(err)
			}
		}),
	)

	if a.session != nil {
		a.session.Close()
	}
	if a.filter != nil {
		a.filter.Close()
	}
	a.filter, a.host, a.session = filter, host, sess
	return nil
}

// newConverter creates the markdown converter for s. The returned filter
// is nil when none is configured; the caller closes it.
func newConverter(s config.Settings, log *logging.Logger) (*markdown.Converter, *markdown.Filter, error) {
	var filter *markdown.Filter
	if s.Preview.Filter != "" {
		f, err := markdown.LoadFilter(s.Preview.Filter)
		if err != nil {
			return nil, nil, &InitError{Component: "filter", Err: err}
		}
		filter = f
	}
	return markdown.New(markdown.WithFilter(filter), markdown.WithLogger(log)), filter, nil
}

// renderFunc runs host renders on their own goroutine and times them.
func (a *Application) renderFunc(host *layout.Host) scheduler.RenderFunc {
	timed := preview.HostFunc(func(ctx context.Context, req preview.RenderRequest) (preview.Surface, error) {
		t := StartTimer()
		s, err := host.Render(ctx, req)
		a.metrics.RecordRender(t.Elapsed(), err)
		return s, err
	})
	return scheduler.Async(a.ctx, timed)
}

// installed runs after the session installs a new surface.
func (a *Application) installed(s preview.Surface) {
	ls, ok := s.(*layout.Surface)
	if !ok {
		return
	}
	if a.surfaceRelease != nil {
		a.surfaceRelease()
	}
	a.surface = ls
	a.surfaceRelease = ls.OnScroll(func(int) { a.invalidate() })

	_, pw, ph := a.paneSizes()
	ls.SetSize(pw, ph)

	// Bring the new output to where the source is.
	a.session.SourceScrolled(a.editor.ScrollTop())

	a.status = ""
	a.invalidate()
}

func (a *Application) renderFailed(err error) {
	a.log.Warn("render failed: %v", err)
	a.status = firstLine(err.Error())
	a.invalidate()
}

// firstLine drops script stack traces from status messages.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// applySettings reacts to a settings change from the config watcher.
func (a *Application) applySettings(s config.Settings) {
	old := a.settings
	a.settings = s

	if s.Logging.Level != old.Logging.Level {
		a.log.SetLevel(logging.ParseLevel(s.Logging.Level))
	}

	if s.Preview.Filter != old.Preview.Filter ||
		s.Preview.ThrottleMs != old.Preview.ThrottleMs ||
		s.Preview.EditorOffset != old.Preview.EditorOffset ||
		s.Preview.PageHeight != old.Preview.PageHeight {
		if err := a.buildPipeline(s); err != nil {
			a.settings = old
			a.status = err.Error()
			a.invalidate()
			return
		}
		a.session.ContentChanged()
		a.invalidate()
		return
	}

	if s.Preview.Paginated != old.Preview.Paginated {
		a.session.SetLayoutMode(modeOf(s))
	}
	a.invalidate()
}

// watchDocument reloads the document whenever it changes on disk.
func (a *Application) watchDocument() error {
	w, err := watcher.New(watcher.WithLogger(a.log))
	if err != nil {
		return err
	}
	if err := w.Watch(a.doc.Path); err != nil {
		_ = w.Close()
		return err
	}
	w.OnChange(func(watcher.Event) {
		a.loop.Post(a.reloadDocument)
	})
	a.docWatcher = w
	return nil
}

// reloadDocument re-reads the document and re-renders if it changed.
func (a *Application) reloadDocument() {
	changed, err := a.doc.Reload()
	if err != nil {
		a.status = err.Error()
		a.invalidate()
		return
	}
	if !changed {
		return
	}
	a.metrics.RecordReload()
	a.log.Debug("reloaded %s", a.doc.Path)
	a.editor.SetText(a.doc.Content())
	a.invalidate()
}

// toggleLayout switches between plain and paginated layout.
func (a *Application) toggleLayout() {
	mode := preview.LayoutPaginated
	if a.session.Mode() == preview.LayoutPaginated {
		mode = preview.LayoutPlain
	}
	a.session.SetLayoutMode(mode)
}

// resize lays the panes out for a terminal of width by height cells.
func (a *Application) resize(width, height int) {
	a.width, a.height = width, height
	ew, pw, ph := a.paneSizes()

	a.editor.SetSize(ew, ph)
	a.host.SetSize(pw, ph)
	if a.surface != nil {
		a.surface.SetSize(pw, ph)
	}
	// Source line heights change with the editor width.
	a.session.Resize()
}

func modeOf(s config.Settings) preview.LayoutMode {
	if s.Preview.Paginated {
		return preview.LayoutPaginated
	}
	return preview.LayoutPlain
}

// Loop returns the application's event loop.
func (a *Application) Loop() *eventloop.Loop {
	return a.loop
}

// Document returns the previewed document.
func (a *Application) Document() *Document {
	return a.doc
}

// Editor returns the source pane.
func (a *Application) Editor() *editor.Editor {
	return a.editor
}

// Session returns the preview session.
func (a *Application) Session() *session.Session {
	return a.session
}

// Surface returns the installed preview surface, or nil.
func (a *Application) Surface() *layout.Surface {
	return a.surface
}

// Focus returns the focused pane.
func (a *Application) Focus() Focus {
	return a.focus
}

// Status returns the status message, usually the last error.
func (a *Application) Status() string {
	return a.status
}

// Metrics returns the application's metrics.
func (a *Application) Metrics() *Metrics {
	return a.metrics
}

// IsRunning returns true if Run is active.
func (a *Application) IsRunning() bool {
	return a.running.Load()
}
