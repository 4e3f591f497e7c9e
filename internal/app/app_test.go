package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/mdview/internal/config"
	"github.com/dshills/mdview/internal/layout"
	"github.com/dshills/mdview/internal/preview"
	"github.com/dshills/mdview/internal/renderer/backend"
)

type fixture struct {
	app     *Application
	backend *backend.NullBackend
	dir     string
	path    string
}

func newFixture(t *testing.T, content string, overrides map[string]any, watch bool) *fixture {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	opts := []config.Option{
		config.WithConfigFile(filepath.Join(dir, "settings.toml")),
		config.WithEnvPrefix("MDVIEWTEST_"),
		config.WithOverride("preview.throttleMs", int64(0)),
	}
	for k, v := range overrides {
		opts = append(opts, config.WithOverride(k, v))
	}
	cfg := config.New(opts...)
	require.NoError(t, cfg.Load(context.Background()))

	b := backend.NewNullBackend(80, 12)
	a, err := New(b, Options{Path: path, Config: cfg, Watch: watch})
	require.NoError(t, err)
	require.NoError(t, a.Start())
	t.Cleanup(a.shutdown)

	return &fixture{app: a, backend: b, dir: dir, path: path}
}

// pump runs loop tasks until cond holds.
func (f *fixture) pump(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		f.app.loop.RunPending()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// settle waits for the scheduler to go idle with a surface installed and
// the screen redrawn.
func (f *fixture) settle(t *testing.T) {
	t.Helper()
	f.pump(t, func() bool {
		return f.app.Surface() != nil && !f.app.Session().Scheduler().InFlight()
	})
	f.app.loop.RunPending()
}

func (f *fixture) key(t *testing.T, k backend.Key) {
	t.Helper()
	require.NoError(t, f.app.handleEvent(backend.Event{Type: backend.EventKey, Key: k}))
	f.app.loop.RunPending()
}

func (f *fixture) rune(t *testing.T, r rune) {
	t.Helper()
	require.NoError(t, f.app.handleEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: r}))
	f.app.loop.RunPending()
}

func sections(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "## Section %d\n\ntext %d\n\n", i, i)
	}
	return b.String()
}

func TestApp_FirstRender(t *testing.T) {
	f := newFixture(t, "# Title\n\nHello world\n", nil, false)
	f.settle(t)

	top := f.backend.Line(0)
	assert.True(t, strings.HasPrefix(top, "   1 # Title"), top)
	assert.Contains(t, top, "│")
	assert.Contains(t, top[strings.Index(top, "│"):], "Title")

	status := f.backend.Line(11)
	assert.Contains(t, status, "doc.md")
	assert.Contains(t, status, "plain")
	assert.Contains(t, status, "renders 1")

	assert.Equal(t, uint64(1), f.app.Metrics().Snapshot().RenderCount)
	assert.Positive(t, f.backend.Shows())
}

func TestApp_FrontMatterTitle(t *testing.T) {
	f := newFixture(t, "---\ntitle: Notes\n---\n# Body\n", nil, false)
	f.settle(t)

	assert.Equal(t, "Notes", f.app.Surface().Meta().Title)
	assert.Contains(t, f.backend.Line(11), "Notes (doc.md)")
}

func TestApp_QuitKeys(t *testing.T) {
	f := newFixture(t, "x\n", nil, false)

	err := f.app.handleEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'q'})
	assert.ErrorIs(t, err, ErrQuit)
	err = f.app.handleEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyCtrlC})
	assert.ErrorIs(t, err, ErrQuit)
}

func TestApp_SourceScrollMovesPreview(t *testing.T) {
	f := newFixture(t, sections(40), nil, false)
	f.settle(t)

	f.key(t, backend.KeyPageDown)

	assert.Equal(t, 10, f.app.Editor().ScrollTop())
	assert.Positive(t, f.app.Surface().ScrollTop())

	stats := f.app.Session().SyncStats()
	assert.Equal(t, 1, stats.ToPreview)
	assert.Equal(t, 0, stats.ToSource)
}

func TestApp_PreviewScrollMovesSource(t *testing.T) {
	f := newFixture(t, sections(40), nil, false)
	f.settle(t)

	f.key(t, backend.KeyTab)
	assert.Equal(t, FocusPreview, f.app.Focus())

	f.key(t, backend.KeyEnd)
	assert.Equal(t, f.app.Surface().MaxScroll(), f.app.Surface().ScrollTop())
	assert.Positive(t, f.app.Editor().ScrollTop())

	stats := f.app.Session().SyncStats()
	assert.Equal(t, 1, stats.ToSource)
	assert.Equal(t, 0, stats.ToPreview)
}

func TestApp_MouseWheelScrollsPaneUnderPointer(t *testing.T) {
	f := newFixture(t, sections(40), nil, false)
	f.settle(t)

	require.NoError(t, f.app.handleEvent(backend.Event{
		Type: backend.EventMouse, MouseX: 60, MouseY: 3, MouseButton: backend.MouseWheelDown,
	}))
	assert.Equal(t, wheelStep, f.app.Surface().ScrollTop())
	assert.Equal(t, FocusSource, f.app.Focus())

	require.NoError(t, f.app.handleEvent(backend.Event{
		Type: backend.EventMouse, MouseX: 60, MouseY: 3, MouseButton: backend.MouseLeft,
	}))
	assert.Equal(t, FocusPreview, f.app.Focus())
}

func TestApp_ToggleLayout(t *testing.T) {
	f := newFixture(t, sections(30), map[string]any{"preview.pageHeight": int64(20)}, false)
	f.settle(t)
	require.Equal(t, preview.LayoutPlain, f.app.Surface().Mode())

	f.rune(t, 'p')
	f.pump(t, func() bool { return f.app.Surface().Mode() == preview.LayoutPaginated })

	var breaks int
	for _, r := range f.app.Surface().Rows(0, f.app.Surface().Len()) {
		if r.Kind == layout.RowPageBreak {
			breaks++
		}
	}
	assert.Positive(t, breaks)
	f.app.loop.RunPending()
	assert.Contains(t, f.backend.Line(11), "paginated")

	f.rune(t, 'p')
	f.pump(t, func() bool { return f.app.Surface().Mode() == preview.LayoutPlain })
}

func TestApp_Resize(t *testing.T) {
	f := newFixture(t, sections(10), nil, false)
	f.settle(t)

	f.backend.Resize(60, 10)
	require.NoError(t, f.app.handleEvent(backend.Event{Type: backend.EventResize, Width: 60, Height: 10}))

	w, h := f.app.Editor().Size()
	assert.Equal(t, 25, w)
	assert.Equal(t, 9, h)

	w, h = f.app.Surface().Size()
	assert.Equal(t, 29, w)
	assert.Equal(t, 9, h)
}

func TestApp_ReloadKey(t *testing.T) {
	f := newFixture(t, "# Old\n", nil, false)
	f.settle(t)

	require.NoError(t, os.WriteFile(f.path, []byte("# New\n\nmore\n"), 0o644))
	f.rune(t, 'r')

	assert.Equal(t, "# New\n\nmore\n", f.app.Editor().Content())
	f.pump(t, func() bool {
		rows := f.app.Surface().Rows(0, 1)
		return len(rows) == 1 && strings.Contains(rows[0].Text, "New")
	})
	assert.Equal(t, uint64(1), f.app.Metrics().Snapshot().Reloads)

	// Unchanged content does not re-render.
	f.settle(t)
	renders := f.app.Session().Scheduler().Renders()
	f.rune(t, 'r')
	assert.Equal(t, renders, f.app.Session().Scheduler().Renders())
}

func TestApp_WatchReloads(t *testing.T) {
	f := newFixture(t, "# Old\n", nil, true)
	f.settle(t)

	require.NoError(t, os.WriteFile(f.path, []byte("# Watched\n"), 0o644))
	f.pump(t, func() bool { return f.app.Editor().Content() == "# Watched\n" })
}

func TestApp_RenderFailureShowsStatus(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "boom.lua")
	require.NoError(t, os.WriteFile(script, []byte(`function line(s) error("boom") end`), 0o644))

	f := newFixture(t, "text\n", map[string]any{"preview.filter": script}, false)
	f.pump(t, func() bool { return f.app.Status() != "" })
	f.app.loop.RunPending()

	assert.Contains(t, f.app.Status(), "boom")
	assert.Nil(t, f.app.Surface())
	assert.NotContains(t, f.app.Status(), "\n")
	assert.NotContains(t, f.backend.Line(11), "renders")
	assert.Equal(t, uint64(1), f.app.Metrics().Snapshot().RenderFailures)
}

func TestApp_ApplySettings(t *testing.T) {
	f := newFixture(t, sections(5), nil, false)
	f.settle(t)

	s := f.app.settings
	s.Preview.Paginated = true
	f.app.applySettings(s)
	assert.Equal(t, preview.LayoutPaginated, f.app.Session().Mode())

	before := f.app.Session()
	s.Preview.ThrottleMs = 50
	f.app.applySettings(s)
	assert.NotSame(t, before, f.app.Session())
	assert.Equal(t, preview.LayoutPaginated, f.app.Session().Mode())
	f.settle(t)
	assert.Equal(t, preview.LayoutPaginated, f.app.Surface().Mode())

	// A broken filter keeps the working pipeline.
	current := f.app.Session()
	s.Preview.Filter = filepath.Join(f.dir, "missing.lua")
	f.app.applySettings(s)
	assert.Same(t, current, f.app.Session())
	assert.NotEmpty(t, f.app.Status())
	assert.Equal(t, 50, f.app.settings.Preview.ThrottleMs)
	assert.Empty(t, f.app.settings.Preview.Filter)
}

func TestApp_Run(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# Run\n"), 0o644))

	b := backend.NewNullBackend(40, 10)
	a, err := New(b, Options{Path: path, Config: config.New(config.WithEnvPrefix("MDVIEWTEST_"))})
	require.NoError(t, err)
	defer b.Close()

	b.PostEvent(backend.Event{Type: backend.EventKey, Key: backend.KeyRune, Rune: 'q'})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Run(ctx))
	assert.False(t, a.IsRunning())
	assert.True(t, a.Loop().Stopped())
}

func TestNew_Errors(t *testing.T) {
	b := backend.NewNullBackend(10, 10)

	_, err := New(b, Options{})
	assert.ErrorIs(t, err, ErrNoDocument)

	_, err = New(b, Options{Path: filepath.Join(t.TempDir(), "absent.md")})
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "reload", opErr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
