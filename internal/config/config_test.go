package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/mdview/internal/config/loader"
)

const testPrefix = "MDVIEWTEST_"

func writeSettings(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, SettingsFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestConfig_Defaults(t *testing.T) {
	c := New(WithUserConfigDir(t.TempDir()), WithEnvPrefix(testPrefix))
	require.NoError(t, c.Load(context.Background()))

	s := c.Settings()
	assert.Equal(t, 30, s.Preview.ThrottleMs)
	assert.Equal(t, 30*time.Millisecond, s.Preview.Throttle())
	assert.False(t, s.Preview.Paginated)
	assert.Equal(t, 40, s.Preview.PageHeight)
	assert.Equal(t, 0, s.Preview.EditorOffset)
	assert.Equal(t, "info", s.Logging.Level)
	assert.Equal(t, "builtin", c.Source("preview.pageHeight"))
}

func TestConfig_LayerPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, `
[preview]
throttleMs = 50
pageHeight = 20
paginated = true
`)
	t.Setenv(testPrefix+"PREVIEW_PAGE_HEIGHT", "60")

	c := New(
		WithUserConfigDir(dir),
		WithEnvPrefix(testPrefix),
		WithOverride("preview.paginated", false),
	)
	require.NoError(t, c.Load(context.Background()))

	s := c.Settings()
	assert.Equal(t, 50, s.Preview.ThrottleMs)
	assert.Equal(t, 60, s.Preview.PageHeight)
	assert.False(t, s.Preview.Paginated)

	assert.Equal(t, "user", c.Source("preview.throttleMs"))
	assert.Equal(t, "environment", c.Source("preview.pageHeight"))
	assert.Equal(t, "arguments", c.Source("preview.paginated"))

	v, err := c.Get("preview.throttleMs")
	require.NoError(t, err)
	assert.EqualValues(t, 50, v)

	_, err = c.Get("preview.nope")
	assert.ErrorIs(t, err, ErrSettingNotFound)
}

func TestConfig_ConfigFileOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging]\nlevel = \"debug\"\n"), 0o644))

	c := New(WithConfigFile(path), WithEnvPrefix(testPrefix))
	require.NoError(t, c.Load(context.Background()))

	assert.Equal(t, path, c.Path())
	assert.Equal(t, "debug", c.Settings().Logging.Level)
}

func TestConfig_ParseErrorKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "[preview\nthrottleMs = ")

	c := New(WithUserConfigDir(dir), WithEnvPrefix(testPrefix))
	err := c.Load(context.Background())

	var perr *loader.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 30, c.Settings().Preview.ThrottleMs)
}

func TestConfig_DecodeError(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "[preview]\nthrottleMs = \"fast\"\n")

	c := New(WithUserConfigDir(dir), WithEnvPrefix(testPrefix))
	err := c.Load(context.Background())

	var derr *DecodeError
	assert.ErrorAs(t, err, &derr)
}

func TestConfig_ValidationError(t *testing.T) {
	dir := t.TempDir()
	writeSettings(t, dir, "[preview]\npageHeight = 0\nthrottleMs = -1\n")

	c := New(WithUserConfigDir(dir), WithEnvPrefix(testPrefix))
	err := c.Load(context.Background())

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Problems, 2)
}

func TestConfig_ReloadNotifiesOnlyOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeSettings(t, dir, "[preview]\nthrottleMs = 10\n")

	c := New(WithUserConfigDir(dir), WithEnvPrefix(testPrefix))
	require.NoError(t, c.Load(context.Background()))

	var got []Settings
	unsubscribe := c.Subscribe(func(s Settings) { got = append(got, s) })

	changed, err := c.Reload()
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, got)

	// Comments and ordering do not change the effective settings.
	require.NoError(t, os.WriteFile(path, []byte("# tuned\n[preview]\nthrottleMs = 10\n"), 0o644))
	changed, err = c.Reload()
	require.NoError(t, err)
	assert.False(t, changed)

	require.NoError(t, os.WriteFile(path, []byte("[preview]\nthrottleMs = 15\n"), 0o644))
	changed, err = c.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	require.Len(t, got, 1)
	assert.Equal(t, 15, got[0].Preview.ThrottleMs)

	unsubscribe()
	require.NoError(t, os.WriteFile(path, []byte("[preview]\nthrottleMs = 20\n"), 0o644))
	changed, err = c.Reload()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, got, 1)
}

func TestConfig_MissingFileIsNotAnError(t *testing.T) {
	c := New(WithConfigFile(filepath.Join(t.TempDir(), "absent.toml")), WithEnvPrefix(testPrefix))
	assert.NoError(t, c.Load(context.Background()))
}

func TestConfig_WatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeSettings(t, dir, "[preview]\npaginated = false\n")

	c := New(WithUserConfigDir(dir), WithEnvPrefix(testPrefix), WithWatcher(true))
	require.NoError(t, c.Load(context.Background()))
	defer func() { _ = c.Close() }()

	var paginated atomic.Bool
	c.Subscribe(func(s Settings) { paginated.Store(s.Preview.Paginated) })

	require.NoError(t, os.WriteFile(path, []byte("[preview]\npaginated = true\n"), 0o644))

	require.Eventually(t, paginated.Load, 5*time.Second, 20*time.Millisecond)
	assert.True(t, c.Settings().Preview.Paginated)
}

func TestSettings_Hash(t *testing.T) {
	a := New(WithEnvPrefix(testPrefix)).Settings()
	b := a
	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	b.Preview.Filter = "upper.lua"
	hb, err = b.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, ha, hb)
}

func TestValidationError_Message(t *testing.T) {
	err := error(&ValidationError{Problems: []string{"a", "b"}})
	assert.Equal(t, "invalid settings: a; b", err.Error())
	assert.False(t, errors.Is(err, ErrSettingNotFound))
}
