// Package config loads mdview settings.
//
// Settings come from layers merged lowest to highest: built-in defaults,
// the user settings file, MDVIEW_* environment variables and command-line
// overrides. With the watcher enabled, edits to the settings file are
// reloaded and subscribers are told whenever the effective settings change.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dshills/mdview/internal/config/layer"
	"github.com/dshills/mdview/internal/config/loader"
	"github.com/dshills/mdview/internal/config/watcher"
	"github.com/dshills/mdview/internal/eventloop"
	"github.com/dshills/mdview/internal/logging"
)

// SettingsFile is the name of the user settings file.
const SettingsFile = "settings.toml"

// Config provides access to the layered mdview configuration.
type Config struct {
	mu sync.RWMutex

	layers   *layer.Manager
	settings Settings
	hash     uint64

	fs            loader.FileSystem
	userConfigDir string
	configFile    string
	envPrefix     string
	overrides     map[string]any

	enableWatcher bool
	watcher       *watcher.Watcher
	subscribers   eventloop.Listeners[func(Settings)]

	logger *logging.Logger
}

// Option configures a Config instance.
type Option func(*Config)

// WithUserConfigDir sets the directory holding settings.toml.
func WithUserConfigDir(dir string) Option {
	return func(c *Config) {
		c.userConfigDir = dir
	}
}

// WithConfigFile sets the settings file path, overriding the user config dir.
func WithConfigFile(path string) Option {
	return func(c *Config) {
		c.configFile = path
	}
}

// WithEnvPrefix sets the environment variable prefix (default "MDVIEW_").
func WithEnvPrefix(prefix string) Option {
	return func(c *Config) {
		c.envPrefix = prefix
	}
}

// WithWatcher enables file watching for live reload.
func WithWatcher(enable bool) Option {
	return func(c *Config) {
		c.enableWatcher = enable
	}
}

// WithOverride sets path in the command-line layer.
func WithOverride(path string, value any) Option {
	return func(c *Config) {
		layer.SetByPath(c.overrides, path, value)
	}
}

// WithFS sets the file system the settings file is read from.
func WithFS(fsys loader.FileSystem) Option {
	return func(c *Config) {
		c.fs = fsys
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Config) {
		c.logger = l
	}
}

// New creates a Config holding the built-in defaults. Call Load to read the
// other layers.
func New(opts ...Option) *Config {
	c := &Config{
		layers:    layer.NewManager(),
		fs:        loader.DefaultFS(),
		envPrefix: loader.DefaultEnvPrefix,
		overrides: make(map[string]any),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger).WithComponent("config")

	if c.userConfigDir == "" {
		c.userConfigDir = defaultUserConfigDir()
	}

	c.layers.SetLayer(layer.NewLayer(layer.SourceBuiltin, Defaults()))
	c.layers.SetLayer(layer.NewLayer(layer.SourceArgs, c.overrides))

	// Defaults always decode.
	c.settings, _ = decode(c.layers.Merge())
	c.hash, _ = c.settings.Hash()

	return c
}

// Path returns the settings file path, or "" when there is none.
func (c *Config) Path() string {
	if c.configFile != "" {
		return c.configFile
	}
	if c.userConfigDir == "" {
		return ""
	}
	return filepath.Join(c.userConfigDir, SettingsFile)
}

// Load reads the settings file and environment, then starts the watcher if
// enabled. On error the previous settings stay in effect.
func (c *Config) Load(_ context.Context) error {
	if _, err := c.reload(); err != nil {
		return err
	}

	if !c.enableWatcher || c.Path() == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher != nil {
		return nil
	}

	w, err := watcher.New(watcher.WithLogger(c.logger))
	if err != nil {
		return fmt.Errorf("starting config watcher: %w", err)
	}
	if err := w.Watch(c.Path()); err != nil {
		_ = w.Close()
		// A missing config dir just means there is nothing to reload.
		c.logger.Debug("not watching %s: %v", c.Path(), err)
		return nil
	}
	w.OnChange(c.handleFileChange)
	c.watcher = w
	return nil
}

// Reload re-reads the settings file and environment. It reports whether the
// effective settings changed; subscribers are notified when they did.
func (c *Config) Reload() (bool, error) {
	changed, err := c.reload()
	if err != nil || !changed {
		return changed, err
	}
	c.notify()
	return true, nil
}

func (c *Config) reload() (bool, error) {
	var user map[string]any
	if path := c.Path(); path != "" {
		data, err := loader.NewTOMLLoaderWithFS(c.fs, path).Load()
		if err != nil {
			return false, err
		}
		user = data
	}

	env, err := loader.NewEnvLoader(c.envPrefix).Load()
	if err != nil {
		return false, err
	}

	c.mu.RLock()
	base := c.layers
	c.mu.RUnlock()

	staged := layer.NewManager()
	for _, l := range base.Layers() {
		staged.SetLayer(l)
	}
	userLayer := layer.NewLayer(layer.SourceUser, user)
	userLayer.Path = c.Path()
	staged.SetLayer(userLayer)
	staged.SetLayer(layer.NewLayer(layer.SourceEnv, env))

	settings, err := decode(staged.Merge())
	if err != nil {
		return false, err
	}
	if err := settings.Validate(); err != nil {
		return false, err
	}
	hash, err := settings.Hash()
	if err != nil {
		return false, fmt.Errorf("hashing settings: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.layers = staged
	c.settings = settings
	changed := hash != c.hash
	c.hash = hash
	return changed, nil
}

func (c *Config) handleFileChange(ev watcher.Event) {
	changed, err := c.Reload()
	if err != nil {
		c.logger.Warn("reloading %s: %v", ev.Path, err)
		return
	}
	if changed {
		c.logger.Info("settings reloaded from %s", ev.Path)
	}
}

// Settings returns the current effective settings.
func (c *Config) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Get returns the merged value at a dot-separated path.
func (c *Config) Get(path string) (any, error) {
	c.mu.RLock()
	layers := c.layers
	c.mu.RUnlock()

	v, _, ok := layers.Get(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSettingNotFound, path)
	}
	return v, nil
}

// Source returns the name of the layer that supplies path.
func (c *Config) Source(path string) string {
	c.mu.RLock()
	layers := c.layers
	c.mu.RUnlock()

	if _, l, ok := layers.Get(path); ok {
		return l.Name
	}
	return ""
}

// Subscribe registers fn to run with the new settings after each effective
// change. fn runs on the goroutine that triggered the reload.
func (c *Config) Subscribe(fn func(Settings)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	remove := c.subscribers.Add(fn)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		remove()
	}
}

func (c *Config) notify() {
	c.mu.RLock()
	settings := c.settings
	var fns []func(Settings)
	c.subscribers.Each(func(fn func(Settings)) {
		fns = append(fns, fn)
	})
	c.mu.RUnlock()

	for _, fn := range fns {
		fn(settings)
	}
}

// Close shuts down the watcher.
func (c *Config) Close() error {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.mu.Unlock()

	if w != nil {
		return w.Close()
	}
	return nil
}

func defaultUserConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "mdview")
}
