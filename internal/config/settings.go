package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/pelletier/go-toml/v2"
)

// Settings is the typed view of the merged configuration.
type Settings struct {
	Preview PreviewSettings `toml:"preview"`
	Logging LoggingSettings `toml:"logging"`
}

// PreviewSettings configures the preview pane.
type PreviewSettings struct {
	// ThrottleMs is the scroll synchronization interval. Zero disables throttling.
	ThrottleMs int `toml:"throttleMs"`
	// Paginated selects the paged layout.
	Paginated bool `toml:"paginated"`
	// PageHeight is the number of rows per page in paged layout.
	PageHeight int `toml:"pageHeight"`
	// EditorOffset is the editor pane's vertical offset in rows.
	EditorOffset int `toml:"editorOffset"`
	// Filter is the path of a Lua line filter. Empty means none.
	Filter string `toml:"filter"`
}

// LoggingSettings configures the application logger.
type LoggingSettings struct {
	Level string `toml:"level"`
	// File receives log output. Empty discards logs while the UI owns the terminal.
	File string `toml:"file"`
}

// Throttle returns the scroll synchronization interval.
func (p PreviewSettings) Throttle() time.Duration {
	return time.Duration(p.ThrottleMs) * time.Millisecond
}

// Defaults returns the built-in settings layer.
func Defaults() map[string]any {
	return map[string]any{
		"preview": map[string]any{
			"throttleMs":   int64(30),
			"paginated":    false,
			"pageHeight":   int64(40),
			"editorOffset": int64(0),
			"filter":       "",
		},
		"logging": map[string]any{
			"level": "info",
			"file":  "",
		},
	}
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	var errs []string
	if s.Preview.ThrottleMs < 0 {
		errs = append(errs, fmt.Sprintf("preview.throttleMs must be >= 0, got %d", s.Preview.ThrottleMs))
	}
	if s.Preview.PageHeight <= 0 {
		errs = append(errs, fmt.Sprintf("preview.pageHeight must be > 0, got %d", s.Preview.PageHeight))
	}
	if s.Preview.EditorOffset < 0 {
		errs = append(errs, fmt.Sprintf("preview.editorOffset must be >= 0, got %d", s.Preview.EditorOffset))
	}
	switch strings.ToLower(s.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", s.Logging.Level))
	}
	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

// Hash returns a structural hash of the settings.
func (s Settings) Hash() (uint64, error) {
	return hashstructure.Hash(s, hashstructure.FormatV2, nil)
}

// decode converts a merged layer map into Settings by round-tripping it
// through TOML.
func decode(merged map[string]any) (Settings, error) {
	data, err := toml.Marshal(merged)
	if err != nil {
		return Settings{}, fmt.Errorf("encoding merged config: %w", err)
	}

	var s Settings
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return Settings{}, &DecodeError{Err: err}
	}
	return s, nil
}
