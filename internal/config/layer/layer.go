// Package layer provides configuration layer management for mdview.
//
// The layer package handles multiple configuration sources with priority-based
// merging. Higher priority layers override values from lower priority layers.
package layer

// Layer represents a single configuration layer.
type Layer struct {
	// Name identifies the layer (e.g., "builtin", "user", "env").
	Name string

	// Source indicates where this layer was loaded from.
	Source Source

	// Path is the file path (if loaded from file).
	Path string

	// Data holds the configuration values as a nested map.
	Data map[string]any
}

// NewLayer creates a layer holding data. A nil map is replaced by an empty one.
func NewLayer(source Source, data map[string]any) *Layer {
	if data == nil {
		data = make(map[string]any)
	}
	return &Layer{
		Name:   source.String(),
		Source: source,
		Data:   data,
	}
}

// Clone creates a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	return &Layer{
		Name:   l.Name,
		Source: l.Source,
		Path:   l.Path,
		Data:   cloneMap(l.Data),
	}
}

// Source indicates where a configuration layer came from.
// Sources double as merge priority: later sources override earlier ones.
type Source uint8

const (
	// SourceBuiltin represents built-in default configuration.
	SourceBuiltin Source = iota
	// SourceUser represents the user settings file.
	SourceUser
	// SourceEnv represents environment variables.
	SourceEnv
	// SourceArgs represents command-line arguments.
	SourceArgs
)

// String returns a human-readable name for the source.
func (s Source) String() string {
	switch s {
	case SourceBuiltin:
		return "builtin"
	case SourceUser:
		return "user"
	case SourceEnv:
		return "environment"
	case SourceArgs:
		return "arguments"
	default:
		return "unknown"
	}
}

// cloneMap creates a deep copy of a map.
func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = cloneValue(v)
	}
	return dst
}

// cloneSlice creates a deep copy of a slice.
func cloneSlice(src []any) []any {
	if src == nil {
		return nil
	}
	dst := make([]any, len(src))
	for i, v := range src {
		dst[i] = cloneValue(v)
	}
	return dst
}
