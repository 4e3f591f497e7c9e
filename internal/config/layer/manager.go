package layer

import (
	"sort"
	"sync"
)

// Manager manages configuration layers and provides merged access.
// At most one layer per Source is held.
type Manager struct {
	mu     sync.RWMutex
	layers []*Layer       // Sorted by source (ascending)
	merged map[string]any // Cached merged result
	dirty  bool
}

// NewManager creates a new layer manager.
func NewManager() *Manager {
	return &Manager{dirty: true}
}

// SetLayer adds l, replacing any layer with the same source.
func (m *Manager) SetLayer(l *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.layers {
		if existing.Source == l.Source {
			m.layers[i] = l
			m.dirty = true
			return
		}
	}
	m.layers = append(m.layers, l)
	sort.SliceStable(m.layers, func(i, j int) bool {
		return m.layers[i].Source < m.layers[j].Source
	})
	m.dirty = true
}

// Layer returns the layer for source, or nil.
func (m *Manager) Layer(source Source) *Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, l := range m.layers {
		if l.Source == source {
			return l
		}
	}
	return nil
}

// Layers returns a copy of all layers sorted by priority.
func (m *Manager) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Layer, len(m.layers))
	copy(result, m.layers)
	return result
}

// Merge combines all layers into a single configuration map.
// Results are cached until a layer is replaced.
func (m *Manager) Merge() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dirty && m.merged != nil {
		return cloneMap(m.merged)
	}

	result := make(map[string]any)
	for _, l := range m.layers {
		result = DeepMerge(result, l.Data)
	}

	m.merged = result
	m.dirty = false

	return cloneMap(result)
}

// Get returns the effective value for a setting path and the layer it came from.
func (m *Manager) Get(path string) (any, *Layer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.layers) - 1; i >= 0; i-- {
		if v, ok := GetByPath(m.layers[i].Data, path); ok {
			return v, m.layers[i], true
		}
	}
	return nil, nil, false
}
