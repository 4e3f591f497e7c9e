package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"preview": map[string]any{"throttleMs": 30, "pageHeight": 40},
		"logging": map[string]any{"level": "info"},
	}
	src := map[string]any{
		"preview": map[string]any{"throttleMs": 10},
		"logging": "flat",
	}

	got := DeepMerge(dst, src)
	assert.Equal(t, map[string]any{
		"preview": map[string]any{"throttleMs": 10, "pageHeight": 40},
		"logging": "flat",
	}, got)
}

func TestDeepMerge_ClonesSource(t *testing.T) {
	inner := map[string]any{"a": 1}
	got := DeepMerge(nil, map[string]any{"x": inner})

	inner["a"] = 2
	assert.Equal(t, 1, got["x"].(map[string]any)["a"])
}

func TestPaths(t *testing.T) {
	data := map[string]any{}
	SetByPath(data, "preview.filter", "f.lua")
	SetByPath(data, "preview.paginated", true)

	v, ok := GetByPath(data, "preview.filter")
	require.True(t, ok)
	assert.Equal(t, "f.lua", v)

	_, ok = GetByPath(data, "preview.filter.deeper")
	assert.False(t, ok)
	_, ok = GetByPath(nil, "preview")
	assert.False(t, ok)
}

func TestManager(t *testing.T) {
	m := NewManager()
	m.SetLayer(NewLayer(SourceEnv, map[string]any{"a": map[string]any{"b": 3}}))
	m.SetLayer(NewLayer(SourceBuiltin, map[string]any{"a": map[string]any{"b": 1, "c": 1}}))

	assert.Equal(t, map[string]any{"a": map[string]any{"b": 3, "c": 1}}, m.Merge())

	v, l, ok := m.Get("a.c")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, "builtin", l.Name)

	// Replacing a source drops the old layer.
	m.SetLayer(NewLayer(SourceEnv, nil))
	assert.Len(t, m.Layers(), 2)
	assert.Equal(t, map[string]any{"a": map[string]any{"b": 1, "c": 1}}, m.Merge())

	assert.Nil(t, m.Layer(SourceUser))
	assert.NotNil(t, m.Layer(SourceBuiltin))
}

func TestManager_MergeReturnsCopy(t *testing.T) {
	m := NewManager()
	m.SetLayer(NewLayer(SourceBuiltin, map[string]any{"a": map[string]any{"b": 1}}))

	got := m.Merge()
	got["a"].(map[string]any)["b"] = 99
	assert.Equal(t, map[string]any{"a": map[string]any{"b": 1}}, m.Merge())
}

func TestLayer_Clone(t *testing.T) {
	l := NewLayer(SourceUser, map[string]any{"a": []any{map[string]any{"b": 1}}})
	l.Path = "/x.toml"
	c := l.Clone()
	c.Data["a"].([]any)[0].(map[string]any)["b"] = 2

	assert.Equal(t, 1, l.Data["a"].([]any)[0].(map[string]any)["b"])
	assert.Equal(t, "/x.toml", c.Path)
	assert.Equal(t, "user", c.Name)
}
