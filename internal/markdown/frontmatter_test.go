package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFrontMatter(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		raw   string
		body  string
		lines int
	}{
		{"none", "# Title\n", "", "# Title\n", 0},
		{"basic", "---\ntitle: x\n---\nbody\n", "title: x", "body\n", 3},
		{"dots", "---\na: 1\nb: 2\n...\nbody", "a: 1\nb: 2", "body", 4},
		{"empty block", "---\n---\nbody", "", "body", 2},
		{"crlf", "---\r\ntitle: x\r\n---\r\nbody", "title: x\r", "body", 3},
		{"unclosed", "---\ntitle: x\nbody\n", "", "---\ntitle: x\nbody\n", 0},
		{"not first line", "\n---\na: 1\n---\n", "", "\n---\na: 1\n---\n", 0},
		{"only delimiter", "---", "", "---", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, body, lines := SplitFrontMatter(tt.src)
			assert.Equal(t, tt.raw, raw)
			assert.Equal(t, tt.body, body)
			assert.Equal(t, tt.lines, lines)
		})
	}
}

func TestParseMeta(t *testing.T) {
	m, err := ParseMeta("title: Report\nstyle: \"body { color: red }\"\nauthor: Ada\n")
	require.NoError(t, err)

	assert.Equal(t, "Report", m.Title)
	assert.Equal(t, "body { color: red }", m.Style)
	assert.Equal(t, "Ada", m.Fields["author"])
}

func TestParseMeta_Empty(t *testing.T) {
	m, err := ParseMeta("  \n")
	require.NoError(t, err)
	assert.Equal(t, Meta{}, m)
}

func TestParseMeta_Invalid(t *testing.T) {
	_, err := ParseMeta("title: [unclosed")
	assert.Error(t, err)
}
