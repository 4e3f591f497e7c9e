package markdown

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Meta is the document metadata declared in a YAML front matter block.
type Meta struct {
	Title string `yaml:"title"`
	Type  string `yaml:"type"`
	Style string `yaml:"style"`

	// Fields holds every key of the block, including the ones above.
	Fields map[string]any `yaml:"-"`
}

// SplitFrontMatter separates a leading YAML block from the markdown body.
//
// The block opens with a "---" line on the first line and closes with a
// "---" or "..." line. It returns the raw YAML, the body and the number of
// source lines the block occupies, delimiters included. Without a closed
// block the whole source is the body.
func SplitFrontMatter(src string) (raw, body string, lines int) {
	first, rest, ok := strings.Cut(src, "\n")
	if !ok || !isDelimiter(first, false) {
		return "", src, 0
	}

	var yamlLines []string
	for n := 1; ; n++ {
		line, tail, more := strings.Cut(rest, "\n")
		if isDelimiter(line, true) {
			return strings.Join(yamlLines, "\n"), tail, n + 1
		}
		if !more {
			return "", src, 0
		}
		yamlLines = append(yamlLines, line)
		rest = tail
	}
}

func isDelimiter(line string, closing bool) bool {
	line = strings.TrimRight(line, " \t\r")
	return line == "---" || (closing && line == "...")
}

// ParseMeta decodes a YAML front matter block.
func ParseMeta(raw string) (Meta, error) {
	var m Meta
	if strings.TrimSpace(raw) == "" {
		return m, nil
	}
	if err := yaml.Unmarshal([]byte(raw), &m); err != nil {
		return Meta{}, err
	}
	if err := yaml.Unmarshal([]byte(raw), &m.Fields); err != nil {
		return Meta{}, err
	}
	return m, nil
}
