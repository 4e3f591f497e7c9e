package app

import (
	"os"
	"path/filepath"
	"time"
)

// Document is the markdown file being previewed.
type Document struct {
	// Path is the absolute file path.
	Path string

	// Name is the display name.
	Name string

	content string
	modTime time.Time
}

// OpenDocument reads the file at path.
func OpenDocument(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, NewOperationError("open", path, err)
	}
	d := &Document{Path: abs, Name: filepath.Base(abs)}
	if _, err := d.Reload(); err != nil {
		return nil, err
	}
	return d, nil
}

// Content returns the text read by the last successful load.
func (d *Document) Content() string {
	return d.content
}

// ModTime returns the file modification time seen by the last load.
func (d *Document) ModTime() time.Time {
	return d.modTime
}

// Reload re-reads the file. It reports whether the content changed.
func (d *Document) Reload() (bool, error) {
	data, err := os.ReadFile(d.Path)
	if err != nil {
		return false, NewOperationError("reload", d.Path, err)
	}
	if info, err := os.Stat(d.Path); err == nil {
		d.modTime = info.ModTime()
	}

	content := string(data)
	if content == d.content {
		return false, nil
	}
	d.content = content
	return true, nil
}
