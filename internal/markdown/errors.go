package markdown

import (
	"errors"
	"fmt"
)

// Errors returned by the converter and line filters.
var (
	// ErrNoLineFunc is returned when a filter script defines no line function.
	ErrNoLineFunc = errors.New("filter defines no line function")

	// ErrLineCount is returned when a filter changes the number of lines.
	ErrLineCount = errors.New("filter changed the line count")

	// ErrFilterClosed is returned when applying a closed filter.
	ErrFilterClosed = errors.New("filter is closed")
)

// FilterError describes a failure of a line filter on one source line.
type FilterError struct {
	Filter string
	Line   int // zero-based body line
	Err    error
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("filter %s: line %d: %v", e.Filter, e.Line, e.Err)
}

func (e *FilterError) Unwrap() error {
	return e.Err
}
