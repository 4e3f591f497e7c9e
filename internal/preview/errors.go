package preview

import (
	"errors"
	"fmt"
)

// Pipeline errors.
var (
	// ErrNoSurface indicates no render has completed yet.
	ErrNoSurface = errors.New("no preview surface")

	// ErrDegenerateMap indicates the surface has no tagged elements, so only
	// the origin can be mapped.
	ErrDegenerateMap = errors.New("no tagged elements in preview")

	// ErrTransform indicates the transform or layout step failed.
	ErrTransform = errors.New("transform failed")
)

// RenderError reports a failed render.
type RenderError struct {
	Seq  uint64     // Render sequence number
	Mode LayoutMode // Layout mode of the failed request
	Err  error      // Underlying error
}

func (e *RenderError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("render #%d (%s): %v", e.Seq, e.Mode, e.Err)
}

func (e *RenderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches ErrTransform as well as the wrapped error.
func (e *RenderError) Is(target error) bool {
	if e == nil {
		return false
	}
	if target == ErrTransform {
		return true
	}
	return errors.Is(e.Err, target)
}
