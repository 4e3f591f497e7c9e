package preview

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderError(t *testing.T) {
	cause := errors.New("boom")
	err := &RenderError{Seq: 2, Mode: LayoutPaginated, Err: cause}

	assert.Equal(t, "render #2 (paginated): boom", err.Error())
	assert.ErrorIs(t, err, ErrTransform)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNoSurface)
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestRenderError_Nil(t *testing.T) {
	var err *RenderError
	assert.Equal(t, "", err.Error())
	assert.Nil(t, err.Unwrap())
	assert.False(t, err.Is(ErrTransform))
}

func TestLayoutMode_String(t *testing.T) {
	assert.Equal(t, "plain", LayoutPlain.String())
	assert.Equal(t, "paginated", LayoutPaginated.String())
	assert.Equal(t, "unknown", LayoutMode(7).String())
}
