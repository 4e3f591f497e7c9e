package scheduler

import (
	"context"

	"github.com/dshills/mdview/internal/preview"
)

// Async adapts a blocking preview.Host to a RenderFunc that renders on its
// own goroutine. Renders started after ctx is done fail with ctx.Err().
func Async(ctx context.Context, host preview.Host) RenderFunc {
	return func(req preview.RenderRequest, done DoneFunc) {
		go func() {
			if err := ctx.Err(); err != nil {
				done(nil, err)
				return
			}
			done(host.Render(ctx, req))
		}()
	}
}
