package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"
)

// Run executes handler for every index in [0, n) concurrently and waits for
// all of them to finish.
//
// Behavior:
//   - At most limit handlers run at the same time (no limit if limit <= 0)
//   - A failing handler never cancels its siblings
//   - Panics are recovered, logged with a stack trace and returned as errors
//
// The returned slice has length n; errs[i] is the result of handler(ctx, i).
func Run(ctx context.Context, n, limit int, handler func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)

	var eg errgroup.Group
	if limit > 0 {
		eg.SetLimit(limit)
	}

	for i := 0; i < n; i++ {
		eg.Go(func() error {
			errs[i] = safeCall(ctx, i, handler)
			return nil
		})
	}
	_ = eg.Wait()

	return errs
}

func safeCall(ctx context.Context, i int, handler func(ctx context.Context, i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			ctxlog.From(ctx).Error("panic in async handler",
				"recover", r,
				"stack", string(stack))
			err = goerr.New("panic in async handler", goerr.V("recover", r), goerr.V("index", i))
		}
	}()

	return handler(ctx, i)
}
