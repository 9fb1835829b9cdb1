package async_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reflow/pkg/utils/async"
)

// safeBuffer is a thread-safe buffer for concurrent logging
type safeBuffer struct {
	b bytes.Buffer
	m sync.Mutex
}

func (sb *safeBuffer) Write(p []byte) (int, error) {
	sb.m.Lock()
	defer sb.m.Unlock()
	return sb.b.Write(p)
}

func (sb *safeBuffer) String() string {
	sb.m.Lock()
	defer sb.m.Unlock()
	return sb.b.String()
}

func TestRun(t *testing.T) {
	t.Run("executes every handler", func(t *testing.T) {
		var count atomic.Int32
		errs := async.Run(context.Background(), 5, 0, func(ctx context.Context, i int) error {
			count.Add(1)
			return nil
		})

		gt.Number(t, int(count.Load())).Equal(5)
		gt.A(t, errs).Length(5)
		for _, err := range errs {
			gt.NoError(t, err)
		}
	})

	t.Run("zero tasks", func(t *testing.T) {
		errs := async.Run(context.Background(), 0, 0, func(ctx context.Context, i int) error {
			t.Error("handler must not be called")
			return nil
		})
		gt.A(t, errs).Length(0)
	})

	t.Run("collects errors by index without cancelling siblings", func(t *testing.T) {
		var count atomic.Int32
		errs := async.Run(context.Background(), 3, 0, func(ctx context.Context, i int) error {
			count.Add(1)
			if i == 1 {
				return errors.New("record 1 failed")
			}
			return nil
		})

		gt.Number(t, int(count.Load())).Equal(3)
		gt.NoError(t, errs[0])
		gt.Error(t, errs[1])
		gt.NoError(t, errs[2])
	})

	t.Run("runs handlers concurrently", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(3)
		done := make(chan struct{})

		go func() {
			async.Run(context.Background(), 3, 0, func(ctx context.Context, i int) error {
				wg.Done()
				wg.Wait() // blocks forever unless all three run at the same time
				return nil
			})
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handlers did not run concurrently")
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		var running, peak atomic.Int32
		async.Run(context.Background(), 10, 2, func(ctx context.Context, i int) error {
			cur := running.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return nil
		})
		gt.True(t, peak.Load() <= 2)
	})

	t.Run("recovers from panic with stack trace", func(t *testing.T) {
		logBuf := &safeBuffer{}
		logger := slog.New(slog.NewTextHandler(logBuf, &slog.HandlerOptions{Level: slog.LevelError}))
		ctx := ctxlog.With(context.Background(), logger)

		errs := async.Run(ctx, 2, 0, func(ctx context.Context, i int) error {
			if i == 0 {
				panic("test panic with stack")
			}
			return nil
		})

		gt.Error(t, errs[0])
		gt.NoError(t, errs[1])

		logOutput := logBuf.String()
		gt.True(t, strings.Contains(logOutput, "panic in async handler"))
		gt.True(t, strings.Contains(logOutput, "test panic with stack"))
		gt.True(t, strings.Contains(logOutput, "goroutine"))
	})

	t.Run("passes context through", func(t *testing.T) {
		type key struct{}
		ctx := context.WithValue(context.Background(), key{}, "v")

		errs := async.Run(ctx, 1, 0, func(ctx context.Context, i int) error {
			if ctx.Value(key{}) != "v" {
				return errors.New("context value lost")
			}
			return nil
		})
		gt.NoError(t, errs[0])
	})
}
