package errs_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reflow/pkg/utils/errs"
)

func TestValues(t *testing.T) {
	base := goerr.New("inner", goerr.V("workflow", "deploy"))
	wrapped := goerr.Wrap(base, "outer", goerr.V("record_id", "r-1"))

	values := errs.Values(wrapped)
	gt.Value(t, values["workflow"]).Equal("deploy")
	gt.Value(t, values["record_id"]).Equal("r-1")

	gt.Number(t, len(errs.Values(errors.New("plain")))).Equal(0)
}

func TestHandle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := ctxlog.With(context.Background(), logger)

	errs.Handle(ctx, "failed to process record", goerr.New("boom", goerr.V("record_id", "r-9")))

	out := buf.String()
	gt.String(t, out).Contains("failed to process record")
	gt.String(t, out).Contains("boom")
	gt.String(t, out).Contains("r-9")

	buf.Reset()
	errs.Handle(ctx, "nothing", nil)
	gt.Number(t, buf.Len()).Equal(0)
}
