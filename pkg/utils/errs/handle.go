package errs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs err with the values attached by goerr and reports it to Sentry
// when a Sentry client has been initialized.
func Handle(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}

	attrs := []any{slog.Any("error", err)}
	values := Values(err)
	for k, v := range values {
		attrs = append(attrs, slog.Any(k, v))
	}
	ctxlog.From(ctx).Error(msg, attrs...)

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("message", msg)
		if len(values) > 0 {
			scope.SetContext("values", sentry.Context(values))
		}
		hub.CaptureException(err)
	})
}

// Values returns the values attached to err and its wrapped goerr errors
func Values(err error) map[string]any {
	values := map[string]any{}
	for err != nil {
		var gErr *goerr.Error
		if !errors.As(err, &gErr) {
			break
		}
		for k, v := range gErr.Values() {
			if _, ok := values[k]; !ok {
				values[k] = v
			}
		}
		err = gErr.Unwrap()
	}
	return values
}
