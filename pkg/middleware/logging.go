package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/reconcile/pkg/dom"
	"github.com/vango-dev/reconcile/pkg/session"
)

// Logging creates middleware that writes one log line per dispatch.
// Handled dispatches log at Info, unhandled ones at Debug and failures at
// Warn. A nil logger uses slog.Default().
func Logging(logger *slog.Logger) session.Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(ctx context.Context, ev dom.Event, next session.DispatchFunc) (session.Result, error) {
		start := time.Now()
		res, err := next(ctx, ev)

		attrs := []any{
			"kind", ev.Kind,
			"seq", res.Seq,
			"path", res.Path.String(),
			"patches", len(res.Patches),
			"duration", time.Since(start),
		}
		if id, ok := session.IDFromContext(ctx); ok {
			attrs = append(attrs, "session_id", id)
		}

		switch {
		case err != nil:
			attrs = append(attrs, "error", err)
			if res.Resynced {
				attrs = append(attrs, "resynced", true)
			}
			logger.WarnContext(ctx, "dispatch failed", attrs...)
		case res.Handled:
			logger.InfoContext(ctx, "dispatch", attrs...)
		default:
			logger.DebugContext(ctx, "dispatch unhandled", attrs...)
		}

		return res, err
	}
}
