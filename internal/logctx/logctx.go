// Package logctx carries the request-scoped slog.Logger through
// context, so every stage of a conversion run logs with the user and
// video attributes attached upstream.
package logctx

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// WithLogger stores logger in ctx for downstream stages.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// LoggerFromContext returns the logger stored by WithLogger. Code paths
// reached without one (tests, background goroutines) fall back to
// slog.Default() so callers never need a nil check.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
		return l
	}

	return slog.Default()
}
