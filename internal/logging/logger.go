// Package logging provides structured logging configuration using log/slog.
//
// Request IDs set by chi's RequestID middleware and run IDs attached with
// WithRun are added to every entry produced through FromContext, so all log
// lines of one reconciliation can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type runKey struct{}

type runInfo struct {
	id   string
	kind string
}

// Setup configures the global slog logger to write to stdout.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	SetupWriter(os.Stdout, level, format)
}

// SetupWriter configures the global slog logger to write to w. The CLI uses
// it to keep stdout free for command output.
func SetupWriter(w io.Writer, level, format string) {
	slog.SetDefault(slog.New(NewHandler(w, level, format)))
}

// NewHandler builds a text or JSON handler for the given level.
func NewHandler(w io.Writer, level, format string) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRun returns a context carrying the run ID and kind. Loggers obtained
// from it via FromContext include run_id and run_kind.
func WithRun(ctx context.Context, runID, kind string) context.Context {
	return context.WithValue(ctx, runKey{}, runInfo{id: runID, kind: kind})
}

// RunID returns the run ID stored by WithRun, or "".
func RunID(ctx context.Context) string {
	if info, ok := ctx.Value(runKey{}).(runInfo); ok {
		return info.id
	}
	return ""
}

// FromContext returns a logger enriched with request context.
//
//	func handleRequest(w http.ResponseWriter, r *http.Request) {
//	    logger := logging.FromContext(r.Context())
//	    logger.Info("reconciling", "target", name)
//	}
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if info, ok := ctx.Value(runKey{}).(runInfo); ok {
		logger = logger.With("run_id", info.id, "run_kind", info.kind)
	}

	return logger
}

// WithFields returns a logger with additional structured fields.
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
