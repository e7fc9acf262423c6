// Package logging configures log/slog for the server and the CLI.
//
// Request-scoped loggers pick up the id assigned by chi's RequestID
// middleware, so every line logged while serving a request can be traced
// back to it.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup installs a logger writing to stdout as the slog default.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger writing to w. The CLI passes stderr so log lines never
// mix with table output.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// parseLevel accepts slog's level names in any case plus "warning".
// Unknown values mean info.
func parseLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// FromContext returns the default logger, tagged with request_id when ctx
// belongs to a request.
//
//	logger := logging.FromContext(r.Context())
//	logger.Info("search updated", "workspace", ws.ID)
func FromContext(ctx context.Context) *slog.Logger {
	reqID := middleware.GetReqID(ctx)
	if reqID == "" {
		return slog.Default()
	}
	return slog.Default().With("request_id", reqID)
}

// WithFields is FromContext plus extra attributes, for a logger that follows
// one operation through several steps:
//
//	logger := logging.WithFields(ctx, "workspace", ws.ID, "file", name)
//	logger.Info("upload completed", "rows", len(rows))
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
