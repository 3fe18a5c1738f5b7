// Package observability configures structured logging and carries a
// request-scoped logger through contexts.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/abhisek/mockview/internal/config"
)

type ctxKey string

const ctxKeyLogger ctxKey = "logger"

// NewLogger builds a slog logger writing to w. format is "json" or "text";
// an empty format uses fallback.
func NewLogger(w io.Writer, cfg config.LogConfig, fallback string) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	format := cfg.Format
	if format == "" {
		format = fallback
	}
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// Setup builds the logger and installs it as the slog default.
func Setup(w io.Writer, cfg config.LogConfig, fallback string) (*slog.Logger, error) {
	logger, err := NewLogger(w, cfg, fallback)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, logger)
}

// FromContext returns the request-scoped logger, or the slog default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKeyLogger).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
