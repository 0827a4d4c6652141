// Package logging builds the structured logger shared by the server and CLI.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kozaktomas/visual-search/internal/ranking"
)

// Logger wraps slog.Logger with search-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}

// New creates a Logger writing text or json records to w.
func New(w io.Writer, level, format string) (*Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return &Logger{Logger: slog.New(handler)}, nil
}

// Noop returns a Logger that discards all output.
func Noop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// With returns a Logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// LogSearch logs a similarity search. A fingerprint length mismatch is
// logged at error level because it means the stored catalog is inconsistent.
func (l *Logger) LogSearch(ctx context.Context, catalogSize, results int, elapsed time.Duration, err error) {
	var mismatch *ranking.LengthMismatchError
	switch {
	case errors.As(err, &mismatch):
		l.ErrorContext(ctx, "catalog fingerprint length mismatch",
			"product_id", mismatch.ID,
			"expected_bits", mismatch.Expected,
			"actual_bits", mismatch.Actual,
		)
	case err != nil:
		l.WarnContext(ctx, "search failed",
			"catalog_size", catalogSize,
			"error", err,
		)
	default:
		l.DebugContext(ctx, "search completed",
			"catalog_size", catalogSize,
			"results", results,
			"elapsed", elapsed,
		)
	}
}

// LogIngest logs a product being fingerprinted and stored.
func (l *Logger) LogIngest(ctx context.Context, id, name string, err error) {
	if err != nil {
		l.WarnContext(ctx, "product ingest failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "product stored",
			"id", id,
			"name", name,
		)
	}
}
