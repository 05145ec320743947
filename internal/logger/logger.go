// Package logger provides the structured logger shared by the transl8
// commands, the HTTP server and the model. It is a thin interface over
// log/slog so call sites can be handed a test or discard logger.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	WithGroup(name string) Logger
}

// Output formats accepted by NewForFormat.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

type slogLogger struct {
	l *slog.Logger
}

// New wraps an arbitrary slog handler.
func New(handler slog.Handler) Logger {
	return &slogLogger{l: slog.New(handler)}
}

// Default logs text at info level to stderr.
func Default() Logger {
	return New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// Discard drops every record.
func Discard() Logger {
	return New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func JSON(w io.Writer, level slog.Level) Logger {
	return New(slog.NewJSONHandler(w, &slog.HandlerOptions{AddSource: true, Level: level}))
}

// Pretty logs coloured single-line records, for interactive use.
func Pretty(w io.Writer, level slog.Level) Logger {
	return New(NewPrettyHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewForFormat builds a logger for one of the Format constants.
func NewForFormat(format string, w io.Writer, level slog.Level) (Logger, error) {
	switch strings.ToLower(format) {
	case "", FormatPretty:
		return Pretty(w, level), nil
	case FormatJSON:
		return JSON(w, level), nil
	case FormatText:
		return New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
	default:
		return nil, fmt.Errorf("unknown log format %q (want text, json or pretty)", format)
	}
}

type loggerKey struct{}

// FromContext returns the logger stored by WithContext, or Default.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return Default()
}

func WithContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

func (s *slogLogger) WithGroup(name string) Logger {
	return &slogLogger{l: s.l.WithGroup(name)}
}

// ParseLevel maps debug, info, warn/warning and error (any case) to a slog
// level.
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
