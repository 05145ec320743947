package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiRed   = "\033[31m"
	ansiAmber = "\033[33m"
	ansiBlue  = "\033[34m"
	ansiCyan  = "\033[36m"
	ansiDim   = "\033[90m"
)

// PrettyHandler renders records as
//
//	[15:04:05] INFO  message key=value key="two words"
//
// with ANSI colours. Handlers derived through WithAttrs and WithGroup share
// the writer lock of their parent.
type PrettyHandler struct {
	w      io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	prefix string
	attrs  []slog.Attr
}

func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	h := &PrettyHandler{w: w, mu: &sync.Mutex{}, level: slog.LevelInfo}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(ansiDim)
	sb.WriteByte('[')
	sb.WriteString(r.Time.Format(time.TimeOnly))
	sb.WriteString("] ")
	sb.WriteString(ansiReset)

	sb.WriteString(levelColour(r.Level))
	sb.WriteString(ansiBold)
	fmt.Fprintf(&sb, "%-5s", r.Level.String())
	sb.WriteString(ansiReset)
	sb.WriteByte(' ')
	sb.WriteString(r.Message)

	if len(h.attrs) > 0 || r.NumAttrs() > 0 {
		sb.WriteString(ansiCyan)
		for _, a := range h.attrs {
			sb.WriteByte(' ')
			writeAttr(&sb, a, "")
		}
		r.Attrs(func(a slog.Attr) bool {
			sb.WriteByte(' ')
			writeAttr(&sb, a, h.prefix)
			return true
		})
		sb.WriteString(ansiReset)
	}
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

// WithAttrs binds attrs under the current group prefix.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	c.attrs = append(c.attrs, h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		c.attrs = append(c.attrs, a)
	}
	return &c
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}

func levelColour(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed
	case level >= slog.LevelWarn:
		return ansiAmber
	case level >= slog.LevelInfo:
		return ansiBlue
	default:
		return ansiDim
	}
}

func writeAttr(sb *strings.Builder, a slog.Attr, prefix string) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for i, ga := range v.Group() {
			if i > 0 {
				sb.WriteByte(' ')
			}
			writeAttr(sb, ga, prefix+a.Key+".")
		}
		return
	}
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if needsQuoting(s) {
			fmt.Fprintf(sb, "%q", s)
		} else {
			sb.WriteString(s)
		}
	case slog.KindTime:
		sb.WriteString(v.Time().Format(time.RFC3339))
	case slog.KindDuration:
		sb.WriteString(v.Duration().String())
	default:
		fmt.Fprint(sb, v.Any())
	}
}

func needsQuoting(s string) bool {
	return strings.ContainsAny(s, " \t\n\"=")
}
