package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandlerEnabled(t *testing.T) {
	t.Parallel()
	h := NewPrettyHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestPrettyHandlerFormatting(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		setup func(h slog.Handler) slog.Handler
		args  []any
		want  string
	}{
		{name: "simple", args: []any{"key", "value"}, want: "key=value"},
		{name: "quoted", args: []any{"msg", "hello world"}, want: `msg="hello world"`},
		{name: "group", setup: func(h slog.Handler) slog.Handler { return h.WithGroup("req") }, args: []any{"id", 7}, want: "req.id=7"},
		{name: "nested group", setup: func(h slog.Handler) slog.Handler { return h.WithGroup("a").WithGroup("b") }, args: []any{"k", "v"}, want: "a.b.k=v"},
		{name: "bound attrs", setup: func(h slog.Handler) slog.Handler {
			return h.WithAttrs([]slog.Attr{slog.String("service", "transl8")})
		}, want: "service=transl8"},
		{name: "group value", args: []any{slog.Group("shape", "len", 8, "batch", 2)}, want: "shape.len=8 shape.batch=2"},
		{name: "nested group value", args: []any{slog.Group("mem", slog.Group("shape", "len", 7, "batch", 2), "dim", 32)}, want: "mem.shape.len=7 mem.shape.batch=2 mem.dim=32"},
		{name: "bound group value", setup: func(h slog.Handler) slog.Handler {
			return h.WithAttrs([]slog.Attr{slog.Group("model", "heads", 4, "layers", 6)})
		}, args: []any{"step", 1}, want: "model.heads=4 model.layers=6 step=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			var h slog.Handler = NewPrettyHandler(&buf, nil)
			if tt.setup != nil {
				h = tt.setup(h)
			}
			slog.New(h).Info("record", tt.args...)
			out := buf.String()
			if !strings.Contains(out, "record") || !strings.Contains(out, tt.want) {
				t.Fatalf("expected %q in output, got: %s", tt.want, out)
			}
			if !strings.HasSuffix(out, "\n") {
				t.Fatalf("record not newline-terminated: %q", out)
			}
		})
	}
}

func TestPrettyHandlerEmptyGroup(t *testing.T) {
	t.Parallel()
	h := NewPrettyHandler(&bytes.Buffer{}, nil)
	if h.WithGroup("") != slog.Handler(h) {
		t.Fatal("WithGroup(\"\") should return the receiver")
	}
}

func TestNeedsQuoting(t *testing.T) {
	t.Parallel()
	tests := map[string]bool{
		"simple":    false,
		"":          false,
		"has space": true,
		"tab\there": true,
		`q"uote`:    true,
		"k=v":       true,
	}
	for in, want := range tests {
		if got := needsQuoting(in); got != want {
			t.Errorf("needsQuoting(%q) = %v, want %v", in, got, want)
		}
	}
}
