package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Component: ComponentBot,
		Handler:   slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})
	logger.Info("hello", FieldChatID, int64(7))
	out := buf.String()
	if !strings.Contains(out, "component=bot") || !strings.Contains(out, "chat_id=7") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestContextRoundTrip(t *testing.T) {
	logger := New(Config{Component: ComponentFlow, Handler: slog.NewTextHandler(&bytes.Buffer{}, nil)})
	ctx := WithContext(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("expected the stored logger")
	}
	if got := FromContext(context.Background()).Component(); got != "unknown" {
		t.Fatalf("fallback component = %q", got)
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithComponent(ComponentSheets).WithOperation(OpAppend).WithTransaction("Gasto", "auto", 1500)
	if len(f.ToSlice()) != 10 {
		t.Fatalf("unexpected fields: %v", f)
	}
}

func TestWithComponentLogsComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentApp, Handler: slog.NewTextHandler(&buf, nil)})
	logger.WithComponent(ComponentWorker).Info("synced")
	out := buf.String()
	if strings.Count(out, "component=") != 1 || !strings.Contains(out, "component=worker") {
		t.Fatalf("unexpected output: %s", out)
	}
}
