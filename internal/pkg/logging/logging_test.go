package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger for bare context")
	}

	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := WithLogger(context.Background(), l)
	FromContext(ctx).Info("hello", "k", "v")
	if !bytes.Contains(buf.Bytes(), []byte("k=v")) {
		t.Errorf("expected record in scoped logger, got %q", buf.String())
	}
}

func TestSetup_Output(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := Setup(Options{Level: "warn", Format: "text", Output: &buf})

	logger.Info("hidden")
	slog.Warn("shown", "k", "v")

	out := buf.String()
	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Errorf("info record passed a warn level: %q", out)
	}
	if !bytes.Contains(buf.Bytes(), []byte("msg=shown k=v")) {
		t.Errorf("warn record missing from output: %q", out)
	}
}
