package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"log/slog"
)

func TestLineHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newLineHandler(lineHandlerConfig{
		level:  slog.LevelInfo,
		out:    buf,
		format: formatKV,
	})
	ctx := WithRID(nil, "7:9:42")
	ctx = WithUpdateMeta(ctx, 7, 42, 9)

	log := slog.New(handler).With("component", "tg")
	log.LogAttrs(ctx, slog.LevelInfo, "",
		slog.String("event", "handler.handled"),
		slog.String("status", "ok"),
	)

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log line")
	}
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=tg", "event=handler.handled", "status=ok", "rid=7:9:42"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestLineHandlerJSONFields(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newLineHandler(lineHandlerConfig{
		level:  slog.LevelInfo,
		out:    buf,
		format: formatJSON,
	})

	log := slog.New(handler)
	log.LogAttrs(context.Background(), slog.LevelWarn, "fallback.message",
		slog.Int64("user_id", 42),
		slog.Duration("duration", 0),
	)

	var fields map[string]any
	if err := json.Unmarshal(buf.Bytes(), &fields); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, buf.String())
	}
	if fields["event"] != "fallback.message" {
		t.Fatalf("event = %v", fields["event"])
	}
	if fields["component"] != "app" {
		t.Fatalf("component = %v", fields["component"])
	}
	if fields["level"] != "WARN" {
		t.Fatalf("level = %v", fields["level"])
	}
	if fields["user_id"] != float64(42) {
		t.Fatalf("user_id = %v", fields["user_id"])
	}
	if _, ok := fields["duration_ms"]; !ok {
		t.Fatal("expected duration_ms field")
	}
}

func TestLineHandlerLevelGate(t *testing.T) {
	buf := &bytes.Buffer{}
	handler := newLineHandler(lineHandlerConfig{
		level:  slog.LevelInfo,
		out:    buf,
		format: formatKV,
	})
	log := slog.New(handler)
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug record leaked: %s", buf.String())
	}
}

func TestSanitizeLimit(t *testing.T) {
	in := "pass\x00word\x1b[31m"
	got := SanitizeLimit(in, 6)
	if got != "passwo" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if SanitizeLimit("abc", 0) != "" {
		t.Fatal("expected empty string for zero limit")
	}
}
