package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewLoggerAddsRequestMetadata(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewLogger(&buf, slog.LevelInfo, "json")

	ctx := WithRequestMetadata(context.Background(), "req-123", "/zendesk-webhook")
	log.InfoContext(ctx, "Forwarded Zendesk comment to Discord")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log entry %q: %v", buf.String(), err)
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request_id: %#v", entry["request_id"])
	}
	if entry["route"] != "/zendesk-webhook" {
		t.Fatalf("unexpected route: %#v", entry["route"])
	}
	if _, ok := entry["trace_id"]; ok {
		t.Fatal("expected no trace id without an active span")
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewLogger(&buf, ParseLevel("warning"), "text")
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %q", buf.String())
	}
	log.Warn("shown")
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Fatalf("expected warn entry, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"DEBUG": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"bogus": slog.LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Fatalf("unexpected level for %q: got=%v want=%v", input, got, want)
		}
	}
}

func TestRequestMetadataIgnoresBlankValues(t *testing.T) {
	t.Parallel()

	ctx := WithRequestMetadata(context.Background(), "  ", "")
	if _, ok := RequestIDFromContext(ctx); ok {
		t.Fatal("expected no request id")
	}
	if _, ok := RouteFromContext(ctx); ok {
		t.Fatal("expected no route")
	}
}

func TestStartClientSpanIsSafeWithoutProvider(t *testing.T) {
	t.Parallel()

	ctx, span := StartClientSpan(context.Background(), "discord", "notify")
	if ctx == nil {
		t.Fatal("expected context")
	}
	span.RecordError(nil)
	span.End()
}
