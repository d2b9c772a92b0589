package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "text", slog.LevelInfo).Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=v") {
		t.Errorf("unexpected text output: %q", buf.String())
	}

	buf.Reset()
	NewLogger(&buf, "", slog.LevelInfo).Info("hello")
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("default format should be json: %v", err)
	}

	buf.Reset()
	NewLogger(&buf, "json", slog.LevelWarn).Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("records below the level should be dropped, got %q", buf.String())
	}
}

func TestWithWorker(t *testing.T) {
	var buf bytes.Buffer
	logger := WithWorker(WithRequestID(NewLogger(&buf, "json", slog.LevelInfo), "req-1"), "print", 2)
	logger.Info("x")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record["request_id"] != "req-1" || record["worker_type"] != "print" || record["worker_index"] != 2.0 {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger for empty context")
	}

	logger := NewLogger(&bytes.Buffer{}, "json", slog.LevelInfo)
	if FromContext(WithLogger(context.Background(), logger)) != logger {
		t.Error("expected logger from context")
	}
}
