package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWithContext_AddsRequestAndUser(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter("info", &buf)

	ctx := WithUserID(WithRequestID(context.Background(), "req-1"), "42")
	WithContext(ctx, base).Info("hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode record: %v (%q)", err, buf.String())
	}
	if rec["request_id"] != "req-1" || rec["user_id"] != "42" || rec["service"] != ServiceName {
		t.Fatalf("record = %v, want request_id, user_id and service fields", rec)
	}
}

func TestNew_CreatesFileAndDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "backoffice.log")
	logger, closeFn, err := New(path, "debug")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("written")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Contains(data, []byte(`"msg":"written"`)) {
		t.Fatalf("log file = %q, want the debug record", data)
	}
}

func TestNew_EmptyPathFails(t *testing.T) {
	if _, _, err := New("  ", "info"); err == nil {
		t.Fatalf("New returned nil error, want error")
	}
}
