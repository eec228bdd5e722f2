package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "none.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestParse(t *testing.T) {
	line := `{"time":"2024-05-01T10:00:00.5Z","level":"WARN","msg":"appointment list failed","service":"backoffice","status":"agendado","error":"request 500: boom","count":3}`

	rec := Parse(line)

	wantTime := time.Date(2024, 5, 1, 10, 0, 0, 500_000_000, time.UTC)
	if !rec.Time.Equal(wantTime) {
		t.Fatalf("Time = %v, want %v", rec.Time, wantTime)
	}
	if rec.Level != "WARN" || rec.Message != "appointment list failed" {
		t.Fatalf("Level/Message = %q/%q", rec.Level, rec.Message)
	}
	want := []Attr{
		{Key: "count", Value: "3"},
		{Key: "error", Value: `"request 500: boom"`},
		{Key: "status", Value: "agendado"},
	}
	if !reflect.DeepEqual(rec.Attrs, want) {
		t.Fatalf("Attrs = %#v, want %#v", rec.Attrs, want)
	}
	if rec.Raw != "" {
		t.Fatalf("Raw = %q, want empty", rec.Raw)
	}
}

func TestParse_NonJSONKeepsRaw(t *testing.T) {
	rec := Parse("panic: something")
	if rec.Raw != "panic: something" || rec.String() != "panic: something" {
		t.Fatalf("Parse() = %#v, want raw line", rec)
	}
}

func TestRecordString(t *testing.T) {
	rec := Record{
		Level:   "INFO",
		Message: "logged in",
		Attrs:   []Attr{{Key: "user_id", Value: "7"}},
	}
	if got := rec.String(); got != "INFO logged in user_id=7" {
		t.Fatalf("String() = %q", got)
	}
}

func TestReadRecords_SkipsBlankLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "backoffice.log")
	content := `{"level":"INFO","msg":"one"}` + "\n\n" + `{"level":"INFO","msg":"two"}` + "\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	records, err := ReadRecords(logPath, 0)
	if err != nil {
		t.Fatalf("ReadRecords() error = %v", err)
	}
	if len(records) != 2 || records[0].Message != "one" || records[1].Message != "two" {
		t.Fatalf("ReadRecords() = %#v", records)
	}
}
