package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestActionLog_AppendsTimestampedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "detection_log.txt")
	l := NewActionLog(path)
	l.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }

	l.Log("Duplicate rows detected: [0, 1]")
	l.Log("second")

	lines, err := l.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	want := []string{
		"[2024-03-09 14:05:07] Duplicate rows detected: [0, 1]",
		"[2024-03-09 14:05:07] second",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %q", len(lines), len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestActionLog_ReadMissingFile(t *testing.T) {
	l := NewActionLog(filepath.Join(t.TempDir(), "never.txt"))

	lines, err := l.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Read() = %q, want empty", lines)
	}
}

func TestActionLog_UnwritablePathDoesNotPanic(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Parent "directory" is a regular file, so MkdirAll fails.
	l := NewActionLog(filepath.Join(blocker, "log.txt"))
	l.Log("ignored")
}

func TestNewStageLogs(t *testing.T) {
	logs := NewStageLogs("data/logs")

	tests := []struct {
		log  *ActionLog
		want string
	}{
		{logs.Detection, filepath.Join("data/logs", DetectionLogFile)},
		{logs.Correction, filepath.Join("data/logs", CorrectionLogFile)},
		{logs.Enrichment, filepath.Join("data/logs", EnrichmentLogFile)},
	}
	for _, tt := range tests {
		if tt.log.Path() != tt.want {
			t.Errorf("Path() = %q, want %q", tt.log.Path(), tt.want)
		}
	}
}

func TestTee(t *testing.T) {
	var a, b Recorder
	Tee(&a, nil, &b).Log("hello")

	for name, r := range map[string]*Recorder{"a": &a, "b": &b} {
		lines := r.Lines()
		if len(lines) != 1 || lines[0] != "hello" {
			t.Errorf("recorder %s = %q, want [hello]", name, lines)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"WARNING", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in).String(); got != tt.want {
			t.Errorf("parseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
