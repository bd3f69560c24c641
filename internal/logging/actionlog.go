package logging

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// actionTimeLayout renders the bracketed timestamp prefix of each line.
const actionTimeLayout = "2006-01-02 15:04:05"

// Stage log file names inside the log directory.
const (
	DetectionLogFile  = "detection_log.txt"
	CorrectionLogFile = "correction_log.txt"
	EnrichmentLogFile = "enrichment_log.txt"
)

// ActionLog appends timestamped lines to a text file.
//
// The file is opened, written and closed on every call. Failures are reported
// through slog and never returned: a broken log path must not stop a run.
type ActionLog struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewActionLog returns a log writing to path. Parent directories are created
// on first write.
func NewActionLog(path string) *ActionLog {
	return &ActionLog{path: path, now: time.Now}
}

// Path returns the file the log appends to.
func (l *ActionLog) Path() string {
	return l.path
}

// Log appends "[YYYY-MM-DD HH:MM:SS] msg" as one line.
func (l *ActionLog) Log(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("[%s] %s\n", l.now().Format(actionTimeLayout), msg)

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		slog.Warn("action log unavailable", "path", l.path, "error", err)
		return
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		slog.Warn("action log unavailable", "path", l.path, "error", err)
		return
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		slog.Warn("action log write failed", "path", l.path, "error", err)
	}
}

// Read returns every line written so far. A log that was never written is empty.
func (l *ActionLog) Read() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// StageLogs groups the three per-stage action logs.
type StageLogs struct {
	Detection  *ActionLog
	Correction *ActionLog
	Enrichment *ActionLog
}

// NewStageLogs places the stage logs under dir.
func NewStageLogs(dir string) StageLogs {
	return StageLogs{
		Detection:  NewActionLog(filepath.Join(dir, DetectionLogFile)),
		Correction: NewActionLog(filepath.Join(dir, CorrectionLogFile)),
		Enrichment: NewActionLog(filepath.Join(dir, EnrichmentLogFile)),
	}
}

// Recorder keeps action log lines in memory. Each run in the web UI owns one
// per stage so its tab can show only that run's findings.
type Recorder struct {
	mu    sync.Mutex
	lines []string
}

// Log records msg.
func (r *Recorder) Log(msg string) {
	r.mu.Lock()
	r.lines = append(r.lines, msg)
	r.mu.Unlock()
}

// Lines returns a copy of everything recorded.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Logger is anything that accepts action log lines.
type Logger interface {
	Log(msg string)
}

// Tee fans a line out to several loggers.
func Tee(loggers ...Logger) Logger {
	return tee(loggers)
}

type tee []Logger

func (t tee) Log(msg string) {
	for _, l := range t {
		if l != nil {
			l.Log(msg)
		}
	}
}
