package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cleanse/internal/core"
)

const customersCSV = "name,email,country,age\n" +
	"Jane Doe,bad,USA,40\n" +
	"Jane Doe,bad,USA,40\n" +
	"Bob,bob@example.com,Frances,\n"

// setupEnv points the pipeline settings at temporary files.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	t.Setenv("PIPELINE_COUNTRIES_FILE", write("countries.txt", "United States\nFrance\nGermany\n"))
	t.Setenv("PIPELINE_ALIASES_FILE", write("aliases.yaml", "USA: United States\n"))
	t.Setenv("PIPELINE_LOG_DIR", filepath.Join(dir, "logs"))
	t.Setenv("PIPELINE_OUTPUT_DIR", filepath.Join(dir, "out"))
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")
	write("customers.csv", customersCSV)
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	dir := setupEnv(t)
	input := filepath.Join(dir, "customers.csv")

	out, err := execute(t, "run", "--input", input)
	if err != nil {
		t.Fatalf("run error = %v\n%s", err, out)
	}
	if !strings.Contains(out, "Pipeline completed") {
		t.Errorf("output = %q", out)
	}

	saved := filepath.Join(dir, "out", "customers_cleaned.csv")
	rs, err := core.ReadCSVFile(saved)
	if err != nil {
		t.Fatalf("ReadCSVFile(%s) error = %v", saved, err)
	}
	if rs.Len() != 2 {
		t.Errorf("saved rows = %d, want 2", rs.Len())
	}

	if _, err := os.Stat(filepath.Join(dir, "logs", "correction_log.txt")); err != nil {
		t.Errorf("correction log not written: %v", err)
	}
}

type failingHistory struct{}

func (failingHistory) Record(context.Context, core.RunSummary) error {
	return errors.New("history unavailable")
}

func (failingHistory) List(context.Context, int) ([]core.RunSummary, error) { return nil, nil }

func (failingHistory) Purge(context.Context, time.Time) (int64, error) { return 0, nil }

func TestRecordHistory_FailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	result := &core.RunResult{ID: "run-1", Input: &core.RecordSet{}, Enriched: &core.RecordSet{}}
	recordHistory(context.Background(), failingHistory{}, "customers.csv", result)

	if !strings.Contains(buf.String(), "record run history failed") || !strings.Contains(buf.String(), "run-1") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestRunCommand_BadFormat(t *testing.T) {
	dir := setupEnv(t)
	_, err := execute(t, "run", "--input", filepath.Join(dir, "customers.csv"), "--format", "parquet")
	runFormat = "csv"
	if err == nil || !strings.Contains(err.Error(), "parquet") {
		t.Errorf("error = %v, want unsupported format", err)
	}
}

func TestMatchCommand(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "match", "Frances", "usa", "Atlantis")
	if err != nil {
		t.Fatalf("match error = %v", err)
	}
	for _, want := range []string{"France", "United States", core.UnknownCountry} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestWriteReport(t *testing.T) {
	report := core.IssueReport{
		MissingData:   []core.MissingColumn{{Column: core.ColAge, Rows: []int{2}}},
		InvalidEmails: []int{0, 1},
		Duplicates:    []int{0, 1},
	}

	tests := []struct {
		format string
		want   string
	}{
		{"json", `"invalid_emails": [`},
		{"yaml", "missing_data:\n  - column: age"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cmd := &cobra.Command{}
			var out bytes.Buffer
			cmd.SetOut(&out)
			if err := writeReport(cmd, report, tt.format); err != nil {
				t.Fatalf("writeReport() error = %v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}

	if err := writeReport(&cobra.Command{}, report, "xml"); err == nil {
		t.Error("writeReport(xml) succeeded")
	}
}
