package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/cleanse/internal/logging"
)

func TestPipeline_EndToEnd(t *testing.T) {
	rs := customers(
		[]string{"Jane Doe", "bad", "Usa", "40"},
		[]string{"Jane Doe", "bad", "Usa", "40"},
	)

	det, cor, enr := &logging.Recorder{}, &logging.Recorder{}, &logging.Recorder{}
	result, err := testPipeline(t).Run(context.Background(), rs, StageLoggers{
		Detection:  det,
		Correction: cor,
		Enrichment: enr,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	out := result.Enriched
	if out.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", out.Len())
	}
	assertColumn(t, out, ColEmail, "jane.doe@example.com")
	assertColumn(t, out, ColEmailStatus, "generated")
	assertColumn(t, out, ColCountry, "United States")
	assertColumn(t, out, ColSegment, "adult")

	if result.EmailsGenerated() != 1 {
		t.Errorf("EmailsGenerated() = %d, want 1", result.EmailsGenerated())
	}
	if result.ID == "" {
		t.Error("run ID not set")
	}
	if got := result.Report.Counts(); got.Duplicates != 2 || got.InvalidEmails != 2 || got.InvalidCountries != 2 {
		t.Errorf("Counts() = %+v", got)
	}

	assertLines(t, det,
		"Invalid emails detected at rows: [0, 1]",
		"Duplicate rows detected: [0, 1]",
		"Non-standard countries detected at rows: [0, 1]",
	)
	assertLines(t, cor,
		"Marked 2 invalid emails for enrichment",
		"Removed 1 duplicate rows",
		"Standardized country names",
	)
	assertLines(t, enr,
		"Generated email for row 0: jane.doe@example.com",
		"Added customer segmentation",
		"Data enrichment completed",
	)

	// Intermediates stay untouched.
	if rs.Len() != 2 || result.Corrected.Len() != 1 {
		t.Errorf("input Len() = %d, corrected Len() = %d", rs.Len(), result.Corrected.Len())
	}
	if result.Corrected.HasColumn(ColSegment) {
		t.Error("corrected set carries the segment column")
	}
}

func TestPipeline_RunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testPipeline(t).Run(ctx, customers([]string{"A", "a@example.com", "France", "30"}), StageLoggers{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestPipeline_MissingColumn(t *testing.T) {
	rs := NewRecordSet([]string{"name", "email"}, [][]string{{"a", "a@example.com"}})

	_, err := testPipeline(t).Run(context.Background(), rs, StageLoggers{})
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("Run() error = %v, want ErrMissingColumn", err)
	}
}

func TestPipeline_Options(t *testing.T) {
	p, err := NewPipeline(testReference(), nil, PipelineOptions{Threshold: 95, EmailDomain: "corp.io"})
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	if p.Threshold() != 95 {
		t.Errorf("Threshold() = %d, want 95", p.Threshold())
	}

	rs := withStatus(customers([]string{"Jane Doe", "bad", "Germny", "40"}), "invalid")
	if got := p.Corrector(nil).StandardizeCountry("Germny"); got != UnknownCountry {
		t.Errorf("StandardizeCountry(Germny) at 95 = %q, want %q", got, UnknownCountry)
	}
	out, err := p.Enricher(nil).Enrich(context.Background(), rs)
	if err != nil {
		t.Fatalf("Enrich() error = %v", err)
	}
	assertColumn(t, out, ColEmail, "jane.doe@corp.io")

	if _, err := NewPipeline(nil, nil, PipelineOptions{}); !errors.Is(err, ErrReferenceFile) {
		t.Errorf("NewPipeline(nil) error = %v, want ErrReferenceFile", err)
	}
}

func TestLoadPipeline(t *testing.T) {
	dir := t.TempDir()
	countries := filepath.Join(dir, "valid_countries.txt")
	aliases := filepath.Join(dir, "country_aliases.yaml")

	if err := os.WriteFile(countries, []byte("United States\nFrance\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(aliases, []byte("USA: United States\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPipeline(countries, aliases, PipelineOptions{})
	if err != nil {
		t.Fatalf("LoadPipeline() error = %v", err)
	}
	if p.Countries().Len() != 2 {
		t.Errorf("Countries().Len() = %d, want 2", p.Countries().Len())
	}
	if got := p.Corrector(nil).StandardizeCountry("usa"); got != "United States" {
		t.Errorf("StandardizeCountry(usa) = %q", got)
	}

	_, err = LoadPipeline(filepath.Join(dir, "missing.txt"), "", PipelineOptions{})
	if !errors.Is(err, ErrReferenceFile) {
		t.Errorf("missing reference error = %v, want ErrReferenceFile", err)
	}

	if err := os.WriteFile(aliases, []byte("Atlantis: Lost City\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = LoadPipeline(countries, aliases, PipelineOptions{})
	if err == nil || !strings.Contains(err.Error(), "Lost City") {
		t.Errorf("bad alias target error = %v", err)
	}
}

func TestPipeline_WritesStageLogFiles(t *testing.T) {
	logs := logging.NewStageLogs(t.TempDir())
	rs := customers([]string{"Jane Doe", "", "France", "40"})

	if _, err := testPipeline(t).Run(context.Background(), rs, FileLoggers(logs)); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines, err := logs.Detection.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(lines) != 1 || !strings.HasSuffix(lines[0], "Missing data detected in column 'email' at rows: [0]") {
		t.Errorf("detection log = %q", lines)
	}

	lines, _ = logs.Enrichment.Read()
	if len(lines) == 0 || !strings.HasSuffix(lines[len(lines)-1], "Data enrichment completed") {
		t.Errorf("enrichment log = %q", lines)
	}
}
