package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JonMunkholm/cleanse/internal/logging"
	"github.com/google/uuid"
)

// Stage names a pipeline step.
type Stage string

const (
	StageDetection  Stage = "detection"
	StageCorrection Stage = "correction"
	StageEnrichment Stage = "enrichment"
)

// StageLoggers receives each stage's action log lines. Nil fields discard.
type StageLoggers struct {
	Detection  logging.Logger
	Correction logging.Logger
	Enrichment logging.Logger
}

// FileLoggers adapts the on-disk stage logs.
func FileLoggers(logs logging.StageLogs) StageLoggers {
	return StageLoggers{
		Detection:  logs.Detection,
		Correction: logs.Correction,
		Enrichment: logs.Enrichment,
	}
}

// PipelineOptions tunes Correction and Enrichment.
type PipelineOptions struct {
	// Threshold is the minimum country match score. Zero selects DefaultMatchThreshold.
	Threshold int

	// EmailDomain is used for synthesized addresses. Empty selects DefaultEmailDomain.
	EmailDomain string

	// Suggester is consulted before local synthesis when set.
	Suggester EmailSuggester
}

// Pipeline holds the reference data shared by every run and builds the three
// stages on demand.
type Pipeline struct {
	countries *CountryReference
	aliases   CountryAliases
	opts      PipelineOptions
}

// NewPipeline returns a pipeline matching countries against ref.
func NewPipeline(ref *CountryReference, aliases CountryAliases, opts PipelineOptions) (*Pipeline, error) {
	if ref == nil || ref.Len() == 0 {
		return nil, fmt.Errorf("pipeline: %w", ErrReferenceFile)
	}
	if opts.Threshold == 0 {
		opts.Threshold = DefaultMatchThreshold
	}
	if opts.EmailDomain == "" {
		opts.EmailDomain = DefaultEmailDomain
	}
	return &Pipeline{countries: ref, aliases: aliases, opts: opts}, nil
}

// LoadPipeline reads the country reference and optional alias file, then
// builds a pipeline. A missing reference file is fatal.
func LoadPipeline(countriesFile, aliasesFile string, opts PipelineOptions) (*Pipeline, error) {
	ref, err := LoadCountryReference(countriesFile)
	if err != nil {
		return nil, err
	}

	var aliases CountryAliases
	if aliasesFile != "" {
		aliases, err = LoadCountryAliases(aliasesFile, ref)
		if err != nil {
			return nil, err
		}
	}

	slog.Debug("country reference loaded", "countries", ref.Len(), "aliases", len(aliases))
	return NewPipeline(ref, aliases, opts)
}

// Countries returns the canonical reference.
func (p *Pipeline) Countries() *CountryReference {
	return p.countries
}

// Threshold returns the country match threshold in effect.
func (p *Pipeline) Threshold() int {
	return p.opts.Threshold
}

// Detector returns a detection stage logging to log.
func (p *Pipeline) Detector(log logging.Logger) *Detector {
	return NewDetector(p.countries, log)
}

// Corrector returns a correction stage logging to log.
func (p *Pipeline) Corrector(log logging.Logger) *Corrector {
	// NewCorrector only fails on an empty reference, which NewPipeline rejects.
	c, _ := NewCorrector(p.countries, p.aliases, p.opts.Threshold, log)
	return c
}

// Enricher returns an enrichment stage logging to log.
func (p *Pipeline) Enricher(log logging.Logger) *Enricher {
	return NewEnricher(p.opts.EmailDomain, p.opts.Suggester, log)
}

// RunResult holds every intermediate of one pipeline run.
type RunResult struct {
	ID        string
	Input     *RecordSet
	Report    IssueReport
	Corrected *RecordSet
	Enriched  *RecordSet
	StartedAt time.Time
	Duration  time.Duration
}

// EmailsGenerated counts rows whose email was synthesized.
func (r *RunResult) EmailsGenerated() int {
	if r.Enriched == nil {
		return 0
	}
	n := 0
	for _, row := range r.Enriched.Rows {
		if row.String(ColEmailStatus) == string(EmailStatusGenerated) {
			n++
		}
	}
	return n
}

// Run executes Detection, Correction and Enrichment in order on rs.
// rs is not modified.
func (p *Pipeline) Run(ctx context.Context, rs *RecordSet, logs StageLoggers) (*RunResult, error) {
	result := &RunResult{
		ID:        uuid.New().String(),
		Input:     rs,
		StartedAt: time.Now(),
	}
	logger := slog.With("run_id", result.ID)

	report, err := p.Detector(logs.Detection).Detect(rs)
	if err != nil {
		return nil, fmt.Errorf("detection: %w", err)
	}
	result.Report = report

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	corrected, err := p.Corrector(logs.Correction).Correct(rs, report)
	if err != nil {
		return nil, fmt.Errorf("correction: %w", err)
	}
	result.Corrected = corrected

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enriched, err := p.Enricher(logs.Enrichment).Enrich(ctx, corrected)
	if err != nil {
		return nil, fmt.Errorf("enrichment: %w", err)
	}
	result.Enriched = enriched
	result.Duration = time.Since(result.StartedAt)

	logger.Info("pipeline completed",
		"rows_in", rs.Len(),
		"rows_out", enriched.Len(),
		"issues", report.Counts().Total(),
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}
