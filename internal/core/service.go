package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/cleanse/internal/logging"
	"github.com/google/uuid"
)

var (
	// ErrRunNotFound is returned for unknown or evicted run IDs.
	ErrRunNotFound = errors.New("run not found")

	// ErrStageOrder is returned when a stage's input is not ready yet.
	ErrStageOrder = errors.New("stage out of order")
)

// DefaultStageTimeout bounds a single stage invocation.
const DefaultStageTimeout = 5 * time.Minute

// Run is the state of one dataset moving through the stages in the web UI.
// Record sets held by a Run are never modified after they are stored.
type Run struct {
	ID        string
	FileName  string
	CreatedAt time.Time
	UpdatedAt time.Time

	Input     *RecordSet
	Report    *IssueReport
	Corrected *RecordSet
	Enriched  *RecordSet

	logs map[Stage]*logging.Recorder
}

// Completed reports whether every stage has run.
func (r Run) Completed() bool {
	return r.Enriched != nil
}

// Next returns the stage that can run now, or "" when finished.
func (r Run) Next() Stage {
	switch {
	case r.Report == nil:
		return StageDetection
	case r.Corrected == nil:
		return StageCorrection
	case r.Enriched == nil:
		return StageEnrichment
	default:
		return ""
	}
}

// Latest returns the most processed record set available.
func (r Run) Latest() *RecordSet {
	switch {
	case r.Enriched != nil:
		return r.Enriched
	case r.Corrected != nil:
		return r.Corrected
	default:
		return r.Input
	}
}

// Logs returns the action log lines this run produced for stage.
func (r Run) Logs(stage Stage) []string {
	if rec := r.logs[stage]; rec != nil {
		return rec.Lines()
	}
	return nil
}

// ServiceOptions configures a Service. Zero values select defaults.
type ServiceOptions struct {
	// StageTimeout bounds each stage invocation.
	StageTimeout time.Duration

	// FileLogs, when set, also receive every run's action log lines.
	FileLogs *logging.StageLogs
}

// Service keeps in-flight runs for the web UI and executes their stages one
// at a time, in order.
type Service struct {
	pipeline *Pipeline
	history  HistoryStore
	limiter  *RunLimiter
	opts     ServiceOptions

	mu   sync.RWMutex
	runs map[string]*Run
}

// NewService creates a Service. history and limiter may be nil.
func NewService(p *Pipeline, history HistoryStore, limiter *RunLimiter, opts ServiceOptions) *Service {
	if history == nil {
		history = NewMemoryHistory()
	}
	if limiter == nil {
		limiter = NewRunLimiter(DefaultMaxConcurrentRuns, DefaultMaxWaitTime)
	}
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = DefaultStageTimeout
	}
	return &Service{
		pipeline: p,
		history:  history,
		limiter:  limiter,
		opts:     opts,
		runs:     make(map[string]*Run),
	}
}

// Pipeline returns the pipeline runs are executed with.
func (s *Service) Pipeline() *Pipeline {
	return s.pipeline
}

// Limiter returns the limiter bounding stage execution.
func (s *Service) Limiter() *RunLimiter {
	return s.limiter
}

// CreateRun registers a loaded dataset and returns its run.
func (s *Service) CreateRun(fileName string, rs *RecordSet) (Run, error) {
	if err := rs.CheckRequired(); err != nil {
		return Run{}, err
	}

	now := time.Now()
	run := &Run{
		ID:        uuid.New().String(),
		FileName:  fileName,
		CreatedAt: now,
		UpdatedAt: now,
		Input:     rs,
		logs:      newRunLogs(),
	}

	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()

	slog.Info("run created", "run_id", run.ID, "file", fileName, "rows", rs.Len())
	return *run, nil
}

func newRunLogs() map[Stage]*logging.Recorder {
	return map[Stage]*logging.Recorder{
		StageDetection:  {},
		StageCorrection: {},
		StageEnrichment: {},
	}
}

// Get returns a snapshot of the run.
func (s *Service) Get(id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return Run{}, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	return *run, nil
}

// List returns snapshots of all in-flight runs, newest first.
func (s *Service) List() []Run {
	s.mu.RLock()
	out := make([]Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, *r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Delete forgets a run.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	delete(s.runs, id)
	return nil
}

// Detect runs Detection on the run's input. Re-running it discards the
// results of later stages.
func (s *Service) Detect(ctx context.Context, id string) (Run, error) {
	return s.runStage(ctx, id, StageDetection, func(ctx context.Context, run Run, log logging.Logger) (func(*Run), error) {
		report, err := s.pipeline.Detector(log).Detect(run.Input)
		if err != nil {
			return nil, err
		}
		return func(r *Run) {
			r.Report = &report
			r.Corrected = nil
			r.Enriched = nil
		}, nil
	})
}

// Correct runs Correction using the run's issue report.
func (s *Service) Correct(ctx context.Context, id string) (Run, error) {
	return s.runStage(ctx, id, StageCorrection, func(ctx context.Context, run Run, log logging.Logger) (func(*Run), error) {
		if run.Report == nil {
			return nil, fmt.Errorf("correction needs detection: %w", ErrStageOrder)
		}
		corrected, err := s.pipeline.Corrector(log).Correct(run.Input, *run.Report)
		if err != nil {
			return nil, err
		}
		return func(r *Run) {
			r.Corrected = corrected
			r.Enriched = nil
		}, nil
	})
}

// Enrich runs Enrichment on the corrected set and records the finished run
// in history.
func (s *Service) Enrich(ctx context.Context, id string) (Run, error) {
	run, err := s.runStage(ctx, id, StageEnrichment, func(ctx context.Context, run Run, log logging.Logger) (func(*Run), error) {
		if run.Corrected == nil {
			return nil, fmt.Errorf("enrichment needs correction: %w", ErrStageOrder)
		}
		enriched, err := s.pipeline.Enricher(log).Enrich(ctx, run.Corrected)
		if err != nil {
			return nil, err
		}
		return func(r *Run) {
			r.Enriched = enriched
		}, nil
	})
	if err != nil {
		return Run{}, err
	}

	summary := Summarize(run.FileName, &RunResult{
		ID:        run.ID,
		Input:     run.Input,
		Report:    *run.Report,
		Corrected: run.Corrected,
		Enriched:  run.Enriched,
		StartedAt: run.CreatedAt,
		Duration:  run.UpdatedAt.Sub(run.CreatedAt),
	})
	if err := s.history.Record(ctx, summary); err != nil {
		// The run itself succeeded; history is best effort.
		slog.Warn("record run history failed", "run_id", run.ID, "error", err)
	}
	return run, nil
}

// RunAll executes every remaining stage in order.
func (s *Service) RunAll(ctx context.Context, id string) (Run, error) {
	run, err := s.Get(id)
	if err != nil {
		return Run{}, err
	}
	for {
		switch run.Next() {
		case StageDetection:
			run, err = s.Detect(ctx, id)
		case StageCorrection:
			run, err = s.Correct(ctx, id)
		case StageEnrichment:
			run, err = s.Enrich(ctx, id)
		default:
			return run, nil
		}
		if err != nil {
			return Run{}, err
		}
	}
}

type stageFunc func(ctx context.Context, run Run, log logging.Logger) (func(*Run), error)

// runStage executes fn on a snapshot of the run while holding a limiter slot,
// then applies its result under the lock.
func (s *Service) runStage(ctx context.Context, id string, stage Stage, fn stageFunc) (Run, error) {
	run, err := s.Get(id)
	if err != nil {
		return Run{}, err
	}

	logger := logging.WithFields(ctx, "run_id", id, "stage", string(stage))
	start := time.Now()

	var apply func(*Run)
	err = s.limiter.Do(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.opts.StageTimeout)
		defer cancel()

		var err error
		apply, err = fn(ctx, run, s.stageLog(run, stage))
		if err != nil {
			return err
		}
		return ctx.Err()
	})
	if err != nil {
		logger.Warn("stage failed", "error", err)
		return Run{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.runs[id]
	if !ok {
		return Run{}, fmt.Errorf("%s: %w", id, ErrRunNotFound)
	}
	// An earlier stage re-ran while this one executed; its result is stale.
	if current.Input != run.Input || current.Report != run.Report || current.Corrected != run.Corrected {
		logger.Warn("stage result discarded, run changed underneath it")
		return Run{}, fmt.Errorf("%s changed during %s: %w", id, stage, ErrStageOrder)
	}
	apply(current)
	current.UpdatedAt = time.Now()

	logger.Info("stage completed", "duration_ms", time.Since(start).Milliseconds())
	return *current, nil
}

// stageLog returns the logger for one stage of run: its own recorder plus the
// shared file log when configured.
func (s *Service) stageLog(run Run, stage Stage) logging.Logger {
	rec := run.logs[stage]
	if s.opts.FileLogs == nil {
		return rec
	}
	var file *logging.ActionLog
	switch stage {
	case StageDetection:
		file = s.opts.FileLogs.Detection
	case StageCorrection:
		file = s.opts.FileLogs.Correction
	case StageEnrichment:
		file = s.opts.FileLogs.Enrichment
	}
	if file == nil {
		return rec
	}
	return logging.Tee(rec, file)
}

// History lists recorded runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]RunSummary, error) {
	return s.history.List(ctx, limit)
}

// EvictIdle drops runs not touched since cutoff and returns how many went.
func (s *Service) EvictIdle(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, r := range s.runs {
		if r.UpdatedAt.Before(cutoff) {
			delete(s.runs, id)
			evicted++
		}
	}
	return evicted
}

// ActiveRuns returns how many runs are held in memory.
func (s *Service) ActiveRuns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
