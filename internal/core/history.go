package core

import (
	"context"
	"slices"
	"sync"
	"time"
)

// RunSummary is the persisted record of a completed run.
type RunSummary struct {
	ID              string        `json:"id"`
	FileName        string        `json:"file_name"`
	RowsIn          int           `json:"rows_in"`
	RowsOut         int           `json:"rows_out"`
	Issues          IssueCounts   `json:"issues"`
	EmailsGenerated int           `json:"emails_generated"`
	Duration        time.Duration `json:"duration_ns"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Summarize condenses a finished run.
func Summarize(fileName string, r *RunResult) RunSummary {
	s := RunSummary{
		ID:              r.ID,
		FileName:        fileName,
		Issues:          r.Report.Counts(),
		EmailsGenerated: r.EmailsGenerated(),
		Duration:        r.Duration,
		CreatedAt:       r.StartedAt,
	}
	if r.Input != nil {
		s.RowsIn = r.Input.Len()
	}
	if r.Enriched != nil {
		s.RowsOut = r.Enriched.Len()
	}
	return s
}

// HistoryStore records completed runs.
type HistoryStore interface {
	Record(ctx context.Context, s RunSummary) error
	List(ctx context.Context, limit int) ([]RunSummary, error)
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// MemoryHistory is a HistoryStore kept in process memory, used when no
// database is configured.
type MemoryHistory struct {
	mu   sync.RWMutex
	runs []RunSummary
}

// NewMemoryHistory returns an empty store.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

// Record implements HistoryStore.
func (h *MemoryHistory) Record(_ context.Context, s RunSummary) error {
	h.mu.Lock()
	h.runs = append(h.runs, s)
	h.mu.Unlock()
	return nil
}

// List returns the newest runs first, at most limit of them (all if limit <= 0).
func (h *MemoryHistory) List(_ context.Context, limit int) ([]RunSummary, error) {
	h.mu.RLock()
	out := slices.Clone(h.runs)
	h.mu.RUnlock()

	slices.SortStableFunc(out, func(a, b RunSummary) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Purge drops runs created before the cutoff.
func (h *MemoryHistory) Purge(_ context.Context, before time.Time) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	kept := h.runs[:0]
	for _, r := range h.runs {
		if !r.CreatedAt.Before(before) {
			kept = append(kept, r)
		}
	}
	purged := int64(len(h.runs) - len(kept))
	clear(h.runs[len(kept):])
	h.runs = kept
	return purged, nil
}
