package db

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/jackc/pgx/v5/pgtype"
)

// HistoryStore is a core.HistoryStore persisted in PostgreSQL.
type HistoryStore struct {
	q *Queries
}

// NewHistoryStore wraps a pool or connection.
func NewHistoryStore(conn DBTX) *HistoryStore {
	return &HistoryStore{q: New(conn)}
}

// Record implements core.HistoryStore. Recording the same run twice
// overwrites its counts.
func (h *HistoryStore) Record(ctx context.Context, s core.RunSummary) error {
	params, err := insertParams(s)
	if err != nil {
		return err
	}
	if err := h.q.InsertPipelineRun(ctx, params); err != nil {
		return fmt.Errorf("insert pipeline run: %w", err)
	}
	return nil
}

// List implements core.HistoryStore.
func (h *HistoryStore) List(ctx context.Context, limit int) ([]core.RunSummary, error) {
	if limit <= 0 || limit > math.MaxInt32 {
		limit = math.MaxInt32
	}
	rows, err := h.q.ListPipelineRuns(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("list pipeline runs: %w", err)
	}

	out := make([]core.RunSummary, len(rows))
	for i, row := range rows {
		out[i] = summaryFromRow(row)
	}
	return out, nil
}

// Purge implements core.HistoryStore.
func (h *HistoryStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	n, err := h.q.PurgePipelineRuns(ctx, pgtype.Timestamptz{Time: before, Valid: true})
	if err != nil {
		return 0, fmt.Errorf("purge pipeline runs: %w", err)
	}
	return n, nil
}

// Reset deletes all recorded runs.
func (h *HistoryStore) Reset(ctx context.Context) error {
	if err := h.q.ResetPipelineRuns(ctx); err != nil {
		return fmt.Errorf("reset pipeline runs: %w", err)
	}
	return nil
}

func insertParams(s core.RunSummary) (InsertPipelineRunParams, error) {
	id := core.ToPgUUID(s.ID)
	if !id.Valid {
		return InsertPipelineRunParams{}, fmt.Errorf("run id %q is not a uuid", s.ID)
	}
	return InsertPipelineRunParams{
		ID:               id,
		FileName:         s.FileName,
		RowsIn:           int32(s.RowsIn),
		RowsOut:          int32(s.RowsOut),
		MissingValues:    int32(s.Issues.Missing),
		InvalidEmails:    int32(s.Issues.InvalidEmails),
		Duplicates:       int32(s.Issues.Duplicates),
		InvalidCountries: int32(s.Issues.InvalidCountries),
		EmailsGenerated:  int32(s.EmailsGenerated),
		DurationMs:       s.Duration.Milliseconds(),
		CreatedAt:        pgtype.Timestamptz{Time: s.CreatedAt, Valid: true},
	}, nil
}

func summaryFromRow(row PipelineRun) core.RunSummary {
	return core.RunSummary{
		ID:       core.PgUUIDToString(row.ID),
		FileName: row.FileName,
		RowsIn:   int(row.RowsIn),
		RowsOut:  int(row.RowsOut),
		Issues: core.IssueCounts{
			Missing:          int(row.MissingValues),
			InvalidEmails:    int(row.InvalidEmails),
			Duplicates:       int(row.Duplicates),
			InvalidCountries: int(row.InvalidCountries),
		},
		EmailsGenerated: int(row.EmailsGenerated),
		Duration:        time.Duration(row.DurationMs) * time.Millisecond,
		CreatedAt:       row.CreatedAt.Time,
	}
}
