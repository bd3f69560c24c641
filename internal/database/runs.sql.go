package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertPipelineRun = `-- name: InsertPipelineRun :exec
INSERT INTO pipeline_runs (
    id, file_name, rows_in, rows_out,
    missing_values, invalid_emails, duplicates, invalid_countries,
    emails_generated, duration_ms, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
    rows_out = EXCLUDED.rows_out,
    missing_values = EXCLUDED.missing_values,
    invalid_emails = EXCLUDED.invalid_emails,
    duplicates = EXCLUDED.duplicates,
    invalid_countries = EXCLUDED.invalid_countries,
    emails_generated = EXCLUDED.emails_generated,
    duration_ms = EXCLUDED.duration_ms
`

type InsertPipelineRunParams struct {
	ID               pgtype.UUID
	FileName         string
	RowsIn           int32
	RowsOut          int32
	MissingValues    int32
	InvalidEmails    int32
	Duplicates       int32
	InvalidCountries int32
	EmailsGenerated  int32
	DurationMs       int64
	CreatedAt        pgtype.Timestamptz
}

func (q *Queries) InsertPipelineRun(ctx context.Context, arg InsertPipelineRunParams) error {
	_, err := q.db.Exec(ctx, insertPipelineRun,
		arg.ID,
		arg.FileName,
		arg.RowsIn,
		arg.RowsOut,
		arg.MissingValues,
		arg.InvalidEmails,
		arg.Duplicates,
		arg.InvalidCountries,
		arg.EmailsGenerated,
		arg.DurationMs,
		arg.CreatedAt,
	)
	return err
}

const listPipelineRuns = `-- name: ListPipelineRuns :many
SELECT id, file_name, rows_in, rows_out,
       missing_values, invalid_emails, duplicates, invalid_countries,
       emails_generated, duration_ms, created_at
FROM pipeline_runs
ORDER BY created_at DESC
LIMIT $1
`

func (q *Queries) ListPipelineRuns(ctx context.Context, limit int32) ([]PipelineRun, error) {
	rows, err := q.db.Query(ctx, listPipelineRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PipelineRun
	for rows.Next() {
		var i PipelineRun
		if err := rows.Scan(
			&i.ID,
			&i.FileName,
			&i.RowsIn,
			&i.RowsOut,
			&i.MissingValues,
			&i.InvalidEmails,
			&i.Duplicates,
			&i.InvalidCountries,
			&i.EmailsGenerated,
			&i.DurationMs,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const purgePipelineRuns = `-- name: PurgePipelineRuns :execrows
DELETE FROM pipeline_runs
WHERE created_at < $1
`

func (q *Queries) PurgePipelineRuns(ctx context.Context, before pgtype.Timestamptz) (int64, error) {
	result, err := q.db.Exec(ctx, purgePipelineRuns, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const resetPipelineRuns = `-- name: ResetPipelineRuns :exec
TRUNCATE TABLE pipeline_runs
`

func (q *Queries) ResetPipelineRuns(ctx context.Context) error {
	_, err := q.db.Exec(ctx, resetPipelineRuns)
	return err
}
