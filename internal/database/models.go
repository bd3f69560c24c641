package db

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type PipelineRun struct {
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
