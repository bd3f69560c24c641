package db

import (
	"testing"
	"time"

	"github.com/JonMunkholm/cleanse/internal/core"
)

func TestInsertParamsRoundTrip(t *testing.T) {
	created := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	s := core.RunSummary{
		ID:              "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		FileName:        "customers.csv",
		RowsIn:          120,
		RowsOut:         117,
		Issues:          core.IssueCounts{Missing: 9, InvalidEmails: 4, Duplicates: 6, InvalidCountries: 2},
		EmailsGenerated: 5,
		Duration:        1500 * time.Millisecond,
		CreatedAt:       created,
	}

	params, err := insertParams(s)
	if err != nil {
		t.Fatalf("insertParams() error = %v", err)
	}
	if params.DurationMs != 1500 || params.MissingValues != 9 || !params.CreatedAt.Valid {
		t.Errorf("params = %+v", params)
	}

	back := summaryFromRow(PipelineRun(params))
	if back != s {
		t.Errorf("summaryFromRow() = %+v, want %+v", back, s)
	}
}

func TestInsertParams_RejectsBadID(t *testing.T) {
	if _, err := insertParams(core.RunSummary{ID: "not-a-uuid"}); err == nil {
		t.Error("insertParams() accepted a non-uuid run id")
	}
}

func TestSchemaEmbedded(t *testing.T) {
	if schemaSQL == "" {
		t.Fatal("schema.sql not embedded")
	}
}
