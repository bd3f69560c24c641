package core

import (
	"context"
	"testing"
	"time"
)

func TestMemoryHistory(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"a.csv", "b.csv", "c.csv"} {
		s := RunSummary{ID: name, FileName: name, CreatedAt: base.AddDate(0, 0, i)}
		if err := h.Record(ctx, s); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	all, err := h.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 || all[0].FileName != "c.csv" || all[2].FileName != "a.csv" {
		t.Errorf("List(0) = %+v, want newest first", all)
	}

	two, _ := h.List(ctx, 2)
	if len(two) != 2 || two[0].FileName != "c.csv" {
		t.Errorf("List(2) = %+v", two)
	}

	purged, err := h.Purge(ctx, base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if purged != 1 {
		t.Errorf("Purge() = %d, want 1", purged)
	}
	left, _ := h.List(ctx, 0)
	if len(left) != 2 || left[1].FileName != "b.csv" {
		t.Errorf("after Purge List() = %+v", left)
	}
}

func TestSummarize(t *testing.T) {
	result, err := testPipeline(t).Run(context.Background(), customers(
		[]string{"Jane Doe", "bad", "France", "40"},
		[]string{"Bob", "bob@example.com", "France", "40"},
		[]string{"Bob", "bob@example.com", "France", ""},
	), StageLoggers{})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	s := Summarize("people.csv", result)
	if s.ID != result.ID || s.FileName != "people.csv" {
		t.Errorf("identity = %q %q", s.ID, s.FileName)
	}
	if s.RowsIn != 3 || s.RowsOut != 2 {
		t.Errorf("rows = %d -> %d, want 3 -> 2", s.RowsIn, s.RowsOut)
	}
	if s.EmailsGenerated != 1 {
		t.Errorf("EmailsGenerated = %d, want 1", s.EmailsGenerated)
	}
	want := IssueCounts{Missing: 1, InvalidEmails: 1, Duplicates: 2}
	if s.Issues != want {
		t.Errorf("Issues = %+v, want %+v", s.Issues, want)
	}
}
