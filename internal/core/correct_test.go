package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/JonMunkholm/cleanse/internal/logging"
)

func newTestCorrector(t *testing.T, log logging.Logger) *Corrector {
	t.Helper()
	c, err := NewCorrector(testReference(), testAliases(t), DefaultMatchThreshold, log)
	if err != nil {
		t.Fatalf("NewCorrector() error = %v", err)
	}
	return c
}

func detectAndCorrect(t *testing.T, c *Corrector, rs *RecordSet) *RecordSet {
	t.Helper()
	report, err := NewDetector(nil, nil).Detect(rs)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	out, err := c.Correct(rs, report)
	if err != nil {
		t.Fatalf("Correct() error = %v", err)
	}
	return out
}

func TestNewCorrector_RequiresReference(t *testing.T) {
	if _, err := NewCorrector(nil, nil, 80, nil); !errors.Is(err, ErrReferenceFile) {
		t.Errorf("nil reference error = %v, want ErrReferenceFile", err)
	}
	if _, err := NewCorrector(NewCountryReference(nil), nil, 80, nil); !errors.Is(err, ErrReferenceFile) {
		t.Errorf("empty reference error = %v, want ErrReferenceFile", err)
	}
}

func TestCorrector_MedianAge(t *testing.T) {
	rs := customers(
		[]string{"A", "a@example.com", "France", "20"},
		[]string{"B", "b@example.com", "France", "30"},
		[]string{"C", "c@example.com", "France", ""},
	)

	rec := &logging.Recorder{}
	out := detectAndCorrect(t, newTestCorrector(t, rec), rs)

	assertColumn(t, out, ColAge, "20", "30", "25")
	if rec.Lines()[0] != "Filled missing age at rows [2]" {
		t.Errorf("first log line = %q", rec.Lines()[0])
	}
}

func TestCorrector_MedianOddCount(t *testing.T) {
	rs := customers(
		[]string{"A", "a@example.com", "France", "50"},
		[]string{"B", "b@example.com", "France", ""},
		[]string{"C", "c@example.com", "France", "18"},
		[]string{"D", "d@example.com", "France", "33.5"},
		[]string{"E", "e@example.com", "France", "n/a"},
	)

	out := detectAndCorrect(t, newTestCorrector(t, nil), rs)
	assertColumn(t, out, ColAge, "50", "33.5", "18", "33.5", "33.5")
}

func TestCorrector_NoAgesLeavesAgeAbsent(t *testing.T) {
	rs := customers([]string{"A", "a@example.com", "France", ""})

	rec := &logging.Recorder{}
	out := detectAndCorrect(t, newTestCorrector(t, rec), rs)

	assertColumn(t, out, ColAge, "<nil>")
	if rec.Lines()[0] != "Could not fill missing age: no numeric ages present" {
		t.Errorf("first log line = %q", rec.Lines()[0])
	}
}

func TestCorrector_Placeholders(t *testing.T) {
	rs := customers(
		[]string{"", "", "", "40"},
		[]string{"Bob", "bob@example.com", "France", "30"},
	)

	out := detectAndCorrect(t, newTestCorrector(t, nil), rs)

	assertColumn(t, out, ColName, "UNKNOWN_NAME", "Bob")
	assertColumn(t, out, ColEmail, "UNKNOWN_EMAIL", "bob@example.com")
	assertColumn(t, out, ColCountry, UnknownCountry, "France")
}

func TestCorrector_MarksInvalidEmails(t *testing.T) {
	rs := customers(
		[]string{"A", "bad", "France", "30"},
		[]string{"B", "b@example.com", "France", "30"},
	)

	rec := &logging.Recorder{}
	out := detectAndCorrect(t, newTestCorrector(t, rec), rs)

	// The email itself is untouched until Enrichment.
	assertColumn(t, out, ColEmail, "bad", "b@example.com")
	assertColumn(t, out, ColEmailStatus, "invalid", "<nil>")
	if !out.HasColumn(ColEmailStatus) {
		t.Error("email_status column not added")
	}
	assertLines(t, rec, "Marked 1 invalid emails for enrichment", "Standardized country names")
}

func TestCorrector_RemovesDuplicatesKeepingFirst(t *testing.T) {
	rs := customers(
		[]string{"A", "a@example.com", "France", "30"},
		[]string{"B", "b@example.com", "France", "31"},
		[]string{"A2", "a@example.com", "France", "32"},
		[]string{"C", "", "France", "33"},
		[]string{"D", "", "France", "34"},
	)

	rec := &logging.Recorder{}
	out := detectAndCorrect(t, newTestCorrector(t, rec), rs)

	assertColumn(t, out, ColName, "A", "B", "C")
	if got := rec.Lines(); len(got) == 0 {
		t.Error("no correction log lines recorded")
	}
}

func TestCorrector_MissingEmailsMergedAfterFill(t *testing.T) {
	rs := customers(
		[]string{"A", "", "France", "30"},
		[]string{"B", "", "France", "30"},
		[]string{"C", "c@x.com", "France", "30"},
		[]string{"D", "c@x.com", "France", "30"},
	)

	report, err := NewDetector(nil, nil).Detect(rs)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if !reflect.DeepEqual(report.Duplicates, []int{0, 1, 2, 3}) {
		t.Errorf("Duplicates = %v, want [0 1 2 3]", report.Duplicates)
	}

	rec := &logging.Recorder{}
	out, err := newTestCorrector(t, rec).Correct(rs, report)
	if err != nil {
		t.Fatalf("Correct() error = %v", err)
	}

	assertColumn(t, out, ColName, "A", "C")
	assertColumn(t, out, ColEmail, "UNKNOWN_EMAIL", "c@x.com")

	indices := make([]int, out.Len())
	for i, r := range out.Rows {
		indices[i] = r.Index
	}
	if !reflect.DeepEqual(indices, []int{0, 2}) {
		t.Errorf("surviving indices = %v, want [0 2]", indices)
	}

	found := false
	for _, line := range rec.Lines() {
		if line == "Removed 2 duplicate rows" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing removal log line in %q", rec.Lines())
	}
}

func TestCorrector_NoReportedDuplicatesKeepsRows(t *testing.T) {
	rs := customers(
		[]string{"A", "a@example.com", "France", "30"},
		[]string{"A2", "a@example.com", "France", "30"},
	)

	out, err := newTestCorrector(t, nil).Correct(rs, IssueReport{})
	if err != nil {
		t.Fatalf("Correct() error = %v", err)
	}
	if out.Len() != 2 {
		t.Errorf("Len() = %d, want 2 when no duplicates were reported", out.Len())
	}
}

func TestCorrector_DeduplicationIdempotent(t *testing.T) {
	rs := customers(
		[]string{"A", "a@example.com", "Untied States", "30"},
		[]string{"A2", "a@example.com", "France", ""},
		[]string{"B", "b@example.com", "Zzzzz", "52"},
		[]string{"C", "bad", "", "17"},
	)
	c := newTestCorrector(t, nil)

	once := detectAndCorrect(t, c, rs)
	twice := detectAndCorrect(t, c, once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second correction changed the set:\nonce:  %+v\ntwice: %+v", once.Rows, twice.Rows)
	}

	// A stale report that still lists duplicates changes nothing either.
	report, _ := NewDetector(nil, nil).Detect(rs)
	again, err := c.Correct(once, report)
	if err != nil {
		t.Fatalf("Correct() error = %v", err)
	}
	if again.Len() != once.Len() {
		t.Errorf("Len() = %d, want %d", again.Len(), once.Len())
	}
}

func TestCorrector_StandardizeCountry(t *testing.T) {
	c := newTestCorrector(t, nil)

	tests := []struct {
		input string
		want  string
	}{
		{"France", "France"},
		{"france", "France"},
		{"Untied States", "United States"},
		{"Usa", "United States"},
		{"uk", "United Kingdom"},
		{"Zzzzz", UnknownCountry},
		{"", UnknownCountry},
		{UnknownCountry, UnknownCountry},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := c.StandardizeCountry(tt.input); got != tt.want {
				t.Errorf("StandardizeCountry(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCorrector_CountriesAlwaysCanonicalOrUnknown(t *testing.T) {
	rs := customers(
		[]string{"A", "a@example.com", "Germny", "30"},
		[]string{"B", "b@example.com", "Atlantis", "30"},
		[]string{"C", "c@example.com", "", "30"},
		[]string{"D", "d@example.com", "UK", "30"},
	)

	out := detectAndCorrect(t, newTestCorrector(t, nil), rs)
	assertColumn(t, out, ColCountry, "Germany", UnknownCountry, UnknownCountry, "United Kingdom")

	ref := testReference()
	for _, r := range out.Rows {
		if country := r.String(ColCountry); country != UnknownCountry && !ref.Contains(country) {
			t.Errorf("row %d country %q is neither canonical nor unknown", r.Index, country)
		}
	}
}

func TestCorrector_DoesNotMutateInput(t *testing.T) {
	rs := customers(
		[]string{"A", "bad", "Usa", ""},
		[]string{"A", "bad", "Usa", "40"},
	)
	before := rs.Clone()

	detectAndCorrect(t, newTestCorrector(t, nil), rs)

	if !reflect.DeepEqual(rs, before) {
		t.Error("Correct modified its input")
	}
}

func TestCorrector_LargeReportFillsEveryRow(t *testing.T) {
	const n = 20000
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{"", "bad", "France", "30"}
	}
	rs := customers(rows...)

	c, err := NewCorrector(testReference(), nil, 80, nil)
	if err != nil {
		t.Fatalf("NewCorrector() error = %v", err)
	}
	report, err := NewDetector(nil, nil).Detect(rs)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	// Drop duplicate reporting so every row survives for the checks below.
	report.Duplicates = nil

	out, err := c.Correct(rs, report)
	if err != nil {
		t.Fatalf("Correct() error = %v", err)
	}
	for _, r := range out.Rows {
		if r.String(ColName) != "UNKNOWN_NAME" || r.String(ColEmailStatus) != string(EmailStatusInvalid) {
			t.Fatalf("row %d = %v", r.Index, r.Fields)
		}
	}
}
