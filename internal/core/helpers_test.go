package core

import (
	"reflect"
	"testing"

	"github.com/JonMunkholm/cleanse/internal/logging"
)

// customers builds a record set with the four required columns.
func customers(rows ...[]string) *RecordSet {
	return NewRecordSet([]string{ColName, ColEmail, ColCountry, ColAge}, rows)
}

func testReference() *CountryReference {
	return NewCountryReference([]string{"United States", "France", "Germany", "United Kingdom"})
}

func testAliases(t *testing.T) CountryAliases {
	t.Helper()
	aliases, err := NewCountryAliases(map[string]string{"USA": "United States", "UK": "United Kingdom"}, testReference())
	if err != nil {
		t.Fatalf("NewCountryAliases() error = %v", err)
	}
	return aliases
}

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(testReference(), testAliases(t), PipelineOptions{})
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	return p
}

// column returns every row's value for col, absent values as "<nil>".
func column(rs *RecordSet, col string) []string {
	out := make([]string, len(rs.Rows))
	for i, r := range rs.Rows {
		if v, ok := r.Get(col); ok {
			out[i] = v
		} else {
			out[i] = "<nil>"
		}
	}
	return out
}

func assertColumn(t *testing.T, rs *RecordSet, col string, want ...string) {
	t.Helper()
	if got := column(rs, col); !reflect.DeepEqual(got, want) {
		t.Errorf("column %s = %q, want %q", col, got, want)
	}
}

func assertLines(t *testing.T, rec *logging.Recorder, want ...string) {
	t.Helper()
	if got := rec.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("log lines = %q, want %q", got, want)
	}
}
