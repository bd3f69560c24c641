package display

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JonMunkholm/cleanse/internal/core"
)

func sample(n int) *core.RecordSet {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{"Jane Doe", "jane@example.com", "France", "30"}
	}
	rows[0][2] = core.UnknownCountry
	return core.NewRecordSet(core.RequiredColumns, rows)
}

func TestPreview(t *testing.T) {
	var buf bytes.Buffer
	Preview(&buf, "Cleaned data", sample(3), 0)

	out := buf.String()
	for _, want := range []string{"Cleaned data", "name", "email", "jane@example.com", core.UnknownCountry} {
		if !strings.Contains(out, want) {
			t.Errorf("preview missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "more rows") {
		t.Errorf("preview reported hidden rows for a short set:\n%s", out)
	}
}

func TestPreview_Truncates(t *testing.T) {
	var buf bytes.Buffer
	Preview(&buf, "Input", sample(15), 5)

	if !strings.Contains(buf.String(), "... 10 more rows") {
		t.Errorf("preview did not report hidden rows:\n%s", buf.String())
	}
}

func TestSummary(t *testing.T) {
	ref := core.NewCountryReference([]string{"France"})
	p, err := core.NewPipeline(ref, nil, core.PipelineOptions{})
	if err != nil {
		t.Fatal(err)
	}
	rs := core.NewRecordSet(core.RequiredColumns, [][]string{
		{"Jane Doe", "bad", "France", "30"},
		{"Bob", "bob@example.com", "France", ""},
	})
	result, err := p.Run(context.Background(), rs, core.StageLoggers{})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	Summary(&buf, result)

	out := buf.String()
	for _, want := range []string{"missing age", "invalid emails", "2 -> 2", "Pipeline completed"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestMatch(t *testing.T) {
	var buf bytes.Buffer
	Match(&buf, "Untied States", "United States", 85)
	Match(&buf, "Zzzzz", "", 0)

	out := buf.String()
	if !strings.Contains(out, "United States") || !strings.Contains(out, "(85)") {
		t.Errorf("match output = %q", out)
	}
	if !strings.Contains(out, core.UnknownCountry) {
		t.Errorf("unmatched output = %q", out)
	}
}
