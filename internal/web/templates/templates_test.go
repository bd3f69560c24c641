package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/cleanse/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return buf.String()
}

func TestTable_EscapesAndTruncates(t *testing.T) {
	out := render(t, Table(
		[]string{"name"},
		[][]string{{"<script>alert(1)</script>"}, {"UNKNOWN_NAME"}, {"c"}},
		2,
	))

	if strings.Contains(out, "<script>") {
		t.Errorf("cell not escaped: %s", out)
	}
	if !strings.Contains(out, `<td class="flag">UNKNOWN_NAME</td>`) {
		t.Errorf("placeholder not flagged: %s", out)
	}
	if !strings.Contains(out, "1 more rows not shown") {
		t.Errorf("hidden rows not reported: %s", out)
	}
}

func TestErrorAlert(t *testing.T) {
	out := render(t, ErrorAlert("File is not a valid CSV", "Ensure file is comma-separated", "FILE002"))
	for _, want := range []string{"File is not a valid CSV", "Ensure file is comma-separated", "Code: FILE002"} {
		if !strings.Contains(out, want) {
			t.Errorf("alert missing %q: %s", want, out)
		}
	}
}

func TestRunPage_Tabs(t *testing.T) {
	rs := core.NewRecordSet(core.RequiredColumns, [][]string{{"Jane Doe", "bad", "France", "30"}})
	run := core.Run{ID: "abc", FileName: "people.csv", Input: rs}

	out := render(t, RunPage(RunPageData{Run: run, Tab: TabDetection}))
	for _, want := range []string{"people.csv", "Run detection", `href="/runs/abc?tab=logs"`, "Final Result", "Jane Doe"} {
		if !strings.Contains(out, want) {
			t.Errorf("detection tab missing %q", want)
		}
	}

	out = render(t, RunPage(RunPageData{Run: run, Tab: TabCorrection}))
	if !strings.Contains(out, "Run detection first.") || !strings.Contains(out, "disabled") {
		t.Errorf("correction tab before detection: %s", out)
	}

	report := core.IssueReport{InvalidEmails: []int{0}}
	run.Report = &report
	out = render(t, RunPage(RunPageData{Run: run, Tab: TabDetection}))
	if !strings.Contains(out, "<strong>Invalid emails</strong>: 1") {
		t.Errorf("issue list missing: %s", out)
	}

	out = render(t, RunPage(RunPageData{Run: run, Tab: TabFinal}))
	if strings.Contains(out, "download.csv") {
		t.Error("download offered before enrichment")
	}

	out = render(t, RunPage(RunPageData{Run: run, Tab: TabLogs, Logs: []StageLog{
		{Stage: core.StageDetection, Lines: []string{"Invalid emails detected at rows: [0]"}},
		{Stage: core.StageCorrection},
	}}))
	if !strings.Contains(out, "Invalid emails detected at rows: [0]") || !strings.Contains(out, "Nothing logged.") {
		t.Errorf("logs tab: %s", out)
	}
}

func TestRunPage_StageForms(t *testing.T) {
	rs := core.NewRecordSet(core.RequiredColumns, [][]string{{"Jane Doe", "jane@example.com", "France", "30"}})
	report := core.IssueReport{}
	run := core.Run{ID: "abc", FileName: "people.csv", Input: rs, Report: &report, Corrected: rs}

	out := render(t, RunPage(RunPageData{Run: run, Tab: TabEnrichment}))
	for _, want := range []string{
		`<form action="/runs/abc/enrich?tab=enrichment" method="post" class="inline">`,
		`<button type="submit">Run enrichment</button>`,
		`<a href="/runs/abc?tab=enrichment" class="active">Enrichment</a>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("enrichment tab missing %q: %s", want, out)
		}
	}
	if strings.Contains(out, "Run correction first.") {
		t.Error("correction notice shown after correction ran")
	}

	run.Enriched = rs
	out = render(t, RunPage(RunPageData{Run: run, Tab: TabFinal, Flash: Notice("Enrichment complete")}))
	for _, want := range []string{`href="/runs/abc/download.csv"`, `href="/runs/abc/download.xlsx"`, "Enrichment complete"} {
		if !strings.Contains(out, want) {
			t.Errorf("final tab missing %q", want)
		}
	}
}

func TestLayout_EscapesTitle(t *testing.T) {
	out := render(t, Layout("<b>x</b>", Notice("body")))
	if !strings.Contains(out, "<title>&lt;b&gt;x&lt;/b&gt; | Cleanse</title>") {
		t.Errorf("title not escaped: %s", out)
	}
	if !strings.Contains(out, `<main><div class="alert alert-info">body</div></main>`) {
		t.Errorf("body not rendered inside main: %s", out)
	}
}

func TestValidTab(t *testing.T) {
	for _, tab := range []string{TabDetection, TabCorrection, TabEnrichment, TabFinal, TabLogs} {
		if !ValidTab(tab) {
			t.Errorf("ValidTab(%q) = false", tab)
		}
	}
	if ValidTab("admin") {
		t.Error("ValidTab(admin) = true")
	}
}

func TestDashboard(t *testing.T) {
	out := render(t, Dashboard(DashboardData{
		Runs:        []RunCard{{ID: "r1", FileName: "a.csv", Rows: 3, Next: core.StageCorrection, Age: "2m"}},
		History:     []core.RunSummary{{FileName: "done.csv", RowsIn: 5, RowsOut: 4}},
		MaxFileSize: 50 << 20,
		Countries:   195,
	}))
	for _, want := range []string{`action="/runs"`, "50.0 MB", "195 reference countries", `href="/runs/r1"`, "next: correction", "done.csv"} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}
