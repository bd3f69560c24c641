// Package templates holds the templ components of the web UI. The .templ
// files are the source; run `templ generate` after editing them.
package templates

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/cleanse/internal/core"
)

//go:generate templ generate

// PreviewRows is the number of rows shown in stage previews.
const PreviewRows = 25

// Tabs of the run page, in display order.
const (
	TabDetection  = "detection"
	TabCorrection = "correction"
	TabEnrichment = "enrichment"
	TabFinal      = "final"
	TabLogs       = "logs"
)

var tabs = []struct{ key, label string }{
	{TabDetection, "Detection"},
	{TabCorrection, "Correction"},
	{TabEnrichment, "Enrichment"},
	{TabFinal, "Final Result"},
	{TabLogs, "Logs"},
}

// ValidTab reports whether tab names a run page tab.
func ValidTab(tab string) bool {
	for _, t := range tabs {
		if t.key == tab {
			return true
		}
	}
	return false
}

// RunCard is one in-flight run on the dashboard.
type RunCard struct {
	ID       string
	FileName string
	Rows     int
	Next     core.Stage
	Age      string
}

func (r RunCard) status() string {
	next := string(r.Next)
	if next == "" {
		next = "complete"
	}
	return fmt.Sprintf("%d rows, next: %s, updated %s ago", r.Rows, next, r.Age)
}

// DashboardData is everything the dashboard shows.
type DashboardData struct {
	Runs        []RunCard
	History     []core.RunSummary
	MaxFileSize int64
	Countries   int
	Limiter     core.LimiterStatus
}

// StageLog is one stage's action log lines.
type StageLog struct {
	Stage core.Stage
	Lines []string
}

// RunPageData is everything a run page shows.
type RunPageData struct {
	Run   core.Run
	Tab   string
	Logs  []StageLog
	Flash templ.Component
}

var historyHeader = []string{"File", "Rows in", "Rows out", "Issues", "Emails generated", "Duration", "Finished"}

func historyRows(history []core.RunSummary) [][]string {
	rows := make([][]string, len(history))
	for i, h := range history {
		rows[i] = []string{
			h.FileName,
			fmt.Sprint(h.RowsIn),
			fmt.Sprint(h.RowsOut),
			fmt.Sprint(h.Issues.Total()),
			fmt.Sprint(h.EmailsGenerated),
			h.Duration.Round(1e6).String(),
			h.CreatedAt.Format("2006-01-02 15:04"),
		}
	}
	return rows
}

func preview(rs *core.RecordSet) templ.Component {
	header, rows := rs.Table()
	return Table(header, rows, PreviewRows)
}

func shownRows(rows [][]string, limit int) [][]string {
	if limit > 0 && len(rows) > limit {
		return rows[:limit]
	}
	return rows
}

func hiddenRows(rows [][]string, limit int) int {
	return len(rows) - len(shownRows(rows, limit))
}

// flagged marks placeholder and invalid cells in previews.
func flagged(cell string) bool {
	return strings.HasPrefix(cell, "UNKNOWN_") || cell == string(core.EmailStatusInvalid)
}

type issueLine struct {
	label string
	rows  []int
}

func issueLines(r core.IssueReport) []issueLine {
	lines := make([]issueLine, 0, len(r.MissingData)+3)
	for _, m := range r.MissingData {
		lines = append(lines, issueLine{"Missing " + m.Column, m.Rows})
	}
	return append(lines,
		issueLine{"Invalid emails", r.InvalidEmails},
		issueLine{"Duplicate rows", r.Duplicates},
		issueLine{"Non-standard countries", r.InvalidCountries},
	)
}

// rowList shows at most 20 row numbers.
func rowList(rows []int) string {
	parts := make([]string, 0, min(len(rows), 21))
	for i, r := range rows {
		if i == 20 {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprint(r))
	}
	return strings.Join(parts, ", ")
}

func runPath(id string) templ.SafeURL {
	return templ.SafeURL("/runs/" + id)
}

func runURL(id, tab string) templ.SafeURL {
	return templ.SafeURL("/runs/" + id + "?tab=" + tab)
}

func stageURL(id, action, tab string) templ.SafeURL {
	return templ.SafeURL("/runs/" + id + "/" + action + "?tab=" + tab)
}

func downloadURL(id, ext string) templ.SafeURL {
	return templ.SafeURL("/runs/" + id + "/download." + ext)
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
