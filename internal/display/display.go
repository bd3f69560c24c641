// Package display renders record sets and run results for the terminal.
package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/JonMunkholm/cleanse/internal/core"
)

// DefaultPreviewRows is how many rows Preview shows when no limit is given.
const DefaultPreviewRows = 10

// Colors
var (
	accent  = lipgloss.Color("#FF5F87")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	warning = lipgloss.Color("#FFAF00")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(warning)
	headerStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	placeholder  = lipgloss.NewStyle().Foreground(warning).Padding(0, 1)
)

// Preview writes the first limit rows of rs as a table.
// Placeholder values are highlighted.
func Preview(w io.Writer, title string, rs *core.RecordSet, limit int) {
	if limit <= 0 {
		limit = DefaultPreviewRows
	}
	header, rows := rs.Table()
	shown := rows
	if len(shown) > limit {
		shown = shown[:limit]
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(header...).
		Rows(shown...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row >= 0 && row < len(shown) && col < len(shown[row]) && isPlaceholder(shown[row][col]) {
				return placeholder
			}
			return cellStyle
		})

	fmt.Fprintln(w, titleStyle.Render(title))
	fmt.Fprintln(w, t.Render())
	if len(rows) > len(shown) {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("  ... %d more rows", len(rows)-len(shown))))
	}
}

func isPlaceholder(s string) bool {
	return strings.HasPrefix(s, "UNKNOWN_") || s == string(core.EmailStatusInvalid) || s == string(core.SegmentUnknown)
}

// Report writes a one-line-per-category summary of detected issues.
func Report(w io.Writer, report core.IssueReport) {
	fmt.Fprintln(w, titleStyle.Render("Detected issues"))
	for _, m := range report.MissingData {
		line(w, "missing "+m.Column, len(m.Rows))
	}
	line(w, "invalid emails", len(report.InvalidEmails))
	line(w, "duplicate rows", len(report.Duplicates))
	line(w, "non-standard countries", len(report.InvalidCountries))
}

func line(w io.Writer, label string, n int) {
	value := successStyle.Render("0")
	if n > 0 {
		value = warnStyle.Render(fmt.Sprint(n))
	}
	fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render(fmt.Sprintf("%-24s", label)), value)
}

// Summary writes the outcome of a full pipeline run.
func Summary(w io.Writer, r *core.RunResult) {
	fmt.Fprintln(w)
	Report(w, r.Report)
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Result"))
	fmt.Fprintf(w, "  %s %d -> %d\n", mutedStyle.Render(fmt.Sprintf("%-24s", "rows")), r.Input.Len(), r.Enriched.Len())
	fmt.Fprintf(w, "  %s %d\n", mutedStyle.Render(fmt.Sprintf("%-24s", "emails generated")), r.EmailsGenerated())
	fmt.Fprintf(w, "  %s %s\n", mutedStyle.Render(fmt.Sprintf("%-24s", "duration")), r.Duration.Round(1e6))
	fmt.Fprintln(w, successStyle.Render("✓ Pipeline completed"))
}

// Match writes one country lookup result.
func Match(w io.Writer, input, match string, score int) {
	if match == "" {
		fmt.Fprintf(w, "%s %s %s\n", input, mutedStyle.Render("->"), warnStyle.Render(core.UnknownCountry))
		return
	}
	fmt.Fprintf(w, "%s %s %s %s\n", input, mutedStyle.Render("->"), successStyle.Render(match), mutedStyle.Render(fmt.Sprintf("(%d)", score)))
}
