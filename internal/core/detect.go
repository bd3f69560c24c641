package core

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/cleanse/internal/logging"
)

// MissingColumn lists the rows lacking a value in one column.
type MissingColumn struct {
	Column string `json:"column" yaml:"column"`
	Rows   []int  `json:"rows" yaml:"rows"`
}

// IssueReport is the result of Detection. Row numbers are Record.Index values.
// Later stages only read it.
type IssueReport struct {
	MissingData      []MissingColumn `json:"missing_data" yaml:"missing_data"`
	InvalidEmails    []int           `json:"invalid_emails" yaml:"invalid_emails"`
	Duplicates       []int           `json:"duplicates" yaml:"duplicates"`
	InvalidCountries []int           `json:"invalid_countries" yaml:"invalid_countries"`
}

// MissingRows returns the rows missing column, or nil.
func (r IssueReport) MissingRows(column string) []int {
	for _, m := range r.MissingData {
		if m.Column == column {
			return m.Rows
		}
	}
	return nil
}

// IssueCounts summarizes a report for display and history.
type IssueCounts struct {
	Missing          int `json:"missing"`
	InvalidEmails    int `json:"invalid_emails"`
	Duplicates       int `json:"duplicates"`
	InvalidCountries int `json:"invalid_countries"`
}

// Total is the sum of all findings.
func (c IssueCounts) Total() int {
	return c.Missing + c.InvalidEmails + c.Duplicates + c.InvalidCountries
}

// Counts returns the number of findings per category.
func (r IssueReport) Counts() IssueCounts {
	c := IssueCounts{
		InvalidEmails:    len(r.InvalidEmails),
		Duplicates:       len(r.Duplicates),
		InvalidCountries: len(r.InvalidCountries),
	}
	for _, m := range r.MissingData {
		c.Missing += len(m.Rows)
	}
	return c
}

// Detector scans a record set for data-quality issues.
type Detector struct {
	countries *CountryReference
	log       logging.Logger
}

// NewDetector returns a Detector writing findings to log. When countries is
// non-nil, rows whose country is not a canonical name are reported too.
func NewDetector(countries *CountryReference, log logging.Logger) *Detector {
	if log == nil {
		log = discardLog{}
	}
	return &Detector{countries: countries, log: log}
}

// Detect builds an IssueReport for rs without modifying it.
func (d *Detector) Detect(rs *RecordSet) (IssueReport, error) {
	if err := rs.CheckRequired(); err != nil {
		return IssueReport{}, err
	}

	report := IssueReport{
		MissingData:      d.missingData(rs),
		InvalidEmails:    d.invalidEmails(rs),
		Duplicates:       d.duplicates(rs),
		InvalidCountries: d.invalidCountries(rs),
	}

	counts := report.Counts()
	slog.Debug("detection completed",
		"rows", rs.Len(),
		"missing", counts.Missing,
		"invalid_emails", counts.InvalidEmails,
		"duplicates", counts.Duplicates,
		"invalid_countries", counts.InvalidCountries,
	)

	return report, nil
}

func (d *Detector) missingData(rs *RecordSet) []MissingColumn {
	var out []MissingColumn
	for _, col := range RequiredColumns {
		var rows []int
		for _, r := range rs.Rows {
			if !present(r, col) {
				rows = append(rows, r.Index)
			}
		}
		if len(rows) == 0 {
			continue
		}
		out = append(out, MissingColumn{Column: col, Rows: rows})
		d.log.Log(fmt.Sprintf("Missing data detected in column '%s' at rows: %s", col, formatRows(rows)))
	}
	return out
}

// invalidEmails reports present emails that fail validation. Absent emails
// are left to the missing-data scan so no row is counted twice.
func (d *Detector) invalidEmails(rs *RecordSet) []int {
	var rows []int
	for _, r := range rs.Rows {
		email, ok := r.Get(ColEmail)
		if ok && !ValidateEmail(email) {
			rows = append(rows, r.Index)
		}
	}
	if len(rows) > 0 {
		d.log.Log("Invalid emails detected at rows: " + formatRows(rows))
	}
	return rows
}

// duplicates reports every member of each group of rows sharing an email.
// Rows with no email form one group of their own.
func (d *Detector) duplicates(rs *RecordSet) []int {
	counts := make(map[pgtype.Text]int, rs.Len())
	for _, r := range rs.Rows {
		counts[r.groupKey(ColEmail)]++
	}

	var rows []int
	for _, r := range rs.Rows {
		if counts[r.groupKey(ColEmail)] > 1 {
			rows = append(rows, r.Index)
		}
	}
	if len(rows) > 0 {
		d.log.Log("Duplicate rows detected: " + formatRows(rows))
	}
	return rows
}

func (d *Detector) invalidCountries(rs *RecordSet) []int {
	if d.countries == nil {
		return nil
	}
	var rows []int
	for _, r := range rs.Rows {
		if country, ok := r.Get(ColCountry); ok && !d.countries.Contains(country) {
			rows = append(rows, r.Index)
		}
	}
	if len(rows) > 0 {
		d.log.Log("Non-standard countries detected at rows: " + formatRows(rows))
	}
	return rows
}

// present reports whether col holds a usable value. Ages must be numeric.
func present(r Record, col string) bool {
	if col == ColAge {
		_, ok := NumericValue(r.Value(ColAge))
		return ok
	}
	_, ok := r.Get(col)
	return ok
}

// formatRows renders row numbers as "[0, 3, 7]".
func formatRows(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = strconv.Itoa(r)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

type discardLog struct{}

func (discardLog) Log(string) {}
