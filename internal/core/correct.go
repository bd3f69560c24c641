package core

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/cleanse/internal/logging"
)

// Corrector applies fixes for the issues found by Detection.
type Corrector struct {
	countries *CountryReference
	aliases   CountryAliases
	threshold int
	log       logging.Logger
}

// NewCorrector returns a Corrector matching countries against ref.
// aliases may be nil. A missing or empty reference is an error.
func NewCorrector(ref *CountryReference, aliases CountryAliases, threshold int, log logging.Logger) (*Corrector, error) {
	if ref == nil || ref.Len() == 0 {
		return nil, fmt.Errorf("corrector: %w", ErrReferenceFile)
	}
	if log == nil {
		log = discardLog{}
	}
	return &Corrector{
		countries: ref,
		aliases:   aliases,
		threshold: threshold,
		log:       log,
	}, nil
}

// Correct returns a corrected copy of rs. The steps run in order, each on the
// previous step's output: fill missing values, mark invalid emails, drop
// duplicates, standardize countries.
func (c *Corrector) Correct(rs *RecordSet, report IssueReport) (*RecordSet, error) {
	if err := rs.CheckRequired(); err != nil {
		return nil, err
	}

	out := rs.Clone()
	out.ensureColumn(ColEmailStatus)

	c.fillMissing(out, report)
	c.markInvalidEmails(out, report)
	removed := c.removeDuplicates(out, report)
	unmatched := c.standardizeCountries(out)

	slog.Debug("correction completed",
		"rows_in", rs.Len(),
		"rows_out", out.Len(),
		"duplicates_removed", removed,
		"countries_unmatched", unmatched,
	)

	return out, nil
}

func (c *Corrector) fillMissing(rs *RecordSet, report IssueReport) {
	positions := rs.Positions()
	for _, m := range report.MissingData {
		fill := Placeholder(m.Column)
		if m.Column == ColAge {
			median, ok := medianAge(rs)
			if !ok {
				c.log.Log("Could not fill missing age: no numeric ages present")
				continue
			}
			fill = strconv.FormatFloat(median, 'f', -1, 64)
		}

		var filled []int
		for _, idx := range m.Rows {
			pos, ok := positions[idx]
			if !ok {
				continue
			}
			rs.Rows[pos].Set(m.Column, fill)
			filled = append(filled, idx)
		}
		if len(filled) > 0 {
			c.log.Log(fmt.Sprintf("Filled missing %s at rows %s", m.Column, formatRows(filled)))
		}
	}
}

// medianAge is the median of every numeric age in rs.
func medianAge(rs *RecordSet) (float64, bool) {
	var ages []float64
	for _, r := range rs.Rows {
		if f, ok := NumericValue(r.Value(ColAge)); ok {
			ages = append(ages, f)
		}
	}
	if len(ages) == 0 {
		return 0, false
	}
	slices.Sort(ages)
	mid := len(ages) / 2
	if len(ages)%2 == 1 {
		return ages[mid], true
	}
	return (ages[mid-1] + ages[mid]) / 2, true
}

func (c *Corrector) markInvalidEmails(rs *RecordSet, report IssueReport) {
	positions := rs.Positions()
	marked := 0
	for _, idx := range report.InvalidEmails {
		pos, ok := positions[idx]
		if !ok {
			continue
		}
		rs.Rows[pos].Set(ColEmailStatus, string(EmailStatusInvalid))
		marked++
	}
	if marked > 0 {
		c.log.Log(fmt.Sprintf("Marked %d invalid emails for enrichment", marked))
	}
}

// removeDuplicates keeps the first row for each email. It only runs when the
// report lists duplicates, and regroups by email rather than trusting the
// reported rows. Emails filled with the placeholder group like any other
// value, as do emails still absent.
func (c *Corrector) removeDuplicates(rs *RecordSet, report IssueReport) int {
	if len(report.Duplicates) == 0 {
		return 0
	}

	seen := make(map[pgtype.Text]bool, rs.Len())
	kept := rs.Rows[:0]
	for _, r := range rs.Rows {
		key := r.groupKey(ColEmail)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, r)
	}

	removed := len(rs.Rows) - len(kept)
	clear(rs.Rows[len(kept):])
	rs.Rows = kept

	c.log.Log(fmt.Sprintf("Removed %d duplicate rows", removed))
	return removed
}

// standardizeCountries replaces every country with a canonical name or
// UnknownCountry. It returns how many rows ended up unknown.
func (c *Corrector) standardizeCountries(rs *RecordSet) int {
	unmatched := 0
	for _, r := range rs.Rows {
		country := c.StandardizeCountry(r.String(ColCountry))
		if country == UnknownCountry {
			unmatched++
		}
		r.Set(ColCountry, country)
	}
	c.log.Log("Standardized country names")
	return unmatched
}

// StandardizeCountry maps one raw country value to its canonical form.
// Exact canonical names and the unknown placeholder pass through, aliases are
// consulted next, then fuzzy matching.
func (c *Corrector) StandardizeCountry(raw string) string {
	if raw == "" || raw == UnknownCountry {
		return UnknownCountry
	}
	if c.countries.Contains(raw) {
		return raw
	}
	if target, ok := c.aliases.Lookup(raw); ok {
		return target
	}
	if match, ok := c.countries.Match(raw, c.threshold); ok {
		return match
	}
	return UnknownCountry
}
