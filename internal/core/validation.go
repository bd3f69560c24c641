package core

// validation.go holds the validator primitives and the errors shared by the
// pipeline stages.
//
// Validation happens at two levels:
//  1. Header validation: Ensures required columns are present
//  2. Cell validation: Email format checks used by Detection and Enrichment

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrMissingColumn is wrapped by MissingColumnError.
	ErrMissingColumn = errors.New("missing required column")

	// ErrEmptyInput is returned when a CSV has no header row.
	ErrEmptyInput = errors.New("empty file")

	// ErrReferenceFile is returned when the country reference cannot be loaded.
	ErrReferenceFile = errors.New("country reference unavailable")
)

// MissingColumnError lists the required columns a record set lacks.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}

// emailRegex matches local@domain.tld with a two-letter or longer tld.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail reports whether s is a syntactically valid email address.
// No DNS lookup is performed.
func ValidateEmail(s string) bool {
	if s == "" {
		return false
	}
	return emailRegex.MatchString(s)
}

// NormalizeHeaders trims header cells and lowercases any that name a known
// column, so "Email " and "email" both bind to ColEmail. Other headers are
// passed through as cleaned.
func NormalizeHeaders(headers []string) []string {
	known := make(map[string]bool, len(RequiredColumns)+len(DerivedColumns))
	for _, c := range RequiredColumns {
		known[c] = true
	}
	for _, c := range DerivedColumns {
		known[c] = true
	}

	out := make([]string, len(headers))
	for i, h := range headers {
		h = CleanCell(h)
		if lower := strings.ToLower(h); known[lower] {
			h = lower
		}
		out[i] = h
	}
	return out
}

// ValidateHeaders checks that all required columns exist in the CSV headers.
// Returns a mapping from column name to index, or a MissingColumnError.
func ValidateHeaders(headers []string) (HeaderIndex, error) {
	idx := MakeHeaderIndex(headers)
	var missing []string

	for _, col := range RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing}
	}

	return idx, nil
}
