package core

// convert.go turns raw cells into the typed values the pipeline works on.
//
// A cell is a pgtype.Text; Valid=false is how an absent value is
// represented. Spreadsheet exports bring their own noise, handled here:
// missing-value tokens (NA, N/A, NaN, null), Excel formula wrappers (="x"),
// and currency-formatted numbers.

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// HeaderIndex maps lowercase column names to their position in a row.
type HeaderIndex map[string]int

// ToPgText trims s and returns it as a present cell, or an absent one for
// blanks and missing-value tokens.
func ToPgText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if IsMissingToken(s) {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

var (
	numberPattern  = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	numberReplacer = strings.NewReplacer("$", "", "€", "", "£", "", ",", "")
)

// ToPgNumeric parses a number written the way spreadsheets export them:
// currency symbols and thousands separators are dropped, and "(12.50)" is
// the accounting form of -12.50.
func ToPgNumeric(s string) pgtype.Numeric {
	s = strings.TrimSpace(s)

	negative := false
	if inner, ok := strings.CutPrefix(s, "("); ok {
		if inner, ok = strings.CutSuffix(inner, ")"); ok {
			negative, s = true, inner
		}
	}

	s = strings.TrimSpace(numberReplacer.Replace(s))
	if negative {
		s = "-" + s
	}
	if !numberPattern.MatchString(s) {
		return pgtype.Numeric{}
	}

	var n pgtype.Numeric
	if err := n.Scan(s); err != nil {
		return pgtype.Numeric{}
	}
	return n
}

// NumericValue reads a cell as a float. It reports false for absent or
// non-numeric cells.
func NumericValue(t pgtype.Text) (float64, bool) {
	if !t.Valid {
		return 0, false
	}
	f, err := ToPgNumeric(t.String).Float64Value()
	if err != nil || !f.Valid {
		return 0, false
	}
	return f.Float64, true
}

// ToPgUUID parses s; an empty or malformed ID yields an invalid UUID.
func ToPgUUID(s string) pgtype.UUID {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// PgUUIDToString formats u, or returns "" when it is invalid.
func PgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}

// MakeHeaderIndex indexes a header row by lowercase, cleaned name.
// The first occurrence of a repeated header wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// CleanCell strips whitespace, an Excel formula prefix (="..." or =...),
// and surrounding quotes. It is meant for header cells; data goes through
// CleanValue.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "="); ok {
		s = rest
	}
	return strings.TrimSpace(strings.Trim(s, `"'`))
}

// CleanValue trims a data cell and unwraps Excel's text-formula form ="...",
// used to keep leading zeros. Any other quote or leading = is data.
func CleanValue(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		return s[2 : len(s)-1]
	}
	return s
}
