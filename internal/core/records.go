package core

import (
	"slices"

	"github.com/jackc/pgx/v5/pgtype"
)

// Record is one row of a RecordSet.
//
// Index is the row's position in the set as it was loaded and never changes,
// so issue reports stay addressable after duplicates are dropped. A field that
// is missing from Fields, or present with Valid=false, is absent.
type Record struct {
	Index  int
	Fields map[string]pgtype.Text
}

// Get returns the value of column and whether it is present.
func (r Record) Get(column string) (string, bool) {
	v, ok := r.Fields[column]
	if !ok || !v.Valid {
		return "", false
	}
	return v.String, true
}

// Value returns the raw cell for column.
func (r Record) Value(column string) pgtype.Text {
	return r.Fields[column]
}

// String returns the value of column, or "" when absent.
func (r Record) String(column string) string {
	s, _ := r.Get(column)
	return s
}

// Set stores a present value in column.
func (r Record) Set(column, value string) {
	r.Fields[column] = pgtype.Text{String: value, Valid: true}
}

// groupKey is the value used to group rows by column. Every absent cell
// shares the zero key, so rows lacking a value group together.
func (r Record) groupKey(column string) pgtype.Text {
	if v := r.Value(column); v.Valid {
		return v
	}
	return pgtype.Text{}
}

func (r Record) clone() Record {
	fields := make(map[string]pgtype.Text, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Record{Index: r.Index, Fields: fields}
}

// RecordSet is an ordered, in-memory table.
// Columns keeps the header order used when the set is written back out.
type RecordSet struct {
	Columns []string
	Rows    []Record
}

// NewRecordSet builds a set from a header and string rows.
// Cells are trimmed, Excel text formulas unwrapped, and missing-value tokens
// become absent values.
// Short rows are padded with absent values.
func NewRecordSet(columns []string, rows [][]string) *RecordSet {
	rs := &RecordSet{Columns: slices.Clone(columns)}
	rs.Rows = make([]Record, 0, len(rows))
	for i, row := range rows {
		fields := make(map[string]pgtype.Text, len(columns))
		for j, col := range columns {
			if j < len(row) {
				fields[col] = ToPgText(CleanValue(row[j]))
			} else {
				fields[col] = pgtype.Text{}
			}
		}
		rs.Rows = append(rs.Rows, Record{Index: i, Fields: fields})
	}
	return rs
}

// Len returns the number of rows.
func (rs *RecordSet) Len() int {
	return len(rs.Rows)
}

// Clone returns a deep copy so stages never mutate their input.
func (rs *RecordSet) Clone() *RecordSet {
	out := &RecordSet{
		Columns: slices.Clone(rs.Columns),
		Rows:    make([]Record, len(rs.Rows)),
	}
	for i, r := range rs.Rows {
		out.Rows[i] = r.clone()
	}
	return out
}

// HasColumn reports whether column is part of the header.
func (rs *RecordSet) HasColumn(column string) bool {
	return slices.Contains(rs.Columns, column)
}

// ensureColumn appends column to the header if it is not there yet.
func (rs *RecordSet) ensureColumn(column string) {
	if !rs.HasColumn(column) {
		rs.Columns = append(rs.Columns, column)
	}
}

// Positions maps each row's Index to its offset in Rows. Callers build it
// once per pass; it goes stale when rows are dropped.
func (rs *RecordSet) Positions() map[int]int {
	pos := make(map[int]int, len(rs.Rows))
	for i, r := range rs.Rows {
		pos[r.Index] = i
	}
	return pos
}

// Table returns the set as a header plus string rows, absent values as "".
func (rs *RecordSet) Table() ([]string, [][]string) {
	out := make([][]string, len(rs.Rows))
	for i, r := range rs.Rows {
		row := make([]string, len(rs.Columns))
		for j, col := range rs.Columns {
			row[j] = r.String(col)
		}
		out[i] = row
	}
	return slices.Clone(rs.Columns), out
}

// CheckRequired fails with a MissingColumnError when any required column is
// absent from the header.
func (rs *RecordSet) CheckRequired() error {
	var missing []string
	for _, col := range RequiredColumns {
		if !rs.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnError{Columns: missing}
	}
	return nil
}
