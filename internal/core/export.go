package core

// export.go reads and writes Excel workbooks. Cleaned output can be
// downloaded as XLSX next to CSV, and uploads may be XLSX as well.

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// CleanedSheet is the worksheet name used for exported record sets.
const CleanedSheet = "Cleaned"

// WriteXLSX writes rs as a single-sheet workbook. Numeric ages are stored as
// numbers so spreadsheet formulas work on them; everything else is text.
func WriteXLSX(w io.Writer, rs *RecordSet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), CleanedSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(CleanedSheet)
	if err != nil {
		return fmt.Errorf("open sheet writer: %w", err)
	}

	header := make([]interface{}, len(rs.Columns))
	for i, col := range rs.Columns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rs.Rows {
		row := make([]interface{}, len(rs.Columns))
		for j, col := range rs.Columns {
			if col == ColAge {
				if age, ok := NumericValue(r.Value(ColAge)); ok {
					row[j] = age
					continue
				}
			}
			row[j] = r.String(col)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// ReadXLSX loads the first worksheet of a workbook as a record set.
func ReadXLSX(r io.Reader) (*RecordSet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrEmptyInput
		}
		sheetName = sheets[0]
	}

	rows, err := f.Rows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, ErrEmptyInput
	}
	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var data [][]string
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if isBlankRow(cols) {
			continue
		}
		data = append(data, cols)
	}

	return NewRecordSet(NormalizeHeaders(header), data), nil
}
