package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// ReadCSV loads a record set from r. The first row is the header. size is
// the input length when known, or 0.
//
// Input passes through the streaming BOM and UTF-8 sanitizers, so Excel
// exports and files with stray bytes load cleanly.
func ReadCSV(r io.Reader, size int64) (*RecordSet, error) {
	counter := WrapForStreaming(r, size)
	cr := csv.NewReader(counter)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyInput
	}
	if err != nil {
		return nil, fmt.Errorf("invalid csv header: %w", err)
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		if isBlankRow(row) {
			continue
		}
		rows = append(rows, row)
	}

	slog.Debug("csv loaded", "rows", len(rows), "bytes", counter.BytesRead)
	return NewRecordSet(NormalizeHeaders(header), rows), nil
}

// ReadCSVFile loads a record set from path.
func ReadCSVFile(path string) (*RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	rs, err := ReadCSV(f, size)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rs, nil
}

// WriteCSV writes the header and every row of rs. Absent values are empty cells.
func WriteCSV(w io.Writer, rs *RecordSet) error {
	header, rows := rs.Table()

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}

// WriteCSVFile writes rs to path, creating parent directories.
func WriteCSVFile(path string, rs *RecordSet) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return WriteCSV(f, rs)
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if CleanValue(cell) != "" {
			return false
		}
	}
	return true
}
