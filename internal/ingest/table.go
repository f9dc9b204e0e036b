// Package ingest parses uploaded CSV and XLSX files into the typed records
// the pipeline consumes. Header names are normalized (trimmed, lowercased)
// and the original Spanish column names are accepted alongside their
// English equivalents. A missing required column fails fast, before any
// pipeline stage runs; malformed cells coerce to zero or are skipped.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// MissingColumnError reports a required column absent from an input batch.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("ingest: missing required column %q", e.Column)
}

// Table is an in-memory view of a parsed tabular file.
type Table struct {
	header map[string]int
	rows   [][]string
}

// ReadTable parses r into a Table, choosing the format from the filename
// extension (.xlsx reads the first sheet, everything else is CSV).
func ReadTable(r io.Reader, filename string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return readXLSX(r)
	}
	return readCSV(r)
}

func readCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return newTable(records)
}

func readXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx sheet %s: %w", sheets[0], err)
	}
	return newTable(rows)
}

func newTable(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("input file is empty")
	}
	header := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		header[strings.ToLower(strings.TrimSpace(col))] = i
	}
	return &Table{header: header, rows: records[1:]}, nil
}

// column resolves the first alias present in the header.
func (t *Table) column(aliases ...string) (int, bool) {
	for _, a := range aliases {
		if idx, ok := t.header[a]; ok {
			return idx, true
		}
	}
	return 0, false
}

func (t *Table) require(name string, aliases ...string) (int, error) {
	if idx, ok := t.column(aliases...); ok {
		return idx, nil
	}
	return 0, &MissingColumnError{Column: name}
}

func (t *Table) cell(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func (t *Table) float(row []string, idx int) float64 {
	val := t.cell(row, idx)
	if val == "" {
		return 0
	}
	// a comma is a decimal separator only when it cannot be a grouping
	// separator: otherwise ("1,234.5", "1,234,567") commas are stripped
	if strings.Contains(val, ".") || strings.Count(val, ",") > 1 {
		val = strings.ReplaceAll(val, ",", "")
	} else {
		val = strings.ReplaceAll(val, ",", ".")
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0
	}
	return f
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2006-01",
}

func (t *Table) date(row []string, idx int) (time.Time, bool) {
	val := t.cell(row, idx)
	if val == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, val); err == nil {
			return d.UTC(), true
		}
	}
	return time.Time{}, false
}
