// Package export writes tables and diff results to CSV, XLSX and JSON.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Fanfan0315/Horisation/internal/table"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// ErrUnknownFormat is returned for an output format other than csv, xlsx
// or json.
var ErrUnknownFormat = errors.New("unknown output format")

// ParseFormat normalizes a format name. Empty means csv.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")); f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromName picks the format from a file name's extension.
func FormatFromName(name string) (string, error) {
	return ParseFormat(filepath.Ext(name))
}

// Write renders t in the given format.
func Write(t *table.Table, format string, w io.Writer) error {
	f, err := ParseFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case FormatXLSX:
		return writeXLSX(t, w)
	case FormatJSON:
		return writeJSON(t, w)
	default:
		return writeCSV(t, w)
	}
}

func writeCSV(t *table.Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for j, v := range row {
			rec[j] = v.String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeJSON writes an array of records whose keys follow column order.
func writeJSON(t *table.Table, w io.Writer) error {
	var buf bytes.Buffer
	keys := make([][]byte, len(t.Columns))
	for j, c := range t.Columns {
		k, err := json.Marshal(c)
		if err != nil {
			return err
		}
		keys[j] = k
	}

	buf.WriteByte('[')
	for i, row := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, v := range row {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.Write(keys[j])
			buf.WriteByte(':')
			b, err := json.Marshal(cellValue(v))
			if err != nil {
				return fmt.Errorf("encode row %d: %w", i, err)
			}
			buf.Write(b)
		}
		buf.WriteByte('}')
	}
	buf.WriteString("]\n")

	_, err := w.Write(buf.Bytes())
	return err
}

// cellValue is the typed form of a cell for JSON and spreadsheet output.
func cellValue(v table.Value) any {
	if f, ok := v.Float(); ok {
		return f
	}
	return v.Interface()
}

func writeXLSX(t *table.Table, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), "Data"); err != nil {
		return err
	}
	if err := writeSheet(f, "Data", t); err != nil {
		return err
	}
	return f.Write(w)
}

// writeSheet writes the header and rows of t starting at A1.
func writeSheet(f *excelize.File, sheet string, t *table.Table) error {
	header := make([]any, len(t.Columns))
	for j, c := range t.Columns {
		header[j] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}

	for i, row := range t.Rows {
		vals := make([]any, len(row))
		for j, v := range row {
			vals[j] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i, err)
		}
	}
	return nil
}
