package resolve

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound reports a requested sheet that the workbook lacks.
var ErrSheetNotFound = errors.New("sheet not found")

// readSpreadsheet decodes one sheet of an OOXML workbook. The first
// headerRows rows form the header; with more than one they are flattened
// into single names.
func readSpreadsheet(raw []byte, sheet string, headerRows, maxRows int) (string, []string, [][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return "", nil, nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", nil, nil, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return "", nil, nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	if headerRows < 1 {
		headerRows = 1
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return sheet, nil, nil, err
	}
	defer rows.Close()

	rc := rowCollector{headerRows: headerRows, maxRows: maxRows}
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return sheet, nil, nil, err
		}
		if !rc.add(cols) {
			break
		}
	}
	if err := rows.Error(); err != nil {
		return sheet, nil, nil, err
	}
	if len(rc.levels) == 0 {
		return sheet, nil, nil, nil
	}
	if headerRows == 1 {
		return sheet, rc.levels[0], rc.records, nil
	}

	levels := rc.levels
	merges, err := f.GetMergeCells(sheet)
	if err != nil {
		return sheet, nil, nil, err
	}
	spreadMerges(levels, merges)
	return sheet, flattenHeader(levels), rc.records, nil
}

// rowCollector splits sheet rows into header levels and data records.
// Blank data rows are skipped.
type rowCollector struct {
	headerRows int
	maxRows    int
	levels     [][]string
	records    [][]string
}

// add takes the next row and reports whether more rows are wanted.
func (rc *rowCollector) add(cols []string) bool {
	if len(rc.levels) < rc.headerRows {
		rc.levels = append(rc.levels, cols)
		return true
	}
	if !isBlankRow(cols) {
		rc.records = append(rc.records, cols)
	}
	return rc.maxRows <= 0 || len(rc.records) < rc.maxRows
}

// header returns the single header row, or the flattened levels.
func (rc *rowCollector) header() []string {
	switch len(rc.levels) {
	case 0:
		return nil
	case 1:
		return rc.levels[0]
	}
	return flattenHeader(rc.levels)
}

// spreadMerges copies the value of each merged range that overlaps the
// header rows into every header cell the range covers.
func spreadMerges(levels [][]string, merges []excelize.MergeCell) {
	for _, mc := range merges {
		c1, r1, err := excelize.CellNameToCoordinates(mc.GetStartAxis())
		if err != nil {
			continue
		}
		c2, r2, err := excelize.CellNameToCoordinates(mc.GetEndAxis())
		if err != nil {
			continue
		}
		value := mc.GetCellValue()
		for r := r1; r <= r2 && r <= len(levels); r++ {
			row := levels[r-1]
			for len(row) < c2 {
				row = append(row, "")
			}
			for c := c1; c <= c2; c++ {
				row[c-1] = value
			}
			levels[r-1] = row
		}
	}
}

// flattenHeader joins the non-blank header levels of each column with "_".
// A level repeating the one above it (a vertically merged cell) is dropped.
func flattenHeader(levels [][]string) []string {
	width := 0
	for _, lvl := range levels {
		if len(lvl) > width {
			width = len(lvl)
		}
	}

	header := make([]string, width)
	for c := 0; c < width; c++ {
		var parts []string
		for _, lvl := range levels {
			if c >= len(lvl) {
				continue
			}
			part := strings.TrimSpace(lvl[c])
			if part == "" || (len(parts) > 0 && parts[len(parts)-1] == part) {
				continue
			}
			parts = append(parts, part)
		}
		header[c] = strings.Join(parts, "_")
	}
	return header
}

func isBlankRow(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
