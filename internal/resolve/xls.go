package resolve

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
)

// readLegacyWorkbook decodes one sheet of a BIFF (.xls) workbook with the
// same header and row rules as readSpreadsheet. Merged header cells are
// not spread: the BIFF reader does not expose merge ranges.
func readLegacyWorkbook(raw []byte, sheet string, headerRows, maxRows int) (name string, header []string, records [][]string, err error) {
	// The BIFF parser panics on some truncated files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("decode xls: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(raw), "utf-8")
	if err != nil {
		return "", nil, nil, err
	}
	if wb.NumSheets() == 0 {
		return "", nil, nil, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}

	var ws *xls.WorkSheet
	for i := 0; i < wb.NumSheets(); i++ {
		s := wb.GetSheet(i)
		if s != nil && (sheet == "" || s.Name == sheet) {
			ws = s
			break
		}
	}
	if ws == nil {
		return "", nil, nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}
	if headerRows < 1 {
		headerRows = 1
	}

	rc := rowCollector{headerRows: headerRows, maxRows: maxRows}
	for r := 0; r <= int(ws.MaxRow); r++ {
		if !rc.add(legacyRow(ws.Row(r))) {
			break
		}
	}
	return ws.Name, rc.header(), rc.records, nil
}

// legacyRow returns the cell texts of row from column A on. A missing row
// is blank.
func legacyRow(row *xls.Row) []string {
	if row == nil {
		return nil
	}
	cols := make([]string, row.LastCol())
	for c := row.FirstCol(); c < row.LastCol(); c++ {
		cols[c] = row.Col(c)
	}
	return cols
}
