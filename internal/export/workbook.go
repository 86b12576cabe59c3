package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Fanfan0315/Horisation/internal/diff"
	"github.com/Fanfan0315/Horisation/internal/table"
)

// Sheet names of the diff workbooks.
const (
	SheetFile1   = "File1"
	SheetFile2   = "File2"
	SheetSummary = "Diff Summary"
)

// Fill colors per highlight flag.
var flagColors = map[diff.Flag]string{
	diff.FlagUp:      "FFFF00",
	diff.FlagDown:    "92D050",
	diff.FlagChanged: "FFFF00",
	diff.FlagOnly:    "FFC000",
	diff.FlagMissing: "D9D9D9",
}

// HighlightWorkbook writes both tables to their own sheet with differing
// cells filled by flag.
func HighlightWorkbook(h *diff.Highlighted, w io.Writer) error {
	f, err := newDiffWorkbook(h.Table1, h.Table2)
	if err != nil {
		return err
	}
	defer f.Close()

	styles := make(map[diff.Flag]int, len(flagColors))
	for flag, color := range flagColors {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return fmt.Errorf("create %s style: %w", flag, err)
		}
		styles[flag] = id
	}

	if err := applyMarks(f, SheetFile1, h.Table1, h.Marks1, styles); err != nil {
		return err
	}
	if err := applyMarks(f, SheetFile2, h.Table2, h.Marks2, styles); err != nil {
		return err
	}
	return f.Write(w)
}

func applyMarks(f *excelize.File, sheet string, t *table.Table, marks []diff.CellMark, styles map[diff.Flag]int) error {
	for _, m := range marks {
		j := t.Index(m.Column)
		if j < 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(j+1, m.Row+2)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, styles[m.Flag]); err != nil {
			return fmt.Errorf("style %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// summaryHeader is the header row of the Diff Summary sheet.
var summaryHeader = []any{"key", "column", "value1", "value2", "delta", "kind", "direction"}

// ReportWorkbook writes both tables plus a Diff Summary sheet listing the
// discrepancies of r.
func ReportWorkbook(t1, t2 *table.Table, r *diff.Report, w io.Writer) error {
	f, err := newDiffWorkbook(t1, t2)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}
	header := summaryHeader
	if err := f.SetSheetRow(SheetSummary, "A1", &header); err != nil {
		return err
	}
	for i, d := range r.Discrepancies {
		var delta any
		if d.Delta != nil {
			delta = *d.Delta
		}
		row := []any{d.Key, d.Column, d.Value1, d.Value2, delta, string(d.Kind), string(d.Direction)}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i, err)
		}
	}
	return f.Write(w)
}

func newDiffWorkbook(t1, t2 *table.Table) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetFile1); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetFile2); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, SheetFile1, t1); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSheet(f, SheetFile2, t2); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
