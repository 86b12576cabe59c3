package diff

import (
	"context"

	"github.com/Fanfan0315/Horisation/internal/table"
)

// Flag marks why a cell is highlighted.
type Flag string

const (
	FlagUp      Flag = "up"      // file-2 value is larger
	FlagDown    Flag = "down"    // file-2 value is smaller
	FlagChanged Flag = "changed" // non-numeric difference
	FlagOnly    Flag = "only"    // row exists on this side only
	FlagMissing Flag = "missing" // one side is missing
)

// CellMark flags one cell of a highlighted table.
type CellMark struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Flag   Flag   `json:"flag"`
}

// Highlighted holds copies of both tables with the cells that differ
// flagged on each side. Unflagged cells are unchanged.
type Highlighted struct {
	Table1 *table.Table
	Table2 *table.Table
	Marks1 []CellMark
	Marks2 []CellMark
	Report *Report
}

// FlaggedCells returns the number of flagged cells across both tables.
func (h *Highlighted) FlaggedCells() int { return len(h.Marks1) + len(h.Marks2) }

// BuildHighlight compares t1 and t2 under m and flags differing cells.
// Rows present on one side only are flagged across every column.
func BuildHighlight(ctx context.Context, t1, t2 *table.Table, m Mapping) (*Highlighted, error) {
	c, err := compareTables(ctx, t1, t2, m)
	if err != nil {
		return nil, err
	}

	h := &Highlighted{
		Table1: t1.Clone(),
		Table2: t2.Clone(),
		Report: c.report(m.normalized().PrimaryKey),
	}

	only1 := make(map[int]bool)
	only2 := make(map[int]bool)
	for _, d := range c.discrepancies {
		switch d.Kind {
		case KindOnlyInFile1:
			only1[d.Row1] = true
		case KindOnlyInFile2:
			only2[d.Row2] = true
		default:
			f1, f2 := mismatchFlags(d)
			h.Marks1 = append(h.Marks1, CellMark{Row: d.Row1, Column: d.Column, Flag: f1})
			h.Marks2 = append(h.Marks2, CellMark{Row: d.Row2, Column: d.Column, Flag: f2})
		}
	}

	h.Marks1 = append(h.Marks1, wholeRows(h.Table1, only1)...)
	h.Marks2 = append(h.Marks2, wholeRows(h.Table2, only2)...)
	return h, nil
}

func mismatchFlags(d Discrepancy) (Flag, Flag) {
	switch {
	case d.Value1 == nil || d.Value2 == nil:
		return FlagMissing, FlagMissing
	case d.Direction == DirectionUp:
		return FlagUp, FlagUp
	case d.Direction == DirectionDown:
		return FlagDown, FlagDown
	}
	return FlagChanged, FlagChanged
}

func wholeRows(t *table.Table, rows map[int]bool) []CellMark {
	var marks []CellMark
	for i := range t.Rows {
		if !rows[i] {
			continue
		}
		for _, c := range t.Columns {
			marks = append(marks, CellMark{Row: i, Column: c, Flag: FlagOnly})
		}
	}
	return marks
}
