// Package summary produces the read-only views of a table: a preview of
// its first rows and a per-column summary of types and missing values.
package summary

import (
	"github.com/Fanfan0315/Horisation/internal/table"
)

// Preview is the first rows of a table, rendered for JSON.
type Preview struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Summary describes a table's shape, column types and missing values.
type Summary struct {
	Rows    int                `json:"rows"`
	Cols    int                `json:"cols"`
	Columns []string           `json:"columns"`
	Dtypes  map[string]string  `json:"dtypes"`
	NACount map[string]int     `json:"na_count"`
	NARatio map[string]float64 `json:"na_ratio"`
}

// NewPreview returns the first min(n, rows) rows of t. Cells render as
// their display text and missing cells as nil.
func NewPreview(t *table.Table, n int) Preview {
	head := t.Head(n)
	rows := make([]map[string]any, len(head.Rows))
	for i, row := range head.Rows {
		rows[i] = RowMap(t.Columns, row)
	}
	return Preview{Columns: append([]string(nil), t.Columns...), Rows: rows}
}

// RowMap renders one row keyed by column name. Cells spelling a missing
// value ("", "nan", "none") render as nil, matching what Summarize counts.
func RowMap(columns []string, row []table.Value) map[string]any {
	m := make(map[string]any, len(columns))
	for j, c := range columns {
		if table.IsMissing(row[j]) {
			m[c] = nil
			continue
		}
		m[c] = row[j].Interface()
	}
	return m
}

// Summarize counts rows and columns and reports, per column, the inferred
// type and how many cells are missing. Ratios are zero for empty tables.
func Summarize(t *table.Table) Summary {
	s := Summary{
		Rows:    t.Len(),
		Cols:    len(t.Columns),
		Columns: append([]string(nil), t.Columns...),
		Dtypes:  make(map[string]string, len(t.Columns)),
		NACount: make(map[string]int, len(t.Columns)),
		NARatio: make(map[string]float64, len(t.Columns)),
	}

	for j, c := range t.Columns {
		missing := 0
		for _, row := range t.Rows {
			if table.IsMissing(row[j]) {
				missing++
			}
		}
		s.Dtypes[c] = string(t.Type(c))
		s.NACount[c] = missing
		if s.Rows > 0 {
			s.NARatio[c] = float64(missing) / float64(s.Rows)
		} else {
			s.NARatio[c] = 0
		}
	}
	return s
}
