// Package table defines the in-memory tabular model every engine component
// works on: ordered unique column names, rows of typed cells, and an
// inferred type per column.
//
// Tables are request-scoped and treated as immutable by the components that
// consume them; transformations work on a Clone.
package table

import (
	"fmt"
	"strconv"
)

// ColumnType is the inferred type of a column.
type ColumnType string

const (
	TypeNumeric ColumnType = "numeric"
	TypeDate    ColumnType = "date"
	TypeText    ColumnType = "text"
)

// SampleSize caps how many non-missing cells type inference inspects.
const SampleSize = 1000

// Source records how a table was decoded.
type Source struct {
	Filename  string `json:"filename"`
	Format    string `json:"format"`
	Encoding  string `json:"encoding,omitempty"`
	Separator string `json:"separator,omitempty"`
	Sheet     string `json:"sheet,omitempty"`
}

// Table is an ordered sequence of rows over an ordered set of unique
// column names. Every row holds exactly one value per column.
type Table struct {
	Columns []string
	Rows    [][]Value
	Types   map[string]ColumnType
	Source  Source
}

// New builds a table from a header and raw text records. Column names are
// made unique, empty cells become Null, short records are padded and long
// records widen the header. Column types are inferred and cells converted.
func New(header []string, records [][]string) *Table {
	width := len(header)
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	names := make([]string, width)
	for i := range names {
		if i < len(header) && header[i] != "" {
			names[i] = header[i]
		} else {
			names[i] = "Unnamed: " + strconv.Itoa(i)
		}
	}

	rows := make([][]Value, len(records))
	for i, rec := range records {
		row := make([]Value, width)
		for j := range row {
			if j < len(rec) && rec[j] != "" {
				row[j] = Text(rec[j])
			}
		}
		rows[i] = row
	}

	return FromRows(names, rows)
}

// FromRows builds a table from already-typed rows, re-inferring each
// column's type and converting text cells that fit it.
func FromRows(columns []string, rows [][]Value) *Table {
	t := &Table{
		Columns: UniqueNames(columns),
		Rows:    rows,
		Types:   make(map[string]ColumnType, len(columns)),
	}
	for j := range t.Columns {
		t.Retype(j)
	}
	return t
}

// Retype infers the type of column j from its current cells and converts
// text cells that match the inferred type.
func (t *Table) Retype(j int) ColumnType {
	typ := InferType(t.Rows, j)
	t.Types[t.Columns[j]] = typ
	if typ == TypeText {
		return typ
	}
	for _, row := range t.Rows {
		v := row[j]
		if v.Kind() != KindText || IsMissing(v) {
			continue
		}
		switch typ {
		case TypeNumeric:
			if f, ok := ParseNumber(v.String()); ok {
				row[j] = NumberWithText(f, v.String())
			}
		case TypeDate:
			if d, ok := ParseDate(v.String()); ok {
				row[j] = Date(d, v.String())
			}
		}
	}
	return typ
}

// InferType classifies column j by sampling its non-missing cells: all
// numeric means numeric, else all dates means date, else text. A column
// without non-missing cells is text.
func InferType(rows [][]Value, j int) ColumnType {
	numeric, date := true, true
	sampled := 0
	for _, row := range rows {
		if sampled >= SampleSize || (!numeric && !date) {
			break
		}
		v := row[j]
		if IsMissing(v) {
			continue
		}
		sampled++
		switch v.Kind() {
		case KindNumber:
			date = false
		case KindDate:
			numeric = false
		default:
			s := v.String()
			numeric = numeric && IsNumeric(s)
			date = date && IsDate(s)
		}
	}

	switch {
	case sampled == 0:
		return TypeText
	case numeric:
		return TypeNumeric
	case date:
		return TypeDate
	default:
		return TypeText
	}
}

// UniqueNames returns names with repeats suffixed _1, _2, ... in
// first-seen order.
func UniqueNames(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]bool, len(names))
	for i, name := range names {
		candidate := name
		for k := 1; seen[candidate]; k++ {
			candidate = fmt.Sprintf("%s_%d", name, k)
		}
		seen[candidate] = true
		out[i] = candidate
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the table has the named column.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Type returns the inferred type of the named column.
func (t *Table) Type(name string) ColumnType {
	if typ, ok := t.Types[name]; ok {
		return typ
	}
	return TypeText
}

// ColumnsOfType returns, in column order, the names whose type is typ.
func (t *Table) ColumnsOfType(typ ColumnType) []string {
	var out []string
	for _, c := range t.Columns {
		if t.Types[c] == typ {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	c := &Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]Value, len(t.Rows)),
		Types:   make(map[string]ColumnType, len(t.Types)),
		Source:  t.Source,
	}
	for i, row := range t.Rows {
		c.Rows[i] = append([]Value(nil), row...)
	}
	for k, v := range t.Types {
		c.Types[k] = v
	}
	return c
}

// Head returns a table sharing t's first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n], Types: t.Types, Source: t.Source}
}

// Rename replaces the column names, carrying each column's type over.
// The caller guarantees names are unique and len(names) == len(t.Columns).
func (t *Table) Rename(names []string) {
	types := make(map[string]ColumnType, len(names))
	for i, old := range t.Columns {
		types[names[i]] = t.Types[old]
	}
	t.Columns = append([]string(nil), names...)
	t.Types = types
}
