// Package combine stacks or joins two tables.
package combine

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Fanfan0315/Horisation/internal/table"
)

const (
	MethodConcat = "concat"
	MethodMerge  = "merge"
)

var (
	// ErrUnknownMethod is returned for a method other than concat or merge.
	ErrUnknownMethod = errors.New("unknown combine method")

	// ErrNoJoinColumns is returned by Merge without join columns.
	ErrNoJoinColumns = errors.New("merge requires at least one join column")
)

// MissingColumnError reports a join column absent from one table.
type MissingColumnError struct {
	Column string
	Side   int
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("join column %q not found in file %d", e.Column, e.Side)
}

// Combine dispatches to Concat or Merge by method name.
func Combine(t1, t2 *table.Table, method string, on []string) (*table.Table, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case MethodConcat, "":
		return Concat(t1, t2), nil
	case MethodMerge:
		return Merge(t1, t2, on)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// Concat stacks t2 under t1. Column names are trimmed and upper-cased, the
// result has the union of both in first-seen order, and cells a table
// does not have are Null.
func Concat(t1, t2 *table.Table) *table.Table {
	n1 := table.UniqueNames(upperNames(t1.Columns))
	n2 := table.UniqueNames(upperNames(t2.Columns))

	columns := slices.Clone(n1)
	for _, c := range n2 {
		if !slices.Contains(columns, c) {
			columns = append(columns, c)
		}
	}

	rows := make([][]table.Value, 0, t1.Len()+t2.Len())
	rows = appendAligned(rows, t1, n1, columns)
	rows = appendAligned(rows, t2, n2, columns)
	return table.FromRows(columns, rows)
}

func upperNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.ToUpper(strings.TrimSpace(n))
	}
	return out
}

// appendAligned copies the rows of t, whose columns are renamed to names,
// into the layout of columns.
func appendAligned(rows [][]table.Value, t *table.Table, names, columns []string) [][]table.Value {
	pos := make([]int, len(names))
	for j, n := range names {
		pos[j] = slices.Index(columns, n)
	}
	for _, src := range t.Rows {
		row := make([]table.Value, len(columns))
		for j, v := range src {
			row[pos[j]] = v
		}
		rows = append(rows, row)
	}
	return rows
}

// Merge inner-joins t1 and t2 on the trimmed text of the on columns. Every
// matching pair of rows produces one output row, in t1 order and then t2
// order. Non-key columns present on both sides are suffixed _L and _R.
// Rows with a missing join cell never match.
func Merge(t1, t2 *table.Table, on []string) (*table.Table, error) {
	var keys []string
	for _, c := range on {
		if c = strings.TrimSpace(c); c != "" && !slices.Contains(keys, c) {
			keys = append(keys, c)
		}
	}
	if len(keys) == 0 {
		return nil, ErrNoJoinColumns
	}

	k1 := make([]int, len(keys))
	k2 := make([]int, len(keys))
	for i, c := range keys {
		if k1[i] = t1.Index(c); k1[i] < 0 {
			return nil, &MissingColumnError{Column: c, Side: 1}
		}
		if k2[i] = t2.Index(c); k2[i] < 0 {
			return nil, &MissingColumnError{Column: c, Side: 2}
		}
	}

	var columns []string
	var left, right []int
	for j, c := range t1.Columns {
		switch {
		case slices.Contains(keys, c):
			columns = append(columns, c)
		case t2.Has(c):
			columns = append(columns, c+"_L")
		default:
			columns = append(columns, c)
		}
		left = append(left, j)
	}
	for j, c := range t2.Columns {
		switch {
		case slices.Contains(keys, c):
			continue
		case t1.Has(c):
			columns = append(columns, c+"_R")
		default:
			columns = append(columns, c)
		}
		right = append(right, j)
	}

	index := make(map[string][]int)
	for i, row := range t2.Rows {
		if k, ok := joinKey(row, k2); ok {
			index[k] = append(index[k], i)
		}
	}

	var rows [][]table.Value
	for _, r1 := range t1.Rows {
		k, ok := joinKey(r1, k1)
		if !ok {
			continue
		}
		for _, i := range index[k] {
			r2 := t2.Rows[i]
			row := make([]table.Value, 0, len(columns))
			for _, j := range left {
				v := r1[j]
				if slices.Contains(k1, j) {
					v = table.Text(strings.TrimSpace(v.String()))
				}
				row = append(row, v)
			}
			for _, j := range right {
				row = append(row, r2[j])
			}
			rows = append(rows, row)
		}
	}

	return table.FromRows(columns, rows), nil
}

func joinKey(row []table.Value, cols []int) (string, bool) {
	parts := make([]string, len(cols))
	for i, j := range cols {
		if table.IsMissing(row[j]) {
			return "", false
		}
		parts[i] = strings.TrimSpace(row[j].String())
	}
	return strings.Join(parts, "\x1f"), true
}
