// Package diff compares the numeric columns of two tables.
//
// Rows are aligned by a primary key column when the mapping names one,
// otherwise by position. Both output shapes, the discrepancy report and
// the highlighted tables, come from the same comparison pass.
package diff

import (
	"context"
	"math"
	"slices"
	"strings"

	"github.com/Fanfan0315/Horisation/internal/logging"
	"github.com/Fanfan0315/Horisation/internal/table"
)

// ColumnMetadata lists the numeric columns of two tables and the ones they
// share, in table-1 order.
type ColumnMetadata struct {
	NumericColumns1      []string `json:"numeric_columns1"`
	NumericColumns2      []string `json:"numeric_columns2"`
	SharedNumericColumns []string `json:"shared_numeric_columns"`
}

// Metadata inspects both tables without modifying them.
func Metadata(t1, t2 *table.Table) ColumnMetadata {
	md := ColumnMetadata{
		NumericColumns1:      nonNil(t1.ColumnsOfType(table.TypeNumeric)),
		NumericColumns2:      nonNil(t2.ColumnsOfType(table.TypeNumeric)),
		SharedNumericColumns: []string{},
	}
	for _, c := range md.NumericColumns1 {
		if slices.Contains(md.NumericColumns2, c) {
			md.SharedNumericColumns = append(md.SharedNumericColumns, c)
		}
	}
	return md
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Kind classifies a discrepancy.
type Kind string

const (
	KindMismatch    Kind = "mismatch"
	KindOnlyInFile1 Kind = "only_in_file1"
	KindOnlyInFile2 Kind = "only_in_file2"
)

// Direction tells whether the file-2 value is above or below file 1.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Discrepancy is one differing cell. Key is the primary key value (a
// number or a string) or the row index under positional alignment. Delta
// is value2 - value1 and is nil unless both values are numbers.
type Discrepancy struct {
	Key       any       `json:"key"`
	Column    string    `json:"column"`
	Value1    any       `json:"value1"`
	Value2    any       `json:"value2"`
	Delta     *float64  `json:"delta"`
	Kind      Kind      `json:"kind"`
	Direction Direction `json:"direction,omitempty"`

	// Row positions in each table, -1 when the row is absent on that side.
	Row1 int `json:"-"`
	Row2 int `json:"-"`

	order sortKey
}

// pair is one aligned row: its key and the row in each table (-1 if absent).
type pair struct {
	key  any
	sort sortKey
	row1 int
	row2 int
}

// sortKey orders keys: numeric keys by value, then text keys
// lexicographically.
type sortKey struct {
	text bool
	num  float64
	str  string
}

func (a sortKey) compare(b sortKey) int {
	switch {
	case a.text != b.text:
		if a.text {
			return 1
		}
		return -1
	case a.text:
		return cmpStrings(a.str, b.str)
	case a.num < b.num:
		return -1
	case a.num > b.num:
		return 1
	}
	return 0
}

func cmpStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// alignment is the outcome of lining up the rows of two tables.
type alignment struct {
	pairs          []pair
	missingKeys1   int
	missingKeys2   int
	duplicateKeys1 []string
	duplicateKeys2 []string
}

// comparison is the shared result both output shapes are built from.
type comparison struct {
	alignment
	columns       []string
	discrepancies []Discrepancy
}

func compareTables(ctx context.Context, t1, t2 *table.Table, m Mapping) (*comparison, error) {
	if err := m.Validate(t1, t2); err != nil {
		return nil, err
	}
	m = m.normalized()

	var a alignment
	if m.PrimaryKey != "" {
		a = alignByKey(t1, t2, m.PrimaryKey)
	} else {
		a = alignByPosition(t1, t2)
	}

	c := &comparison{alignment: a, columns: m.SelectedColumns}
	tol := m.tolerance()

	for _, p := range a.pairs {
		for _, col := range m.SelectedColumns {
			j1, j2 := t1.Index(col), t2.Index(col)
			switch {
			case p.row2 < 0:
				v1 := t1.Rows[p.row1][j1]
				c.add(p, col, cellValue(v1), nil, nil, KindOnlyInFile1, "")
			case p.row1 < 0:
				v2 := t2.Rows[p.row2][j2]
				c.add(p, col, nil, cellValue(v2), nil, KindOnlyInFile2, "")
			default:
				v1, v2 := t1.Rows[p.row1][j1], t2.Rows[p.row2][j2]
				if differ, delta, dir := compareCells(v1, v2, tol); differ {
					c.add(p, col, cellValue(v1), cellValue(v2), delta, KindMismatch, dir)
				}
			}
		}
	}

	slices.SortStableFunc(c.discrepancies, func(a, b Discrepancy) int {
		if n := a.order.compare(b.order); n != 0 {
			return n
		}
		return cmpStrings(a.Column, b.Column)
	})

	log := logging.WithFields(ctx, "component", "diff")
	if a.missingKeys1+a.missingKeys2 > 0 || len(a.duplicateKeys1)+len(a.duplicateKeys2) > 0 {
		log.Warn("rows skipped or shadowed during key alignment",
			"primary_key", m.PrimaryKey,
			"missing_keys1", a.missingKeys1,
			"missing_keys2", a.missingKeys2,
			"duplicate_keys1", len(a.duplicateKeys1),
			"duplicate_keys2", len(a.duplicateKeys2),
		)
	}
	log.Debug("diff compared",
		"aligned_rows", len(a.pairs),
		"columns", len(m.SelectedColumns),
		"discrepancies", len(c.discrepancies),
	)
	return c, nil
}

func (c *comparison) add(p pair, col string, v1, v2 any, delta *float64, kind Kind, dir Direction) {
	c.discrepancies = append(c.discrepancies, Discrepancy{
		Key:       p.key,
		Column:    col,
		Value1:    v1,
		Value2:    v2,
		Delta:     delta,
		Kind:      kind,
		Direction: dir,
		Row1:      p.row1,
		Row2:      p.row2,
		order:     p.sort,
	})
}

// compareCells reports whether two aligned cells differ. Two missing cells
// are equal; one missing cell is a difference without a delta.
func compareCells(v1, v2 table.Value, tol float64) (bool, *float64, Direction) {
	m1, m2 := table.IsMissing(v1), table.IsMissing(v2)
	switch {
	case m1 && m2:
		return false, nil, ""
	case m1 || m2:
		return true, nil, ""
	}

	f1, ok1 := v1.Float()
	f2, ok2 := v2.Float()
	if !ok1 || !ok2 {
		return v1.String() != v2.String(), nil, ""
	}

	d := f2 - f1
	if math.Abs(d) <= tol {
		return false, nil, ""
	}
	dir := DirectionUp
	if d < 0 {
		dir = DirectionDown
	}
	return true, &d, dir
}

// cellValue renders a cell for a report: numbers as float64, missing as
// nil, anything else as its text.
func cellValue(v table.Value) any {
	if f, ok := v.Float(); ok {
		return f
	}
	if table.IsMissing(v) {
		return nil
	}
	return v.Interface()
}

func alignByPosition(t1, t2 *table.Table) alignment {
	n := max(t1.Len(), t2.Len())
	a := alignment{pairs: make([]pair, n)}
	for i := range n {
		p := pair{key: i, sort: sortKey{num: float64(i)}, row1: i, row2: i}
		if i >= t1.Len() {
			p.row1 = -1
		}
		if i >= t2.Len() {
			p.row2 = -1
		}
		a.pairs[i] = p
	}
	return a
}

// keyIndex maps canonical key text to the first row holding it.
type keyIndex struct {
	rows       map[string]int
	order      []string
	missing    int
	duplicates []string
}

// indexKeys indexes the primary key column. byText keys cells by their
// trimmed display text, used when the key column is typed differently in
// the two files.
func indexKeys(t *table.Table, pk string, byText bool) keyIndex {
	j := t.Index(pk)
	idx := keyIndex{rows: make(map[string]int, t.Len())}
	reported := make(map[string]bool)
	for i, row := range t.Rows {
		v := row[j]
		if table.IsMissing(v) {
			idx.missing++
			continue
		}
		k := v.Key()
		if byText {
			k = "s:" + strings.TrimSpace(v.String())
		}
		if _, dup := idx.rows[k]; dup {
			if !reported[k] {
				reported[k] = true
				idx.duplicates = append(idx.duplicates, v.String())
			}
			continue
		}
		idx.rows[k] = i
		idx.order = append(idx.order, k)
	}
	return idx
}

func alignByKey(t1, t2 *table.Table, pk string) alignment {
	byText := t1.Type(pk) != t2.Type(pk)
	idx1, idx2 := indexKeys(t1, pk, byText), indexKeys(t2, pk, byText)
	j1, j2 := t1.Index(pk), t2.Index(pk)

	a := alignment{
		missingKeys1:   idx1.missing,
		missingKeys2:   idx2.missing,
		duplicateKeys1: idx1.duplicates,
		duplicateKeys2: idx2.duplicates,
	}

	for _, k := range idx1.order {
		r1 := idx1.rows[k]
		r2, ok := idx2.rows[k]
		if !ok {
			r2 = -1
		}
		key, sk := keyOf(t1.Rows[r1][j1])
		a.pairs = append(a.pairs, pair{key: key, sort: sk, row1: r1, row2: r2})
	}
	for _, k := range idx2.order {
		if _, ok := idx1.rows[k]; ok {
			continue
		}
		r2 := idx2.rows[k]
		key, sk := keyOf(t2.Rows[r2][j2])
		a.pairs = append(a.pairs, pair{key: key, sort: sk, row1: -1, row2: r2})
	}
	return a
}

// keyOf renders a primary key cell for the report and for ordering.
// Text that spells a number sorts numerically.
func keyOf(v table.Value) (any, sortKey) {
	if f, ok := v.Float(); ok {
		return f, sortKey{num: f}
	}
	if f, ok := table.ParseNumber(v.String()); ok {
		return v.String(), sortKey{num: f}
	}
	return v.String(), sortKey{text: true, str: v.String()}
}
