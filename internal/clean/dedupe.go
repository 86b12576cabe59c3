package clean

import (
	"strings"

	"github.com/Fanfan0315/Horisation/internal/table"
)

// rowKey joins the canonical keys of the given columns (all when cols is
// empty).
func rowKey(row []table.Value, cols []int) string {
	var b strings.Builder
	if len(cols) == 0 {
		for _, v := range row {
			b.WriteString(v.Key())
			b.WriteByte(0x1f)
		}
		return b.String()
	}
	for _, j := range cols {
		b.WriteString(row[j].Key())
		b.WriteByte(0x1f)
	}
	return b.String()
}

// removeDuplicates drops rows whose subset key repeats, keeping the first
// or last occurrence. Surviving rows keep their relative order.
func (r *run) removeDuplicates() bool {
	n := len(r.t.Rows)
	keep := make([]bool, n)
	seen := make(map[string]bool, n)

	mark := func(i int) {
		k := rowKey(r.t.Rows[i], r.subset)
		if !seen[k] {
			seen[k] = true
			keep[i] = true
		}
	}
	if r.opts.Keep == "last" {
		for i := n - 1; i >= 0; i-- {
			mark(i)
		}
	} else {
		for i := 0; i < n; i++ {
			mark(i)
		}
	}

	rows := make([][]table.Value, 0, len(seen))
	for i, row := range r.t.Rows {
		if keep[i] {
			rows = append(rows, row)
		}
	}
	r.removed = n - len(rows)
	r.t.Rows = rows
	return r.removed > 0
}
