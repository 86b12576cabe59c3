package clean

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Fanfan0315/Horisation/internal/table"
)

// dateLayouts maps the date_format option to Go layouts.
var dateLayouts = map[string]string{
	"YYYY-MM-DD": "2006-01-02",
	"DD-MM-YY":   "02-01-06",
	"MM-YY":      "01-06",
}

// formatDates re-renders every cell of date columns in the configured
// layout. A text column counts as a date column when more than half of its
// non-missing cells parse as dates. Text that does not parse becomes
// missing.
func (r *run) formatDates() bool {
	layout := dateLayouts[r.opts.DateFormat]
	changed := false
	for j, c := range r.t.Columns {
		typ := r.t.Type(c)
		if typ != table.TypeDate && !(typ == table.TypeText && mostlyDates(r.t, j)) {
			continue
		}
		for i, row := range r.t.Rows {
			v := row[j]
			switch {
			case v.Kind() == table.KindDate:
				d, _ := v.Time()
				if s := d.Format(layout); s != v.String() {
					row[j] = table.Date(d, s)
					changed = true
				}
			case v.Kind() == table.KindText && !table.IsMissing(v):
				if d, ok := table.ParseDate(v.String()); ok {
					row[j] = table.Date(d, d.Format(layout))
				} else {
					r.dropUnconvertible(i, j, v.String(), table.TypeDate)
				}
				changed = true
			}
		}
		if typ == table.TypeText {
			r.t.Retype(j)
		}
	}
	return changed
}

// mostlyDates reports whether more than half of the non-missing cells of
// column j are dates or text that parses as one.
func mostlyDates(t *table.Table, j int) bool {
	nonMissing, dates := 0, 0
	for _, row := range t.Rows {
		v := row[j]
		if table.IsMissing(v) {
			continue
		}
		nonMissing++
		if v.Kind() == table.KindDate || table.IsDate(v.String()) {
			dates++
		}
	}
	return dates > 0 && dates*2 > nonMissing
}

// fillMissing replaces missing numeric cells with the column median and
// missing text cells with "". Date columns are left alone.
func (r *run) fillMissing() bool {
	changed := false
	for j, c := range r.t.Columns {
		switch r.t.Type(c) {
		case table.TypeNumeric:
			nums := columnNumbers(r.t, j)
			if len(nums) == 0 {
				continue
			}
			fill := table.Number(median(nums))
			for _, row := range r.t.Rows {
				if table.IsMissing(row[j]) {
					row[j] = fill
					changed = true
				}
			}
		case table.TypeText:
			for _, row := range r.t.Rows {
				v := row[j]
				if table.IsMissing(v) && !(v.Kind() == table.KindText && v.String() == "") {
					row[j] = table.Text("")
					changed = true
				}
			}
		}
	}
	return changed
}

// columnNumbers returns the payloads of the Number cells of column j.
func columnNumbers(t *table.Table, j int) []float64 {
	var nums []float64
	for _, row := range t.Rows {
		if f, ok := row[j].Float(); ok {
			nums = append(nums, f)
		}
	}
	return nums
}

var two = decimal.NewFromInt(2)

// median and mean work in decimal so fill values keep the precision of
// their inputs (the median of 1.84 and 1.85 is 1.845).
func median(nums []float64) float64 {
	s := make([]decimal.Decimal, len(nums))
	for i, f := range nums {
		s[i] = decimal.NewFromFloat(f)
	}
	sort.Slice(s, func(a, b int) bool { return s[a].LessThan(s[b]) })
	n := len(s)
	if n%2 == 1 {
		return s[n/2].InexactFloat64()
	}
	return s[n/2-1].Add(s[n/2]).Div(two).InexactFloat64()
}

func mean(nums []float64) float64 {
	sum := decimal.Zero
	for _, f := range nums {
		sum = sum.Add(decimal.NewFromFloat(f))
	}
	return sum.Div(decimal.NewFromInt(int64(len(nums)))).InexactFloat64()
}
