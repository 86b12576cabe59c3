package clean

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Fanfan0315/Horisation/internal/table"
)

var percentRegex = regexp.MustCompile(`^([+-]?((\d{1,3}(,\d{3})+|\d+)(\.\d*)?|\.\d+))\s*%$`)

var hundred = decimal.NewFromInt(100)

// numericCells calls fn for every Number cell of every numeric column.
// fn returns the replacement and whether it differs.
func (r *run) numericCells(fn func(f float64) (float64, bool)) bool {
	changed := false
	for j, c := range r.t.Columns {
		if r.t.Type(c) != table.TypeNumeric {
			continue
		}
		for _, row := range r.t.Rows {
			f, ok := row[j].Float()
			if !ok {
				continue
			}
			if nf, diff := fn(f); diff {
				row[j] = table.Number(nf)
				changed = true
			}
		}
	}
	return changed
}

func (r *run) roundNumbers() bool {
	places := int32(r.opts.Decimals)
	return r.numericCells(func(f float64) (float64, bool) {
		rounded, _ := decimal.NewFromFloat(f).Round(places).Float64()
		return rounded, rounded != f
	})
}

func (r *run) scaleNumbers() bool {
	if r.opts.ScaleFactor == 0 || r.opts.ScaleFactor == 1 {
		return false
	}
	factor := decimal.NewFromFloat(r.opts.ScaleFactor)
	return r.numericCells(func(f float64) (float64, bool) {
		scaled, _ := decimal.NewFromFloat(f).Mul(factor).Float64()
		return scaled, scaled != f
	})
}

// looksLikePercentColumn reports whether a header names a percentage.
func looksLikePercentColumn(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "%") || strings.Contains(n, "pct") || strings.Contains(n, "percent")
}

// parsePercent converts "12.5%" to 0.125.
func parsePercent(s string) (float64, bool) {
	m := percentRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	f, _ := d.Div(hundred).Float64()
	return f, true
}

// convertPercentages turns "NN%" text into NN/100 in columns whose header
// names a percentage or whose non-missing cells are mostly percentages.
func (r *run) convertPercentages() bool {
	changed := false
	for j, c := range r.t.Columns {
		nonMissing, pct := 0, 0
		for _, row := range r.t.Rows {
			v := row[j]
			if table.IsMissing(v) {
				continue
			}
			nonMissing++
			if v.Kind() == table.KindText && percentRegex.MatchString(strings.TrimSpace(v.String())) {
				pct++
			}
		}
		if pct == 0 || (!looksLikePercentColumn(c) && pct*2 <= nonMissing) {
			continue
		}

		for _, row := range r.t.Rows {
			if row[j].Kind() != table.KindText {
				continue
			}
			if f, ok := parsePercent(row[j].String()); ok {
				row[j] = table.Number(f)
				changed = true
			}
		}
		r.t.Retype(j)
	}
	return changed
}
