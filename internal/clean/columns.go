package clean

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Fanfan0315/Horisation/internal/table"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CleanColumnNames normalizes header names: trim, whitespace runs to "_",
// optionally drop everything but letters, digits and "_", apply the case
// transform, then make the result unique. Applying it twice is a no-op.
func CleanColumnNames(names []string, caseMode string, stripSpecial bool) []string {
	out := make([]string, len(names))
	for i, name := range names {
		s := whitespaceRun.ReplaceAllString(strings.TrimSpace(name), "_")
		if stripSpecial {
			s = strings.Map(func(r rune) rune {
				if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
					return r
				}
				return -1
			}, s)
		}
		if s == "" {
			s = fmt.Sprintf("column_%d", i+1)
		}
		out[i] = applyCase(s, caseMode)
	}
	return table.UniqueNames(out)
}

func applyCase(s, mode string) string {
	switch mode {
	case "upper":
		return cases.Upper(language.Und).String(s)
	case "lower":
		return cases.Lower(language.Und).String(s)
	case "title":
		title := cases.Title(language.Und)
		parts := strings.Split(s, "_")
		for i, p := range parts {
			parts[i] = title.String(p)
		}
		return strings.Join(parts, "_")
	default:
		return s
	}
}

func (r *run) normalizeColumns() bool {
	names := CleanColumnNames(r.t.Columns, r.opts.Case, r.opts.StripSpecial)
	if slices.Equal(names, r.t.Columns) {
		return false
	}
	r.t.Rename(names)
	return true
}

func (r *run) cleanCells() bool {
	changed := false
	for _, row := range r.t.Rows {
		for j, v := range row {
			if v.IsNull() {
				continue
			}
			if table.IsMissing(v) {
				row[j] = table.Null()
				changed = true
				continue
			}

			s := v.String()
			cleaned := table.CleanCell(s)
			if cleaned == s {
				continue
			}
			switch v.Kind() {
			case table.KindNumber:
				f, _ := v.Float()
				row[j] = table.NumberWithText(f, cleaned)
			case table.KindDate:
				d, _ := v.Time()
				row[j] = table.Date(d, cleaned)
			default:
				row[j] = table.Text(cleaned)
			}
			changed = true
		}
	}

	if changed {
		for j := range r.t.Columns {
			r.t.Retype(j)
		}
	}
	return changed
}

// normalizeStrings collapses runs of whitespace inside text cells to a
// single space. Leading and trailing space is left to cleanCells.
func (r *run) normalizeStrings() bool {
	changed := false
	for _, row := range r.t.Rows {
		for j, v := range row {
			if v.Kind() != table.KindText {
				continue
			}
			s := whitespaceRun.ReplaceAllString(v.String(), " ")
			if s != v.String() {
				row[j] = table.Text(s)
				changed = true
			}
		}
	}
	return changed
}
