package table

// parse.go recognizes and converts cell text into numbers and dates.
//
// The recognizers are what column type inference runs on:
//   - Numbers: optional sign, integer or decimal, optional comma thousands
//     separators ("1,234.5", "-12", "+.5")
//   - Dates: ISO, US slash/dash/dot, named months, compact yyyymmdd and ISO
//     date-times, with two-digit years pivoted around the current year
//
// Numbers go through pgtype.Numeric so decimal text is read exactly before
// being narrowed to float64.

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex matches the accepted numeric spellings after trimming.
var numericRegex = regexp.MustCompile(`^[+-]?((\d{1,3}(,\d{3})+|\d+)(\.\d*)?|\.\d+)$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04:05",
		time.RFC3339, "2006/01/02 15:04:05",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "January 2, 2006", "2 Jan 2006", "02-Jan-2006",
		"20060102",
	}
)

// IsNumeric reports whether s matches the numeric pattern.
func IsNumeric(s string) bool {
	return numericRegex.MatchString(strings.TrimSpace(s))
}

// ParseNumber converts s to a float64 when it matches the numeric pattern.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", "")

	var n pgtype.Numeric
	if err := n.Scan(s); err == nil {
		if f, err := n.Float64Value(); err == nil && f.Valid {
			return f.Float64, true
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseDate converts s to a time when it matches one of the known layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// IsDate reports whether s parses as a date.
func IsDate(s string) bool {
	_, ok := ParseDate(s)
	return ok
}

// CleanCell trims s and unwraps the ="..." formula form spreadsheet
// exports use to keep leading zeros.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	}
	return s
}
