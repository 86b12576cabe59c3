package table

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	default:
		return "null"
	}
}

// Value is a single table cell. Non-null values keep the text they were
// read from (or rendered to) so previews show cells exactly as ingested.
type Value struct {
	kind Kind
	num  float64
	t    time.Time
	text string
}

// Null returns the missing-value sentinel.
func Null() Value { return Value{} }

// Text returns a text cell.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number returns a numeric cell rendered in its shortest decimal form.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f, text: FormatNumber(f)}
}

// NumberWithText returns a numeric cell that keeps its source text.
func NumberWithText(f float64, raw string) Value {
	return Value{kind: KindNumber, num: f, text: raw}
}

// Date returns a date cell that renders as raw.
func Date(t time.Time, raw string) Value {
	return Value{kind: KindDate, t: t, text: raw}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) String() string { return v.text }

// Float returns the numeric payload of a Number cell.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Time returns the payload of a Date cell.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate {
		return time.Time{}, false
	}
	return v.t, true
}

// Interface renders the cell for JSON output: nil for missing cells,
// otherwise the display text.
func (v Value) Interface() any {
	if v.kind == KindNull {
		return nil
	}
	return v.text
}

// Key returns a canonical string used for equality checks (dedup and
// alignment keys). Numbers compare by value, dates by calendar instant and
// text verbatim, so "001" and "1" in a text column stay distinct.
func (v Value) Key() string {
	switch v.kind {
	case KindNull:
		return "\x00"
	case KindNumber:
		return "n:" + FormatNumber(v.num)
	case KindDate:
		return "d:" + v.t.Format(time.RFC3339Nano)
	default:
		return "s:" + v.text
	}
}

// Equal reports whether two cells hold the same value.
func (v Value) Equal(o Value) bool { return v.Key() == o.Key() }

// FormatNumber renders f without exponent and without trailing zeros.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// missingTokens are the textual spellings treated as missing, compared
// case-insensitively after trimming.
var missingTokens = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
}

// IsMissingToken reports whether s spells a missing value.
func IsMissingToken(s string) bool {
	return missingTokens[strings.ToLower(strings.TrimSpace(s))]
}

// IsMissing reports whether v counts as missing: the null sentinel or a
// text cell spelling a missing token.
func IsMissing(v Value) bool {
	switch v.kind {
	case KindNull:
		return true
	case KindText:
		return IsMissingToken(v.text)
	default:
		return false
	}
}
