package diff

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Fanfan0315/Horisation/internal/table"
)

// DefaultTolerance absorbs floating round-trip noise when no tolerance is
// given.
const DefaultTolerance = 1e-9

var (
	// ErrEmptyMapping means no column was selected for comparison.
	ErrEmptyMapping = errors.New("no columns selected for comparison")

	// ErrInvalidMapping means the mapping payload could not be decoded.
	ErrInvalidMapping = errors.New("invalid column mapping")

	// ErrNotComparable means a selected column is not numeric in both tables.
	ErrNotComparable = errors.New("column is not comparable")
)

// AlignmentError reports a primary key column absent from one table.
type AlignmentError struct {
	Column string
	Side   int // 1 or 2
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("primary key %q not found in file %d", e.Column, e.Side)
}

// ColumnError reports a selected column that cannot be compared.
type ColumnError struct {
	Column string
	Reason string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}

func (e *ColumnError) Unwrap() error { return ErrNotComparable }

// Mapping selects the columns to compare and how rows line up.
type Mapping struct {
	SelectedColumns []string `json:"selected_columns" validate:"dive,required"`
	PrimaryKey      string   `json:"primary_key,omitempty"`
	Tolerance       float64  `json:"tolerance,omitempty" validate:"gte=0"`
}

// columnSelection is one entry of the JSON mapping payload.
type columnSelection struct {
	Column     string `json:"column" validate:"required"`
	Selected   bool   `json:"selected"`
	PrimaryKey bool   `json:"primary_key"`
}

var validate = validator.New()

// DecodeMapping parses the JSON array form:
//
//	[{"column":"x","selected":true,"primary_key":false}, ...]
//
// Unknown fields and more than one primary key are rejected.
func DecodeMapping(data []byte) (Mapping, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var entries []columnSelection
	if err := dec.Decode(&entries); err != nil {
		return Mapping{}, fmt.Errorf("%w: %v", ErrInvalidMapping, err)
	}

	var m Mapping
	for i, e := range entries {
		if err := validate.Struct(e); err != nil {
			return Mapping{}, fmt.Errorf("%w: entry %d: column is required", ErrInvalidMapping, i)
		}
		col := strings.TrimSpace(e.Column)
		if e.PrimaryKey {
			if m.PrimaryKey != "" && m.PrimaryKey != col {
				return Mapping{}, fmt.Errorf("%w: more than one primary key (%q, %q)", ErrInvalidMapping, m.PrimaryKey, col)
			}
			m.PrimaryKey = col
		}
		if e.Selected && !slices.Contains(m.SelectedColumns, col) {
			m.SelectedColumns = append(m.SelectedColumns, col)
		}
	}
	return m.normalized(), nil
}

// NewMapping builds a mapping from individually checked columns and an
// optional primary key, as sent by a checkbox form.
func NewMapping(checked []string, primaryKey string) Mapping {
	m := Mapping{PrimaryKey: strings.TrimSpace(primaryKey)}
	for _, c := range checked {
		c = strings.TrimSpace(c)
		if c != "" && !slices.Contains(m.SelectedColumns, c) {
			m.SelectedColumns = append(m.SelectedColumns, c)
		}
	}
	return m.normalized()
}

// normalized drops the primary key from the compared columns.
func (m Mapping) normalized() Mapping {
	if m.PrimaryKey == "" {
		return m
	}
	m.SelectedColumns = slices.DeleteFunc(slices.Clone(m.SelectedColumns), func(c string) bool {
		return c == m.PrimaryKey
	})
	return m
}

func (m Mapping) tolerance() float64 {
	if m.Tolerance <= 0 {
		return DefaultTolerance
	}
	return m.Tolerance
}

// Validate checks m against both tables. Nothing is compared when it
// returns an error.
func (m Mapping) Validate(t1, t2 *table.Table) error {
	m = m.normalized()
	if len(m.SelectedColumns) == 0 {
		return ErrEmptyMapping
	}
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMapping, err)
	}

	if m.PrimaryKey != "" {
		if !t1.Has(m.PrimaryKey) {
			return &AlignmentError{Column: m.PrimaryKey, Side: 1}
		}
		if !t2.Has(m.PrimaryKey) {
			return &AlignmentError{Column: m.PrimaryKey, Side: 2}
		}
	}

	for _, c := range m.SelectedColumns {
		switch {
		case !t1.Has(c):
			return &ColumnError{Column: c, Reason: "missing from file 1"}
		case !t2.Has(c):
			return &ColumnError{Column: c, Reason: "missing from file 2"}
		case t1.Type(c) != table.TypeNumeric:
			return &ColumnError{Column: c, Reason: "not numeric in file 1"}
		case t2.Type(c) != table.TypeNumeric:
			return &ColumnError{Column: c, Reason: "not numeric in file 2"}
		}
	}
	return nil
}
