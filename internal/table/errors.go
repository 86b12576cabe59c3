package table

import "fmt"

// CellConversionError reports a single cell that could not be converted to
// its column's type. Cleaning steps recover from it locally.
type CellConversionError struct {
	Column string
	Row    int
	Value  string
	Target ColumnType
}

func (e *CellConversionError) Error() string {
	return fmt.Sprintf("cannot convert %q in column %q (row %d) to %s", e.Value, e.Column, e.Row, e.Target)
}
