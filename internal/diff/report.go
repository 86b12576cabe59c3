package diff

import (
	"context"

	"github.com/Fanfan0315/Horisation/internal/table"
)

// Report is the flat discrepancy list of a diff, ordered by key and then
// column name.
type Report struct {
	PrimaryKey     string        `json:"primary_key,omitempty"`
	Columns        []string      `json:"columns"`
	AlignedRows    int           `json:"aligned_rows"`
	Discrepancies  []Discrepancy `json:"discrepancies"`
	MissingKeys1   int           `json:"missing_keys1,omitempty"`
	MissingKeys2   int           `json:"missing_keys2,omitempty"`
	DuplicateKeys1 []string      `json:"duplicate_keys1,omitempty"`
	DuplicateKeys2 []string      `json:"duplicate_keys2,omitempty"`
}

// BuildReport compares t1 and t2 under m.
func BuildReport(ctx context.Context, t1, t2 *table.Table, m Mapping) (*Report, error) {
	c, err := compareTables(ctx, t1, t2, m)
	if err != nil {
		return nil, err
	}
	return c.report(m.normalized().PrimaryKey), nil
}

func (c *comparison) report(pk string) *Report {
	d := c.discrepancies
	if d == nil {
		d = []Discrepancy{}
	}
	return &Report{
		PrimaryKey:     pk,
		Columns:        c.columns,
		AlignedRows:    len(c.pairs),
		Discrepancies:  d,
		MissingKeys1:   c.missingKeys1,
		MissingKeys2:   c.missingKeys2,
		DuplicateKeys1: c.duplicateKeys1,
		DuplicateKeys2: c.duplicateKeys2,
	}
}

// Count returns the number of discrepancies of kind k.
func (r *Report) Count(k Kind) int {
	n := 0
	for _, d := range r.Discrepancies {
		if d.Kind == k {
			n++
		}
	}
	return n
}
