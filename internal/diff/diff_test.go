package diff

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fanfan0315/Horisation/internal/table"
)

func tbl(header []string, rows ...[]string) *table.Table {
	return table.New(header, rows)
}

func TestMetadata(t *testing.T) {
	t1 := tbl([]string{"id", "x", "name", "y"}, []string{"1", "10", "a", "1.5"})
	t2 := tbl([]string{"y", "x", "z"}, []string{"2", "n/a", "3"})

	md := Metadata(t1, t2)
	assert.Equal(t, []string{"id", "x", "y"}, md.NumericColumns1)
	assert.Equal(t, []string{"y", "z"}, md.NumericColumns2)
	assert.Equal(t, []string{"y"}, md.SharedNumericColumns)
}

func TestMetadata_EmptyListsSerialize(t *testing.T) {
	md := Metadata(tbl([]string{"a"}, []string{"x"}), tbl([]string{"b"}, []string{"y"}))
	b, err := json.Marshal(md)
	require.NoError(t, err)
	assert.JSONEq(t, `{"numeric_columns1":[],"numeric_columns2":[],"shared_numeric_columns":[]}`, string(b))
}

func TestBuildReport_PrimaryKey(t *testing.T) {
	t1 := tbl([]string{"id", "x"}, []string{"1", "10"}, []string{"2", "20"})
	t2 := tbl([]string{"id", "x"}, []string{"1", "10"}, []string{"2", "21"}, []string{"3", "5"})

	r, err := BuildReport(context.Background(), t1, t2, Mapping{SelectedColumns: []string{"x"}, PrimaryKey: "id"})
	require.NoError(t, err)
	require.Len(t, r.Discrepancies, 2)

	mismatch := r.Discrepancies[0]
	assert.Equal(t, 2.0, mismatch.Key)
	assert.Equal(t, KindMismatch, mismatch.Kind)
	require.NotNil(t, mismatch.Delta)
	assert.Equal(t, 1.0, *mismatch.Delta)
	assert.Equal(t, DirectionUp, mismatch.Direction)
	assert.Equal(t, 20.0, mismatch.Value1)
	assert.Equal(t, 21.0, mismatch.Value2)

	added := r.Discrepancies[1]
	assert.Equal(t, 3.0, added.Key)
	assert.Equal(t, KindOnlyInFile2, added.Kind)
	assert.Nil(t, added.Delta)
	assert.Nil(t, added.Value1)
	assert.Equal(t, 5.0, added.Value2)

	assert.Equal(t, 1, r.Count(KindMismatch))
	assert.Equal(t, 1, r.Count(KindOnlyInFile2))
}

func TestBuildReport_Positional(t *testing.T) {
	t1 := tbl([]string{"x"}, []string{"1"}, []string{"2"})
	t2 := tbl([]string{"x"}, []string{"1"}, []string{"2"}, []string{"3"})

	r, err := BuildReport(context.Background(), t1, t2, NewMapping([]string{"x"}, ""))
	require.NoError(t, err)
	require.Len(t, r.Discrepancies, 1)
	assert.Equal(t, 2, r.Discrepancies[0].Key)
	assert.Equal(t, KindOnlyInFile2, r.Discrepancies[0].Kind)
	assert.Equal(t, 3, r.AlignedRows)
}

func TestBuildReport_MissingVersusPresent(t *testing.T) {
	t1 := tbl([]string{"x", "y"}, []string{"1", ""}, []string{"5", "2"}, []string{"", ""})
	t2 := tbl([]string{"x", "y"}, []string{"", "4"}, []string{"5", "2"}, []string{"nan", ""})

	r, err := BuildReport(context.Background(), t1, t2, NewMapping([]string{"x", "y"}, ""))
	require.NoError(t, err)
	require.Len(t, r.Discrepancies, 2)

	for _, d := range r.Discrepancies {
		assert.Equal(t, 0, d.Key)
		assert.Equal(t, KindMismatch, d.Kind)
		assert.Nil(t, d.Delta)
	}
	assert.Equal(t, "x", r.Discrepancies[0].Column)
	assert.Equal(t, "y", r.Discrepancies[1].Column)
}

func TestBuildReport_Tolerance(t *testing.T) {
	t1 := tbl([]string{"x"}, []string{"0.3"})
	t2 := tbl([]string{"x"}, []string{"0.30000000000000004"})

	r, err := BuildReport(context.Background(), t1, t2, NewMapping([]string{"x"}, ""))
	require.NoError(t, err)
	assert.Empty(t, r.Discrepancies)

	t3 := tbl([]string{"x"}, []string{"0.35"})
	r, err = BuildReport(context.Background(), t1, t3, Mapping{SelectedColumns: []string{"x"}, Tolerance: 0.1})
	require.NoError(t, err)
	assert.Empty(t, r.Discrepancies)
}

func TestBuildReport_KeyOrdering(t *testing.T) {
	t1 := tbl([]string{"k", "v"},
		[]string{"b", "1"},
		[]string{"10", "1"},
		[]string{"2", "1"},
		[]string{"a", "1"},
	)
	t2 := tbl([]string{"k", "v"},
		[]string{"a", "2"},
		[]string{"2", "2"},
		[]string{"10", "2"},
		[]string{"b", "2"},
	)

	r, err := BuildReport(context.Background(), t1, t2, NewMapping([]string{"v"}, "k"))
	require.NoError(t, err)

	var keys []any
	for _, d := range r.Discrepancies {
		keys = append(keys, d.Key)
	}
	assert.Equal(t, []any{"2", "10", "a", "b"}, keys)
}

func TestBuildReport_KeyAnomalies(t *testing.T) {
	t1 := tbl([]string{"id", "x"}, []string{"1", "10"}, []string{"1", "99"}, []string{"", "5"})
	t2 := tbl([]string{"id", "x"}, []string{"1.0", "10"})

	r, err := BuildReport(context.Background(), t1, t2, NewMapping([]string{"x"}, "id"))
	require.NoError(t, err)
	assert.Empty(t, r.Discrepancies, "first occurrence wins and 1 matches 1.0")
	assert.Equal(t, 1, r.MissingKeys1)
	assert.Equal(t, []string{"1"}, r.DuplicateKeys1)
}

func TestBuildReport_MissingTokensRenderNil(t *testing.T) {
	t1 := tbl([]string{"id", "x"}, []string{"1", "nan"}, []string{"2", "3"})
	t2 := tbl([]string{"id", "x"}, []string{"1", "4"}, []string{"2", "3"})

	r, err := BuildReport(context.Background(), t1, t2, NewMapping([]string{"x"}, "id"))
	require.NoError(t, err)
	require.Len(t, r.Discrepancies, 1)
	assert.Nil(t, r.Discrepancies[0].Value1)
	assert.Equal(t, 4.0, r.Discrepancies[0].Value2)
	assert.Nil(t, r.Discrepancies[0].Delta)
}

func TestBuildReport_TextKeysMatchVerbatim(t *testing.T) {
	t1 := tbl([]string{"code", "x"}, []string{"001", "10"}, []string{"A1", "5"})
	t2 := tbl([]string{"code", "x"}, []string{"1", "10"}, []string{"A1", "5"})

	r, err := BuildReport(context.Background(), t1, t2, NewMapping([]string{"x"}, "code"))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Count(KindOnlyInFile1), "001 has no partner")
	assert.Equal(t, 1, r.Count(KindOnlyInFile2), "1 has no partner")
	assert.Equal(t, 0, r.Count(KindMismatch))
	assert.Empty(t, r.DuplicateKeys1)
}

func TestBuildReport_MixedKeyTypesAlignByText(t *testing.T) {
	t1 := tbl([]string{"id", "x"}, []string{"1", "10"}, []string{"2", "20"})
	t2 := tbl([]string{"id", "x"}, []string{"1", "10"}, []string{"2", "25"}, []string{"B7", "1"})
	require.Equal(t, table.TypeNumeric, t1.Type("id"))
	require.Equal(t, table.TypeText, t2.Type("id"))

	r, err := BuildReport(context.Background(), t1, t2, NewMapping([]string{"x"}, "id"))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Count(KindMismatch))
	assert.Equal(t, 1, r.Count(KindOnlyInFile2))
	assert.Equal(t, 0, r.Count(KindOnlyInFile1))
}

func TestBuildReport_OnlyInFile1PerColumn(t *testing.T) {
	t1 := tbl([]string{"id", "x", "y"}, []string{"7", "1", "2"})
	t2 := tbl([]string{"id", "x", "y"}, []string{"8", "1", "2"})

	r, err := BuildReport(context.Background(), t1, t2, NewMapping([]string{"y", "x", "id"}, "id"))
	require.NoError(t, err)

	assert.Equal(t, []string{"y", "x"}, r.Columns, "primary key is never compared")
	assert.Equal(t, 2, r.Count(KindOnlyInFile1))
	assert.Equal(t, 2, r.Count(KindOnlyInFile2))
	assert.Equal(t, "x", r.Discrepancies[0].Column)
	assert.Equal(t, 7.0, r.Discrepancies[0].Key)
}

func TestBuildReport_Errors(t *testing.T) {
	t1 := tbl([]string{"id", "x", "s"}, []string{"1", "10", "a"})
	t2 := tbl([]string{"key", "x", "s"}, []string{"1", "10", "b"})

	_, err := BuildReport(context.Background(), t1, t2, Mapping{})
	assert.ErrorIs(t, err, ErrEmptyMapping)

	_, err = BuildReport(context.Background(), t1, t2, NewMapping([]string{"id"}, "id"))
	assert.ErrorIs(t, err, ErrEmptyMapping, "the primary key alone selects nothing")

	_, err = BuildReport(context.Background(), t1, t2, NewMapping([]string{"x"}, "id"))
	var ae *AlignmentError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 2, ae.Side)
	assert.Equal(t, "id", ae.Column)

	_, err = BuildReport(context.Background(), t1, t2, NewMapping([]string{"s"}, ""))
	var ce *ColumnError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, ErrNotComparable)

	_, err = BuildReport(context.Background(), t1, t2, NewMapping([]string{"nope"}, ""))
	assert.ErrorIs(t, err, ErrNotComparable)
}

func TestDecodeMapping(t *testing.T) {
	m, err := DecodeMapping([]byte(`[
		{"column":"id","selected":false,"primary_key":true},
		{"column":"x","selected":true},
		{"column":"y","selected":false},
		{"column":" z ","selected":true,"primary_key":false}
	]`))
	require.NoError(t, err)
	assert.Equal(t, "id", m.PrimaryKey)
	assert.Equal(t, []string{"x", "z"}, m.SelectedColumns)

	tests := []struct {
		name string
		in   string
	}{
		{"not json", `{`},
		{"object instead of array", `{"column":"x"}`},
		{"unknown field", `[{"column":"x","selected":true,"weight":2}]`},
		{"missing column", `[{"selected":true}]`},
		{"two primary keys", `[{"column":"a","primary_key":true},{"column":"b","primary_key":true}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeMapping([]byte(tt.in))
			assert.ErrorIs(t, err, ErrInvalidMapping)
		})
	}
}

func TestNewMapping(t *testing.T) {
	m := NewMapping([]string{" x", "", "y", "x", "id"}, " id ")
	assert.Equal(t, "id", m.PrimaryKey)
	assert.Equal(t, []string{"x", "y"}, m.SelectedColumns)
}

func TestBuildHighlight(t *testing.T) {
	t1 := tbl([]string{"id", "x", "y"},
		[]string{"1", "10", "1"},
		[]string{"2", "20", ""},
		[]string{"4", "1", "1"},
	)
	t2 := tbl([]string{"id", "x", "y"},
		[]string{"1", "9", "1"},
		[]string{"2", "25", "3"},
		[]string{"3", "5", "5"},
	)

	h, err := BuildHighlight(context.Background(), t1, t2, NewMapping([]string{"x", "y"}, "id"))
	require.NoError(t, err)

	assert.ElementsMatch(t, []CellMark{
		{Row: 0, Column: "x", Flag: FlagDown},
		{Row: 1, Column: "x", Flag: FlagUp},
		{Row: 1, Column: "y", Flag: FlagMissing},
		{Row: 2, Column: "id", Flag: FlagOnly},
		{Row: 2, Column: "x", Flag: FlagOnly},
		{Row: 2, Column: "y", Flag: FlagOnly},
	}, h.Marks1)
	assert.ElementsMatch(t, []CellMark{
		{Row: 0, Column: "x", Flag: FlagDown},
		{Row: 1, Column: "x", Flag: FlagUp},
		{Row: 1, Column: "y", Flag: FlagMissing},
		{Row: 2, Column: "id", Flag: FlagOnly},
		{Row: 2, Column: "x", Flag: FlagOnly},
		{Row: 2, Column: "y", Flag: FlagOnly},
	}, h.Marks2)
	assert.Equal(t, 12, h.FlaggedCells())

	assert.Equal(t, t1.Rows, h.Table1.Rows, "cells pass through unchanged")
	assert.NotSame(t, t1, h.Table1)
}
