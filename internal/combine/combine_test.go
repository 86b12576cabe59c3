package combine

import (
	"errors"
	"testing"

	"github.com/Fanfan0315/Horisation/internal/table"
)

func texts(row []table.Value) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v.Interface()
	}
	return out
}

func TestConcat(t *testing.T) {
	t1 := table.New([]string{" id ", "Name"}, [][]string{{"1", "a"}})
	t2 := table.New([]string{"ID", "city"}, [][]string{{"2", "x"}, {"3", "y"}})

	got := Concat(t1, t2)

	wantCols := []string{"ID", "NAME", "CITY"}
	if len(got.Columns) != len(wantCols) {
		t.Fatalf("columns = %v, want %v", got.Columns, wantCols)
	}
	for i, c := range wantCols {
		if got.Columns[i] != c {
			t.Errorf("column %d = %q, want %q", i, got.Columns[i], c)
		}
	}

	want := [][]any{
		{"1", "a", nil},
		{"2", nil, "x"},
		{"3", nil, "y"},
	}
	if got.Len() != len(want) {
		t.Fatalf("rows = %d, want %d", got.Len(), len(want))
	}
	for i, w := range want {
		row := texts(got.Rows[i])
		for j := range w {
			if row[j] != w[j] {
				t.Errorf("row %d col %d = %v, want %v", i, j, row[j], w[j])
			}
		}
	}
	if got.Type("ID") != table.TypeNumeric {
		t.Errorf("ID type = %s, want numeric", got.Type("ID"))
	}
}

func TestMerge(t *testing.T) {
	t1 := table.New([]string{"id", "v", "only_l"}, [][]string{
		{" 1", "10", "a"},
		{"2", "20", "b"},
		{"", "30", "c"},
		{"4", "40", "d"},
	})
	t2 := table.New([]string{"v", "id", "only_r"}, [][]string{
		{"11", "1 ", "x"},
		{"21", "2", "y"},
		{"22", "2", "z"},
		{"99", "", "w"},
	})

	got, err := Merge(t1, t2, []string{"id"})
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}

	wantCols := []string{"id", "v_L", "only_l", "v_R", "only_r"}
	for i, c := range wantCols {
		if got.Columns[i] != c {
			t.Errorf("column %d = %q, want %q", i, got.Columns[i], c)
		}
	}

	want := [][]any{
		{"1", "10", "a", "11", "x"},
		{"2", "20", "b", "21", "y"},
		{"2", "20", "b", "22", "z"},
	}
	if got.Len() != len(want) {
		t.Fatalf("rows = %d, want %d", got.Len(), len(want))
	}
	for i, w := range want {
		row := texts(got.Rows[i])
		for j := range w {
			if row[j] != w[j] {
				t.Errorf("row %d col %d = %v, want %v", i, j, row[j], w[j])
			}
		}
	}
}

func TestMerge_Errors(t *testing.T) {
	t1 := table.New([]string{"id"}, [][]string{{"1"}})
	t2 := table.New([]string{"key"}, [][]string{{"1"}})

	tests := []struct {
		name   string
		method string
		on     []string
		check  func(error) bool
	}{
		{"no join columns", MethodMerge, []string{" "}, func(err error) bool { return errors.Is(err, ErrNoJoinColumns) }},
		{"missing on right", MethodMerge, []string{"id"}, func(err error) bool {
			var mc *MissingColumnError
			return errors.As(err, &mc) && mc.Side == 2
		}},
		{"missing on left", MethodMerge, []string{"key"}, func(err error) bool {
			var mc *MissingColumnError
			return errors.As(err, &mc) && mc.Side == 1
		}},
		{"unknown method", "zip", nil, func(err error) bool { return errors.Is(err, ErrUnknownMethod) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Combine(t1, t2, tt.method, tt.on)
			if !tt.check(err) {
				t.Errorf("Combine() error = %v", err)
			}
		})
	}
}
