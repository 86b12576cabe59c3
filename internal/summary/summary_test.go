package summary

import (
	"reflect"
	"testing"

	"github.com/Fanfan0315/Horisation/internal/table"
)

func sampleTable() *table.Table {
	return table.New(
		[]string{"id", "name", "score"},
		[][]string{
			{"1", "ann", "3.5"},
			{"2", "nan", ""},
			{"3", "", "4"},
			{"4", "dee", "None"},
		},
	)
}

func TestNewPreview(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		wantRows int
	}{
		{"fewer than table", 2, 2},
		{"exactly table", 4, 4},
		{"more than table", 100, 4},
		{"zero", 0, 0},
	}

	tbl := sampleTable()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPreview(tbl, tt.n)
			if len(p.Rows) != tt.wantRows {
				t.Errorf("len(Rows) = %d, want %d", len(p.Rows), tt.wantRows)
			}
			if !reflect.DeepEqual(p.Columns, tbl.Columns) {
				t.Errorf("Columns = %v, want %v", p.Columns, tbl.Columns)
			}
		})
	}
}

func TestNewPreview_RendersCellsVerbatim(t *testing.T) {
	p := NewPreview(sampleTable(), 3)

	if got := p.Rows[0]["score"]; got != "3.5" {
		t.Errorf("score[0] = %v, want \"3.5\"", got)
	}
	if got := p.Rows[1]["name"]; got != nil {
		t.Errorf("name[1] = %v, want nil for a missing token", got)
	}
	if got := p.Rows[1]["score"]; got != nil {
		t.Errorf("score[1] = %v, want nil", got)
	}
}

func TestNewPreview_NullsMatchMissingCounts(t *testing.T) {
	tbl := table.New([]string{"a", "b"}, [][]string{{"1", "nan"}, {"2", "None"}, {"3", "x"}})
	p := NewPreview(tbl, 10)
	s := Summarize(tbl)

	for _, c := range tbl.Columns {
		nils := 0
		for _, row := range p.Rows {
			if row[c] == nil {
				nils++
			}
		}
		if nils != s.NACount[c] {
			t.Errorf("column %s: %d nil preview cells, summary counts %d missing", c, nils, s.NACount[c])
		}
	}
	if got := p.Rows[2]["b"]; got != "x" {
		t.Errorf("b[2] = %v, want \"x\"", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleTable())

	if s.Rows != 4 || s.Cols != 3 {
		t.Fatalf("shape = %dx%d, want 4x3", s.Rows, s.Cols)
	}

	wantTypes := map[string]string{"id": "numeric", "name": "text", "score": "numeric"}
	if !reflect.DeepEqual(s.Dtypes, wantTypes) {
		t.Errorf("Dtypes = %v, want %v", s.Dtypes, wantTypes)
	}

	wantNA := map[string]int{"id": 0, "name": 2, "score": 2}
	if !reflect.DeepEqual(s.NACount, wantNA) {
		t.Errorf("NACount = %v, want %v", s.NACount, wantNA)
	}

	for c, count := range s.NACount {
		if want := float64(count) / float64(s.Rows); s.NARatio[c] != want {
			t.Errorf("NARatio[%s] = %v, want %v", c, s.NARatio[c], want)
		}
	}
}

func TestSummarize_EmptyTable(t *testing.T) {
	s := Summarize(table.New([]string{"a", "b"}, nil))

	if s.Rows != 0 || s.Cols != 2 {
		t.Fatalf("shape = %dx%d, want 0x2", s.Rows, s.Cols)
	}
	for _, c := range []string{"a", "b"} {
		if s.NARatio[c] != 0 {
			t.Errorf("NARatio[%s] = %v, want 0", c, s.NARatio[c])
		}
		if s.Dtypes[c] != "text" {
			t.Errorf("Dtypes[%s] = %q, want text", c, s.Dtypes[c])
		}
	}
}
