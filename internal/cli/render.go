package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Fanfan0315/Horisation/internal/core"
	"github.com/Fanfan0315/Horisation/internal/diff"
	tbl "github.com/Fanfan0315/Horisation/internal/table"
)

// render prints v as indented JSON or runs the text renderer.
func (a *app) render(cmd *cobra.Command, v any, text func() error) error {
	if a.output == OutputJSON {
		enc := json.NewEncoder(stdout(cmd))
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case *float64:
		if x == nil {
			return ""
		}
		return fmt.Sprintf("%g", *x)
	default:
		return fmt.Sprint(x)
	}
}

func renderPreview(w io.Writer, res *core.PreviewResult) error {
	if len(res.Rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := newTable(w)
	header := make(table.Row, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, r := range res.Rows {
		row := make(table.Row, len(res.Columns))
		for i, c := range res.Columns {
			row[i] = formatValue(r[c])
		}
		t.AppendRow(row)
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows, %s)\n", len(res.Rows), describeSource(res.Source))
	return nil
}

func describeSource(src tbl.Source) string {
	parts := []string{src.Format}
	if src.Encoding != "" {
		parts = append(parts, src.Encoding)
	}
	if src.Separator != "" {
		parts = append(parts, "separator "+src.Separator)
	}
	if src.Sheet != "" {
		parts = append(parts, "sheet "+src.Sheet)
	}
	return strings.Join(parts, ", ")
}

func renderSummary(w io.Writer, res *core.SummaryResult) error {
	s := res.Summary
	_, _ = fmt.Fprintf(w, "%s: %d rows x %d columns\n", res.Filename, s.Rows, s.Cols)

	t := newTable(w)
	t.AppendHeader(table.Row{"Column", "Type", "Missing", "Missing %"})
	for _, c := range s.Columns {
		t.AppendRow(table.Row{c, s.Dtypes[c], s.NACount[c], fmt.Sprintf("%.1f", s.NARatio[c]*100)})
	}
	t.Render()
	return nil
}

func renderClean(w io.Writer, res *core.CleanResult, out string) error {
	t := newTable(w)
	t.AppendRows([]table.Row{
		{"Rows", res.CleanedRows},
		{"Duplicates removed", res.RemovedDuplicates},
		{"Applied steps", joinOrNone(res.AppliedSteps)},
		{"Flagged outliers", len(res.Flagged)},
		{"Columns", strings.Join(res.Columns, ", ")},
	})
	t.Render()
	printWritten(w, out)
	return nil
}

func renderMetadata(w io.Writer, md *diff.ColumnMetadata) error {
	t := newTable(w)
	t.AppendRows([]table.Row{
		{"Numeric in file 1", joinOrNone(md.NumericColumns1)},
		{"Numeric in file 2", joinOrNone(md.NumericColumns2)},
		{"Shared", joinOrNone(md.SharedNumericColumns)},
	})
	t.Render()
	return nil
}

func renderReport(w io.Writer, r *diff.Report, out string) error {
	if len(r.Discrepancies) == 0 {
		_, _ = fmt.Fprintf(w, "No differences in %d aligned rows\n", r.AlignedRows)
	} else {
		t := newTable(w)
		t.AppendHeader(table.Row{"Key", "Column", "File 1", "File 2", "Delta", "Kind", "Direction"})
		for _, d := range r.Discrepancies {
			t.AppendRow(table.Row{
				formatValue(d.Key), d.Column, formatValue(d.Value1), formatValue(d.Value2),
				formatValue(d.Delta), string(d.Kind), string(d.Direction),
			})
		}
		t.Render()
		_, _ = fmt.Fprintf(w, "(%d differences: %d mismatched, %d only in file 1, %d only in file 2)\n",
			len(r.Discrepancies), r.Count(diff.KindMismatch), r.Count(diff.KindOnlyInFile1), r.Count(diff.KindOnlyInFile2))
	}

	if r.MissingKeys1+r.MissingKeys2 > 0 {
		_, _ = fmt.Fprintf(w, "Rows without a key skipped: %d in file 1, %d in file 2\n", r.MissingKeys1, r.MissingKeys2)
	}
	if len(r.DuplicateKeys1)+len(r.DuplicateKeys2) > 0 {
		_, _ = fmt.Fprintf(w, "Duplicate keys (first row used): file 1 [%s], file 2 [%s]\n",
			strings.Join(r.DuplicateKeys1, ", "), strings.Join(r.DuplicateKeys2, ", "))
	}
	printWritten(w, out)
	return nil
}

func renderHighlight(w io.Writer, res *core.DiffHighlightResult, out string) error {
	_, _ = fmt.Fprintf(w, "%d cells flagged across %d differences\n", res.FlaggedCells, res.Discrepancies)
	printWritten(w, out)
	return nil
}

func renderCombine(w io.Writer, res *core.CombineResult, out string) error {
	_, _ = fmt.Fprintf(w, "%d rows, %d columns: %s\n", res.Rows, len(res.Columns), strings.Join(res.Columns, ", "))
	printWritten(w, out)
	return nil
}

func printWritten(w io.Writer, out string) {
	if out != "" {
		_, _ = fmt.Fprintf(w, "Wrote %s\n", out)
	}
}

func joinOrNone(s []string) string {
	if len(s) == 0 {
		return "(none)"
	}
	return strings.Join(s, ", ")
}
