package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the root command and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func findCommand(t *testing.T, root *cobra.Command, path ...string) *cobra.Command {
	t.Helper()
	cmd, _, err := root.Find(path)
	require.NoError(t, err)
	return cmd
}

func TestRootCommand(t *testing.T) {
	root := NewRootCmd()
	assert.Equal(t, "horisation", root.Use)
	assert.NotEmpty(t, root.Short)

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"preview", "summary", "clean", "diff", "combine"})

	diffCmd := findCommand(t, root, "diff")
	var sub []string
	for _, c := range diffCmd.Commands() {
		sub = append(sub, c.Name())
	}
	assert.ElementsMatch(t, []string{"metadata", "report", "highlight"}, sub)
}

func TestPersistentFlags(t *testing.T) {
	root := NewRootCmd()
	var fs *pflag.FlagSet = root.PersistentFlags()

	tests := []struct {
		name      string
		shorthand string
		def       string
	}{
		{"sep", "", ""},
		{"encoding", "", ""},
		{"sheet", "", ""},
		{"header-rows", "", "0"},
		{"output", "o", OutputText},
		{"log-level", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fs.Lookup(tt.name)
			require.NotNil(t, f, "flag --%s", tt.name)
			assert.Equal(t, tt.shorthand, f.Shorthand)
			assert.Equal(t, tt.def, f.DefValue)
		})
	}
}

func TestMappingFlags(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"report", "highlight"} {
		cmd := findCommand(t, root, "diff", name)
		for _, flag := range []string{"columns", "primary-key", "tolerance", "mapping", "out"} {
			assert.NotNil(t, cmd.Flags().Lookup(flag), "diff %s --%s", name, flag)
		}
		assert.Equal(t, "c", cmd.Flags().Lookup("columns").Shorthand)
		assert.Equal(t, "k", cmd.Flags().Lookup("primary-key").Shorthand)
	}
}

func TestParseSet(t *testing.T) {
	got, err := parseSet([]string{"case=lower", " decimals = 4 ", "fill_na_text="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"case": "lower", "decimals": "4", "fill_na_text": ""}, got)

	_, err = parseSet([]string{"decimals"})
	assert.ErrorContains(t, err, "key=value")

	_, err = parseSet([]string{"=4"})
	assert.Error(t, err)
}

func TestMappingFromFlags(t *testing.T) {
	f := mappingFlags{columns: []string{"id", "amount"}, primaryKey: "id", tolerance: 0.5}
	m, err := f.mapping()
	require.NoError(t, err)
	assert.Equal(t, "id", m.PrimaryKey)
	assert.Equal(t, []string{"amount"}, m.SelectedColumns)
	assert.InDelta(t, 0.5, m.Tolerance, 1e-12)

	dir := t.TempDir()
	path := writeFile(t, dir, "mapping.json", `[{"column":"sku","selected":true,"primary_key":true},{"column":"qty","selected":true}]`)
	m, err = (&mappingFlags{file: path}).mapping()
	require.NoError(t, err)
	assert.Equal(t, "sku", m.PrimaryKey)
	assert.Equal(t, []string{"qty"}, m.SelectedColumns)

	_, err = (&mappingFlags{file: filepath.Join(dir, "missing.json")}).mapping()
	assert.ErrorContains(t, err, "read mapping")
}

func TestPreviewCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.csv", "id;name\n1;a\n2;b\n3;c\n")

	out, err := run(t, "preview", "--sep", ";", "-n", "2", path)
	require.NoError(t, err)
	assert.Contains(t, out, "name")
	assert.Contains(t, out, "(2 rows, delimited")

	out, err = run(t, "preview", "--sep", ";", "--output", "json", path)
	require.NoError(t, err)
	var res struct {
		Filename string           `json:"filename"`
		Columns  []string         `json:"columns"`
		Rows     []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "data.csv", res.Filename)
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	assert.Len(t, res.Rows, 3)
}

func TestSummaryCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "s.csv", "a,b\n1,\n2,x\n")

	out, err := run(t, "summary", path)
	require.NoError(t, err)
	assert.Contains(t, out, "s.csv: 2 rows x 2 columns")
	assert.Contains(t, out, "50.0")
}

func TestCleanCommandWritesOut(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "raw.csv", "Name,Amount\n a ,1.239\n a ,1.239\n")
	dest := filepath.Join(dir, "clean.csv")

	out, err := run(t, "clean", in, "--set", "case=lower", "--out", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "name,amount\na,1.24\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temporary output directory should be removed")
}

func TestCleanCommandErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "raw.csv", "a\n1\n")

	_, err := run(t, "clean", in, "--set", "colour=blue")
	assert.Error(t, err)

	_, err = run(t, "clean", in, "--out", filepath.Join(dir, "clean.parquet"))
	assert.Error(t, err)

	_, err = run(t, "clean", filepath.Join(dir, "missing.csv"))
	assert.ErrorContains(t, err, "read")
}

func TestDiffReportCommand(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFile(t, dir, "a.csv", "id,amount\n1,10\n2,20\n")
	f2 := writeFile(t, dir, "b.csv", "id,amount\n1,10\n2,25\n")

	out, err := run(t, "diff", "report", f1, f2, "-c", "amount", "-k", "id", "-o", "json")
	require.NoError(t, err)
	var res struct {
		Discrepancies []map[string]any `json:"discrepancies"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Discrepancies, 1)
	assert.Equal(t, "amount", res.Discrepancies[0]["column"])
	assert.Equal(t, "up", res.Discrepancies[0]["direction"])

	out, err = run(t, "diff", "report", f1, f2, "-c", "amount", "-k", "id")
	require.NoError(t, err)
	assert.Contains(t, out, "1 mismatched")
}

func TestDiffHighlightCommand(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFile(t, dir, "a.csv", "id,amount\n1,10\n2,20\n")
	f2 := writeFile(t, dir, "b.csv", "id,amount\n1,10\n2,25\n")
	dest := filepath.Join(dir, "highlighted.xlsx")

	out, err := run(t, "diff", "highlight", f1, f2, "-c", "amount", "-k", "id", "--out", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "2 cells flagged")
	assert.FileExists(t, dest)
}

func TestCombineCommand(t *testing.T) {
	dir := t.TempDir()
	f1 := writeFile(t, dir, "a.csv", "id,v\n1,a\n")
	f2 := writeFile(t, dir, "b.csv", "id,w\n1,b\n")

	out, err := run(t, "combine", f1, f2, "--method", "merge", "--on", "id")
	require.NoError(t, err)
	assert.Contains(t, out, "1 rows, 3 columns: id, v, w")

	_, err = run(t, "combine", f1, f2, "--method", "merge")
	assert.Error(t, err)
}

func TestInvalidOutputMode(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.csv", "x\n1\n")

	_, err := run(t, "preview", "--output", "yaml", path)
	assert.ErrorContains(t, err, "invalid --output")
}
