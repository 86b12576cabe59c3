package clean

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions(map[string]string{
		"case":              "Lower",
		"round_decimals":    "off",
		"fill_missing":      "",
		"handle_outliers":   "on",
		"outlier_threshold": "2.5",
		"decimals":          "3",
		"dedupe_subset":     "id, name ,",
	})
	require.NoError(t, err)

	assert.Equal(t, "lower", opts.Case)
	assert.False(t, opts.RoundDecimals)
	assert.False(t, opts.FillMissing)
	assert.True(t, opts.HandleOutliers)
	assert.Equal(t, 2.5, opts.OutlierThreshold)
	assert.Equal(t, 3, opts.Decimals)
	assert.Equal(t, []string{"id", "name"}, opts.DedupeSubset)

	// Untouched keys keep their defaults.
	assert.True(t, opts.CleanColumns)
	assert.Equal(t, "YYYY-MM-DD", opts.DateFormat)
}

func TestParseOptions_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"unknown key", map[string]string{"bogus": "1"}},
		{"bad case", map[string]string{"case": "camel"}},
		{"bad date format", map[string]string{"date_format": "YY/MM"}},
		{"bad replace", map[string]string{"outlier_replace": "drop"}},
		{"bad keep", map[string]string{"keep": "middle"}},
		{"zero threshold", map[string]string{"outlier_threshold": "0"}},
		{"not a bool", map[string]string{"fill_missing": "maybe"}},
		{"not a number", map[string]string{"decimals": "two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOptions(tt.values)
			assert.ErrorIs(t, err, ErrInvalidOptions)
		})
	}
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
case: title
handle_outliers: true
outlier_method: iqr
outlier_threshold: 1.5
dedupe_subset:
  - id
keep: last
`), 0o600))

	opts, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "title", opts.Case)
	assert.True(t, opts.HandleOutliers)
	assert.Equal(t, "iqr", opts.OutlierMethod)
	assert.Equal(t, 1.5, opts.OutlierThreshold)
	assert.Equal(t, []string{"id"}, opts.DedupeSubset)
	assert.Equal(t, "last", opts.Keep)
}

func TestLoad_OverridesWinOverProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yaml")
	require.NoError(t, os.WriteFile(path, []byte("case: lower\ndecimals: 4\n"), 0o600))

	opts, err := Load(path, map[string]string{"decimals": "1"})
	require.NoError(t, err)
	assert.Equal(t, "lower", opts.Case)
	assert.Equal(t, 1, opts.Decimals)
}

func TestLoadProfile_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.yaml")
	require.NoError(t, os.WriteFile(path, []byte("remove_dupes: true\n"), 0o600))

	_, err := LoadProfile(path)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestLoadProfile_Missing(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.Contains(t, keys, "case")
	assert.Contains(t, keys, "dedupe_subset")
	assert.Len(t, keys, 20)
}

func TestCleanColumnNames(t *testing.T) {
	tests := []struct {
		name  string
		in    []string
		mode  string
		strip bool
		want  []string
	}{
		{"upper strip", []string{" First Name ", "e-mail", "e-mail", "%%%"}, "upper", true, []string{"FIRST_NAME", "EMAIL", "EMAIL_1", "COLUMN_4"}},
		{"lower", []string{"A  B"}, "lower", true, []string{"a_b"}},
		{"title", []string{"first name"}, "title", true, []string{"First_Name"}},
		{"keep specials", []string{"a-b"}, "upper", false, []string{"A-B"}},
		{"unicode letters kept", []string{"名称 (kg)"}, "upper", true, []string{"名称_KG"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanColumnNames(tt.in, tt.mode, tt.strip)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, CleanColumnNames(got, tt.mode, tt.strip), "second pass changes nothing")
		})
	}
}
