package clean

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ErrInvalidOptions reports unknown option keys or values that fail
// validation. Nothing has been cleaned when it is returned.
var ErrInvalidOptions = errors.New("invalid cleaning options")

// Options selects and parameterizes the pipeline steps. Field tags carry
// the option names used by the HTTP form, the CLI and YAML profiles.
type Options struct {
	Case              string   `koanf:"case" json:"case" validate:"oneof=upper lower title"`
	CleanColumns      bool     `koanf:"clean_columns" json:"clean_columns"`
	StripSpecial      bool     `koanf:"strip_special" json:"strip_special"`
	CleanCells        bool     `koanf:"clean_cells" json:"clean_cells"`
	NormalizeStrings  bool     `koanf:"normalize_strings" json:"normalize_strings"`
	RoundDecimals     bool     `koanf:"round_decimals" json:"round_decimals"`
	Decimals          int      `koanf:"decimals" json:"decimals" validate:"min=0,max=15"`
	ScaleNumeric      bool     `koanf:"scale_numeric" json:"scale_numeric"`
	ScaleFactor       float64  `koanf:"scale_factor" json:"scale_factor"`
	FormatPercentages bool     `koanf:"format_percentages" json:"format_percentages"`
	FormatDates       bool     `koanf:"format_dates" json:"format_dates"`
	DateFormat        string   `koanf:"date_format" json:"date_format" validate:"oneof=YYYY-MM-DD DD-MM-YY MM-YY"`
	FillMissing       bool     `koanf:"fill_missing" json:"fill_missing"`
	HandleOutliers    bool     `koanf:"handle_outliers" json:"handle_outliers"`
	OutlierMethod     string   `koanf:"outlier_method" json:"outlier_method" validate:"oneof=zscore iqr"`
	OutlierThreshold  float64  `koanf:"outlier_threshold" json:"outlier_threshold" validate:"gt=0"`
	OutlierReplace    string   `koanf:"outlier_replace" json:"outlier_replace" validate:"oneof=median mean null clip flag"`
	RemoveDuplicates  bool     `koanf:"remove_duplicates" json:"remove_duplicates"`
	DedupeSubset      []string `koanf:"dedupe_subset" json:"dedupe_subset"`
	Keep              string   `koanf:"keep" json:"keep" validate:"oneof=first last"`
}

// DefaultOptions returns the pipeline defaults.
func DefaultOptions() Options {
	return Options{
		Case:             "upper",
		CleanColumns:     true,
		StripSpecial:     true,
		CleanCells:       true,
		NormalizeStrings: true,
		RoundDecimals:    true,
		Decimals:         2,
		FormatDates:      true,
		DateFormat:       "YYYY-MM-DD",
		FillMissing:      true,
		OutlierMethod:    "zscore",
		OutlierThreshold: 3.0,
		OutlierReplace:   "null",
		RemoveDuplicates: true,
		Keep:             "first",
	}
}

// Disabled returns options with every step switched off.
func Disabled() Options {
	o := DefaultOptions()
	o.CleanColumns = false
	o.CleanCells = false
	o.NormalizeStrings = false
	o.RoundDecimals = false
	o.ScaleNumeric = false
	o.FormatPercentages = false
	o.FormatDates = false
	o.FillMissing = false
	o.HandleOutliers = false
	o.RemoveDuplicates = false
	return o
}

// Keys returns every recognized option name.
func Keys() []string {
	t := reflect.TypeOf(Options{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		keys = append(keys, t.Field(i).Tag.Get("koanf"))
	}
	return keys
}

// ParseOptions decodes string-valued options (form fields, CLI --set
// pairs) over the defaults. Unknown keys are rejected.
func ParseOptions(values map[string]string) (Options, error) {
	return Load("", values)
}

// LoadProfile decodes a YAML profile over the defaults. Unknown keys are
// rejected.
func LoadProfile(path string) (Options, error) {
	return Load(path, nil)
}

// Load decodes an optional YAML profile, then string overrides, over the
// defaults and validates the result.
func Load(profile string, overrides map[string]string) (Options, error) {
	k := koanf.New(".")

	if profile != "" {
		if err := k.Load(file.Provider(profile), yaml.Parser()); err != nil {
			return Options{}, fmt.Errorf("load profile %s: %w", profile, err)
		}
	}

	if len(overrides) > 0 {
		m := make(map[string]any, len(overrides))
		for key, v := range overrides {
			m[strings.TrimSpace(key)] = v
		}
		if err := k.Load(confmap.Provider(m, "."), nil); err != nil {
			return Options{}, fmt.Errorf("load options: %w", err)
		}
	}

	opts := DefaultOptions()
	err := k.UnmarshalWithConf("", &opts, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				formBoolHook,
				mapstructure.StringToSliceHookFunc(","),
			),
			TagName:          "koanf",
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			Result:           &opts,
		},
	})
	if err != nil {
		return Options{}, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	opts.normalize()
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// formBoolHook accepts the checkbox spellings HTML forms send.
func formBoolHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Bool {
		return data, nil
	}
	switch strings.ToLower(strings.TrimSpace(reflect.ValueOf(data).String())) {
	case "on", "yes", "y":
		return true, nil
	case "off", "no", "n", "":
		return false, nil
	}
	return data, nil
}

func (o *Options) normalize() {
	o.Case = strings.ToLower(strings.TrimSpace(o.Case))
	o.OutlierMethod = strings.ToLower(strings.TrimSpace(o.OutlierMethod))
	o.OutlierReplace = strings.ToLower(strings.TrimSpace(o.OutlierReplace))
	o.Keep = strings.ToLower(strings.TrimSpace(o.Keep))

	subset := o.DedupeSubset[:0]
	for _, c := range o.DedupeSubset {
		if c = strings.TrimSpace(c); c != "" {
			subset = append(subset, c)
		}
	}
	o.DedupeSubset = subset
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("koanf")
	})
	return v
}

// Validate checks option values.
func (o Options) Validate() error {
	err := validate.Struct(o)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s=%v fails %s %s", fe.Field(), fe.Value(), fe.Tag(), fe.Param()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidOptions, strings.Join(msgs, "; "))
}
