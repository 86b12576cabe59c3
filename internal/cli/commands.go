package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Fanfan0315/Horisation/internal/clean"
	"github.com/Fanfan0315/Horisation/internal/core"
	"github.com/Fanfan0315/Horisation/internal/diff"
	"github.com/Fanfan0315/Horisation/internal/export"
)

func newPreviewCommand(a *app) *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "preview <file>",
		Short: "Show the first rows of a file",
		Example: `  horisation preview sales.csv
  horisation preview --rows 50 --sep auto export.txt
  horisation preview --output json book.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.readInput(args[0])
			if err != nil {
				return err
			}
			res, err := a.service.Preview(cmd.Context(), in, rows)
			if err != nil {
				return err
			}
			return a.render(cmd, res, func() error { return renderPreview(stdout(cmd), res) })
		},
	}
	cmd.Flags().IntVarP(&rows, "rows", "n", 0, "Rows to show (default 10, at most 2000)")
	return cmd
}

func newSummaryCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "summary <file>",
		Short:   "Show row count, column types and missing values",
		Example: `  horisation summary customers.csv`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := a.readInput(args[0])
			if err != nil {
				return err
			}
			res, err := a.service.Summary(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.render(cmd, res, func() error { return renderSummary(stdout(cmd), res) })
		},
	}
}

func newCleanCommand(a *app) *cobra.Command {
	var (
		profile string
		sets    []string
		out     string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "clean <file>",
		Short: "Normalize headers and cells, fill gaps, handle outliers and drop duplicates",
		Long: `Run the cleaning pipeline. Options start from the defaults, then a YAML
profile (--profile), then individual --set key=value overrides.

Option keys: ` + fmt.Sprint(clean.Keys()),
		Example: `  horisation clean raw.csv --out clean.csv
  horisation clean raw.csv --profile finance.yaml --set decimals=4 --out clean.xlsx
  horisation clean raw.csv --set handle_outliers=on --set outlier_method=iqr`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseSet(sets)
			if err != nil {
				return err
			}
			opts, err := clean.Load(profile, overrides)
			if err != nil {
				return err
			}
			if format == "" && out != "" {
				if format, err = export.FormatFromName(out); err != nil {
					return err
				}
			}
			in, err := a.readInput(args[0])
			if err != nil {
				return err
			}

			var res *core.CleanResult
			err = a.withOutput(out, func(s *core.Service) ([]string, error) {
				res, err = s.Clean(cmd.Context(), in, opts, format)
				if err != nil {
					return nil, err
				}
				return res.CreatedFiles, nil
			})
			if err != nil {
				return err
			}
			return a.render(cmd, res, func() error { return renderClean(stdout(cmd), res, out) })
		},
	}
	cmd.Flags().StringVar(&profile, "profile", "", "YAML file of cleaning options")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Override one option (key=value); repeatable")
	cmd.Flags().StringVar(&out, "out", "", "Write the cleaned file here")
	cmd.Flags().StringVar(&format, "format", "", "Output format (csv|xlsx|json); default from --out")
	return cmd
}

func newDiffCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare numeric columns of two files",
		Long: `Compare two files cell by cell. Rows are aligned by --primary-key when
given, otherwise by position. Numbers differing by more than the tolerance
are reported with their delta and direction.`,
	}
	cmd.AddCommand(newDiffMetadataCommand(a))
	cmd.AddCommand(newDiffReportCommand(a))
	cmd.AddCommand(newDiffHighlightCommand(a))
	return cmd
}

func newDiffMetadataCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "metadata <file1> <file2>",
		Short:   "List numeric columns of both files and those they share",
		Example: `  horisation diff metadata jan.csv feb.csv`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in1, in2, err := a.readPair(args[0], args[1])
			if err != nil {
				return err
			}
			res, err := a.service.DiffMetadata(cmd.Context(), in1, in2)
			if err != nil {
				return err
			}
			return a.render(cmd, res, func() error { return renderMetadata(stdout(cmd), res) })
		},
	}
}

// mappingFlags are shared by diff report and diff highlight.
type mappingFlags struct {
	columns    []string
	primaryKey string
	tolerance  float64
	file       string
}

func (f *mappingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.columns, "columns", "c", nil, "Columns to compare (comma-separated or repeated)")
	cmd.Flags().StringVarP(&f.primaryKey, "primary-key", "k", "", "Column aligning rows across files")
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", 0, "Largest difference treated as equal (default 1e-9)")
	cmd.Flags().StringVar(&f.file, "mapping", "", "JSON mapping file ([{\"column\",\"selected\",\"primary_key\"}])")
}

func (f *mappingFlags) mapping() (diff.Mapping, error) {
	var m diff.Mapping
	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return diff.Mapping{}, fmt.Errorf("read mapping: %w", err)
		}
		if m, err = diff.DecodeMapping(data); err != nil {
			return diff.Mapping{}, err
		}
	} else {
		m = diff.NewMapping(f.columns, f.primaryKey)
	}
	if f.tolerance > 0 {
		m.Tolerance = f.tolerance
	}
	return m, nil
}

func newDiffReportCommand(a *app) *cobra.Command {
	var (
		mf  mappingFlags
		out string
	)

	cmd := &cobra.Command{
		Use:   "report <file1> <file2>",
		Short: "List every differing cell",
		Example: `  horisation diff report jan.csv feb.csv -c amount,qty -k id
  horisation diff report jan.csv feb.csv -c amount -k id --out report.xlsx`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.mapping()
			if err != nil {
				return err
			}
			in1, in2, err := a.readPair(args[0], args[1])
			if err != nil {
				return err
			}

			var res *core.DiffReportResult
			err = a.withOutput(out, func(s *core.Service) ([]string, error) {
				res, err = s.DiffReport(cmd.Context(), in1, in2, m)
				if err != nil {
					return nil, err
				}
				return res.CreatedFiles, nil
			})
			if err != nil {
				return err
			}
			return a.render(cmd, res, func() error { return renderReport(stdout(cmd), res.Report, out) })
		},
	}
	mf.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Write a workbook with both files and a Diff Summary sheet")
	return cmd
}

func newDiffHighlightCommand(a *app) *cobra.Command {
	var (
		mf  mappingFlags
		out string
	)

	cmd := &cobra.Command{
		Use:     "highlight <file1> <file2>",
		Short:   "Write a workbook with differing cells filled",
		Example: `  horisation diff highlight jan.csv feb.csv -c amount -k id --out highlighted.xlsx`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := mf.mapping()
			if err != nil {
				return err
			}
			in1, in2, err := a.readPair(args[0], args[1])
			if err != nil {
				return err
			}

			var res *core.DiffHighlightResult
			err = a.withOutput(out, func(s *core.Service) ([]string, error) {
				res, err = s.DiffHighlight(cmd.Context(), in1, in2, m)
				if err != nil {
					return nil, err
				}
				return res.CreatedFiles, nil
			})
			if err != nil {
				return err
			}
			return a.render(cmd, res, func() error { return renderHighlight(stdout(cmd), res, out) })
		},
	}
	mf.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Write the highlighted workbook here")
	return cmd
}

func newCombineCommand(a *app) *cobra.Command {
	var (
		method string
		on     []string
		out    string
		format string
	)

	cmd := &cobra.Command{
		Use:   "combine <file1> <file2>",
		Short: "Stack two files or join them on key columns",
		Example: `  horisation combine a.csv b.csv --out all.csv
  horisation combine orders.csv customers.csv --method merge --on customer_id --out joined.xlsx`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" && out != "" {
				var err error
				if format, err = export.FormatFromName(out); err != nil {
					return err
				}
			}
			in1, in2, err := a.readPair(args[0], args[1])
			if err != nil {
				return err
			}

			var res *core.CombineResult
			err = a.withOutput(out, func(s *core.Service) ([]string, error) {
				res, err = s.Combine(cmd.Context(), in1, in2, method, on, format)
				if err != nil {
					return nil, err
				}
				return res.CreatedFiles, nil
			})
			if err != nil {
				return err
			}
			return a.render(cmd, res, func() error { return renderCombine(stdout(cmd), res, out) })
		},
	}
	cmd.Flags().StringVar(&method, "method", "concat", "concat or merge")
	cmd.Flags().StringSliceVar(&on, "on", nil, "Join columns for merge")
	cmd.Flags().StringVar(&out, "out", "", "Write the combined file here")
	cmd.Flags().StringVar(&format, "format", "", "Output format (csv|xlsx|json); default from --out")
	return cmd
}
