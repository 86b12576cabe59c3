// Package cli provides the horisation command-line interface: the same
// preview, summary, clean, diff and combine operations as the HTTP server,
// run against local files.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Fanfan0315/Horisation/internal/config"
	"github.com/Fanfan0315/Horisation/internal/core"
	"github.com/Fanfan0315/Horisation/internal/logging"
)

// Version is set at build time.
var Version = "dev"

// Output modes for --output.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// app carries what every command needs once flags are parsed.
type app struct {
	cfg     *config.Config
	service *core.Service

	sep        string
	encoding   string
	sheet      string
	headerRows int
	output     string
	logLevel   string
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "horisation",
		Short: "Preview, clean, compare and combine CSV and Excel files",
		Long: `horisation reads delimited text and .xlsx workbooks, detects their
encoding, and runs one operation per invocation: preview, summary, clean,
diff or combine. Results print as a table or as JSON; --out writes the
produced file.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return a.init(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.sep, "sep", "", `Field separator for delimited files ("auto" to detect; default ",")`)
	pf.StringVar(&a.encoding, "encoding", "", "Source encoding (default: try utf-8, gbk, latin-1, ...)")
	pf.StringVar(&a.sheet, "sheet", "", "Worksheet name for .xlsx files (default: first sheet)")
	pf.IntVar(&a.headerRows, "header-rows", 0, "Header rows to flatten in .xlsx files")
	pf.StringVarP(&a.output, "output", "o", OutputText, "Output format (text|json)")
	pf.StringVar(&a.logLevel, "log-level", "", "Log level (debug|info|warn|error); default from LOG_LEVEL")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{OutputText, OutputJSON}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newPreviewCommand(a))
	rootCmd.AddCommand(newSummaryCommand(a))
	rootCmd.AddCommand(newCleanCommand(a))
	rootCmd.AddCommand(newDiffCommand(a))
	rootCmd.AddCommand(newCombineCommand(a))

	return rootCmd
}

// Execute runs the root command and prints a user-facing error on failure.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", core.FormatUserError(err))
		return err
	}
	return nil
}

// init loads configuration, sets up logging on stderr and builds the
// service.
func (a *app) init(cmd *cobra.Command) error {
	switch a.output {
	case OutputText, OutputJSON:
	default:
		return fmt.Errorf("invalid --output %q: use text or json", a.output)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	logging.SetupWriter(cmd.ErrOrStderr(), level, cfg.Logging.Format)

	a.service = a.newService(nil)
	return nil
}

// newService builds a service, optionally storing created files.
func (a *app) newService(store *core.ArtifactStore) *core.Service {
	return core.NewService(core.Options{
		PreviewDefault: a.cfg.Preview.DefaultRows,
		PreviewMax:     a.cfg.Preview.MaxRows,
		MaxRows:        a.cfg.Upload.MaxRows,
		Tolerance:      a.cfg.Diff.Tolerance,
		Artifacts:      store,
	})
}

// readInput loads a local file with the global read flags.
func (a *app) readInput(path string) (core.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Input{}, fmt.Errorf("read %s: %w", path, err)
	}
	return core.Input{
		Name:       filepath.Base(path),
		Data:       data,
		Separator:  a.sep,
		Encoding:   a.encoding,
		Sheet:      a.sheet,
		HeaderRows: a.headerRows,
	}, nil
}

func (a *app) readPair(path1, path2 string) (core.Input, core.Input, error) {
	in1, err := a.readInput(path1)
	if err != nil {
		return core.Input{}, core.Input{}, err
	}
	in2, err := a.readInput(path2)
	if err != nil {
		return core.Input{}, core.Input{}, err
	}
	return in1, in2, nil
}

// withOutput runs op against a service whose created file lands at out.
// Without out, op runs on the plain service and nothing is written.
func (a *app) withOutput(out string, op func(*core.Service) ([]string, error)) error {
	if out == "" {
		_, err := op(a.service)
		return err
	}

	dir, err := os.MkdirTemp(filepath.Dir(out), ".horisation-*")
	if err != nil {
		return fmt.Errorf("prepare %s: %w", out, err)
	}
	defer os.RemoveAll(dir)

	store, err := core.NewArtifactStore(dir, 0)
	if err != nil {
		return err
	}
	files, err := op(a.newService(store))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	src, err := store.Path(files[0])
	if err != nil {
		return err
	}
	if err := os.Rename(src, out); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	return nil
}

// parseSet turns repeated key=value flags into option overrides.
func parseSet(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", p)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// stdout is where command results go.
func stdout(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
