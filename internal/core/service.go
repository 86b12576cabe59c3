package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Fanfan0315/Horisation/internal/clean"
	"github.com/Fanfan0315/Horisation/internal/combine"
	"github.com/Fanfan0315/Horisation/internal/diff"
	"github.com/Fanfan0315/Horisation/internal/export"
	"github.com/Fanfan0315/Horisation/internal/logging"
	"github.com/Fanfan0315/Horisation/internal/metrics"
	"github.com/Fanfan0315/Horisation/internal/resolve"
	"github.com/Fanfan0315/Horisation/internal/summary"
	"github.com/Fanfan0315/Horisation/internal/table"
)

// ErrNoFile is returned when a required upload is absent.
var ErrNoFile = errors.New("no file provided")

// Preview row limits.
const (
	DefaultPreviewRows = 10
	MaxPreviewRows     = 2000
)

// Operation names used in logs and metrics.
const (
	OpPreview       = "preview"
	OpSummary       = "summary"
	OpClean         = "clean"
	OpDiffMetadata  = "diff_metadata"
	OpDiffReport    = "diff_report"
	OpDiffHighlight = "diff_highlight"
	OpCombine       = "combine"
)

// Options configures a Service. Zero values are usable: no limiter, no
// metrics, no stored output files.
type Options struct {
	PreviewDefault int
	PreviewMax     int

	// MaxRows caps rows read per file for summary, clean, diff and combine
	// (0 = unlimited).
	MaxRows int

	// Tolerance is the diff tolerance used when a request gives none.
	Tolerance float64

	Limiter   *OperationLimiter
	Metrics   *metrics.Metrics
	Artifacts *ArtifactStore
}

// Service runs engine operations for the HTTP shell and the CLI. It keeps
// no state between calls besides the shared limiter and metrics.
type Service struct {
	opts      Options
	limiter   *OperationLimiter
	metrics   *metrics.Metrics
	artifacts *ArtifactStore
}

// NewService creates a Service.
func NewService(opts Options) *Service {
	if opts.PreviewMax <= 0 {
		opts.PreviewMax = MaxPreviewRows
	}
	if opts.PreviewDefault <= 0 {
		opts.PreviewDefault = DefaultPreviewRows
	}
	return &Service{
		opts:      opts,
		limiter:   opts.Limiter,
		metrics:   opts.Metrics,
		artifacts: opts.Artifacts,
	}
}

// Artifacts returns the store for created files, or nil.
func (s *Service) Artifacts() *ArtifactStore { return s.artifacts }

// Limiter returns the operation limiter, or nil.
func (s *Service) Limiter() *OperationLimiter { return s.limiter }

// ClampRows returns n bounded to [1, limit], or def when n is not positive.
func ClampRows(n, def, limit int) int {
	if def > limit {
		def = limit
	}
	switch {
	case n <= 0:
		return def
	case n > limit:
		return limit
	}
	return n
}

// run wraps one operation with the limiter, metrics and outcome logging.
func (s *Service) run(ctx context.Context, op string, fn func() error) (err error) {
	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			if errors.Is(err, ErrTooManyOperations) {
				s.metrics.Rejected()
			}
			return err
		}
		defer s.limiter.Release()
	}

	done := s.metrics.Track()
	defer done()

	start := time.Now()
	log := logging.WithFields(ctx, append([]any{"operation", op}, clientFields(ctx)...)...)
	defer func() {
		s.metrics.Observe(op, start, err)
		if err != nil {
			log.Warn("operation failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
			return
		}
		log.Info("operation completed", "duration_ms", time.Since(start).Milliseconds())
	}()

	return fn()
}

// load resolves one input into a table.
func (s *Service) load(ctx context.Context, op string, in Input, maxRows int) (*table.Table, error) {
	if in.Name == "" && len(in.Data) == 0 {
		return nil, ErrNoFile
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := resolve.Resolve(in.Data, in.Name, resolve.Options{
		Separator:  in.Separator,
		Encoding:   in.Encoding,
		MaxRows:    maxRows,
		Sheet:      in.Sheet,
		HeaderRows: in.HeaderRows,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", in.Name, err)
	}

	s.metrics.AddRows(op, t.Len())
	logging.FromContext(ctx).Debug("file resolved",
		"filename", in.Name,
		"format", t.Source.Format,
		"encoding", t.Source.Encoding,
		"separator", t.Source.Separator,
		"rows", t.Len(),
		"columns", len(t.Columns),
	)
	return t, nil
}

func (s *Service) loadPair(ctx context.Context, op string, in1, in2 Input) (*table.Table, *table.Table, error) {
	t1, err := s.load(ctx, op, in1, s.opts.MaxRows)
	if err != nil {
		return nil, nil, fmt.Errorf("file1: %w", err)
	}
	t2, err := s.load(ctx, op, in2, s.opts.MaxRows)
	if err != nil {
		return nil, nil, fmt.Errorf("file2: %w", err)
	}
	return t1, t2, nil
}

// save stores one created file when a store is configured.
func (s *Service) save(prefix, ext string, write func(io.Writer) error) ([]string, error) {
	if s.artifacts == nil {
		return []string{}, nil
	}
	name, err := s.artifacts.Save(prefix, ext, write)
	if err != nil {
		return nil, err
	}
	return []string{name}, nil
}

// Preview returns the first n rows (clamped) of a file. Only those rows
// are read.
func (s *Service) Preview(ctx context.Context, in Input, n int) (*PreviewResult, error) {
	var res *PreviewResult
	err := s.run(ctx, OpPreview, func() error {
		n = ClampRows(n, s.opts.PreviewDefault, s.opts.PreviewMax)
		t, err := s.load(ctx, OpPreview, in, n)
		if err != nil {
			return err
		}
		res = &PreviewResult{Filename: in.Name, Source: t.Source, Preview: summary.NewPreview(t, n)}
		return nil
	})
	return res, err
}

// Summary returns shape, column types and missing counts of a file.
func (s *Service) Summary(ctx context.Context, in Input) (*SummaryResult, error) {
	var res *SummaryResult
	err := s.run(ctx, OpSummary, func() error {
		t, err := s.load(ctx, OpSummary, in, s.opts.MaxRows)
		if err != nil {
			return err
		}
		res = &SummaryResult{Filename: in.Name, Source: t.Source, Summary: summary.Summarize(t)}
		return nil
	})
	return res, err
}

// Clean runs the cleaning pipeline and stores the result in format.
func (s *Service) Clean(ctx context.Context, in Input, opts clean.Options, format string) (*CleanResult, error) {
	var res *CleanResult
	err := s.run(ctx, OpClean, func() error {
		outFormat, err := export.ParseFormat(format)
		if err != nil {
			return err
		}
		if err := opts.Validate(); err != nil {
			return err
		}

		t, err := s.load(ctx, OpClean, in, s.opts.MaxRows)
		if err != nil {
			return err
		}
		out, err := clean.Clean(ctx, t, opts)
		if err != nil {
			return err
		}

		files, err := s.save("cleaned", outFormat, func(w io.Writer) error {
			return export.Write(out.Table, outFormat, w)
		})
		if err != nil {
			return err
		}

		res = &CleanResult{
			CleanedRows:       out.Table.Len(),
			RemovedDuplicates: out.RemovedDuplicates,
			AppliedSteps:      nonNil(out.AppliedSteps),
			Columns:           out.Table.Columns,
			Flagged:           out.Flagged,
			CreatedFiles:      files,
			Table:             out.Table,
		}
		if res.Flagged == nil {
			res.Flagged = []clean.CellFlag{}
		}
		return nil
	})
	return res, err
}

// DiffMetadata lists numeric and shared numeric columns of two files.
func (s *Service) DiffMetadata(ctx context.Context, in1, in2 Input) (*diff.ColumnMetadata, error) {
	var res *diff.ColumnMetadata
	err := s.run(ctx, OpDiffMetadata, func() error {
		t1, t2, err := s.loadPair(ctx, OpDiffMetadata, in1, in2)
		if err != nil {
			return err
		}
		md := diff.Metadata(t1, t2)
		res = &md
		return nil
	})
	return res, err
}

func (s *Service) withTolerance(m diff.Mapping) diff.Mapping {
	if m.Tolerance <= 0 {
		m.Tolerance = s.opts.Tolerance
	}
	return m
}

// DiffReport compares two files and stores a workbook with both tables
// and a Diff Summary sheet.
func (s *Service) DiffReport(ctx context.Context, in1, in2 Input, m diff.Mapping) (*DiffReportResult, error) {
	var res *DiffReportResult
	err := s.run(ctx, OpDiffReport, func() error {
		t1, t2, err := s.loadPair(ctx, OpDiffReport, in1, in2)
		if err != nil {
			return err
		}
		r, err := diff.BuildReport(ctx, t1, t2, s.withTolerance(m))
		if err != nil {
			return err
		}
		files, err := s.save("diff-report", export.FormatXLSX, func(w io.Writer) error {
			return export.ReportWorkbook(t1, t2, r, w)
		})
		if err != nil {
			return err
		}
		res = &DiffReportResult{Report: r, CreatedFiles: files}
		return nil
	})
	return res, err
}

// DiffHighlight compares two files and stores a workbook with differing
// cells filled.
func (s *Service) DiffHighlight(ctx context.Context, in1, in2 Input, m diff.Mapping) (*DiffHighlightResult, error) {
	var res *DiffHighlightResult
	err := s.run(ctx, OpDiffHighlight, func() error {
		t1, t2, err := s.loadPair(ctx, OpDiffHighlight, in1, in2)
		if err != nil {
			return err
		}
		h, err := diff.BuildHighlight(ctx, t1, t2, s.withTolerance(m))
		if err != nil {
			return err
		}
		files, err := s.save("diff-highlight", export.FormatXLSX, func(w io.Writer) error {
			return export.HighlightWorkbook(h, w)
		})
		if err != nil {
			return err
		}
		res = &DiffHighlightResult{
			CreatedFiles:  files,
			FlaggedCells:  h.FlaggedCells(),
			Discrepancies: len(h.Report.Discrepancies),
			Highlighted:   h,
		}
		return nil
	})
	return res, err
}

// Combine concatenates or merges two files and stores the result.
func (s *Service) Combine(ctx context.Context, in1, in2 Input, method string, on []string, format string) (*CombineResult, error) {
	var res *CombineResult
	err := s.run(ctx, OpCombine, func() error {
		outFormat, err := export.ParseFormat(format)
		if err != nil {
			return err
		}
		t1, t2, err := s.loadPair(ctx, OpCombine, in1, in2)
		if err != nil {
			return err
		}
		out, err := combine.Combine(t1, t2, method, on)
		if err != nil {
			return err
		}
		files, err := s.save("combined", outFormat, func(w io.Writer) error {
			return export.Write(out, outFormat, w)
		})
		if err != nil {
			return err
		}
		res = &CombineResult{Rows: out.Len(), Columns: out.Columns, CreatedFiles: files, Table: out}
		return nil
	})
	return res, err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
