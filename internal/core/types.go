package core

import (
	"github.com/Fanfan0315/Horisation/internal/clean"
	"github.com/Fanfan0315/Horisation/internal/diff"
	"github.com/Fanfan0315/Horisation/internal/summary"
	"github.com/Fanfan0315/Horisation/internal/table"
)

// Input is one uploaded file and how to decode it.
type Input struct {
	Name       string
	Data       []byte
	Separator  string
	Encoding   string
	Sheet      string
	HeaderRows int
}

// PreviewResult is the payload of a preview.
type PreviewResult struct {
	Filename string       `json:"filename"`
	Source   table.Source `json:"source"`
	summary.Preview
}

// SummaryResult is the payload of a summary.
type SummaryResult struct {
	Filename string          `json:"filename"`
	Source   table.Source    `json:"source"`
	Summary  summary.Summary `json:"summary"`
}

// CleanResult is the payload of a clean run. Table is the cleaned table
// for callers that write their own output.
type CleanResult struct {
	CleanedRows       int              `json:"cleaned_rows"`
	RemovedDuplicates int              `json:"removed_duplicates"`
	AppliedSteps      []string         `json:"applied_steps"`
	Columns           []string         `json:"columns"`
	Flagged           []clean.CellFlag `json:"flagged"`
	CreatedFiles      []string         `json:"created_files"`
	Table             *table.Table     `json:"-"`
}

// DiffReportResult is the payload of a diff report.
type DiffReportResult struct {
	*diff.Report
	CreatedFiles []string `json:"created_files"`
}

// DiffHighlightResult is the payload of a highlighted diff.
type DiffHighlightResult struct {
	CreatedFiles  []string          `json:"created_files"`
	FlaggedCells  int               `json:"flagged_cells"`
	Discrepancies int               `json:"discrepancies"`
	Highlighted   *diff.Highlighted `json:"-"`
}

// CombineResult is the payload of a combine.
type CombineResult struct {
	Rows         int          `json:"rows"`
	Columns      []string     `json:"columns"`
	CreatedFiles []string     `json:"created_files"`
	Table        *table.Table `json:"-"`
}
