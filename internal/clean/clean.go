// Package clean implements the configurable cleaning pipeline.
//
// Clean runs up to ten steps in a fixed order over a copy of the input:
// column names, cell trimming, string normalization, rounding, scaling,
// percentage conversion, date formatting, missing-value filling, outlier
// handling and de-duplication. Each step sees the output of the one before.
//
// A step is listed in Result.AppliedSteps only when it was enabled and it
// changed (or flagged) something. Per-cell conversion failures are
// recovered inside the step; only invalid options abort the pipeline.
package clean

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/Fanfan0315/Horisation/internal/logging"
	"github.com/Fanfan0315/Horisation/internal/table"
)

// Step labels reported in Result.AppliedSteps.
const (
	StepColumns     = "column names normalized"
	StepCells       = "cells cleaned"
	StepStrings     = "strings normalized"
	StepRound       = "numbers rounded"
	StepScale       = "numbers scaled"
	StepPercentages = "percentages converted"
	StepDates       = "dates formatted"
	StepFill        = "missing values filled"
	StepOutliers    = "outliers handled"
	StepDuplicates  = "duplicate rows removed"
)

// CellFlag identifies one outlier cell and what was done to it.
type CellFlag struct {
	Row    int     `json:"row"`
	Column string  `json:"column"`
	Value  float64 `json:"value"`
	Action string  `json:"action"`
}

// Result is the outcome of a pipeline run.
type Result struct {
	Table             *table.Table
	AppliedSteps      []string
	RemovedDuplicates int
	Flagged           []CellFlag
}

// run carries the working table and step outputs through the pipeline.
type run struct {
	t       *table.Table
	opts    Options
	log     *slog.Logger
	subset  []int
	removed int
	flagged []CellFlag
}

type step struct {
	label   string
	enabled func(Options) bool
	apply   func(*run) bool
}

var pipeline = []step{
	{StepColumns, func(o Options) bool { return o.CleanColumns }, (*run).normalizeColumns},
	{StepCells, func(o Options) bool { return o.CleanCells }, (*run).cleanCells},
	{StepStrings, func(o Options) bool { return o.NormalizeStrings }, (*run).normalizeStrings},
	{StepRound, func(o Options) bool { return o.RoundDecimals }, (*run).roundNumbers},
	{StepScale, func(o Options) bool { return o.ScaleNumeric }, (*run).scaleNumbers},
	{StepPercentages, func(o Options) bool { return o.FormatPercentages }, (*run).convertPercentages},
	{StepDates, func(o Options) bool { return o.FormatDates }, (*run).formatDates},
	{StepFill, func(o Options) bool { return o.FillMissing }, (*run).fillMissing},
	{StepOutliers, func(o Options) bool { return o.HandleOutliers }, (*run).handleOutliers},
	{StepDuplicates, func(o Options) bool { return o.RemoveDuplicates }, (*run).removeDuplicates},
}

// Clean runs the enabled steps over a copy of t. The input is not modified.
func Clean(ctx context.Context, t *table.Table, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	subset, err := resolveSubset(t, opts)
	if err != nil {
		return nil, err
	}

	r := &run{
		t:      t.Clone(),
		opts:   opts,
		log:    logging.WithFields(ctx, "component", "clean"),
		subset: subset,
	}

	var applied []string
	for _, s := range pipeline {
		if !s.enabled(opts) {
			continue
		}
		if s.apply(r) {
			applied = append(applied, s.label)
		}
	}

	r.log.Debug("clean complete",
		"rows_in", t.Len(),
		"rows_out", r.t.Len(),
		"applied", len(applied),
	)

	return &Result{
		Table:             r.t,
		AppliedSteps:      applied,
		RemovedDuplicates: r.removed,
		Flagged:           r.flagged,
	}, nil
}

// resolveSubset maps dedupe subset names to column positions. Names may
// be given as they appear in the input or as they will read after column
// normalization. An empty subset means every column.
func resolveSubset(t *table.Table, opts Options) ([]int, error) {
	if !opts.RemoveDuplicates || len(opts.DedupeSubset) == 0 {
		return nil, nil
	}

	cleaned := t.Columns
	if opts.CleanColumns {
		cleaned = CleanColumnNames(t.Columns, opts.Case, opts.StripSpecial)
	}

	var idx []int
	for _, name := range opts.DedupeSubset {
		j := slices.Index(cleaned, name)
		if j < 0 {
			j = t.Index(name)
		}
		if j < 0 {
			return nil, fmt.Errorf("%w: dedupe_subset column %q not found", ErrInvalidOptions, name)
		}
		if !slices.Contains(idx, j) {
			idx = append(idx, j)
		}
	}
	return idx, nil
}

// dropUnconvertible records a cell that could not be converted and leaves it missing.
func (r *run) dropUnconvertible(row, col int, raw string, target table.ColumnType) {
	err := &table.CellConversionError{Column: r.t.Columns[col], Row: row, Value: raw, Target: target}
	r.log.Debug("cell conversion recovered", "error", err)
	r.t.Rows[row][col] = table.Null()
}
