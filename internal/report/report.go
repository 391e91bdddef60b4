// Package report renders the cleaning workbook: one sheet summarizing the
// run, one per-archive, one per-column with the drop decisions, and one
// with the gate's group ratios. The workbook is documentation for humans;
// the artifact alone feeds training.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"flightprep/internal/pipeline"
)

// Sheet names in the cleaning workbook.
const (
	SheetSummary  = "Summary"
	SheetArchives = "Archives"
	SheetColumns  = "Columns"
	SheetGate     = "Gate"
)

// Generator renders cleaning workbooks
type Generator struct {
	logger *slog.Logger
}

// NewGenerator creates a new workbook generator
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{logger: logger}
}

// Write renders the workbook for the given run summary to path.
func (g *Generator) Write(ctx context.Context, path string, summary *pipeline.RunSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return pipeline.NewIOError(pipeline.StageReport, "failed to name summary sheet", err)
	}
	for _, sheet := range []string{SheetArchives, SheetColumns, SheetGate} {
		if _, err := f.NewSheet(sheet); err != nil {
			return pipeline.NewIOError(pipeline.StageReport,
				fmt.Sprintf("failed to create sheet %s", sheet), err)
		}
	}

	if err := g.writeSummary(f, summary); err != nil {
		return err
	}
	if err := g.writeArchives(f, summary); err != nil {
		return err
	}
	if err := g.writeColumns(f, summary); err != nil {
		return err
	}
	if err := g.writeGate(f, summary); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return pipeline.NewIOError(pipeline.StageReport,
			fmt.Sprintf("failed to create directory %s", dir), err)
	}
	if err := f.SaveAs(path); err != nil {
		return pipeline.NewIOError(pipeline.StageReport,
			fmt.Sprintf("failed to save workbook %s", path), err)
	}

	g.logger.InfoContext(ctx, "cleaning report written",
		slog.String("path", path),
		slog.Int("columns", len(summary.Columns)),
		slog.Int("groups", len(summary.GroupRatios)))

	return nil
}

func (g *Generator) writeSummary(f *excelize.File, s *pipeline.RunSummary) error {
	ratios := make([]float64, 0, len(s.GroupRatios))
	skews := make([]float64, 0, len(s.GroupRatios))
	for _, gr := range s.GroupRatios {
		ratios = append(ratios, gr.Ratio)
		skews = append(skews, gr.Skew)
	}
	meanRatio, maxSkew := 0.0, 0.0
	if len(ratios) > 0 {
		meanRatio = stat.Mean(ratios, nil)
		maxSkew = floats.Max(skews)
	}

	rows := [][]interface{}{
		{"Run ID", s.RunID},
		{"Started", s.StartedAt.Format(time.RFC3339)},
		{"Finished", s.FinishedAt.Format(time.RFC3339)},
		{"Duration", s.Duration().String()},
		{"Tables harvested", len(s.Archives)},
		{"Rows in", s.RowsIn},
		{"Columns in", s.ColumnsIn},
		{"Columns dropped", len(s.DroppedColumns())},
		{"Columns kept", len(s.KeptColumns())},
		{"Target column", s.TargetColumn},
		{"Rows missing target", s.TargetMissing},
		{"Target missing ratio", s.TargetMissingRatio},
		{"Mean group missing ratio", meanRatio},
		{"Max group skew", maxSkew},
		{"Rows dropped", s.RowsDropped},
		{"Rows out", s.RowsOut},
		{"Columns out", s.ColumnsOut},
		{"Artifact", s.ArtifactPath},
	}

	for i, row := range rows {
		if err := writeRow(f, SheetSummary, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) writeArchives(f *excelize.File, s *pipeline.RunSummary) error {
	if err := writeRow(f, SheetArchives, 1, []interface{}{"Archive", "Member", "Rows", "Columns"}); err != nil {
		return err
	}
	for i, a := range s.Archives {
		row := []interface{}{a.Archive, a.Member, a.Rows, a.Columns}
		if err := writeRow(f, SheetArchives, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) writeColumns(f *excelize.File, s *pipeline.RunSummary) error {
	if err := writeRow(f, SheetColumns, 1, []interface{}{"Column", "Missing", "Ratio", "Status"}); err != nil {
		return err
	}
	for i, c := range s.Columns {
		status := "kept"
		if c.Dropped {
			status = "dropped"
		}
		row := []interface{}{c.Name, c.Missing, c.Ratio, status}
		if err := writeRow(f, SheetColumns, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) writeGate(f *excelize.File, s *pipeline.RunSummary) error {
	if err := writeRow(f, SheetGate, 1, []interface{}{"Dimension", "Group", "Rows", "Missing", "Ratio", "Skew"}); err != nil {
		return err
	}
	for i, gr := range s.GroupRatios {
		row := []interface{}{gr.Dimension, gr.Group, gr.Rows, gr.Missing, gr.Ratio, gr.Skew}
		if err := writeRow(f, SheetGate, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

// writeRow writes one row of values starting at column A
func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return pipeline.NewIOError(pipeline.StageReport, "failed to compute cell name", err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return pipeline.NewIOError(pipeline.StageReport,
				fmt.Sprintf("failed to write cell %s!%s", sheet, cell), err)
		}
	}
	return nil
}
