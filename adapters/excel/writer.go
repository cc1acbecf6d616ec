package excel

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"gofit/domain/core"
	"gofit/domain/stats"
	"gofit/ports"
)

const (
	summarySheet = "Summary"
	maxSheetName = 31
)

// ScanWriter writes scan reports to xlsx workbooks
type ScanWriter struct{}

var _ ports.ScanExporter = (*ScanWriter)(nil)

// NewScanWriter creates a scan workbook writer
func NewScanWriter() *ScanWriter {
	return &ScanWriter{}
}

// ExportScan writes one Summary sheet with a row per report and one sheet
// per report holding its score curve next to both fitted parabolas
func (w *ScanWriter) ExportScan(ctx context.Context, path string, reports []*stats.ScanReport) error {
	if len(reports) == 0 {
		return core.NewValidationError("reports", "nothing to export")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	summary := [][]interface{}{{
		"sheet", "evaluator", "density", "truth", "events", "grid min",
		"parabola", "parabola err", "asym err low", "asym err high",
		"threshold", "threshold err low", "threshold err high", "failures",
	}}
	for i, rep := range reports {
		if err := ctx.Err(); err != nil {
			return err
		}
		sheet := sheetName(i, rep.Evaluator)
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
		if err := writeCurve(f, sheet, rep); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return err
		}
		summary = append(summary, summaryRow(sheet, rep))
	}

	if err := writeRows(f, summarySheet, summary); err != nil {
		return err
	}
	if err := f.SetRowStyle(summarySheet, 1, 1, bold); err != nil {
		return err
	}
	idx, err := f.GetSheetIndex(summarySheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)

	return f.SaveAs(path)
}

func sheetName(i int, evaluator string) string {
	name := fmt.Sprintf("%d %s", i+1, evaluator)
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	return name
}

func writeCurve(f *excelize.File, sheet string, rep *stats.ScanReport) error {
	rows := [][]interface{}{{"hypothesis", "score", "parabola", "asymmetric parabola"}}
	for _, p := range rep.Curve.Points {
		row := []interface{}{p.Hypothesis, p.Score, nil, nil}
		if rep.Fit != nil {
			row[2] = rep.Fit.Eval(p.Hypothesis)
		}
		if rep.AsymmetricFit != nil {
			row[3] = rep.AsymmetricFit.Eval(p.Hypothesis)
		}
		rows = append(rows, row)
	}
	return writeRows(f, sheet, rows)
}

func summaryRow(sheet string, rep *stats.ScanReport) []interface{} {
	row := make([]interface{}, 14)
	row[0], row[1], row[2], row[3], row[4] = sheet, rep.Evaluator, rep.Density, rep.Truth, rep.Events
	if rep.Curve.Len() > 0 {
		row[5] = rep.Curve.Min().Hypothesis
	}
	if e, ok := rep.Estimate(stats.MethodParabola); ok {
		row[6], row[7] = e.Value, e.ErrHigh
	}
	if e, ok := rep.Estimate(stats.MethodAsymmetricParabola); ok {
		row[8], row[9] = e.ErrLow, e.ErrHigh
	}
	if e, ok := rep.Estimate(stats.MethodThresholdScan); ok {
		row[10], row[11], row[12] = e.Value, e.ErrLow, e.ErrHigh
	}
	row[13] = len(rep.Failures)
	return row
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}
