package excel

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gofit/domain/core"
	"gofit/domain/stats"
	"gofit/internal"
)

var quiet = internal.NewLogger(internal.LogLevelError)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadObservations_CSV(t *testing.T) {
	path := writeFile(t, "readings.csv", "Day, Cups, Sigma\n65, 29613, 2\n\n76, 29805, 3\n")
	set, err := NewObservationReader(DefaultColumnConfig(), quiet).ReadObservations(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, stats.Observation{X: 76, Y: 29805, SigmaY: 3}, set.At(1))
}

func TestReadObservations_DefaultSigma(t *testing.T) {
	path := writeFile(t, "line.csv", "x,y\n1,2\n2,4\n")

	_, err := NewObservationReader(DefaultColumnConfig(), quiet).ReadObservations(context.Background(), path)
	assert.True(t, core.IsValidationError(err))

	cols := DefaultColumnConfig()
	cols.DefaultSigma = 0.5
	set, err := NewObservationReader(cols, quiet).ReadObservations(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, set.At(0).SigmaY)
}

func TestReadObservations_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{{"x", "y", "sigma_y"}, {1.0, 10.0, 1.0}, {2.0, 12.5, 1.0}, {3.0, 15.0, 2.0}}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	set, err := NewObservationReader(DefaultColumnConfig(), quiet).ReadObservations(context.Background(), path)
	require.NoError(t, err)
	x, y, sigma := set.Columns()
	assert.Equal(t, []float64{1, 2, 3}, x)
	assert.Equal(t, []float64{10, 12.5, 15}, y)
	assert.Equal(t, []float64{1, 1, 2}, sigma)
}

func TestReadObservations_Errors(t *testing.T) {
	reader := NewObservationReader(DefaultColumnConfig(), quiet)
	ctx := context.Background()

	_, err := reader.ReadObservations(ctx, filepath.Join(t.TempDir(), "absent.csv"))
	assert.True(t, core.IsNotFoundError(err))

	_, err = reader.ReadObservations(ctx, writeFile(t, "header.csv", "x,y,sigma\n"))
	assert.True(t, core.IsValidationError(err))

	_, err = reader.ReadObservations(ctx, writeFile(t, "cols.csv", "a,b\n1,2\n"))
	assert.True(t, core.IsValidationError(err))

	_, err = reader.ReadObservations(ctx, writeFile(t, "text.csv", "x,y,sigma\n1,two,1\n"))
	assert.True(t, core.IsValidationError(err))

	_, err = reader.ReadObservations(ctx, writeFile(t, "neg.csv", "x,y,sigma\n1,2,-1\n"))
	assert.True(t, core.IsValidationError(err))
}

func scanReport() *stats.ScanReport {
	rep := &stats.ScanReport{Evaluator: "chi_square", Density: "exponential", Truth: 1, Events: 100}
	for i := 0; i < 5; i++ {
		x := 0.8 + 0.1*float64(i)
		rep.Curve.Points = append(rep.Curve.Points, stats.ScorePoint{Hypothesis: x, Score: 10 + 100*(x-1)*(x-1)})
	}
	rep.Curve.MinIndex = 2
	rep.Fit = &stats.QuadraticFit{MinValue: 10, MinPosition: 1, Curvature: 100, Points: 5}
	rep.Estimates = []stats.Estimate{{Value: 1, ErrLow: 0.1, ErrHigh: 0.1, Method: stats.MethodParabola}}
	rep.Failures = []stats.StepFailure{{Step: "threshold_scan", Error: "range insufficient"}}
	return rep
}

func TestExportScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan.xlsx")
	rep := scanReport()
	require.NoError(t, NewScanWriter().ExportScan(context.Background(), path, []*stats.ScanReport{rep, rep}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "1 chi_square", "2 chi_square"}, f.GetSheetList())

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summary, 3)
	assert.Equal(t, "1 chi_square", summary[1][0])
	assert.Equal(t, "1", summary[1][13])

	curve, err := f.GetRows("1 chi_square")
	require.NoError(t, err)
	require.Len(t, curve, 6)
	assert.Equal(t, []string{"hypothesis", "score", "parabola", "asymmetric parabola"}, curve[0])
	score, err := strconv.ParseFloat(curve[3][1], 64)
	require.NoError(t, err)
	assert.InDelta(t, 10, score, 1e-9)
}

func TestExportScan_Empty(t *testing.T) {
	err := NewScanWriter().ExportScan(context.Background(), filepath.Join(t.TempDir(), "x.xlsx"), nil)
	assert.True(t, core.IsValidationError(err))
}

func TestSheetNameTruncates(t *testing.T) {
	assert.Len(t, sheetName(9, "a_very_long_evaluator_name_that_overflows"), maxSheetName)
}
