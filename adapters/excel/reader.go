package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gofit/domain/core"
	"gofit/domain/stats"
	"gofit/internal"
	"gofit/ports"
)

// DataReader handles reading Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	logger   *internal.Logger
}

// NewDataReader creates a reader choosing csv or xlsx from the file extension
func NewDataReader(filePath, sheet string, logger *internal.Logger) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if sheet == "" {
		sheet = "Sheet1"
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{filePath: filePath, fileType: fileType, sheet: sheet, logger: logger}
}

// ReadData reads the table into header-keyed rows
func (r *DataReader) ReadData() (*ExcelData, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, core.NewNotFoundError(r.fileType+" file", r.filePath)
	}

	var rows [][]string
	var err error
	start := time.Now()
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	default:
		rows, err = r.readExcelRows()
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("read %s %s in %s (%d rows)", r.fileType, r.filePath, time.Since(start), len(rows))

	if len(rows) < 2 {
		return nil, core.NewValidationError(r.filePath, "need a header row and at least one data row")
	}
	return r.processRows(rows), nil
}

func (r *DataReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.sheet, err)
	}
	return rows, nil
}

func (r *DataReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows converts raw string rows into ExcelData, skipping blank rows
func (r *DataReader) processRows(rows [][]string) *ExcelData {
	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(header))
	}

	var dataRows []RawRowData
	for _, row := range rows[1:] {
		rowData := make(RawRowData)
		blank := true
		for j, cell := range row {
			if j < len(headers) {
				cell = strings.TrimSpace(cell)
				rowData[headers[j]] = cell
				if cell != "" {
					blank = false
				}
			}
		}
		if !blank {
			dataRows = append(dataRows, rowData)
		}
	}
	return &ExcelData{Headers: headers, Rows: dataRows}
}

// ObservationReader reads (x, y, σy) tables from xlsx or csv files
type ObservationReader struct {
	columns ColumnConfig
	logger  *internal.Logger
}

var _ ports.ObservationReader = (*ObservationReader)(nil)

// NewObservationReader creates a reader with the given column mapping
func NewObservationReader(columns ColumnConfig, logger *internal.Logger) *ObservationReader {
	return &ObservationReader{columns: columns, logger: logger}
}

// ReadObservations reads the table at path. Rows need numeric x and y; a
// missing uncertainty column falls back to DefaultSigma.
func (o *ObservationReader) ReadObservations(ctx context.Context, path string) (stats.ObservationSet, error) {
	if err := ctx.Err(); err != nil {
		return stats.ObservationSet{}, err
	}
	data, err := NewDataReader(path, o.columns.Sheet, o.logger).ReadData()
	if err != nil {
		return stats.ObservationSet{}, err
	}

	xCol, ok := findColumn(data.Headers, o.columns.XColumns)
	if !ok {
		return stats.ObservationSet{}, core.NewValidationError(path, fmt.Sprintf("no x column (looked for %v)", o.columns.XColumns))
	}
	yCol, ok := findColumn(data.Headers, o.columns.YColumns)
	if !ok {
		return stats.ObservationSet{}, core.NewValidationError(path, fmt.Sprintf("no y column (looked for %v)", o.columns.YColumns))
	}
	sigmaCol, hasSigma := findColumn(data.Headers, o.columns.SigmaColumns)
	if !hasSigma && !(o.columns.DefaultSigma > 0) {
		return stats.ObservationSet{}, core.NewValidationError(path, "no uncertainty column and no default sigma")
	}

	obs := make([]stats.Observation, 0, len(data.Rows))
	for i, row := range data.Rows {
		line := i + 2
		x, err := parseCell(row, xCol, line)
		if err != nil {
			return stats.ObservationSet{}, err
		}
		y, err := parseCell(row, yCol, line)
		if err != nil {
			return stats.ObservationSet{}, err
		}
		sigma := o.columns.DefaultSigma
		if hasSigma && row[sigmaCol] != "" {
			if sigma, err = parseCell(row, sigmaCol, line); err != nil {
				return stats.ObservationSet{}, err
			}
		}
		obs = append(obs, stats.Observation{X: x, Y: y, SigmaY: sigma})
	}
	return stats.NewObservationSet(obs)
}

func findColumn(headers, aliases []string) (string, bool) {
	for _, alias := range aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		for _, h := range headers {
			if h == alias {
				return h, true
			}
		}
	}
	return "", false
}

func parseCell(row RawRowData, column string, line int) (float64, error) {
	v, err := strconv.ParseFloat(row[column], 64)
	if err != nil {
		return 0, core.NewValidationError(column, fmt.Sprintf("row %d: %q is not a number", line, row[column]))
	}
	return v, nil
}
