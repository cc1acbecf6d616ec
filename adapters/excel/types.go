package excel

// RawRowData represents a row of raw table data as header → cell pairs
type RawRowData map[string]string

// ExcelData represents a complete table read from xlsx or csv
type ExcelData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}
