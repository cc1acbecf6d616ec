package excel

// ColumnConfig maps table headers to observation fields. Header matching
// ignores case and surrounding space; the first alias present wins.
type ColumnConfig struct {
	Sheet        string   `json:"sheet" yaml:"sheet"`
	XColumns     []string `json:"x_columns" yaml:"x_columns"`
	YColumns     []string `json:"y_columns" yaml:"y_columns"`
	SigmaColumns []string `json:"sigma_columns" yaml:"sigma_columns"`
	// DefaultSigma is used when the table has no uncertainty column
	DefaultSigma float64 `json:"default_sigma" yaml:"default_sigma"`
}

// DefaultColumnConfig reads Sheet1 with x/y/sigma headers, also accepting the
// day/cups naming of the coffee readings
func DefaultColumnConfig() ColumnConfig {
	return ColumnConfig{
		Sheet:        "Sheet1",
		XColumns:     []string{"x", "day"},
		YColumns:     []string{"y", "cups"},
		SigmaColumns: []string{"sigma", "sigma_y", "error"},
		DefaultSigma: 0,
	}
}
