package excel

// RawRowData represents a row of raw data as string key-value pairs
type RawRowData map[string]string

// ExcelData represents the complete raw table
type ExcelData struct {
	Headers []string     // Column headers, lower-cased
	Rows    []RawRowData // Data rows
}

// Has reports whether the header row contains col
func (d *ExcelData) Has(col string) bool {
	for _, h := range d.Headers {
		if h == col {
			return true
		}
	}
	return false
}

// CleanReport describes what cleaning changed
type CleanReport struct {
	DroppedRows int      `json:"dropped_rows"`
	FilledSpend int      `json:"filled_spend"`
	Derived     []string `json:"derived_columns"`
}
