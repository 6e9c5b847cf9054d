package excel

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"adhypo/domain/core"
	"adhypo/domain/dataset"
	"adhypo/internal/errors"
)

// DataReader reads ad performance tables from .csv or .xlsx files
type DataReader struct {
	sheet  string
	logger *slog.Logger
}

// NewDataReader creates a reader; xlsx files are read from Sheet1
func NewDataReader(logger *slog.Logger) *DataReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataReader{sheet: "Sheet1", logger: logger}
}

// Load reads, cleans and fingerprints the file at path. Any failure is a
// data-unavailable error.
func (r *DataReader) Load(ctx context.Context, path string) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.DataUnavailable(path, err)
	}

	raw, err := r.ReadData(path, content)
	if err != nil {
		return nil, errors.DataUnavailable(path, err)
	}

	ds, report, err := Clean(raw)
	if err != nil {
		return nil, errors.DataUnavailable(path, err)
	}
	ds.Source = path
	ds.Hash = core.NewHash(content)

	r.logger.Info("dataset loaded",
		"path", path,
		"rows", ds.Len(),
		"dropped_rows", report.DroppedRows,
		"derived", strings.Join(report.Derived, ","),
		"hash", ds.Hash.Short(),
		"elapsed_ms", time.Since(start).Milliseconds())
	return ds, nil
}

// ReadData parses raw file content by extension
func (r *DataReader) ReadData(path string, content []byte) (*ExcelData, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return r.readCSVData(content)
	case ".xlsx":
		return r.readExcelData(content)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

func (r *DataReader) readExcelData(content []byte) (*ExcelData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("excel file must have at least a header row and one data row")
	}
	return processRows(rows), nil
}

func (r *DataReader) readCSVData(content []byte) (*ExcelData, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV file must have at least a header row and one data row")
	}
	return processRows(rows), nil
}

// processRows converts raw string rows into header keyed maps
func processRows(rows [][]string) *ExcelData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}
	return &ExcelData{Headers: headers, Rows: dataRows}
}
