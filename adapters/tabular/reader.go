// Package tabular reads uploaded CSV and Excel files into datasets.
package tabular

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"

	"gomix/adapters/coercer"
	"gomix/domain/core"
	"gomix/domain/dataset"
	"gomix/internal"
)

// Format names a supported file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var logger = internal.DefaultLogger.With("DataReader")

// FormatOf maps a file name to its format by extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", core.NewSchemaError(fmt.Sprintf("unsupported file type %q (expected .csv or .xlsx)", filepath.Ext(name)))
}

// ReadFile reads a CSV or Excel file from disk.
func ReadFile(path string) (dataset.Dataset, error) {
	format, err := FormatOf(path)
	if err != nil {
		return dataset.Dataset{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return dataset.Dataset{}, fmt.Errorf("failed to open %s file: %w", strings.ToUpper(string(format)), err)
	}
	defer f.Close()
	return Read(f, format)
}

// Read dispatches on format.
func Read(r io.Reader, format Format) (dataset.Dataset, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r)
	}
	return dataset.Dataset{}, core.NewSchemaError(fmt.Sprintf("unsupported file type %q", format))
}

// ReadCSV parses every cell as text and coerces it. The header row is read
// as data so names reach FromRecords unmodified.
func ReadCSV(r io.Reader) (dataset.Dataset, error) {
	readStart := time.Now()
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataset.Dataset{}, core.NewSchemaError(fmt.Sprintf("failed to read CSV file: %v", df.Err))
	}
	records := df.Records()
	logger.Debug("CSV file read in %.2fms (%d rows)", msSince(readStart), len(records)-1)

	// records[0] holds the generated column names
	if len(records) < 3 {
		return dataset.Dataset{}, core.NewSchemaError("CSV file must have at least a header row and one data row")
	}
	return FromRecords(records[1], records[2:])
}

// ReadXLSX reads the first sheet of a workbook.
func ReadXLSX(r io.Reader) (dataset.Dataset, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(r)
	if err != nil {
		return dataset.Dataset{}, core.NewSchemaError(fmt.Sprintf("failed to open Excel file: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return dataset.Dataset{}, core.NewSchemaError("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return dataset.Dataset{}, core.NewSchemaError(fmt.Sprintf("failed to read %s: %v", sheets[0], err))
	}
	logger.Debug("%s read in %.2fms (%d rows)", sheets[0], msSince(startTime), len(rows))

	if len(rows) < 2 {
		return dataset.Dataset{}, core.NewSchemaError("Excel file must have at least a header row and one data row")
	}
	return FromRecords(rows[0], rows[1:])
}

// FromRecords coerces string records into a dataset. Header names are
// trimmed and must be unique and non-empty. Short rows are padded with
// missing values; cells past the header are ignored.
func FromRecords(header []string, rows [][]string) (dataset.Dataset, error) {
	headers := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			return dataset.Dataset{}, core.NewSchemaError(fmt.Sprintf("column %d has an empty header", i+1))
		}
		headers[i] = h
	}
	if len(headers) == 0 {
		return dataset.Dataset{}, core.NewSchemaError("no header row")
	}
	if len(rows) == 0 {
		return dataset.Dataset{}, core.NewSchemaError("file must have at least a header row and one data row")
	}

	out := make([]dataset.Row, 0, len(rows))
	for _, record := range rows {
		if blank(record) {
			continue
		}
		row := make(dataset.Row, len(headers))
		for j, name := range headers {
			if j < len(record) {
				row[name] = coercer.Coerce(record[j])
			} else {
				row[name] = dataset.Missing()
			}
		}
		out = append(out, row)
	}

	ds, err := dataset.New(headers, out)
	if err != nil {
		return dataset.Dataset{}, core.NewSchemaError(err.Error())
	}
	logger.Debug("file processed (%d columns, %d rows)", len(headers), len(out))
	return ds, nil
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Nanoseconds()) / 1e6
}

// Reader adapts the package functions to ports.DatasetReader.
type Reader struct{}

// NewReader creates a file reader.
func NewReader() *Reader { return &Reader{} }

// ReadFile reads a CSV or Excel file from disk.
func (*Reader) ReadFile(ctx context.Context, path string) (dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return dataset.Dataset{}, err
	}
	return ReadFile(path)
}

// ReadNamed reads r using the format implied by name.
func (*Reader) ReadNamed(ctx context.Context, r io.Reader, name string) (dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return dataset.Dataset{}, err
	}
	format, err := FormatOf(name)
	if err != nil {
		return dataset.Dataset{}, err
	}
	return Read(r, format)
}
