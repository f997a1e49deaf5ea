// Package export renders client listings into the download formats the API
// serves: CSV table dumps and PDF summary cards.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is an ordered table: Headers fixes the column order and every row
// maps a header name to its cell text. Missing keys render as empty cells.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

func (d Dataset) record(row map[string]string) []string {
	rec := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		rec[i] = row[header]
	}
	return rec
}

// CSVExporter writes datasets as RFC 4180 CSV, headers first.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render encodes the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv export: dataset has no columns")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write header row: %w", err)
	}
	for _, row := range data.Rows {
		if err := w.Write(data.record(row)); err != nil {
			return nil, fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
