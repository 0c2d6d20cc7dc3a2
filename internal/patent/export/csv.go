// Package export renders search results as downloadable files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/sadskatr/patent-database/internal/patent/types"
)

// filenameLayout is the timestamp format of export file names
const filenameLayout = "20060102_150405"

// CSVExporter writes records as CSV, one column per dotted record path
type CSVExporter struct {
	fields []string
}

// NewCSVExporter creates an exporter for fields. No fields means
// types.CSVExportFields.
func NewCSVExporter(fields ...string) *CSVExporter {
	if len(fields) == 0 {
		fields = types.CSVExportFields
	}
	return &CSVExporter{fields: append([]string(nil), fields...)}
}

// Header returns the column names: the last segment of each path
func (e *CSVExporter) Header() []string {
	header := make([]string, len(e.fields))
	for i, f := range e.fields {
		header[i] = f[strings.LastIndexByte(f, '.')+1:]
	}
	return header
}

// Row resolves every column of record. Missing keys, non-object
// intermediates and nulls become empty cells.
func (e *CSVExporter) Row(record types.PatentRecord) []string {
	row := make([]string, len(e.fields))
	for i, f := range e.fields {
		row[i] = cell(gjson.GetBytes(record, f))
	}
	return row
}

// Write writes the header and one row per record to w with CRLF line
// endings. Nothing is written for an empty list.
func (e *CSVExporter) Write(w io.Writer, records []types.PatentRecord) error {
	if len(records) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(e.Header()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(e.Row(r)); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Format returns the CSV text for records, "" for an empty list
func (e *CSVExporter) Format(records []types.PatentRecord) (string, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, records); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Filename names an export taken at t
func Filename(t time.Time) string {
	return "patent_search_results_" + t.Format(filenameLayout) + ".csv"
}

func cell(r gjson.Result) string {
	switch r.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return r.Str
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	default:
		return r.Raw
	}
}
