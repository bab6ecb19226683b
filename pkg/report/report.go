// Package report reads vocabulary files and writes frequency reports.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/doculens/models"
	"github.com/dtnitsch/doculens/pkg/storage"
	"github.com/dtnitsch/doculens/pkg/table"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const (
	frequencySheet = "Frequencies"
	failureSheet   = "Failures"
)

// ParseFormat accepts a format name with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: unknown report format %q", models.ErrConfiguration, s)
}

// FormatFromPath picks the format from the output file extension, falling
// back to xlsx.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(filepath.Ext(path)); err == nil {
		return f
	}
	return FormatXLSX
}

// Options controls the layout of a report.
type Options struct {
	KeepMetadata    bool     // add the vocabulary metadata columns after Word
	MetadataHeaders []string // header names of those columns
	SortByTotal     bool     // order rows by total, descending; ties keep vocabulary order
	Failures        []*models.DocumentError
}

// Report is the structured form written as JSON or YAML.
type Report struct {
	MeanStrategy string     `json:"mean_strategy" yaml:"mean_strategy"`
	Documents    []Document `json:"documents" yaml:"documents"`
	Terms        []Entry    `json:"terms" yaml:"terms"`
	Failures     []Failure  `json:"failures,omitempty" yaml:"failures,omitempty"`
}

type Document struct {
	Name   string `json:"name" yaml:"name"`
	Tokens int    `json:"tokens" yaml:"tokens"`
	Failed bool   `json:"failed,omitempty" yaml:"failed,omitempty"`
}

type Entry struct {
	Word        string            `json:"word" yaml:"word"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Counts      []Cell            `json:"counts" yaml:"counts"`
	Total       int               `json:"total" yaml:"total"`
	OverallMean float64           `json:"overall_mean" yaml:"overall_mean"`
}

type Cell struct {
	Document string  `json:"document" yaml:"document"`
	Count    int     `json:"count" yaml:"count"`
	Mean     float64 `json:"mean" yaml:"mean"`
}

type Failure struct {
	Document string `json:"document" yaml:"document"`
	Type     string `json:"type" yaml:"type"`
	Error    string `json:"error" yaml:"error"`
}

// Write renders a finalized table to path. An empty format is taken from the
// path extension.
func Write(path string, format Format, tbl *table.Table, opts Options) error {
	if format == "" {
		format = FormatFromPath(path)
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatXLSX:
		data, err = renderXLSX(tbl, opts)
	case FormatCSV:
		data, err = renderCSV(tbl, opts)
	case FormatJSON:
		var r *Report
		if r, err = Build(tbl, opts); err == nil {
			data, err = json.MarshalIndent(r, "", "  ")
		}
	case FormatYAML:
		var r *Report
		if r, err = Build(tbl, opts); err == nil {
			data, err = yaml.Marshal(r)
		}
	default:
		return fmt.Errorf("%w: unknown report format %q", models.ErrConfiguration, format)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s report: %w", format, err)
	}

	return (&storage.Storage{}).SaveFile(path, data)
}

// Header returns the column headings of the tabular formats.
func Header(tbl *table.Table, opts Options) []string {
	header := []string{"Word"}
	if opts.KeepMetadata {
		header = append(header, metadataHeaders(tbl, opts)...)
	}
	for _, doc := range tbl.Documents() {
		header = append(header, doc.Name+" Count", doc.Name+" Mean")
	}
	return append(header, "Total", "Overall Mean")
}

// Build converts a finalized table into its structured form.
func Build(tbl *table.Table, opts Options) (*Report, error) {
	rows, err := sortedRows(tbl, opts)
	if err != nil {
		return nil, err
	}

	failed := failedColumns(opts.Failures)
	docs := tbl.Documents()
	r := &Report{
		MeanStrategy: string(tbl.Strategy()),
		Documents:    make([]Document, len(docs)),
		Terms:        make([]Entry, len(rows)),
	}
	for i, doc := range docs {
		tokens, err := tbl.TokenCount(i)
		if err != nil {
			return nil, err
		}
		r.Documents[i] = Document{Name: doc.Name, Tokens: tokens, Failed: failed[doc.Index]}
	}

	var headers []string
	if opts.KeepMetadata {
		headers = metadataHeaders(tbl, opts)
	}
	for i, row := range rows {
		entry := Entry{
			Word:        row.Term.Display,
			Counts:      make([]Cell, len(row.Cells)),
			Total:       row.Total,
			OverallMean: row.OverallMean,
		}
		for d, c := range row.Cells {
			entry.Counts[d] = Cell{Document: docs[d].Name, Count: c.Count, Mean: c.Mean}
		}
		if len(headers) > 0 {
			entry.Metadata = make(map[string]string, len(headers))
			for h, name := range headers {
				if h < len(row.Term.Metadata) && row.Term.Metadata[h] != "" {
					entry.Metadata[name] = row.Term.Metadata[h]
				}
			}
		}
		r.Terms[i] = entry
	}

	for _, f := range opts.Failures {
		r.Failures = append(r.Failures, Failure{Document: f.Document.Name, Type: f.Type, Error: errorText(f)})
	}
	return r, nil
}

func renderCSV(tbl *table.Table, opts Options) ([]byte, error) {
	rows, err := sortedRows(tbl, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header(tbl, opts)); err != nil {
		return nil, err
	}

	width := 0
	if opts.KeepMetadata {
		width = len(metadataHeaders(tbl, opts))
	}
	for _, row := range rows {
		rec := []string{row.Term.Display}
		rec = append(rec, padMetadata(row.Term.Metadata, width)...)
		for _, c := range row.Cells {
			rec = append(rec, strconv.Itoa(c.Count), formatMean(c.Mean))
		}
		rec = append(rec, strconv.Itoa(row.Total), formatMean(row.OverallMean))
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// boldHeader sets a bold font on the first columns cells of row 1.
func boldHeader(f *excelize.File, sheet string, columns int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

func renderXLSX(tbl *table.Table, opts Options) ([]byte, error) {
	rows, err := sortedRows(tbl, opts)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), frequencySheet); err != nil {
		return nil, err
	}

	header := Header(tbl, opts)
	if err := setRow(f, frequencySheet, 1, toValues(header)); err != nil {
		return nil, err
	}
	if err := boldHeader(f, frequencySheet, len(header)); err != nil {
		return nil, err
	}

	width := 0
	if opts.KeepMetadata {
		width = len(metadataHeaders(tbl, opts))
	}
	for r, row := range rows {
		values := []interface{}{row.Term.Display}
		for _, m := range padMetadata(row.Term.Metadata, width) {
			values = append(values, m)
		}
		for _, c := range row.Cells {
			values = append(values, c.Count, c.Mean)
		}
		values = append(values, row.Total, row.OverallMean)
		if err := setRow(f, frequencySheet, r+2, values); err != nil {
			return nil, err
		}
	}

	if len(opts.Failures) > 0 {
		if _, err := f.NewSheet(failureSheet); err != nil {
			return nil, err
		}
		if err := setRow(f, failureSheet, 1, toValues([]string{"Document", "Type", "Error"})); err != nil {
			return nil, err
		}
		for i, fe := range opts.Failures {
			if err := setRow(f, failureSheet, i+2, toValues([]string{fe.Document.Name, fe.Type, errorText(fe)})); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func sortedRows(tbl *table.Table, opts Options) ([]table.Row, error) {
	rows, err := tbl.Rows()
	if err != nil {
		return nil, err
	}
	if opts.SortByTotal {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Total > rows[j].Total })
	}
	return rows, nil
}

// metadataHeaders names every metadata column, inventing "Column N" names
// where the source had no header.
func metadataHeaders(tbl *table.Table, opts Options) []string {
	width := len(opts.MetadataHeaders)
	for _, term := range tbl.Terms() {
		if len(term.Metadata) > width {
			width = len(term.Metadata)
		}
	}

	headers := make([]string, width)
	for i := range headers {
		if i < len(opts.MetadataHeaders) && opts.MetadataHeaders[i] != "" {
			headers[i] = opts.MetadataHeaders[i]
		} else {
			headers[i] = fmt.Sprintf("Column %d", i+2)
		}
	}
	return headers
}

func padMetadata(meta []string, width int) []string {
	out := make([]string, width)
	copy(out, meta)
	return out
}

func failedColumns(failures []*models.DocumentError) map[int]bool {
	failed := make(map[int]bool, len(failures))
	for _, f := range failures {
		failed[f.Document.Index] = true
	}
	return failed
}

func errorText(e *models.DocumentError) string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func formatMean(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}

func toValues(cells []string) []interface{} {
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return values
}
