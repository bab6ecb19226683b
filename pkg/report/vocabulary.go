package report

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dtnitsch/doculens/models"
	"github.com/dtnitsch/doculens/pkg/storage"
	"github.com/dtnitsch/doculens/pkg/vocabulary"
)

// ReadVocabulary loads a term list from an .xlsx, .csv or .txt file.
//
// Spreadsheets and CSV files carry a header row; the first column holds the
// term and any further columns are kept as metadata. Text files hold one term
// per line with no header. Rows with no cells at all are skipped.
func ReadVocabulary(path string) (*vocabulary.Vocabulary, error) {
	var (
		rows   [][]string
		header bool
		err    error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		rows, err = readXLSXRows(path)
		header = true
	case ".csv":
		rows, err = readCSVRows(path)
		header = true
	case ".txt", "":
		rows, err = readLines(path)
	default:
		return nil, fmt.Errorf("%w: unsupported vocabulary file type %q", models.ErrConfiguration, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading vocabulary %s: %v", models.ErrConfiguration, path, err)
	}

	var headers []string
	first := 1
	if header && len(rows) > 0 {
		if len(rows[0]) > 1 {
			headers = trimAll(rows[0][1:])
		}
		rows = rows[1:]
		first = 2
	}

	var entries []vocabulary.Entry
	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		entry := vocabulary.Entry{Text: strings.TrimSpace(row[0]), Row: first + i}
		if len(row) > 1 {
			entry.Metadata = trimAll(row[1:])
		}
		entries = append(entries, entry)
	}

	v, err := vocabulary.New(entries)
	if err != nil {
		return nil, err
	}
	return v.WithHeaders(headers), nil
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheet)
}

func readCSVRows(path string) ([][]string, error) {
	data, err := (&storage.Storage{}).ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	return r.ReadAll()
}

func readLines(path string) ([][]string, error) {
	data, err := (&storage.Storage{}).ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var rows [][]string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		rows = append(rows, []string{scanner.Text()})
	}
	return rows, scanner.Err()
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func trimAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
