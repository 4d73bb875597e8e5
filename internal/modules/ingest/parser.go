package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParseCSV reads tabular data and returns column names plus rows keyed
// by those names.
//
// The first record is treated as the header. If any header cell is
// empty, the input is considered header-less: positional names
// (col_0, col_1, ...) are synthesized and the first record is kept as
// data. Ragged rows are tolerated; trailing cells without a column are
// ignored.
func ParseCSV(r io.Reader) ([]string, []Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil, nil
	}

	columns := records[0]
	data := records[1:]

	if headerless(columns) {
		columns = positionalNames(widest(records))
		data = records
	}

	rows := make([]Row, 0, len(data))
	for _, record := range data {
		row := make(Row, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return columns, rows, nil
}

// ParseText splits manually entered text into single-column rows.
// Tickers may be separated by whitespace, commas, or semicolons.
func ParseText(text string) ([]string, []Row) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	columns := positionalNames(1)
	rows := make([]Row, 0, len(fields))
	for _, field := range fields {
		rows = append(rows, Row{columns[0]: field})
	}

	return columns, rows
}

func headerless(header []string) bool {
	if len(header) == 0 {
		return true
	}
	for _, col := range header {
		if strings.TrimSpace(col) == "" {
			return true
		}
	}
	return false
}

func widest(records [][]string) int {
	w := 0
	for _, record := range records {
		if len(record) > w {
			w = len(record)
		}
	}
	return w
}

func positionalNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("col_%d", i)
	}
	return names
}
