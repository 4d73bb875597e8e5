package ingest

import (
	"regexp"
	"strings"
)

// Row is one tabular row, keyed by column name
type Row map[string]string

// Detection is the outcome of ticker column detection: the chosen
// column and the cleaned, de-duplicated tickers extracted from it.
type Detection struct {
	Column  string   `json:"column"`
	Index   int      `json:"index"`
	Tickers []string `json:"tickers"`
}

// Column names that mark the ticker column outright, in priority order.
var preferredColumns = []string{"ticker", "symbol", "tick", "sym", "symbols", "tickers"}

// Values that are a header row leaking into the data.
var headerLiterals = map[string]bool{"TICKER": true, "SYMBOL": true}

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,10}$`)

// scoreRowLimit bounds how many rows the fallback scorer inspects.
const scoreRowLimit = 200

// DetectTickerColumn identifies which column holds ticker symbols.
//
// A column whose name matches the preferred vocabulary wins outright.
// Otherwise every column is scored by how many of its cells normalize
// to a plausible ticker over the first 200 rows; the highest count
// wins, ties going to the lowest column index. Malformed input never
// fails: with no usable data the result is column 0 and no tickers.
func DetectTickerColumn(columns []string, rows []Row) Detection {
	if len(columns) == 0 {
		return Detection{Column: "", Index: 0, Tickers: nil}
	}

	if col, idx, ok := preferredColumn(columns); ok {
		return Detection{Column: col, Index: idx, Tickers: extractTickers(rows, col)}
	}

	bestIdx := 0
	bestScore := -1
	for idx, col := range columns {
		score := 0
		for i, row := range rows {
			if i >= scoreRowLimit {
				break
			}
			if NormalizeCandidate(row[col]) != "" {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestIdx = idx
		}
	}

	col := columns[bestIdx]
	return Detection{Column: col, Index: bestIdx, Tickers: extractTickers(rows, col)}
}

func preferredColumn(columns []string) (string, int, bool) {
	for _, want := range preferredColumns {
		for idx, col := range columns {
			name := strings.ToLower(strings.TrimSpace(col))
			if name == want || strings.Contains(name, want) {
				return col, idx, true
			}
		}
	}
	return "", 0, false
}

func extractTickers(rows []Row, column string) []string {
	var tickers []string
	seen := make(map[string]bool)

	for _, row := range rows {
		ticker := NormalizeCandidate(row[column])
		if ticker == "" || seen[ticker] {
			continue
		}
		seen[ticker] = true
		tickers = append(tickers, ticker)
	}

	return tickers
}

// NormalizeCandidate cleans a raw cell value into a ticker symbol.
// Returns "" when the value is not a plausible ticker.
func NormalizeCandidate(raw string) string {
	s := strings.TrimSpace(raw)

	// Strip wrapping quotes, then truncate at any embedded quote left
	// over from a malformed multi-value cell.
	s = strings.Trim(s, `"'`)
	if idx := strings.IndexAny(s, `"'`); idx >= 0 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Strip exchange prefixes: NASDAQ:AAPL -> AAPL.
	if idx := strings.LastIndex(s, ":"); idx >= 0 {
		s = s[idx+1:]
	}

	s = strings.ToUpper(s)

	if headerLiterals[s] {
		return ""
	}

	if !tickerPattern.MatchString(s) {
		return ""
	}

	return s
}
