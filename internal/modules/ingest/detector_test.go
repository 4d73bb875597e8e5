package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCandidate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain ticker",
			raw:  "AAPL",
			want: "AAPL",
		},
		{
			name: "lowercase uppercased",
			raw:  "msft",
			want: "MSFT",
		},
		{
			name: "exchange prefix stripped",
			raw:  "NASDAQ:AAPL ",
			want: "AAPL",
		},
		{
			name: "nested prefixes keep last segment",
			raw:  "US:NASDAQ:AAPL",
			want: "AAPL",
		},
		{
			name: "wrapping quotes stripped",
			raw:  `"AAPL"`,
			want: "AAPL",
		},
		{
			name: "embedded quote truncates",
			raw:  `AAPL"X`,
			want: "AAPL",
		},
		{
			name: "header literal TICKER rejected",
			raw:  "TICKER",
			want: "",
		},
		{
			name: "header literal symbol rejected case-insensitively",
			raw:  "symbol",
			want: "",
		},
		{
			name: "dots and dashes allowed",
			raw:  "BRK.B",
			want: "BRK.B",
		},
		{
			name: "too long rejected",
			raw:  "ABCDEFGHIJK",
			want: "",
		},
		{
			name: "spaces inside rejected",
			raw:  "AA PL",
			want: "",
		},
		{
			name: "empty rejected",
			raw:  "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCandidate(tt.raw))
		})
	}
}

func TestDetectTickerColumnPreferredName(t *testing.T) {
	columns := []string{"Company Name", "Stock Ticker", "Price"}
	rows := []Row{
		{"Company Name": "Apple", "Stock Ticker": "AAPL", "Price": "182.5"},
		{"Company Name": "Microsoft", "Stock Ticker": "MSFT", "Price": "411.2"},
	}

	got := DetectTickerColumn(columns, rows)
	assert.Equal(t, "Stock Ticker", got.Column)
	assert.Equal(t, 1, got.Index)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got.Tickers)
}

func TestDetectTickerColumnVocabularyOrderWins(t *testing.T) {
	// "symbol" appears before "ticker" in the columns, but "ticker" is
	// earlier in the preferred vocabulary, so it wins.
	columns := []string{"symbol", "ticker"}
	rows := []Row{{"symbol": "MSFT", "ticker": "AAPL"}}

	got := DetectTickerColumn(columns, rows)
	assert.Equal(t, "ticker", got.Column)
	assert.Equal(t, 1, got.Index)
	assert.Equal(t, []string{"AAPL"}, got.Tickers)
}

func TestDetectTickerColumnByScoring(t *testing.T) {
	columns := []string{"name", "code", "price"}
	rows := []Row{
		{"name": "Apple Incorporated", "code": "AAPL", "price": "182.5"},
		{"name": "Microsoft Corporation", "code": "MSFT", "price": "411.2"},
		{"name": "Alphabet Incorporated", "code": "GOOG", "price": "152.3"},
	}

	got := DetectTickerColumn(columns, rows)
	assert.Equal(t, "code", got.Column)
	assert.Equal(t, 1, got.Index)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG"}, got.Tickers)
}

func TestDetectTickerColumnTieGoesToLowestIndex(t *testing.T) {
	columns := []string{"a", "b"}
	rows := []Row{
		{"a": "AAPL", "b": "MSFT"},
		{"a": "GOOG", "b": "NVDA"},
	}

	got := DetectTickerColumn(columns, rows)
	assert.Equal(t, 0, got.Index)
	assert.Equal(t, []string{"AAPL", "GOOG"}, got.Tickers)
}

func TestDetectTickerColumnDeduplicates(t *testing.T) {
	columns := []string{"ticker"}
	rows := []Row{
		{"ticker": "AAPL"},
		{"ticker": "aapl"},
		{"ticker": "MSFT"},
	}

	got := DetectTickerColumn(columns, rows)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got.Tickers)
}

func TestDetectTickerColumnEmptyInput(t *testing.T) {
	got := DetectTickerColumn(nil, nil)
	assert.Equal(t, 0, got.Index)
	assert.Empty(t, got.Tickers)

	got = DetectTickerColumn([]string{"a", "b"}, nil)
	assert.Equal(t, 0, got.Index)
	assert.Empty(t, got.Tickers)
}

func TestParseCSVWithHeader(t *testing.T) {
	input := "name,ticker,price\nApple,AAPL,182.5\nMicrosoft,MSFT,411.2\n"

	columns, rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "ticker", "price"}, columns)
	require.Len(t, rows, 2)
	assert.Equal(t, "AAPL", rows[0]["ticker"])

	got := DetectTickerColumn(columns, rows)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got.Tickers)
}

func TestParseCSVHeaderlessFallsBackToPositional(t *testing.T) {
	// Empty first header cell marks the input header-less; the first
	// record must be kept as data.
	input := ",\nAAPL,Apple\nMSFT,Microsoft\n"

	columns, rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"col_0", "col_1"}, columns)
	require.Len(t, rows, 3)

	got := DetectTickerColumn(columns, rows)
	assert.Equal(t, "col_0", got.Column)
	assert.Equal(t, 0, got.Index)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got.Tickers)
}

func TestParseCSVRaggedRows(t *testing.T) {
	input := "ticker,name\nAAPL\nMSFT,Microsoft,extra\n"

	columns, rows, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"ticker", "name"}, columns)

	got := DetectTickerColumn(columns, rows)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got.Tickers)
}

func TestParseCSVEmpty(t *testing.T) {
	columns, rows, err := ParseCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, columns)
	assert.Empty(t, rows)

	got := DetectTickerColumn(columns, rows)
	assert.Equal(t, 0, got.Index)
	assert.Empty(t, got.Tickers)
}

func TestParseText(t *testing.T) {
	columns, rows := ParseText("AAPL, MSFT;GOOG\nNVDA\tNASDAQ:TSLA")
	require.Equal(t, []string{"col_0"}, columns)

	got := DetectTickerColumn(columns, rows)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOG", "NVDA", "TSLA"}, got.Tickers)
}
