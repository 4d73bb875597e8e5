package rankfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// Client fetches the full rank dataset from the upstream feed.
//
// The feed is loosely typed: a JSON array of objects whose numeric
// fields may arrive as numbers, strings, or be absent entirely.
type Client struct {
	http *resty.Client
	url  string
	log  zerolog.Logger
}

// NewClient creates a new rank feed client
func NewClient(http *resty.Client, url string, log zerolog.Logger) *Client {
	return &Client{
		http: http,
		url:  url,
		log:  log.With().Str("client", "rankfeed").Logger(),
	}
}

// FetchAll fetches and normalizes the full rank dataset.
//
// Rows without a symbol are discarded. A row that omits its date
// inherits the most recently seen date in the feed.
func (c *Client) FetchAll(ctx context.Context) ([]RankRecord, error) {
	resp, err := c.http.R().SetContext(ctx).Get(c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rank feed: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("rank feed returned status %d", resp.StatusCode())
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("failed to parse rank feed: %w", err)
	}

	records := make([]RankRecord, 0, len(rows))
	lastDate := ""
	discarded := 0

	for _, row := range rows {
		if date := normalizeDate(getString(row, "date")); date != "" {
			lastDate = date
		}

		symbol := strings.ToUpper(strings.TrimSpace(getString(row, "symbol")))
		if symbol == "" {
			discarded++
			continue
		}

		records = append(records, RankRecord{
			Date:              lastDate,
			Symbol:            symbol,
			Name:              getString(row, "name"),
			RankScore:         getFloat(row, "SCTR"),
			RankDelta:         getFloat(row, "delta"),
			Close:             getFloat(row, "close"),
			MarketCapMillions: getFloat(row, "marketCap"),
			Volume:            getInt(row, "vol"),
			Industry:          getString(row, "industry"),
			Sector:            getString(row, "sector"),
		})
	}

	c.log.Info().
		Int("records", len(records)).
		Int("discarded", discarded).
		Msg("Fetched rank dataset")

	return records, nil
}

// normalizeDate accepts YYYY-MM-DD or "D Mon YYYY" and returns
// YYYY-MM-DD, or "" when the value doesn't parse.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.Format("2006-01-02")
	}

	if t, err := time.Parse("2 Jan 2006", raw); err == nil {
		return t.Format("2006-01-02")
	}

	return ""
}

// Helper functions to safely extract loosely-typed values

func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key]; ok && val != nil {
		if s, ok := val.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func getFloat(m map[string]interface{}, key string) *float64 {
	val, ok := m[key]
	if !ok || val == nil {
		return nil
	}

	switch v := val.(type) {
	case float64:
		return &v
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if s == "" {
			return nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}

	return nil
}

func getInt(m map[string]interface{}, key string) *int64 {
	if f := getFloat(m, key); f != nil {
		i := int64(*f)
		return &i
	}
	return nil
}
