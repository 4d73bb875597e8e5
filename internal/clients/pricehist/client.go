package pricehist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/marketrank/sctr-server/internal/cache"
)

// MinValidPoints is the minimum number of daily closes a history must
// contain to be usable for a 50-day moving average.
const MinValidPoints = 50

// ClosePoint is one trading day's closing price
type ClosePoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// Client fetches daily closing prices for a single instrument over a
// bounded lookback window. Results are cached with a short TTL; a
// failed or too-short history is cached as a negative result.
type Client struct {
	http     *resty.Client
	cache    *cache.Cache[[]ClosePoint]
	urlTmpl  string
	lookback string
	log      zerolog.Logger
}

// NewClient creates a new price history client
func NewClient(http *resty.Client, c *cache.Cache[[]ClosePoint], urlTmpl, lookback string, log zerolog.Logger) *Client {
	return &Client{
		http:     http,
		cache:    c,
		urlTmpl:  urlTmpl,
		lookback: lookback,
		log:      log.With().Str("client", "pricehist").Logger(),
	}
}

// chartResponse mirrors the nested chart API shape: parallel arrays of
// Unix timestamps and closes, either of which may hold nulls.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []*int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// DailyCloses returns the instrument's daily closes, oldest first.
//
// Histories with fewer than MinValidPoints valid entries are rejected,
// and the rejection is cached so the symbol is not refetched until the
// negative TTL elapses.
func (c *Client) DailyCloses(ctx context.Context, symbol string) ([]ClosePoint, error) {
	if cached, ok := c.cache.Get(symbol); ok {
		if cached == nil {
			return nil, fmt.Errorf("price history for %s known to be unavailable", symbol)
		}
		return *cached, nil
	}

	points, err := c.fetch(ctx, symbol)
	if err != nil {
		// Only a genuine upstream failure is worth remembering. A
		// cancelled or expired caller context says nothing about the
		// symbol, and negative-caching it here would blind every later
		// request that shares this namespace.
		if ctx.Err() == nil {
			c.cache.SetNegative(symbol)
		}
		return nil, err
	}

	c.cache.Set(symbol, points)
	return points, nil
}

func (c *Client) fetch(ctx context.Context, symbol string) ([]ClosePoint, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("interval", "1d").
		SetQueryParam("range", c.lookback).
		Get(fmt.Sprintf(c.urlTmpl, symbol))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price history for %s: %w", symbol, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("price history for %s returned status %d", symbol, resp.StatusCode())
	}

	var parsed chartResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse price history for %s: %w", symbol, err)
	}

	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("price history error for %s: %v", symbol, parsed.Chart.Error)
	}

	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no price data returned for %s", symbol)
	}

	timestamps := parsed.Chart.Result[0].Timestamp
	closes := parsed.Chart.Result[0].Indicators.Quote[0].Close

	points := make([]ClosePoint, 0, len(timestamps))
	for i, ts := range timestamps {
		if ts == nil || i >= len(closes) || closes[i] == nil {
			continue
		}
		points = append(points, ClosePoint{
			Date:  time.Unix(*ts, 0).UTC().Format("2006-01-02"),
			Close: *closes[i],
		})
	}

	if len(points) < MinValidPoints {
		return nil, fmt.Errorf("insufficient price history for %s: %d valid points", symbol, len(points))
	}

	c.log.Debug().Str("symbol", symbol).Int("points", len(points)).Msg("Fetched price history")

	return points, nil
}
