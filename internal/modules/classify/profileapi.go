package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/marketrank/sctr-server/internal/cache"
	"github.com/marketrank/sctr-server/internal/fanout"
)

// ProfileAPIProvider calls a JSON company-profile endpoint.
//
// Batches fan out with a small fixed concurrency and a short pause
// between waves; individual ticker failures never block the batch.
type ProfileAPIProvider struct {
	http       *resty.Client
	cache      *cache.Cache[Classification]
	urlTmpl    string
	fanOut     int
	batchDelay time.Duration
	log        zerolog.Logger
}

// NewProfileAPIProvider creates the profile endpoint provider
func NewProfileAPIProvider(http *resty.Client, c *cache.Cache[Classification], urlTmpl string, fanOut int, batchDelay time.Duration, log zerolog.Logger) *ProfileAPIProvider {
	if fanOut < 1 {
		fanOut = 1
	}
	return &ProfileAPIProvider{
		http:       http,
		cache:      c,
		urlTmpl:    urlTmpl,
		fanOut:     fanOut,
		batchDelay: batchDelay,
		log:        log.With().Str("provider", SourceProfileAPI).Logger(),
	}
}

// Name returns the provider name
func (p *ProfileAPIProvider) Name() string {
	return SourceProfileAPI
}

// profileRecord is one profile object; the endpoint may wrap it in an
// array or return it bare.
type profileRecord struct {
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
}

// FetchOne fetches classification for a single ticker, cache-first
func (p *ProfileAPIProvider) FetchOne(ctx context.Context, ticker string) (*Classification, error) {
	if cached, ok := p.cache.Get(ticker); ok {
		return cached, nil
	}

	resp, err := p.http.R().SetContext(ctx).Get(fmt.Sprintf(p.urlTmpl, ticker))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile for %s: %w", ticker, err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("profile endpoint for %s returned status %d", ticker, resp.StatusCode())
	}

	record, err := parseProfile(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile for %s: %w", ticker, err)
	}

	if record == nil || (record.Industry == "" && record.Sector == "") {
		p.cache.SetNegative(ticker)
		return nil, nil
	}

	result := Classification{Industry: record.Industry, Sector: record.Sector, Source: SourceProfileAPI}
	p.cache.Set(ticker, result)

	return &result, nil
}

// FetchBatch fans out lookups in waves of the configured size,
// pausing between waves. Per-item failures are dropped, not raised.
func (p *ProfileAPIProvider) FetchBatch(ctx context.Context, tickers []string) map[string]Classification {
	results := make(map[string]Classification, len(tickers))

	for start := 0; start < len(tickers); start += p.fanOut {
		if start > 0 {
			select {
			case <-time.After(p.batchDelay):
			case <-ctx.Done():
				return results
			}
		}

		end := start + p.fanOut
		if end > len(tickers) {
			end = len(tickers)
		}

		wave := fanout.Map(ctx, tickers[start:end], p.fanOut, func(ctx context.Context, ticker string) (Classification, error) {
			result, err := p.FetchOne(ctx, ticker)
			if err != nil {
				p.log.Warn().Err(err).Str("ticker", ticker).Msg("Profile lookup failed")
				return Classification{}, err
			}
			if result == nil {
				return Classification{}, fmt.Errorf("no classification for %s", ticker)
			}
			return *result, nil
		})

		for ticker, result := range wave {
			results[ticker] = result
		}
	}

	return results
}

func parseProfile(body []byte) (*profileRecord, error) {
	var many []profileRecord
	if err := json.Unmarshal(body, &many); err == nil {
		if len(many) == 0 {
			return nil, nil
		}
		return &many[0], nil
	}

	var one profileRecord
	if err := json.Unmarshal(body, &one); err != nil {
		return nil, err
	}
	return &one, nil
}
