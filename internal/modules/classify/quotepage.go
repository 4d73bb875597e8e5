package classify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/marketrank/sctr-server/internal/cache"
)

// ErrRateLimited signals that the quote page started refusing us and
// the rest of the batch must be abandoned immediately.
var ErrRateLimited = errors.New("quote page rate limited")

// Regex fallbacks for pages whose markup defeats the structured pass,
// ordered from most to least structured.
var (
	sectorPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)"sector"\s*:\s*"([^"]{2,60})"`),
		regexp.MustCompile(`(?i)\bSector\s*[:\-]\s*([A-Za-z][A-Za-z&,\.\- ]{1,58})`),
	}
	industryPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)"industry"\s*:\s*"([^"]{2,60})"`),
		regexp.MustCompile(`(?i)\bIndustry\s*[:\-]\s*([A-Za-z][A-Za-z&,\.\- ]{1,58})`),
	}
)

// QuotePageProvider scrapes a quote page's HTML for sector/industry.
//
// This backend is very rate-limit-sensitive: batches run strictly
// serially with a multi-second delay between requests, and a
// rate-limit response aborts the remainder of the batch.
type QuotePageProvider struct {
	http    *resty.Client
	cache   *cache.Cache[Classification]
	urlTmpl string
	delay   time.Duration
	log     zerolog.Logger
}

// NewQuotePageProvider creates the scrape-based provider
func NewQuotePageProvider(http *resty.Client, c *cache.Cache[Classification], urlTmpl string, delay time.Duration, log zerolog.Logger) *QuotePageProvider {
	return &QuotePageProvider{
		http:    http,
		cache:   c,
		urlTmpl: urlTmpl,
		delay:   delay,
		log:     log.With().Str("provider", SourceQuotePage).Logger(),
	}
}

// Name returns the provider name
func (p *QuotePageProvider) Name() string {
	return SourceQuotePage
}

// FetchOne scrapes classification for a single ticker, cache-first
func (p *QuotePageProvider) FetchOne(ctx context.Context, ticker string) (*Classification, error) {
	if cached, ok := p.cache.Get(ticker); ok {
		return cached, nil
	}

	resp, err := p.http.R().SetContext(ctx).Get(fmt.Sprintf(p.urlTmpl, ticker))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote page for %s: %w", ticker, err)
	}

	if resp.StatusCode() == 429 || resp.StatusCode() == 403 {
		return nil, ErrRateLimited
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("quote page for %s returned status %d", ticker, resp.StatusCode())
	}

	industry, sector := parseQuotePage(string(resp.Body()))
	if industry == "" && sector == "" {
		// Known miss: remember it so the page isn't re-scraped.
		p.cache.SetNegative(ticker)
		return nil, nil
	}

	result := Classification{Industry: industry, Sector: sector, Source: SourceQuotePage}
	p.cache.Set(ticker, result)

	return &result, nil
}

// FetchBatch fetches tickers one at a time with the configured delay.
// A rate-limit response abandons the remaining tickers; other per-item
// failures are logged and skipped.
func (p *QuotePageProvider) FetchBatch(ctx context.Context, tickers []string) map[string]Classification {
	results := make(map[string]Classification)

	for i, ticker := range tickers {
		if i > 0 {
			select {
			case <-time.After(p.delay):
			case <-ctx.Done():
				return results
			}
		}

		result, err := p.FetchOne(ctx, ticker)
		if errors.Is(err, ErrRateLimited) {
			p.log.Warn().
				Str("ticker", ticker).
				Int("remaining", len(tickers)-i-1).
				Msg("Rate limited, abandoning rest of batch")
			return results
		}
		if err != nil {
			p.log.Warn().Err(err).Str("ticker", ticker).Msg("Quote page lookup failed")
			continue
		}
		if result != nil {
			results[ticker] = *result
		}
	}

	return results
}

// parseQuotePage extracts industry and sector from page HTML, trying a
// structured label/value pass before the regex fallbacks.
func parseQuotePage(html string) (industry, sector string) {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
		industry = labelValue(doc, "industry")
		sector = labelValue(doc, "sector")
	}

	if industry == "" {
		industry = firstMatch(industryPatterns, html)
	}
	if sector == "" {
		sector = firstMatch(sectorPatterns, html)
	}

	return cleanValue(industry), cleanValue(sector)
}

// labelValue finds an element whose text is exactly the label and
// returns its next sibling's text.
func labelValue(doc *goquery.Document, label string) string {
	value := ""
	doc.Find("dt, th, td, span, strong, label").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(s.Text()))
		if text != label && text != label+":" {
			return true
		}
		value = strings.TrimSpace(s.Next().Text())
		return value == ""
	})
	return value
}

func firstMatch(patterns []*regexp.Regexp, html string) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(html); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}

// cleanValue trims a match and rejects placeholder values
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "", "-", "--", "n/a", "na", "none", "null":
		return ""
	}
	return v
}
