package trend

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/marketrank/sctr-server/internal/cache"
	"github.com/marketrank/sctr-server/internal/clients/pricehist"
	"github.com/marketrank/sctr-server/pkg/formulas"
)

const (
	// SourceProxyInstrument marks a trend computed from a proxy ETF.
	SourceProxyInstrument = "proxy-instrument"
	// SourceSynthesizedBasket marks a trend computed from an
	// equal-weighted basket of sampled constituents.
	SourceSynthesizedBasket = "synthesized-basket"

	smaLength = 50
)

// Result describes where an industry trades relative to its 50-day
// moving average.
type Result struct {
	CurrentIndexValue   float64 `json:"currentIndexValue"`
	MovingAverage50     float64 `json:"movingAverage50"`
	IsAboveMA           bool    `json:"isAboveMA"`
	PercentAboveMA      float64 `json:"percentAboveMA"`
	Source              string  `json:"source"`
	SampledConstituents *int    `json:"sampledConstituents,omitempty"`
	TotalConstituents   *int    `json:"totalConstituents,omitempty"`
}

// PriceSource provides daily closes for an instrument
type PriceSource interface {
	DailyCloses(ctx context.Context, symbol string) ([]pricehist.ClosePoint, error)
}

// Engine computes per-industry 50-day moving-average trends.
//
// A computation is bounded by a per-industry timeout; expiry counts as
// a failure and is cached as a negative result so the industry is
// retried only after the cache entry lapses, not within the same run.
type Engine struct {
	prices      PriceSource
	cache       *cache.Cache[Result]
	timeout     time.Duration
	basketDelay time.Duration
	maxSampled  int
	log         zerolog.Logger
}

// NewEngine creates a new trend engine
func NewEngine(prices PriceSource, c *cache.Cache[Result], timeout, basketDelay time.Duration, maxSampled int, log zerolog.Logger) *Engine {
	if maxSampled < 1 {
		maxSampled = 20
	}
	return &Engine{
		prices:      prices,
		cache:       c,
		timeout:     timeout,
		basketDelay: basketDelay,
		maxSampled:  maxSampled,
		log:         log.With().Str("component", "trend").Logger(),
	}
}

// ComputeForIndustry determines whether the industry trades above its
// 50-day moving average, via a proxy instrument when one resolves,
// else a synthesized constituent basket. A nil result means "unknown",
// never "flat"; callers must not read it as a neutral trend.
func (e *Engine) ComputeForIndustry(ctx context.Context, industry, sectorFallback string, constituents []string) *Result {
	if cached, ok := e.cache.Get(industry); ok {
		return cached
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result := e.compute(ctx, industry, sectorFallback, constituents)
	if result == nil {
		e.cache.SetNegative(industry)
		return nil
	}

	e.cache.Set(industry, *result)
	return result
}

func (e *Engine) compute(ctx context.Context, industry, sectorFallback string, constituents []string) *Result {
	if proxy, ok := ResolveProxy(industry, sectorFallback); ok {
		if result := e.fromProxy(ctx, industry, proxy); result != nil {
			return result
		}
		// Proxy resolution succeeded but its history didn't; fall
		// through to the basket.
	}

	return e.fromBasket(ctx, industry, constituents)
}

func (e *Engine) fromProxy(ctx context.Context, industry, proxy string) *Result {
	points, err := e.prices.DailyCloses(ctx, proxy)
	if err != nil {
		e.log.Warn().Err(err).
			Str("industry", industry).
			Str("proxy", proxy).
			Msg("Proxy price fetch failed")
		return nil
	}

	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close
	}

	return evaluate(closes, SourceProxyInstrument, nil, nil)
}

// fromBasket builds an equal-weighted index from up to maxSampled
// constituents and evaluates the same moving average against it.
// Fetches are serial with a small delay to avoid bursting the price
// API.
func (e *Engine) fromBasket(ctx context.Context, industry string, constituents []string) *Result {
	total := len(constituents)
	if total == 0 {
		return nil
	}

	sampled := constituents
	if len(sampled) > e.maxSampled {
		sampled = sampled[:e.maxSampled]
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	fetched := 0

	for i, symbol := range sampled {
		if i > 0 {
			select {
			case <-time.After(e.basketDelay):
			case <-ctx.Done():
				e.log.Warn().Str("industry", industry).Msg("Basket computation timed out")
				return nil
			}
		}

		points, err := e.prices.DailyCloses(ctx, symbol)
		if err != nil {
			e.log.Debug().Err(err).Str("symbol", symbol).Msg("Basket constituent fetch failed")
			continue
		}

		fetched++
		for _, p := range points {
			sums[p.Date] += p.Close
			counts[p.Date]++
		}
	}

	if len(sums) < smaLength {
		e.log.Warn().
			Str("industry", industry).
			Int("dates", len(sums)).
			Int("fetched", fetched).
			Msg("Basket has insufficient history")
		return nil
	}

	dates := make([]string, 0, len(sums))
	for date := range sums {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	series := make([]float64, len(dates))
	for i, date := range dates {
		series[i] = sums[date] / float64(counts[date])
	}

	sampledCount := fetched
	return evaluate(series, SourceSynthesizedBasket, &sampledCount, &total)
}

func evaluate(series []float64, source string, sampled, total *int) *Result {
	if len(series) < smaLength {
		return nil
	}

	ma := formulas.TrailingSMA(series, smaLength)
	if ma == nil || *ma == 0 {
		return nil
	}

	current := series[len(series)-1]

	return &Result{
		CurrentIndexValue:   current,
		MovingAverage50:     *ma,
		IsAboveMA:           current > *ma,
		PercentAboveMA:      (current - *ma) / *ma * 100,
		Source:              source,
		SampledConstituents: sampled,
		TotalConstituents:   total,
	}
}
