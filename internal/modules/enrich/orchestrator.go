package enrich

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/marketrank/sctr-server/internal/clients/rankfeed"
	"github.com/marketrank/sctr-server/internal/modules/classify"
	"github.com/marketrank/sctr-server/internal/modules/ingest"
	"github.com/marketrank/sctr-server/internal/modules/peerstats"
	"github.com/marketrank/sctr-server/internal/modules/trend"
)

// RankSource fetches the full rank dataset
type RankSource interface {
	FetchAll(ctx context.Context) ([]rankfeed.RankRecord, error)
}

// TrendSource computes a per-industry moving-average trend
type TrendSource interface {
	ComputeForIndustry(ctx context.Context, industry, sectorFallback string, constituents []string) *trend.Result
}

// Orchestrator coordinates the enrichment pipeline: base dataset
// fetch, classification override, peer statistics, industry trends,
// merge, and sort.
//
// Every enrichment dimension degrades independently: a failed
// classification, a single group's missing statistics, or one
// industry's failed trend never block the rest of the response. Only a
// failed base-dataset fetch aborts the request, since nothing can be
// enriched without it.
type Orchestrator struct {
	feed      RankSource
	providers *classify.Registry
	peers     *peerstats.Engine
	trends    TrendSource
	log       zerolog.Logger
}

// NewOrchestrator creates a new enrichment orchestrator
func NewOrchestrator(feed RankSource, providers *classify.Registry, peers *peerstats.Engine, trends TrendSource, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		feed:      feed,
		providers: providers,
		peers:     peers,
		trends:    trends,
		log:       log.With().Str("component", "orchestrator").Logger(),
	}
}

// Enrich produces enriched records for the requested tickers.
//
// An empty or fully-invalid ticker list is an empty result, not an
// error. Records are sorted by rank score descending with nils last,
// ties broken by symbol ascending case-insensitively.
func (o *Orchestrator) Enrich(ctx context.Context, tickers []string, industrySource string) (*Result, error) {
	requested := normalizeRequest(tickers)

	result := &Result{
		Records:        []EnrichedRecord{},
		MissingTickers: []string{},
		Stats: Stats{
			Industries:     map[string]peerstats.GroupStats{},
			Sectors:        map[string]peerstats.GroupStats{},
			IndustryTrends: map[string]*trend.Result{},
		},
	}

	if len(requested) == 0 {
		return result, nil
	}

	dataset, err := o.feed.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rank dataset: %w", err)
	}

	bySymbol := make(map[string]rankfeed.RankRecord, len(dataset))
	for _, r := range dataset {
		bySymbol[r.Symbol] = r
	}

	var matched []rankfeed.RankRecord
	for _, ticker := range requested {
		if r, ok := bySymbol[ticker]; ok {
			matched = append(matched, r)
		} else {
			result.MissingTickers = append(result.MissingTickers, ticker)
		}
	}

	provider := o.providers.ForSource(industrySource)
	overrides := o.fetchOverrides(ctx, provider, matched)

	labels := peerstats.NewLabelMap()
	for _, r := range matched {
		if override, ok := overrides[r.Symbol]; ok && r.Industry != "" {
			labels.Observe(override.Industry, r.Industry)
		}
	}

	universe := o.peers.Compute(dataset)
	result.Stats.Industries = universe.Industries
	result.Stats.Sectors = universe.Sectors

	records := make([]EnrichedRecord, 0, len(matched))
	for _, base := range matched {
		records = append(records, o.enrichRecord(base, overrides, labels, universe))
	}

	o.computeTrends(ctx, records, labels, dataset, result)

	sortRecords(records)
	result.Records = records

	o.log.Info().
		Int("requested", len(requested)).
		Int("matched", len(records)).
		Int("missing", len(result.MissingTickers)).
		Str("industry_source", provider.Name()).
		Msg("Enrichment complete")

	return result, nil
}

// normalizeRequest cleans and de-duplicates the requested tickers,
// preserving request order.
func normalizeRequest(tickers []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, raw := range tickers {
		ticker := ingest.NormalizeCandidate(raw)
		if ticker == "" || seen[ticker] {
			continue
		}
		seen[ticker] = true
		out = append(out, ticker)
	}
	return out
}

// fetchOverrides runs the classification batch for external sources.
// The dataset passthrough returns nothing, keeping base labels.
func (o *Orchestrator) fetchOverrides(ctx context.Context, provider classify.Provider, matched []rankfeed.RankRecord) map[string]classify.Classification {
	if provider.Name() == classify.SourceDataset || len(matched) == 0 {
		return map[string]classify.Classification{}
	}

	symbols := make([]string, len(matched))
	for i, r := range matched {
		symbols[i] = r.Symbol
	}

	overrides := provider.FetchBatch(ctx, symbols)
	o.log.Debug().
		Int("requested", len(symbols)).
		Int("overridden", len(overrides)).
		Str("provider", provider.Name()).
		Msg("Fetched classification overrides")

	return overrides
}

// enrichRecord merges one base record with its classification override
// and peer-relative strength. Group lookups resolve alternate labels
// back to the base taxonomy so statistics stay comparable.
func (o *Orchestrator) enrichRecord(base rankfeed.RankRecord, overrides map[string]classify.Classification, labels *peerstats.LabelMap, universe *peerstats.Universe) EnrichedRecord {
	record := EnrichedRecord{
		RankRecord:     base,
		IndustrySource: classify.SourceDataset,
		SectorSource:   classify.SourceDataset,
	}

	if override, ok := overrides[base.Symbol]; ok {
		if override.Industry != "" {
			record.Industry = override.Industry
			record.IndustrySource = override.Source
		}
		if override.Sector != "" {
			record.Sector = override.Sector
			record.SectorSource = override.Source
		}
	}

	record.IndustryRelativeStrength = universe.IndustryRelativeStrength(labels.Resolve(record.Industry), record.RankScore)
	record.SectorRelativeStrength = universe.SectorRelativeStrength(labels.Resolve(record.Sector), record.RankScore)

	return record
}

// computeTrends evaluates the 50-day MA trend once per distinct
// industry present in the response and applies it to every record in
// that industry. A nil trend leaves the record's trend fields nil.
func (o *Orchestrator) computeTrends(ctx context.Context, records []EnrichedRecord, labels *peerstats.LabelMap, dataset []rankfeed.RankRecord, result *Result) {
	industries := make(map[string]string) // industry -> sector fallback
	for _, r := range records {
		if r.Industry == "" {
			continue
		}
		if _, seen := industries[r.Industry]; !seen {
			industries[r.Industry] = r.Sector
		}
	}

	for industry, sector := range industries {
		baseLabel := labels.Resolve(industry)

		var constituents []string
		for _, r := range dataset {
			if r.Industry == baseLabel {
				constituents = append(constituents, r.Symbol)
			}
		}

		trendResult := o.trends.ComputeForIndustry(ctx, industry, sector, constituents)
		result.Stats.IndustryTrends[industry] = trendResult
		if trendResult == nil {
			continue
		}

		for i := range records {
			if records[i].Industry != industry {
				continue
			}
			above := trendResult.IsAboveMA
			pct := trendResult.PercentAboveMA
			records[i].IndustryAboveMA50 = &above
			records[i].IndustryPercentAboveMA50 = &pct
		}
	}
}

// sortRecords orders by rank score descending with nil scores last,
// ties broken by symbol ascending case-insensitively.
func sortRecords(records []EnrichedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].RankScore, records[j].RankScore

		switch {
		case a == nil && b == nil:
			// fall through to symbol tiebreak
		case a == nil:
			return false
		case b == nil:
			return true
		case *a != *b:
			return *a > *b
		}

		return strings.ToLower(records[i].Symbol) < strings.ToLower(records[j].Symbol)
	})
}
