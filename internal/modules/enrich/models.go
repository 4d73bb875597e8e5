package enrich

import (
	"github.com/marketrank/sctr-server/internal/clients/rankfeed"
	"github.com/marketrank/sctr-server/internal/modules/peerstats"
	"github.com/marketrank/sctr-server/internal/modules/trend"
)

// EnrichedRecord is a rank record augmented with peer-relative and
// trend analytics. Built per response, never persisted.
type EnrichedRecord struct {
	rankfeed.RankRecord
	IndustryRelativeStrength *float64 `json:"industryRelativeStrength"`
	SectorRelativeStrength   *float64 `json:"sectorRelativeStrength"`
	IndustrySource           string   `json:"industrySource"`
	SectorSource             string   `json:"sectorSource"`
	IndustryAboveMA50        *bool    `json:"industryAboveMA50"`
	IndustryPercentAboveMA50 *float64 `json:"industryPercentAboveMA50"`
}

// Stats carries the aggregate context the records were enriched
// against.
type Stats struct {
	Industries     map[string]peerstats.GroupStats `json:"industries"`
	Sectors        map[string]peerstats.GroupStats `json:"sectors"`
	IndustryTrends map[string]*trend.Result        `json:"industryTrends"`
}

// Result is the uniform response shape of the enrich operation.
// Requested tickers absent from the rank dataset are reported in
// MissingTickers rather than silently dropped.
type Result struct {
	Records        []EnrichedRecord `json:"records"`
	Stats          Stats            `json:"stats"`
	MissingTickers []string         `json:"missingTickers"`
}
