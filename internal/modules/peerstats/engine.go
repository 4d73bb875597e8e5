package peerstats

import (
	"github.com/rs/zerolog"

	"github.com/marketrank/sctr-server/internal/clients/rankfeed"
	"github.com/marketrank/sctr-server/pkg/formulas"
)

// GroupStats are aggregate rank-score statistics for one peer group
type GroupStats struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Median  float64 `json:"median"`
}

// Universe holds peer-group statistics computed over the full rank
// dataset. Statistics are always computed over the full universe, not
// the requested subset, so relative strength reflects true peer
// standing. Recomputed fresh per request; rank scores change daily.
type Universe struct {
	Industries map[string]GroupStats `json:"industries"`
	Sectors    map[string]GroupStats `json:"sectors"`
}

// Engine computes peer-group statistics and relative strength
type Engine struct {
	log zerolog.Logger
}

// NewEngine creates a new peer stats engine
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		log: log.With().Str("component", "peerstats").Logger(),
	}
}

// Compute builds per-industry and per-sector statistics from every
// record with a non-empty group label and a non-nil rank score.
func (e *Engine) Compute(records []rankfeed.RankRecord) *Universe {
	industryScores := make(map[string][]float64)
	sectorScores := make(map[string][]float64)

	for _, r := range records {
		if r.RankScore == nil {
			continue
		}
		if r.Industry != "" {
			industryScores[r.Industry] = append(industryScores[r.Industry], *r.RankScore)
		}
		if r.Sector != "" {
			sectorScores[r.Sector] = append(sectorScores[r.Sector], *r.RankScore)
		}
	}

	u := &Universe{
		Industries: make(map[string]GroupStats, len(industryScores)),
		Sectors:    make(map[string]GroupStats, len(sectorScores)),
	}
	for name, scores := range industryScores {
		u.Industries[name] = groupStats(scores)
	}
	for name, scores := range sectorScores {
		u.Sectors[name] = groupStats(scores)
	}

	e.log.Debug().
		Int("industries", len(u.Industries)).
		Int("sectors", len(u.Sectors)).
		Msg("Computed peer group statistics")

	return u
}

func groupStats(scores []float64) GroupStats {
	return GroupStats{
		Average: formulas.Mean(scores),
		Count:   len(scores),
		Min:     formulas.Min(scores),
		Max:     formulas.Max(scores),
		Median:  formulas.Median(scores),
	}
}

// IndustryRelativeStrength returns the percentage deviation of score
// from its industry's average, or nil when no meaningful comparison
// exists.
func (u *Universe) IndustryRelativeStrength(industry string, score *float64) *float64 {
	return relativeStrength(u.Industries, industry, score)
}

// SectorRelativeStrength is the sector analogue of
// IndustryRelativeStrength.
func (u *Universe) SectorRelativeStrength(sector string, score *float64) *float64 {
	return relativeStrength(u.Sectors, sector, score)
}

// relativeStrength is nil when the group is unknown or empty, when its
// average is non-positive, or when the group has a single member — a
// lone member's deviation from its own average is trivially zero and
// would read as a misleading "exactly average" signal.
func relativeStrength(groups map[string]GroupStats, name string, score *float64) *float64 {
	if score == nil || name == "" {
		return nil
	}

	stats, ok := groups[name]
	if !ok || stats.Count <= 1 || stats.Average <= 0 {
		return nil
	}

	rs := (*score - stats.Average) / stats.Average * 100
	return &rs
}
