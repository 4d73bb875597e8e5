package classify

import (
	"context"
)

// Source names accepted by the enrich operation.
const (
	SourceQuotePage  = "quotepage"
	SourceProfileAPI = "profileapi"
	SourceDataset    = "dataset"
)

// Classification is a ticker's industry/sector lookup result, tagged
// with the backend that produced it.
type Classification struct {
	Industry string `json:"industry"`
	Sector   string `json:"sector"`
	Source   string `json:"source"`
}

// Provider fetches industry/sector classification for tickers.
//
// FetchOne returns (nil, nil) when the backend has no classification
// for the ticker; that is a cacheable negative result, not an error.
// FetchBatch returns only successful lookups: a ticker absent from the
// map means "no enrichment available", never a batch failure.
type Provider interface {
	Name() string
	FetchOne(ctx context.Context, ticker string) (*Classification, error)
	FetchBatch(ctx context.Context, tickers []string) map[string]Classification
}

// Registry maps source selections to providers
type Registry struct {
	providers map[string]Provider
	fallback  Provider
}

// NewRegistry builds the provider registry. The dataset passthrough is
// the fallback for unknown source selections.
func NewRegistry(quotePage, profileAPI Provider) *Registry {
	dataset := NewDatasetProvider()
	return &Registry{
		providers: map[string]Provider{
			SourceQuotePage:  quotePage,
			SourceProfileAPI: profileAPI,
			SourceDataset:    dataset,
		},
		fallback: dataset,
	}
}

// ForSource returns the provider for a source selection
func (r *Registry) ForSource(source string) Provider {
	if p, ok := r.providers[source]; ok {
		return p
	}
	return r.fallback
}
