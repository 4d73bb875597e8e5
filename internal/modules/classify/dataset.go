package classify

import (
	"context"
)

// DatasetProvider is the implicit default backend: it performs no
// external lookup, leaving whatever industry/sector came with the base
// rank dataset untouched.
type DatasetProvider struct{}

// NewDatasetProvider creates the passthrough provider
func NewDatasetProvider() *DatasetProvider {
	return &DatasetProvider{}
}

// Name returns the provider name
func (p *DatasetProvider) Name() string {
	return SourceDataset
}

// FetchOne never has an override to offer
func (p *DatasetProvider) FetchOne(ctx context.Context, ticker string) (*Classification, error) {
	return nil, nil
}

// FetchBatch returns no overrides
func (p *DatasetProvider) FetchBatch(ctx context.Context, tickers []string) map[string]Classification {
	return map[string]Classification{}
}
