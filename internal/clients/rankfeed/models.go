package rankfeed

// RankRecord is one ticker's point-in-time technical rank snapshot.
//
// Numeric fields are nil, never NaN or zero, when the feed's value is
// missing or unparseable. Records are built once per fetch and not
// mutated afterwards; enrichment derives new records instead.
type RankRecord struct {
	Date              string   `json:"date"`
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	RankScore         *float64 `json:"rankScore"`
	RankDelta         *float64 `json:"rankDelta"`
	Close             *float64 `json:"close"`
	MarketCapMillions *float64 `json:"marketCapMillions"`
	Volume            *int64   `json:"volume"`
	Industry          string   `json:"industry"`
	Sector            string   `json:"sector"`
}
