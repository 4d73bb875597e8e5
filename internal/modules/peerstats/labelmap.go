package peerstats

// LabelMap remaps industry labels from an alternate classification
// provider onto the base dataset's taxonomy, so relative strength
// stays comparable against full-universe statistics.
//
// The mapping is learned empirically within one request: the first
// time a ticker is seen with both an alternate and a base label, that
// pair is memoized. First observation wins.
type LabelMap struct {
	byAlternate map[string]string
}

// NewLabelMap creates an empty label map
func NewLabelMap() *LabelMap {
	return &LabelMap{
		byAlternate: make(map[string]string),
	}
}

// Observe records that a ticker carries both labels. Later conflicting
// observations for the same alternate label are ignored.
func (m *LabelMap) Observe(alternate, base string) {
	if alternate == "" || base == "" || alternate == base {
		return
	}
	if _, seen := m.byAlternate[alternate]; seen {
		return
	}
	m.byAlternate[alternate] = base
}

// Resolve maps an alternate label to the base taxonomy, or returns the
// label unchanged when no mapping has been observed.
func (m *LabelMap) Resolve(label string) string {
	if base, ok := m.byAlternate[label]; ok {
		return base
	}
	return label
}
