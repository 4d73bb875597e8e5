package peerstats

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketrank/sctr-server/internal/clients/rankfeed"
)

func record(symbol, industry, sector string, score *float64) rankfeed.RankRecord {
	return rankfeed.RankRecord{
		Symbol:    symbol,
		Industry:  industry,
		Sector:    sector,
		RankScore: score,
	}
}

func score(v float64) *float64 {
	return &v
}

func TestComputeGroupStats(t *testing.T) {
	records := []rankfeed.RankRecord{
		record("T1", "A", "Tech", score(10)),
		record("T2", "A", "Tech", score(20)),
		record("T3", "A", "Tech", score(30)),
		record("T4", "B", "Energy", score(50)),
	}

	u := NewEngine(zerolog.Nop()).Compute(records)

	a, ok := u.Industries["A"]
	require.True(t, ok)
	assert.InDelta(t, 20.0, a.Average, 1e-9)
	assert.InDelta(t, 20.0, a.Median, 1e-9)
	assert.InDelta(t, 10.0, a.Min, 1e-9)
	assert.InDelta(t, 30.0, a.Max, 1e-9)
	assert.Equal(t, 3, a.Count)

	b, ok := u.Industries["B"]
	require.True(t, ok, "single-member group is still present")
	assert.Equal(t, 1, b.Count)
	assert.InDelta(t, 50.0, b.Average, 1e-9)

	tech, ok := u.Sectors["Tech"]
	require.True(t, ok)
	assert.Equal(t, 3, tech.Count)
}

func TestComputeSkipsNilScoresAndEmptyGroups(t *testing.T) {
	records := []rankfeed.RankRecord{
		record("T1", "A", "Tech", nil),
		record("T2", "A", "Tech", score(40)),
		record("T3", "", "", score(99)),
	}

	u := NewEngine(zerolog.Nop()).Compute(records)

	a := u.Industries["A"]
	assert.Equal(t, 1, a.Count, "nil scores excluded from statistics")
	assert.NotContains(t, u.Industries, "")
	assert.NotContains(t, u.Sectors, "")
}

func TestRelativeStrength(t *testing.T) {
	u := NewEngine(zerolog.Nop()).Compute([]rankfeed.RankRecord{
		record("T1", "A", "Tech", score(10)),
		record("T2", "A", "Tech", score(20)),
		record("T3", "A", "Tech", score(30)),
		record("T4", "B", "Energy", score(42)),
	})

	t.Run("deviation from group mean", func(t *testing.T) {
		rs := u.IndustryRelativeStrength("A", score(30))
		require.NotNil(t, rs)
		assert.InDelta(t, 50.0, *rs, 1e-9) // (30-20)/20*100
	})

	t.Run("single-member group yields nil, not zero", func(t *testing.T) {
		// B's only member has score 42, so its average is 42 and naive
		// relative strength would be exactly 0. It must be nil instead.
		rs := u.IndustryRelativeStrength("B", score(42))
		assert.Nil(t, rs)
	})

	t.Run("unknown group yields nil", func(t *testing.T) {
		assert.Nil(t, u.IndustryRelativeStrength("Nope", score(50)))
	})

	t.Run("empty group name yields nil", func(t *testing.T) {
		assert.Nil(t, u.IndustryRelativeStrength("", score(50)))
	})

	t.Run("nil score yields nil", func(t *testing.T) {
		assert.Nil(t, u.IndustryRelativeStrength("A", nil))
	})

	t.Run("sector variant", func(t *testing.T) {
		rs := u.SectorRelativeStrength("Tech", score(10))
		require.NotNil(t, rs)
		assert.InDelta(t, -50.0, *rs, 1e-9)
	})
}

func TestRelativeStrengthNonPositiveAverage(t *testing.T) {
	u := NewEngine(zerolog.Nop()).Compute([]rankfeed.RankRecord{
		record("T1", "Z", "", score(0)),
		record("T2", "Z", "", score(0)),
	})

	assert.Nil(t, u.IndustryRelativeStrength("Z", score(0)))
}

func TestLabelMap(t *testing.T) {
	m := NewLabelMap()

	m.Observe("Semiconductor Equipment & Materials", "Semiconductors")
	assert.Equal(t, "Semiconductors", m.Resolve("Semiconductor Equipment & Materials"))

	// First observation wins.
	m.Observe("Semiconductor Equipment & Materials", "Something Else")
	assert.Equal(t, "Semiconductors", m.Resolve("Semiconductor Equipment & Materials"))

	// Unknown labels pass through.
	assert.Equal(t, "Banks", m.Resolve("Banks"))

	// Identity pairs and blanks are ignored.
	m.Observe("Banks", "Banks")
	m.Observe("", "Banks")
	m.Observe("Banks", "")
	assert.Equal(t, "Banks", m.Resolve("Banks"))
}
