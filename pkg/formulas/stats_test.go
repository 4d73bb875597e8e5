package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want float64
	}{
		{
			name: "simple values",
			data: []float64{10, 20, 30},
			want: 20,
		},
		{
			name: "single value",
			data: []float64{42},
			want: 42,
		},
		{
			name: "empty slice",
			data: []float64{},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mean(tt.data)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want float64
	}{
		{
			name: "odd count",
			data: []float64{30, 10, 20},
			want: 20,
		},
		{
			name: "even count interpolates",
			data: []float64{10, 20},
			want: 15,
		},
		{
			name: "single value",
			data: []float64{50},
			want: 50,
		},
		{
			name: "empty slice",
			data: []float64{},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Median(tt.data)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	data := []float64{30, 10, 20}
	Median(data)
	assert.Equal(t, []float64{30, 10, 20}, data)
}

func TestMinMax(t *testing.T) {
	data := []float64{10, 30, 20}
	assert.Equal(t, 10.0, Min(data))
	assert.Equal(t, 30.0, Max(data))
	assert.Equal(t, 0.0, Min(nil))
	assert.Equal(t, 0.0, Max(nil))
}

func TestTrailingSMA(t *testing.T) {
	t.Run("insufficient data returns nil", func(t *testing.T) {
		got := TrailingSMA([]float64{1, 2, 3}, 50)
		assert.Nil(t, got)
	})

	t.Run("computes average of last window", func(t *testing.T) {
		values := make([]float64, 60)
		for i := range values {
			values[i] = float64(i + 1) // 1..60
		}

		got := TrailingSMA(values, 50)
		assert.NotNil(t, got)
		// mean of 11..60
		assert.InDelta(t, 35.5, *got, 1e-9)
	})

	t.Run("exact window length", func(t *testing.T) {
		values := []float64{2, 4, 6}
		got := TrailingSMA(values, 3)
		assert.NotNil(t, got)
		assert.InDelta(t, 4.0, *got, 1e-9)
	})
}
