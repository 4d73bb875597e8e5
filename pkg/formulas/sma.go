package formulas

import (
	"github.com/markcheno/go-talib"
)

// TrailingSMA calculates the simple moving average of the last `length`
// values in the series.
//
// Returns nil if fewer than `length` values are available or the
// computed value is NaN.
func TrailingSMA(values []float64, length int) *float64 {
	if len(values) < length {
		return nil
	}

	sma := talib.Sma(values, length)

	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
