package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceHistory_Symbols(t *testing.T) {
	h := PriceHistory{
		Dates: []string{"2024-01-02"},
		Prices: map[string][]float64{
			"MSFT": {100},
			"AAPL": {200},
		},
	}
	assert.Equal(t, []string{"AAPL", "MSFT"}, h.Symbols())
}

func TestPriceHistory_Validate(t *testing.T) {
	valid := PriceHistory{
		Dates: []string{"2024-01-02", "2024-01-03"},
		Prices: map[string][]float64{
			"A": {100, 101},
		},
	}
	assert.NoError(t, valid.Validate())

	outOfOrder := PriceHistory{
		Dates:  []string{"2024-01-03", "2024-01-02"},
		Prices: map[string][]float64{"A": {100, 101}},
	}
	assert.Error(t, outOfOrder.Validate())

	lengthMismatch := PriceHistory{
		Dates:  []string{"2024-01-02", "2024-01-03"},
		Prices: map[string][]float64{"A": {100}},
	}
	assert.Error(t, lengthMismatch.Validate())

	withNaN := PriceHistory{
		Dates:  []string{"2024-01-02", "2024-01-03"},
		Prices: map[string][]float64{"A": {100, math.NaN()}},
	}
	assert.Error(t, withNaN.Validate())
}

func TestPriceHistory_FillMissing(t *testing.T) {
	nan := math.NaN()
	h := PriceHistory{
		Dates: []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"},
		Prices: map[string][]float64{
			"A": {nan, 100, nan, 102}, // leading and interior gap
			"B": {50, nan, nan, 53},   // consecutive interior gaps
		},
	}

	filled := h.FillMissing()
	require.NoError(t, filled.Validate())

	assert.Equal(t, []float64{100, 100, 100, 102}, filled.Prices["A"])
	assert.Equal(t, []float64{50, 50, 50, 53}, filled.Prices["B"])

	// Original table is untouched
	assert.True(t, math.IsNaN(h.Prices["A"][0]))
}

func TestPriceHistory_FillMissing_AllNaN(t *testing.T) {
	nan := math.NaN()
	h := PriceHistory{
		Dates:  []string{"2024-01-02", "2024-01-03"},
		Prices: map[string][]float64{"A": {nan, nan}},
	}

	filled := h.FillMissing()
	assert.Error(t, filled.Validate())
}

func TestPriceHistory_NormalizedGrowth(t *testing.T) {
	h := PriceHistory{
		Dates: []string{"2024-01-02", "2024-01-03", "2024-01-04"},
		Prices: map[string][]float64{
			"A": {50, 55, 45},
		},
	}

	growth := h.NormalizedGrowth(100)
	assert.InDelta(t, 100, growth.Prices["A"][0], 1e-12)
	assert.InDelta(t, 110, growth.Prices["A"][1], 1e-12)
	assert.InDelta(t, 90, growth.Prices["A"][2], 1e-12)
}
