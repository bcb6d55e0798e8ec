// Package domain holds the pure data types shared across modules.
// It has no infrastructure dependencies.
package domain

import (
	"fmt"
	"math"
	"sort"
)

// PriceHistory is an aligned, date-indexed table of closing prices.
// Dates are ISO strings ("2006-01-02") in strictly increasing order and are
// shared by every series in Prices. A well-formed table contains no NaN
// values; use FillMissing to repair gaps after alignment.
type PriceHistory struct {
	Dates  []string
	Prices map[string][]float64
}

// Symbols returns the asset identifiers in the table, sorted.
func (h PriceHistory) Symbols() []string {
	symbols := make([]string, 0, len(h.Prices))
	for symbol := range h.Prices {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// NumObservations returns the number of shared dates.
func (h PriceHistory) NumObservations() int {
	return len(h.Dates)
}

// Validate checks the table invariants: every series matches the date index
// in length, dates are strictly increasing, and no NaN values remain.
func (h PriceHistory) Validate() error {
	for i := 1; i < len(h.Dates); i++ {
		if h.Dates[i] <= h.Dates[i-1] {
			return fmt.Errorf("date index not strictly increasing at position %d (%s <= %s)", i, h.Dates[i], h.Dates[i-1])
		}
	}

	for symbol, prices := range h.Prices {
		if len(prices) != len(h.Dates) {
			return fmt.Errorf("series %s has %d observations, expected %d", symbol, len(prices), len(h.Dates))
		}
		for i, p := range prices {
			if math.IsNaN(p) {
				return fmt.Errorf("series %s has missing value at %s", symbol, h.Dates[i])
			}
		}
	}

	return nil
}

// FillMissing fills NaN gaps using forward-fill then back-fill, returning a
// new table. Series that are entirely NaN stay NaN and fail Validate.
func (h PriceHistory) FillMissing() PriceHistory {
	filled := PriceHistory{
		Dates:  h.Dates,
		Prices: make(map[string][]float64, len(h.Prices)),
	}

	for symbol, prices := range h.Prices {
		series := make([]float64, len(prices))
		copy(series, prices)

		// Forward-fill: carry the previous valid value
		var lastValid float64
		hasLastValid := false
		for i := 0; i < len(series); i++ {
			if math.IsNaN(series[i]) {
				if hasLastValid {
					series[i] = lastValid
				}
			} else {
				lastValid = series[i]
				hasLastValid = true
			}
		}

		// Back-fill: repair leading gaps
		var nextValid float64
		hasNextValid := false
		for i := len(series) - 1; i >= 0; i-- {
			if math.IsNaN(series[i]) {
				if hasNextValid {
					series[i] = nextValid
				}
			} else {
				nextValid = series[i]
				hasNextValid = true
			}
		}

		filled.Prices[symbol] = series
	}

	return filled
}

// NormalizedGrowth rescales every series so it starts at base (e.g. 100),
// the "growth of 100" view used for charting.
func (h PriceHistory) NormalizedGrowth(base float64) PriceHistory {
	normalized := PriceHistory{
		Dates:  h.Dates,
		Prices: make(map[string][]float64, len(h.Prices)),
	}

	for symbol, prices := range h.Prices {
		series := make([]float64, len(prices))
		if len(prices) > 0 && prices[0] > 0 {
			for i, p := range prices {
				series[i] = p / prices[0] * base
			}
		}
		normalized.Prices[symbol] = series
	}

	return normalized
}
