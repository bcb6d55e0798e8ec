package optimization

import (
	"math"

	"github.com/aristath/frontier/internal/domain"
)

// DailyReturns calculates simple daily returns from an aligned price table.
// Returns an InsufficientDataError if any series has fewer than two
// observations.
func DailyReturns(history domain.PriceHistory) (map[string][]float64, error) {
	returns := make(map[string][]float64, len(history.Prices))

	for symbol, prices := range history.Prices {
		if len(prices) < 2 {
			return nil, &InsufficientDataError{Symbol: symbol, Observations: len(prices)}
		}

		dailyReturns := make([]float64, len(prices)-1)
		for i := 1; i < len(prices); i++ {
			if prices[i-1] > 0 && !math.IsNaN(prices[i]) && !math.IsNaN(prices[i-1]) {
				dailyReturns[i-1] = (prices[i] - prices[i-1]) / prices[i-1]
			} else {
				dailyReturns[i-1] = 0.0
			}
		}
		returns[symbol] = dailyReturns
	}

	return returns, nil
}

// MeanHistoricalReturns estimates annualized expected returns as the mean
// daily return scaled by tradingDays. The same arithmetic convention is used
// by SampleCovariance so the Sharpe ratio is internally consistent.
func MeanHistoricalReturns(returns map[string][]float64, symbols []string, tradingDays int) (map[string]float64, error) {
	expected := make(map[string]float64, len(symbols))

	for _, symbol := range symbols {
		series, ok := returns[symbol]
		if !ok || len(series) == 0 {
			return nil, &InsufficientDataError{Symbol: symbol, Observations: len(series)}
		}

		sum := 0.0
		for _, r := range series {
			sum += r
		}
		expected[symbol] = sum / float64(len(series)) * float64(tradingDays)
	}

	return expected, nil
}
