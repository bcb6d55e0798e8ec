package optimization

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/frontier/internal/domain"
)

// SampleCovariance calculates the annualized sample covariance matrix from
// daily returns. Element (i,j) is the covariance between symbols[i] and
// symbols[j], scaled by tradingDays. The plain sample estimator (N-1
// denominator) is used; no shrinkage is applied.
func SampleCovariance(returns map[string][]float64, symbols []string, tradingDays int) ([][]float64, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols provided")
	}

	var returnLength int
	for _, symbol := range symbols {
		series, ok := returns[symbol]
		if !ok {
			return nil, fmt.Errorf("missing returns for symbol %s", symbol)
		}
		if returnLength == 0 {
			returnLength = len(series)
		}
		if len(series) != returnLength {
			return nil, fmt.Errorf("inconsistent return lengths: expected %d, got %d for symbol %s", returnLength, len(series), symbol)
		}
	}

	if returnLength < 2 {
		return nil, &InsufficientDataError{Symbol: symbols[0], Observations: returnLength + 1}
	}

	n := len(symbols)
	covMatrix := make([][]float64, n)
	for i := range covMatrix {
		covMatrix[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		colI := returns[symbols[i]]
		for j := i; j < n; j++ {
			colJ := returns[symbols[j]]
			cov := stat.Covariance(colI, colJ, nil) * float64(tradingDays)
			covMatrix[i][j] = cov
			if i != j {
				covMatrix[j][i] = cov // Symmetry
			}
		}
	}

	return covMatrix, nil
}

// EstimateModels derives the annualized expected-return vector and covariance
// matrix from an aligned price table, keyed and ordered by symbols.
func EstimateModels(history domain.PriceHistory, symbols []string, cfg Config) (map[string]float64, [][]float64, error) {
	returns, err := DailyReturns(history)
	if err != nil {
		return nil, nil, err
	}

	expectedReturns, err := MeanHistoricalReturns(returns, symbols, cfg.TradingDays)
	if err != nil {
		return nil, nil, err
	}

	covMatrix, err := SampleCovariance(returns, symbols, cfg.TradingDays)
	if err != nil {
		return nil, nil, err
	}

	return expectedReturns, covMatrix, nil
}
