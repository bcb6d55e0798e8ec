package optimization

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOptimizer() *Optimizer {
	return NewOptimizer(DefaultConfig(), zerolog.Nop())
}

// threeAssetInputs is a well-conditioned 3-asset universe used across tests.
func threeAssetInputs() (map[string]float64, [][]float64, []string) {
	expectedReturns := map[string]float64{
		"A": 0.12,
		"B": 0.08,
		"C": 0.10,
	}
	covMatrix := [][]float64{
		{0.04, 0.01, 0.005},
		{0.01, 0.03, 0.008},
		{0.005, 0.008, 0.025},
	}
	return expectedReturns, covMatrix, []string{"A", "B", "C"}
}

func portfolioVolatility(weights map[string]float64, covMatrix [][]float64, symbols []string) float64 {
	var variance float64
	for i, si := range symbols {
		for j, sj := range symbols {
			variance += weights[si] * weights[sj] * covMatrix[i][j]
		}
	}
	return math.Sqrt(variance)
}

func TestOptimizer_MinVolatilityFavorsLowVarianceAsset(t *testing.T) {
	// Uncorrelated assets; the third has by far the lowest variance and
	// should dominate the minimum-variance portfolio.
	expectedReturns := map[string]float64{
		"A": 0.10,
		"B": 0.15,
		"C": 0.08,
	}
	covMatrix := [][]float64{
		{0.04, 0.0, 0.0},
		{0.0, 0.09, 0.0},
		{0.0, 0.0, 0.01},
	}
	symbols := []string{"A", "B", "C"}

	result, err := newTestOptimizer().Optimize(expectedReturns, covMatrix, symbols, 1.0, RiskLow)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Greater(t, result.Weights["C"], result.Weights["A"])
	assert.Greater(t, result.Weights["C"], result.Weights["B"])
}

func TestOptimizer_WeightsWithinBoundsAndSumToOne(t *testing.T) {
	expectedReturns, covMatrix, symbols := threeAssetInputs()
	maxWeight := 0.6

	for _, level := range []RiskLevel{RiskLow, RiskMedium, RiskHigh} {
		t.Run(level.String(), func(t *testing.T) {
			result, err := newTestOptimizer().Optimize(expectedReturns, covMatrix, symbols, maxWeight, level)
			require.NoError(t, err)
			require.Len(t, result.Weights, len(symbols))

			sum := 0.0
			for symbol, w := range result.Weights {
				sum += w
				assert.GreaterOrEqual(t, w, 0.0, "weight for %s should be non-negative", symbol)
				assert.LessOrEqual(t, w, maxWeight+1e-9, "weight for %s should respect the cap", symbol)
			}
			assert.InDelta(t, 1.0, sum, 1e-6, "weights should sum to 1")
		})
	}
}

func TestOptimizer_LowRiskVolatilityNotAboveHighRisk(t *testing.T) {
	expectedReturns, covMatrix, symbols := threeAssetInputs()
	opt := newTestOptimizer()

	low, err := opt.Optimize(expectedReturns, covMatrix, symbols, 1.0, RiskLow)
	require.NoError(t, err)
	high, err := opt.Optimize(expectedReturns, covMatrix, symbols, 1.0, RiskHigh)
	require.NoError(t, err)

	lowVol := portfolioVolatility(low.Weights, covMatrix, symbols)
	highVol := portfolioVolatility(high.Weights, covMatrix, symbols)
	assert.LessOrEqual(t, lowVol, highVol+1e-6)
}

func TestOptimizer_InfeasibleCap(t *testing.T) {
	expectedReturns, covMatrix, symbols := threeAssetInputs()

	// 3 assets capped at 20% cannot sum to 100%
	result, err := newTestOptimizer().Optimize(expectedReturns, covMatrix, symbols, 0.2, RiskMedium)
	require.Error(t, err)
	assert.Nil(t, result)

	var infeasible *InfeasibleConstraintError
	require.True(t, errors.As(err, &infeasible))
	assert.Equal(t, 3, infeasible.NumAssets)
	assert.InDelta(t, 0.2, infeasible.MaxWeight, 1e-12)
}

func TestOptimizer_BoundaryCapIsFeasible(t *testing.T) {
	// 5 assets at exactly 20% each is the single feasible portfolio.
	expectedReturns := map[string]float64{"A": 0.10, "B": 0.09, "C": 0.11, "D": 0.08, "E": 0.12}
	covMatrix := [][]float64{
		{0.04, 0, 0, 0, 0},
		{0, 0.03, 0, 0, 0},
		{0, 0, 0.05, 0, 0},
		{0, 0, 0, 0.02, 0},
		{0, 0, 0, 0, 0.06},
	}
	symbols := []string{"A", "B", "C", "D", "E"}

	result, err := newTestOptimizer().Optimize(expectedReturns, covMatrix, symbols, 0.2, RiskLow)
	require.NoError(t, err)

	for symbol, w := range result.Weights {
		assert.InDelta(t, 0.2, w, 1e-4, "weight for %s should sit at the cap", symbol)
	}
}

func TestOptimizer_Idempotent(t *testing.T) {
	expectedReturns, covMatrix, symbols := threeAssetInputs()
	opt := newTestOptimizer()

	first, err := opt.Optimize(expectedReturns, covMatrix, symbols, 0.7, RiskMedium)
	require.NoError(t, err)
	second, err := opt.Optimize(expectedReturns, covMatrix, symbols, 0.7, RiskMedium)
	require.NoError(t, err)

	for _, symbol := range symbols {
		assert.InDelta(t, first.Weights[symbol], second.Weights[symbol], 1e-6)
	}
	assert.InDelta(t, first.ExpectedReturn, second.ExpectedReturn, 1e-9)
	assert.InDelta(t, first.ExpectedVolatility, second.ExpectedVolatility, 1e-9)
}

func TestOptimizer_SingleAsset(t *testing.T) {
	expectedReturns := map[string]float64{"A": 0.10}
	covMatrix := [][]float64{{0.04}}

	result, err := newTestOptimizer().Optimize(expectedReturns, covMatrix, []string{"A"}, 1.0, RiskHigh)
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.Weights["A"])
	assert.InDelta(t, 0.10, result.ExpectedReturn, 1e-12)
	assert.InDelta(t, 0.2, result.ExpectedVolatility, 1e-12)
}

func TestOptimizer_SingleAssetZeroVariance(t *testing.T) {
	expectedReturns := map[string]float64{"A": 0.10}
	covMatrix := [][]float64{{0.0}}

	result, err := newTestOptimizer().Optimize(expectedReturns, covMatrix, []string{"A"}, 1.0, RiskLow)
	require.Error(t, err)
	assert.Nil(t, result)

	var degenerate *DegenerateSolutionError
	require.True(t, errors.As(err, &degenerate))
	assert.InDelta(t, 0.10, degenerate.ExpectedReturn, 1e-12)
}

func TestOptimizer_InputValidation(t *testing.T) {
	expectedReturns, covMatrix, symbols := threeAssetInputs()
	opt := newTestOptimizer()

	_, err := opt.Optimize(expectedReturns, covMatrix, nil, 1.0, RiskLow)
	assert.Error(t, err)

	_, err = opt.Optimize(expectedReturns, covMatrix, symbols, 0.0, RiskLow)
	assert.Error(t, err)

	_, err = opt.Optimize(expectedReturns, covMatrix, symbols, 1.5, RiskLow)
	assert.Error(t, err)

	_, err = opt.Optimize(expectedReturns, covMatrix[:2], symbols, 1.0, RiskLow)
	assert.Error(t, err)

	_, err = opt.Optimize(map[string]float64{"A": 0.1}, covMatrix, symbols, 1.0, RiskLow)
	assert.Error(t, err)
}

func TestOptimizer_SharpeConsistency(t *testing.T) {
	expectedReturns, covMatrix, symbols := threeAssetInputs()

	result, err := newTestOptimizer().Optimize(expectedReturns, covMatrix, symbols, 1.0, RiskMedium)
	require.NoError(t, err)

	expectedSharpe := result.ExpectedReturn / result.ExpectedVolatility
	assert.InDelta(t, expectedSharpe, result.SharpeRatio, 1e-9)
}

func TestParseRiskLevel(t *testing.T) {
	for input, want := range map[string]RiskLevel{
		"low":    RiskLow,
		"Medium": RiskMedium,
		" HIGH ": RiskHigh,
	} {
		level, err := ParseRiskLevel(input)
		require.NoError(t, err)
		assert.Equal(t, want, level)
	}

	_, err := ParseRiskLevel("aggressive")
	assert.Error(t, err)
}
