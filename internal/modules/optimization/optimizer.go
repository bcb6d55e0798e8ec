package optimization

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Optimizer solves the constrained mean-variance allocation problem.
//
// Mathematical formulation by risk level:
//   - low:    minimize w'Σw
//   - medium: maximize μ'w - (λ/2)(w'Σw)
//   - high:   maximize (μ'w - r_f) / sqrt(w'Σw)
//
// Constraints:
//   - Σw = 1 (weights sum to 1)
//   - 0 ≤ w_i ≤ maxWeight (uniform per-asset cap)
type Optimizer struct {
	cfg Config
	log zerolog.Logger
}

// NewOptimizer creates an optimizer with the given numerical conventions.
func NewOptimizer(cfg Config, log zerolog.Logger) *Optimizer {
	return &Optimizer{
		cfg: cfg,
		log: log.With().Str("component", "optimizer").Logger(),
	}
}

// Optimize solves the allocation problem for the given risk level.
// Feasibility (n * maxWeight >= 1) is checked before any solver call.
// The returned weights are cleaned: values below the configured clip are
// zeroed and the remainder is renormalized to sum to exactly 1 without
// breaching the cap.
func (o *Optimizer) Optimize(
	expectedReturns map[string]float64,
	covMatrix [][]float64,
	symbols []string,
	maxWeight float64,
	level RiskLevel,
) (*Result, error) {
	n := len(symbols)
	if n == 0 {
		return nil, fmt.Errorf("no symbols provided")
	}

	if maxWeight <= 0 || maxWeight > 1 {
		return nil, fmt.Errorf("max weight %.4f out of range (0, 1]", maxWeight)
	}

	if len(covMatrix) != n {
		return nil, fmt.Errorf("covariance matrix size %d doesn't match symbol count %d", len(covMatrix), n)
	}
	for i := range covMatrix {
		if len(covMatrix[i]) != n {
			return nil, fmt.Errorf("covariance matrix row %d has size %d, expected %d", i, len(covMatrix[i]), n)
		}
	}

	// Feasibility gate: n assets capped at maxWeight each cannot reach a
	// full allocation when n * maxWeight < 1. A small tolerance keeps exact
	// boundary cases (e.g. 5 assets at 20%) feasible.
	if float64(n)*maxWeight < 1.0-1e-9 {
		return nil, &InfeasibleConstraintError{NumAssets: n, MaxWeight: maxWeight}
	}

	mu := make([]float64, n)
	for i, symbol := range symbols {
		ret, ok := expectedReturns[symbol]
		if !ok {
			return nil, fmt.Errorf("missing expected return for symbol %s", symbol)
		}
		mu[i] = ret
	}

	sigma := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sigma.Set(i, j, covMatrix[i][j])
		}
	}

	// Single-asset portfolios have exactly one feasible allocation.
	if n == 1 {
		return o.buildResult([]float64{1.0}, mu, sigma, symbols, maxWeight)
	}

	xFinal, err := o.solve(mu, sigma, maxWeight, level)
	if err != nil {
		return nil, err
	}

	return o.buildResult(xFinal, mu, sigma, symbols, maxWeight)
}

// solve runs the penalty-method minimization for the given risk level and
// returns the raw (projected, not yet cleaned) weight vector.
func (o *Optimizer) solve(mu []float64, sigma *mat.Dense, maxWeight float64, level RiskLevel) ([]float64, error) {
	n := len(mu)
	penaltyWeight := 1000.0
	lambda := o.cfg.RiskAversion
	rf := o.cfg.RiskFreeRate

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			xProj := projectToBounds(x, maxWeight)

			var portfolioReturn, variance float64
			for i := 0; i < n; i++ {
				portfolioReturn += mu[i] * xProj[i]
				for j := 0; j < n; j++ {
					variance += xProj[i] * xProj[j] * sigma.At(i, j)
				}
			}

			var obj float64
			switch level {
			case RiskLow:
				obj = variance
			case RiskMedium:
				obj = -(portfolioReturn - lambda/2*variance)
			case RiskHigh:
				stdDev := math.Sqrt(math.Max(variance, 1e-10))
				obj = -(portfolioReturn - rf) / stdDev
			}

			sum := 0.0
			for i := 0; i < n; i++ {
				sum += xProj[i]
			}
			obj += penaltyWeight * (sum - 1.0) * (sum - 1.0)

			return obj
		},
		Grad: func(grad, x []float64) {
			xProj := projectToBounds(x, maxWeight)

			var portfolioReturn, variance float64
			for i := 0; i < n; i++ {
				portfolioReturn += mu[i] * xProj[i]
				for j := 0; j < n; j++ {
					variance += xProj[i] * xProj[j] * sigma.At(i, j)
				}
			}

			switch level {
			case RiskLow:
				for i := 0; i < n; i++ {
					grad[i] = 0
					for j := 0; j < n; j++ {
						grad[i] += 2 * sigma.At(i, j) * xProj[j]
					}
				}
			case RiskMedium:
				for i := 0; i < n; i++ {
					grad[i] = -mu[i]
					for j := 0; j < n; j++ {
						grad[i] += lambda * sigma.At(i, j) * xProj[j]
					}
				}
			case RiskHigh:
				stdDev := math.Sqrt(math.Max(variance, 1e-10))
				for i := 0; i < n; i++ {
					var dVariance float64
					for j := 0; j < n; j++ {
						dVariance += 2 * sigma.At(i, j) * xProj[j]
					}
					grad[i] = -mu[i]/stdDev + (portfolioReturn-rf)*dVariance/(2*stdDev*stdDev*stdDev)
				}
			}

			sum := 0.0
			for i := 0; i < n; i++ {
				sum += xProj[i]
			}
			for i := 0; i < n; i++ {
				grad[i] += 2 * penaltyWeight * (sum - 1.0)
			}
		},
	}

	// Deterministic equal-weight start so repeated runs on the same inputs
	// converge to the same solution.
	initial := make([]float64, n)
	for i := range initial {
		initial[i] = 1.0 / float64(n)
	}

	successStatuses := map[optimize.Status]bool{
		optimize.Success:             true,
		optimize.GradientThreshold:   true,
		optimize.FunctionConvergence: true,
	}

	result, err := optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.BFGS{})
	if err != nil || !successStatuses[result.Status] {
		// Retry with a gradient-free method before giving up
		result, err = optimize.Minimize(problem, initial, &optimize.Settings{}, &optimize.NelderMead{})
		if err != nil {
			return nil, &SolverNonConvergenceError{Status: err.Error()}
		}
		if !successStatuses[result.Status] {
			o.log.Warn().
				Str("level", level.String()).
				Str("status", result.Status.String()).
				Msg("Optimization did not converge")
			return nil, &SolverNonConvergenceError{Status: result.Status.String()}
		}
	}

	return projectToBounds(result.X, maxWeight), nil
}

// buildResult cleans the raw weight vector and computes the annualized
// portfolio metrics. A zero-volatility portfolio is rejected because the
// Sharpe ratio is undefined.
func (o *Optimizer) buildResult(x []float64, mu []float64, sigma *mat.Dense, symbols []string, maxWeight float64) (*Result, error) {
	n := len(symbols)

	weights := o.cleanWeights(x, symbols, maxWeight)

	var portfolioReturn, variance float64
	for i := 0; i < n; i++ {
		wi := weights[symbols[i]]
		portfolioReturn += mu[i] * wi
		for j := 0; j < n; j++ {
			variance += wi * weights[symbols[j]] * sigma.At(i, j)
		}
	}

	volatility := math.Sqrt(math.Max(variance, 0))
	if volatility < 1e-12 {
		return nil, &DegenerateSolutionError{ExpectedReturn: portfolioReturn}
	}

	return &Result{
		Weights:            weights,
		ExpectedReturn:     portfolioReturn,
		ExpectedVolatility: volatility,
		SharpeRatio:        (portfolioReturn - o.cfg.RiskFreeRate) / volatility,
	}, nil
}

// cleanWeights clips negligible weights to zero and renormalizes the rest to
// sum to exactly 1 without pushing any weight above the cap. Renormalization
// can breach the cap, so scale and clamp alternate until the sum settles.
func (o *Optimizer) cleanWeights(x []float64, symbols []string, maxWeight float64) map[string]float64 {
	cleaned := make([]float64, len(x))
	for i, w := range x {
		if w < o.cfg.WeightClip {
			w = 0.0
		}
		cleaned[i] = w
	}

	for iter := 0; iter < 20; iter++ {
		sum := 0.0
		for _, w := range cleaned {
			sum += w
		}
		if sum <= 0 || math.Abs(sum-1.0) < 1e-12 {
			break
		}
		for i := range cleaned {
			cleaned[i] = math.Min(cleaned[i]/sum, maxWeight)
		}
	}

	// If every surviving weight sits at the cap, scaling cannot close the
	// remaining gap; spread it across the entries with headroom.
	sum := 0.0
	for _, w := range cleaned {
		sum += w
	}
	if deficit := 1.0 - sum; sum > 0 && math.Abs(deficit) > 1e-9 {
		headroom := 0.0
		for _, w := range cleaned {
			if w > 0 {
				headroom += maxWeight - w
			}
		}
		if headroom > 0 {
			for i, w := range cleaned {
				if w > 0 {
					cleaned[i] = w + deficit*(maxWeight-w)/headroom
				}
			}
		}
	}

	weights := make(map[string]float64, len(symbols))
	for i, symbol := range symbols {
		weights[symbol] = cleaned[i]
	}
	return weights
}

// projectToBounds clamps each coordinate to [0, maxWeight].
func projectToBounds(x []float64, maxWeight float64) []float64 {
	proj := make([]float64, len(x))
	for i := range x {
		proj[i] = math.Max(0.0, math.Min(maxWeight, x[i]))
	}
	return proj
}
