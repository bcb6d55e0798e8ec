package optimization

import (
	"fmt"
	"strings"
)

// InsufficientDataError indicates that an asset's price series is too short
// for return and covariance estimation.
type InsufficientDataError struct {
	Symbol       string
	Observations int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient price history for %s: %d observations (need at least 2)", e.Symbol, e.Observations)
}

// InfeasibleConstraintError indicates that the uniform weight cap is too
// tight for the number of assets: n * maxWeight < 1 leaves no weight vector
// that sums to 1. Detected before any solver call.
type InfeasibleConstraintError struct {
	NumAssets int
	MaxWeight float64
}

func (e *InfeasibleConstraintError) Error() string {
	return fmt.Sprintf("infeasible constraints: %d assets with max weight %.0f%% cannot sum to 100%%",
		e.NumAssets, e.MaxWeight*100)
}

// DegenerateSolutionError indicates a zero-volatility result, which makes the
// Sharpe ratio undefined.
type DegenerateSolutionError struct {
	ExpectedReturn float64
}

func (e *DegenerateSolutionError) Error() string {
	return fmt.Sprintf("degenerate solution: zero portfolio volatility (expected return %.4f), Sharpe ratio undefined", e.ExpectedReturn)
}

// SolverNonConvergenceError indicates the underlying optimizer failed to
// reach an acceptable convergence status.
type SolverNonConvergenceError struct {
	Status string
}

func (e *SolverNonConvergenceError) Error() string {
	return fmt.Sprintf("solver did not converge: status=%s", e.Status)
}

// DataFetchError indicates that one or more requested assets have no
// retrievable price history. It is produced by the market data layer and
// re-exported here so callers only deal with one error taxonomy.
type DataFetchError struct {
	Symbols []string
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("no price data found for: %s", strings.Join(e.Symbols, ", "))
}
