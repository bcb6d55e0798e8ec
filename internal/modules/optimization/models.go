// Package optimization provides mean-variance portfolio optimization.
package optimization

import (
	"fmt"
	"strings"
	"time"

	"github.com/aristath/frontier/internal/domain"
)

// RiskLevel selects the optimization objective. It is a closed set; use
// ParseRiskLevel for user input.
type RiskLevel int

const (
	// RiskLow minimizes portfolio variance w'Sw.
	RiskLow RiskLevel = iota
	// RiskMedium maximizes the quadratic utility w'mu - (lambda/2) w'Sw.
	RiskMedium
	// RiskHigh maximizes the Sharpe ratio (w'mu - rf) / sqrt(w'Sw).
	RiskHigh
)

// String returns the canonical lowercase name of the risk level.
func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseRiskLevel converts a case-insensitive string into a RiskLevel.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return RiskLow, nil
	case "medium":
		return RiskMedium, nil
	case "high":
		return RiskHigh, nil
	default:
		return RiskLow, fmt.Errorf("unknown risk level %q (expected low, medium or high)", s)
	}
}

// Config holds the numerical conventions of the core. It is passed explicitly
// so the core stays pure and testable; there is no ambient state.
//
// The annualization convention is arithmetic: mean daily return and daily
// sample covariance are both scaled by TradingDays, and the reported metrics
// use the same scaled quantities.
type Config struct {
	RiskFreeRate float64 // Annualized risk-free rate for Sharpe calculations
	TradingDays  int     // Annualization factor (252 for daily data)
	RiskAversion float64 // Lambda for the quadratic-utility objective
	WeightClip   float64 // Weights below this are clipped to zero
}

// DefaultConfig returns the documented defaults: rf=0, 252 trading days,
// lambda=1, clip=1e-4.
func DefaultConfig() Config {
	return Config{
		RiskFreeRate: 0.0,
		TradingDays:  252,
		RiskAversion: 1.0,
		WeightClip:   1e-4,
	}
}

// Result is the allocation produced by a single optimization: per-asset
// weights in [0, maxWeight] summing to 1, plus the annualized performance
// implied by those weights.
type Result struct {
	Weights            map[string]float64 `json:"weights"`
	ExpectedReturn     float64            `json:"expected_return"`
	ExpectedVolatility float64            `json:"expected_volatility"`
	SharpeRatio        float64            `json:"sharpe_ratio"`
}

// Request describes one optimization run.
type Request struct {
	Symbols   []string
	Level     RiskLevel
	MaxWeight float64 // Uniform per-asset upper bound in (0, 1]
}

// RunResult bundles the allocation with the inputs the presentation layer
// needs for charting.
type RunResult struct {
	RunID       string              `json:"run_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Level       string              `json:"risk_level"`
	MaxWeight   float64             `json:"max_weight"`
	Result      *Result             `json:"result"`
	History     domain.PriceHistory `json:"-"`
	Growth      domain.PriceHistory `json:"-"`
}
