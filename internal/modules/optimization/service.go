package optimization

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/calculations"
)

const (
	cacheCategory = "optimizer"
	cacheTTL      = 24 * time.Hour
)

// PriceHistoryProvider supplies aligned closing-price history for a set of
// symbols over a lookback period (e.g. "5y").
type PriceHistoryProvider interface {
	History(ctx context.Context, symbols []string, period string) (domain.PriceHistory, error)
}

// Service orchestrates an optimization run: fetch prices, estimate return and
// risk models, solve, and package the allocation for the API and chart
// layers. Identical concurrent requests are collapsed into a single
// computation, and solved allocations are cached with a TTL.
type Service struct {
	provider  PriceHistoryProvider
	optimizer *Optimizer
	cache     *calculations.Cache // optional
	lookback  string
	log       zerolog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	lastRun *RunResult
}

// NewService creates an optimization service. cache may be nil, in which case
// every run is computed fresh.
func NewService(provider PriceHistoryProvider, optimizer *Optimizer, cache *calculations.Cache, lookback string, log zerolog.Logger) *Service {
	return &Service{
		provider:  provider,
		optimizer: optimizer,
		cache:     cache,
		lookback:  lookback,
		log:       log.With().Str("component", "optimization").Logger(),
	}
}

// Run executes one optimization request end to end.
func (s *Service) Run(ctx context.Context, req Request) (*RunResult, error) {
	symbols := normalizeSymbols(req.Symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols provided")
	}

	key := runKey(symbols, s.lookback, req.Level, req.MaxWeight)

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.run(ctx, symbols, req, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug().Str("key", key).Msg("Optimization shared with in-flight request")
	}

	run := v.(*RunResult)

	s.mu.Lock()
	s.lastRun = run
	s.mu.Unlock()

	return run, nil
}

// LastRun returns the most recent successful run, or nil.
func (s *Service) LastRun() *RunResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRun
}

func (s *Service) run(ctx context.Context, symbols []string, req Request, key string) (*RunResult, error) {
	start := time.Now()

	history, err := s.provider.History(ctx, symbols, s.lookback)
	if err != nil {
		return nil, err
	}

	history = history.FillMissing()
	if err := history.Validate(); err != nil {
		return nil, &DataFetchError{Symbols: symbols}
	}

	result, cached := s.cachedResult(key)
	if !cached {
		expectedReturns, covMatrix, err := EstimateModels(history, symbols, s.optimizer.cfg)
		if err != nil {
			return nil, err
		}

		result, err = s.optimizer.Optimize(expectedReturns, covMatrix, symbols, req.MaxWeight, req.Level)
		if err != nil {
			return nil, err
		}

		s.storeResult(key, result)
	}

	run := &RunResult{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Level:       req.Level.String(),
		MaxWeight:   req.MaxWeight,
		Result:      result,
		History:     history,
		Growth:      history.NormalizedGrowth(100),
	}

	s.log.Info().
		Str("run_id", run.RunID).
		Str("level", run.Level).
		Int("symbols", len(symbols)).
		Bool("cached", cached).
		Dur("elapsed", time.Since(start)).
		Msg("Optimization run complete")

	return run, nil
}

func (s *Service) cachedResult(key string) (*Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	var result Result
	hit, err := s.cache.Get(cacheCategory, key, &result)
	if err != nil {
		s.log.Warn().Err(err).Msg("Cache read failed")
		return nil, false
	}
	if !hit {
		return nil, false
	}
	return &result, true
}

func (s *Service) storeResult(key string, result *Result) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(cacheCategory, key, result, cacheTTL); err != nil {
		s.log.Warn().Err(err).Msg("Cache write failed")
	}
}

// normalizeSymbols uppercases, trims, deduplicates and sorts the input so
// equivalent requests share cache keys and solver inputs.
func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// runKey builds a deterministic cache and deduplication key from the full
// request shape.
func runKey(symbols []string, lookback string, level RiskLevel, maxWeight float64) string {
	keyData := fmt.Sprintf("%s|%s|%s|%.6f", strings.Join(symbols, ","), lookback, level, maxWeight)
	h := sha256.Sum256([]byte(keyData))
	return hex.EncodeToString(h[:16])
}
