package marketdata

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/clients/yahoo"
	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/optimization"
)

// staleAfter controls how long cached prices are served before a refetch.
const staleAfter = 24 * time.Hour

// HistoryFetcher fetches daily closes from the upstream data source.
type HistoryFetcher interface {
	GetDailyHistory(symbol string, period string) ([]yahoo.DailyPrice, error)
}

// Service serves aligned price history, refreshing the local store from
// Yahoo Finance when cached data is missing or stale. It implements
// optimization.PriceHistoryProvider.
type Service struct {
	repo    *Repository
	fetcher HistoryFetcher
	log     zerolog.Logger
}

// NewService creates a market data service.
func NewService(repo *Repository, fetcher HistoryFetcher, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		fetcher: fetcher,
		log:     log.With().Str("component", "marketdata").Logger(),
	}
}

// History returns an aligned closing-price table for the symbols over the
// period. Symbols with no retrievable data are reported together in a single
// DataFetchError. Dates where a symbol has no observation are NaN; callers
// repair gaps with FillMissing.
func (s *Service) History(ctx context.Context, symbols []string, period string) (domain.PriceHistory, error) {
	fromDate := periodStart(period).Format("2006-01-02")

	series := make(map[string][]PricePoint, len(symbols))
	failed := make([]string, 0)

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return domain.PriceHistory{}, err
		}

		points, err := s.symbolHistory(symbol, period, fromDate)
		if err != nil || len(points) == 0 {
			if err != nil {
				s.log.Warn().Err(err).Str("symbol", symbol).Msg("No price data available")
			}
			failed = append(failed, symbol)
			continue
		}
		series[symbol] = points
	}

	if len(failed) > 0 {
		return domain.PriceHistory{}, &optimization.DataFetchError{Symbols: failed}
	}

	return align(series), nil
}

// symbolHistory serves from the local store, refetching when the cached data
// is stale or absent.
func (s *Service) symbolHistory(symbol, period, fromDate string) ([]PricePoint, error) {
	lastFetch, err := s.repo.LastFetchedAt(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to check freshness for %s: %w", symbol, err)
	}

	if time.Since(lastFetch) > staleAfter {
		prices, err := s.fetcher.GetDailyHistory(symbol, period)
		if err != nil {
			// Stale data beats no data
			if !lastFetch.IsZero() {
				s.log.Warn().Err(err).Str("symbol", symbol).Msg("Refresh failed, serving cached prices")
				return s.repo.GetPrices(symbol, fromDate)
			}
			return nil, err
		}
		if err := s.repo.SavePrices(symbol, prices); err != nil {
			return nil, fmt.Errorf("failed to store prices for %s: %w", symbol, err)
		}
	}

	return s.repo.GetPrices(symbol, fromDate)
}

// RefreshAll refetches every stored symbol. Used by the scheduled refresh
// job; individual failures are logged and skipped.
func (s *Service) RefreshAll(ctx context.Context, period string) error {
	symbols, err := s.repo.Symbols()
	if err != nil {
		return fmt.Errorf("failed to list symbols: %w", err)
	}

	var failures int
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return err
		}

		prices, err := s.fetcher.GetDailyHistory(symbol, period)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Refresh failed")
			failures++
			continue
		}
		if err := s.repo.SavePrices(symbol, prices); err != nil {
			s.log.Error().Err(err).Str("symbol", symbol).Msg("Failed to store refreshed prices")
			failures++
		}
	}

	s.log.Info().Int("symbols", len(symbols)).Int("failures", failures).Msg("Price refresh complete")
	return nil
}

// align merges per-symbol series onto the union of their dates. Missing
// observations become NaN.
func align(series map[string][]PricePoint) domain.PriceHistory {
	dateSet := make(map[string]bool)
	for _, points := range series {
		for _, p := range points {
			dateSet[p.Date] = true
		}
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	dateIndex := make(map[string]int, len(dates))
	for i, d := range dates {
		dateIndex[d] = i
	}

	history := domain.PriceHistory{
		Dates:  dates,
		Prices: make(map[string][]float64, len(series)),
	}
	for symbol, points := range series {
		row := make([]float64, len(dates))
		for i := range row {
			row[i] = math.NaN()
		}
		for _, p := range points {
			row[dateIndex[p.Date]] = p.Close
		}
		history.Prices[symbol] = row
	}

	return history
}

// periodStart converts a Yahoo period string to the earliest date it covers.
// Unknown periods fall back to 5 years.
func periodStart(period string) time.Time {
	now := time.Now().UTC()
	switch period {
	case "1mo":
		return now.AddDate(0, -1, 0)
	case "3mo":
		return now.AddDate(0, -3, 0)
	case "6mo":
		return now.AddDate(0, -6, 0)
	case "1y":
		return now.AddDate(-1, 0, 0)
	case "2y":
		return now.AddDate(-2, 0, 0)
	case "5y":
		return now.AddDate(-5, 0, 0)
	case "10y":
		return now.AddDate(-10, 0, 0)
	case "max":
		return time.Time{}
	default:
		return now.AddDate(-5, 0, 0)
	}
}
