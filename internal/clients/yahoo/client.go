// Package yahoo fetches market data from Yahoo Finance.
package yahoo

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
)

const maxRetries = 3

// DailyPrice is one adjusted daily close.
type DailyPrice struct {
	Date  time.Time
	Close float64
}

// Client wraps the go-yfinance library with retries.
type Client struct {
	log zerolog.Logger
}

// NewClient creates a new Yahoo Finance client.
func NewClient(log zerolog.Logger) *Client {
	return &Client{
		log: log.With().Str("client", "yahoo").Logger(),
	}
}

// GetDailyHistory fetches auto-adjusted daily closes for a symbol over a
// period string (e.g. "1y", "5y"). Transient failures are retried with
// exponential backoff.
func (c *Client) GetDailyHistory(symbol string, period string) ([]DailyPrice, error) {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		prices, err := c.fetchHistory(symbol, period)
		if err == nil {
			return prices, nil
		}
		lastErr = err

		if attempt < maxRetries-1 {
			waitTime := time.Duration(1<<uint(attempt)) * time.Second
			c.log.Warn().Err(err).Str("symbol", symbol).Int("attempt", attempt+1).Dur("wait", waitTime).Msg("Retrying")
			time.Sleep(waitTime)
		}
	}

	return nil, fmt.Errorf("failed to fetch history for %s after %d attempts: %w", symbol, maxRetries, lastErr)
}

func (c *Client) fetchHistory(symbol string, period string) ([]DailyPrice, error) {
	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	params := models.HistoryParams{
		Period:     period,
		Interval:   "1d",
		AutoAdjust: true,
	}

	bars, err := t.History(params)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no price data returned for %s", symbol)
	}

	prices := make([]DailyPrice, 0, len(bars))
	for _, bar := range bars {
		if bar.Close <= 0 {
			continue
		}
		prices = append(prices, DailyPrice{
			Date:  bar.Date,
			Close: bar.Close,
		})
	}

	if len(prices) == 0 {
		return nil, fmt.Errorf("no valid closes returned for %s", symbol)
	}

	return prices, nil
}
