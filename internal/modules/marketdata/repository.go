// Package marketdata stores and serves historical closing prices, fetching
// from Yahoo Finance on demand and caching in SQLite.
package marketdata

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/frontier/internal/clients/yahoo"
)

// Repository persists daily closing prices in the daily_prices table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a price repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SavePrices upserts a symbol's daily closes in one transaction.
func (r *Repository) SavePrices(symbol string, prices []yahoo.DailyPrice) error {
	if len(prices) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO daily_prices (symbol, date, close, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(symbol, date) DO UPDATE SET
			close = excluded.close,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	for _, p := range prices {
		date := p.Date.Format("2006-01-02")
		if _, err := stmt.Exec(symbol, date, p.Close, fetchedAt); err != nil {
			return fmt.Errorf("failed to insert price for %s on %s: %w", symbol, date, err)
		}
	}

	return tx.Commit()
}

// PricePoint is one stored observation.
type PricePoint struct {
	Date  string
	Close float64
}

// GetPrices returns a symbol's closes on or after fromDate, ordered by date.
func (r *Repository) GetPrices(symbol string, fromDate string) ([]PricePoint, error) {
	rows, err := r.db.Query(`
		SELECT date, close
		FROM daily_prices
		WHERE symbol = ? AND date >= ?
		ORDER BY date ASC
	`, symbol, fromDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices for %s: %w", symbol, err)
	}
	defer rows.Close()

	points := make([]PricePoint, 0)
	for rows.Next() {
		var p PricePoint
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// LastFetchedAt returns when a symbol's data was last refreshed, or the zero
// time if the symbol has never been stored.
func (r *Repository) LastFetchedAt(symbol string) (time.Time, error) {
	var fetchedAt sql.NullString
	err := r.db.QueryRow(
		"SELECT MAX(fetched_at) FROM daily_prices WHERE symbol = ?", symbol,
	).Scan(&fetchedAt)
	if err != nil {
		return time.Time{}, err
	}
	if !fetchedAt.Valid || fetchedAt.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, fetchedAt.String)
}

// Symbols returns every symbol with stored prices.
func (r *Repository) Symbols() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT symbol FROM daily_prices ORDER BY symbol")
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	symbols := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}

	return symbols, rows.Err()
}

// DeleteSymbol removes all stored prices for a symbol.
func (r *Repository) DeleteSymbol(symbol string) error {
	_, err := r.db.Exec("DELETE FROM daily_prices WHERE symbol = ?", symbol)
	return err
}
