// Package calculations provides a persistent TTL cache for expensive
// numerical results.
package calculations

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache stores msgpack-encoded values in SQLite with per-entry expiration.
// Entries are namespaced by category so unrelated result families can be
// invalidated independently.
type Cache struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCache creates a cache backed by the given database. The calc_cache
// table must already exist.
func NewCache(db *sql.DB, log zerolog.Logger) *Cache {
	return &Cache{
		db:  db,
		log: log.With().Str("component", "calc_cache").Logger(),
	}
}

// Set stores a value under (category, key) with the given TTL.
func (c *Cache) Set(category, key string, value interface{}, ttl time.Duration) error {
	data, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	expiresAt := time.Now().Add(ttl).Unix()
	_, err = c.db.Exec(`
		INSERT INTO calc_cache (category, cache_key, value, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(category, cache_key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at
	`, category, key, data, expiresAt)
	return err
}

// Get retrieves a value into dest. The second return is false when the entry
// is missing or expired.
func (c *Cache) Get(category, key string, dest interface{}) (bool, error) {
	var data []byte
	var expiresAt int64
	err := c.db.QueryRow(
		"SELECT value, expires_at FROM calc_cache WHERE category = ? AND cache_key = ?",
		category, key,
	).Scan(&data, &expiresAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if time.Now().Unix() >= expiresAt {
		return false, nil
	}

	if err := msgpack.Unmarshal(data, dest); err != nil {
		// A decode failure means the stored shape changed; treat as a miss
		// and let the caller recompute.
		c.log.Warn().Err(err).Str("category", category).Msg("Discarding undecodable cache entry")
		_ = c.Delete(category, key)
		return false, nil
	}

	return true, nil
}

// Delete removes a single entry.
func (c *Cache) Delete(category, key string) error {
	_, err := c.db.Exec("DELETE FROM calc_cache WHERE category = ? AND cache_key = ?", category, key)
	return err
}

// InvalidateCategory removes every entry in a category.
func (c *Cache) InvalidateCategory(category string) error {
	_, err := c.db.Exec("DELETE FROM calc_cache WHERE category = ?", category)
	return err
}

// PruneExpired removes entries whose TTL has elapsed and returns the count.
func (c *Cache) PruneExpired() (int64, error) {
	res, err := c.db.Exec("DELETE FROM calc_cache WHERE expires_at <= ?", time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
