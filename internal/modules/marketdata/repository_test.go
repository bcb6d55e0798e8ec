package marketdata

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/clients/yahoo"
	"github.com/aristath/frontier/internal/database"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "prices.db"),
		Profile: database.ProfileStandard,
		Name:    "prices",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return NewRepository(db.Conn())
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestRepository_SaveAndGetPrices(t *testing.T) {
	repo := newTestRepository(t)

	prices := []yahoo.DailyPrice{
		{Date: day("2024-01-02"), Close: 100.5},
		{Date: day("2024-01-03"), Close: 101.25},
		{Date: day("2024-01-04"), Close: 99.75},
	}
	require.NoError(t, repo.SavePrices("AAPL", prices))

	points, err := repo.GetPrices("AAPL", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "2024-01-02", points[0].Date)
	assert.InDelta(t, 100.5, points[0].Close, 1e-12)

	// fromDate filters older rows
	points, err = repo.GetPrices("AAPL", "2024-01-03")
	require.NoError(t, err)
	assert.Len(t, points, 2)
}

func TestRepository_SavePrices_Upsert(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.SavePrices("AAPL", []yahoo.DailyPrice{{Date: day("2024-01-02"), Close: 100}}))
	require.NoError(t, repo.SavePrices("AAPL", []yahoo.DailyPrice{{Date: day("2024-01-02"), Close: 105}}))

	points, err := repo.GetPrices("AAPL", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.InDelta(t, 105, points[0].Close, 1e-12)
}

func TestRepository_LastFetchedAt(t *testing.T) {
	repo := newTestRepository(t)

	fetchedAt, err := repo.LastFetchedAt("AAPL")
	require.NoError(t, err)
	assert.True(t, fetchedAt.IsZero())

	require.NoError(t, repo.SavePrices("AAPL", []yahoo.DailyPrice{{Date: day("2024-01-02"), Close: 100}}))

	fetchedAt, err = repo.LastFetchedAt("AAPL")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), fetchedAt, time.Minute)
}

func TestRepository_Symbols(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.SavePrices("MSFT", []yahoo.DailyPrice{{Date: day("2024-01-02"), Close: 300}}))
	require.NoError(t, repo.SavePrices("AAPL", []yahoo.DailyPrice{{Date: day("2024-01-02"), Close: 100}}))

	symbols, err := repo.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)
}

func TestRepository_DeleteSymbol(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.SavePrices("AAPL", []yahoo.DailyPrice{{Date: day("2024-01-02"), Close: 100}}))
	require.NoError(t, repo.DeleteSymbol("AAPL"))

	points, err := repo.GetPrices("AAPL", "2024-01-01")
	require.NoError(t, err)
	assert.Empty(t, points)
}
