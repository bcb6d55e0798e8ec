package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/charts"
	"github.com/aristath/frontier/internal/modules/optimization"
)

type emptyProvider struct{}

func (emptyProvider) History(ctx context.Context, symbols []string, period string) (domain.PriceHistory, error) {
	return domain.PriceHistory{}, &optimization.DataFetchError{Symbols: symbols}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := zerolog.Nop()

	optimizer := optimization.NewOptimizer(optimization.DefaultConfig(), log)
	optimizationService := optimization.NewService(emptyProvider{}, optimizer, nil, "5y", log)
	chartService := charts.NewService(log)

	return New(Config{
		Log:                 log,
		Port:                0,
		DevMode:             true,
		OptimizationHandler: optimization.NewHandler(optimizationService, log),
		ChartsHandler:       charts.NewHandler(chartService, optimizationService, log),
	})
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/optimize/last", http.StatusNotFound},
		{http.MethodGet, "/api/charts/allocation", http.StatusNotFound},
		{http.MethodGet, "/api/charts/growth", http.StatusNotFound},
		{http.MethodGet, "/api/nope", http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			rec := httptest.NewRecorder()
			srv.router.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestOptimizeRoute_UpstreamFailure(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/optimize", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	// Empty body is a client error, not a route miss
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthPayload(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), "cpu_percent")
}
