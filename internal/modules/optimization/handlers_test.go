package optimization

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(provider PriceHistoryProvider) *Handler {
	return NewHandler(newTestService(provider), zerolog.Nop())
}

func postOptimize(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/optimize", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.HandleOptimize(rec, req)
	return rec
}

func TestHandleOptimize(t *testing.T) {
	symbols := []string{"AAA", "BBB", "CCC"}
	h := newTestHandler(&fakeProvider{history: syntheticHistory(symbols, 28)})

	rec := postOptimize(t, h, `{"tickers": ["AAA", "BBB", "CCC"], "risk_level": "low", "max_weight_pct": 60}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RunID     string  `json:"run_id"`
		RiskLevel string  `json:"risk_level"`
		MaxWeight float64 `json:"max_weight"`
		Result    Result  `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.RunID)
	assert.Equal(t, "low", resp.RiskLevel)
	assert.InDelta(t, 0.6, resp.MaxWeight, 1e-12)
	assert.Len(t, resp.Result.Weights, 3)
}

func TestHandleOptimize_CommaSeparatedTickers(t *testing.T) {
	symbols := []string{"AAA", "BBB"}
	h := newTestHandler(&fakeProvider{history: syntheticHistory(symbols, 28)})

	rec := postOptimize(t, h, `{"tickers": "aaa, bbb", "risk_level": "medium"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleOptimize_Validation(t *testing.T) {
	h := newTestHandler(&fakeProvider{})

	cases := map[string]string{
		"invalid json":       `{`,
		"no tickers":         `{"risk_level": "low"}`,
		"bad tickers type":   `{"tickers": 42}`,
		"unknown risk level": `{"tickers": ["AAA"], "risk_level": "yolo"}`,
		"cap too low":        `{"tickers": ["AAA"], "max_weight_pct": 5}`,
		"cap too high":       `{"tickers": ["AAA"], "max_weight_pct": 150}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := postOptimize(t, h, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleOptimize_InfeasibleCap(t *testing.T) {
	symbols := []string{"AAA", "BBB", "CCC"}
	h := newTestHandler(&fakeProvider{history: syntheticHistory(symbols, 28)})

	// 3 assets at 20% each cannot reach 100%
	rec := postOptimize(t, h, `{"tickers": ["AAA", "BBB", "CCC"], "max_weight_pct": 20}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "infeasible")
}

func TestHandleOptimize_DataFetchError(t *testing.T) {
	h := newTestHandler(&fakeProvider{err: &DataFetchError{Symbols: []string{"AAA"}}})

	rec := postOptimize(t, h, `{"tickers": ["AAA"]}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHandleLast(t *testing.T) {
	symbols := []string{"AAA", "BBB"}
	h := newTestHandler(&fakeProvider{history: syntheticHistory(symbols, 28)})

	req := httptest.NewRequest(http.MethodGet, "/api/optimize/last", nil)
	rec := httptest.NewRecorder()
	h.HandleLast(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	postOptimize(t, h, `{"tickers": ["AAA", "BBB"], "risk_level": "high"}`)

	rec = httptest.NewRecorder()
	h.HandleLast(rec, httptest.NewRequest(http.MethodGet, "/api/optimize/last", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "high")
}

func TestStatusForError(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusForError(&InfeasibleConstraintError{NumAssets: 3, MaxWeight: 0.2}))
	assert.Equal(t, http.StatusBadRequest, statusForError(&InsufficientDataError{Symbol: "A", Observations: 1}))
	assert.Equal(t, http.StatusBadGateway, statusForError(&DataFetchError{Symbols: []string{"A"}}))
	assert.Equal(t, http.StatusInternalServerError, statusForError(&SolverNonConvergenceError{Status: "IterationLimit"}))
	assert.Equal(t, http.StatusInternalServerError, statusForError(&DegenerateSolutionError{ExpectedReturn: 0.1}))
	assert.Equal(t, http.StatusInternalServerError, statusForError(assert.AnError))
}
