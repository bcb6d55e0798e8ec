package optimization

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Handler handles HTTP requests for the optimization module.
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new optimization handler.
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("component", "optimizer_handler").Logger(),
	}
}

// optimizeRequest is the POST body. Tickers accepts either a JSON array or a
// comma-separated string.
type optimizeRequest struct {
	Tickers      json.RawMessage `json:"tickers"`
	RiskLevel    string          `json:"risk_level"`
	MaxWeightPct float64         `json:"max_weight_pct"`
}

// HandleOptimize handles POST /api/optimize - runs an optimization and
// returns the allocation with its metrics.
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var body optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	symbols, err := parseTickers(body.Tickers)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(symbols) == 0 {
		h.writeError(w, http.StatusBadRequest, "No tickers provided")
		return
	}

	if body.RiskLevel == "" {
		body.RiskLevel = "medium"
	}
	level, err := ParseRiskLevel(body.RiskLevel)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if body.MaxWeightPct == 0 {
		body.MaxWeightPct = 100
	}
	if body.MaxWeightPct < 10 || body.MaxWeightPct > 100 {
		h.writeError(w, http.StatusBadRequest, "max_weight_pct must be between 10 and 100")
		return
	}

	run, err := h.service.Run(r.Context(), Request{
		Symbols:   symbols,
		Level:     level,
		MaxWeight: body.MaxWeightPct / 100,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Optimization failed")
		h.writeError(w, statusForError(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, runResponse(run))
}

// HandleLast handles GET /api/optimize/last - returns the most recent run.
func (h *Handler) HandleLast(w http.ResponseWriter, r *http.Request) {
	run := h.service.LastRun()
	if run == nil {
		h.writeError(w, http.StatusNotFound, "No optimization has been run yet")
		return
	}
	h.writeJSON(w, http.StatusOK, runResponse(run))
}

// parseTickers accepts ["AAPL","MSFT"] or "AAPL,MSFT".
func parseTickers(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.Split(single, ","), nil
	}

	return nil, fmt.Errorf("tickers must be a list of strings or a comma-separated string")
}

// statusForError maps the module's error taxonomy to HTTP status codes.
// Input problems are 400s, upstream data failures are 502, and solver
// failures are 500s.
func statusForError(err error) int {
	var (
		infeasible   *InfeasibleConstraintError
		insufficient *InsufficientDataError
		fetch        *DataFetchError
		degenerate   *DegenerateSolutionError
		solver       *SolverNonConvergenceError
	)
	switch {
	case errors.As(err, &infeasible), errors.As(err, &insufficient):
		return http.StatusBadRequest
	case errors.As(err, &fetch):
		return http.StatusBadGateway
	case errors.As(err, &degenerate), errors.As(err, &solver):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func runResponse(run *RunResult) map[string]interface{} {
	return map[string]interface{}{
		"run_id":       run.RunID,
		"generated_at": run.GeneratedAt.Format(time.RFC3339),
		"risk_level":   run.Level,
		"max_weight":   run.MaxWeight,
		"result":       run.Result,
		"growth": map[string]interface{}{
			"dates":  run.Growth.Dates,
			"series": run.Growth.Prices,
		},
	}
}

// HTTP helpers

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}
