package charts

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/modules/optimization"
)

// Handler serves chart images for the most recent optimization run.
type Handler struct {
	service      *Service
	optimization *optimization.Service
	log          zerolog.Logger
}

// NewHandler creates a chart handler.
func NewHandler(service *Service, optimizationService *optimization.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service:      service,
		optimization: optimizationService,
		log:          log.With().Str("component", "charts_handler").Logger(),
	}
}

// HandleAllocation handles GET /api/charts/allocation - pie chart of the
// last run's weights.
func (h *Handler) HandleAllocation(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.service.AllocationPie)
}

// HandleGrowth handles GET /api/charts/growth - normalized growth lines for
// the last run's assets.
func (h *Handler) HandleGrowth(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.service.GrowthLine)
}

func (h *Handler) render(w http.ResponseWriter, renderFn func(*optimization.RunResult) ([]byte, error)) {
	run := h.optimization.LastRun()
	if run == nil {
		http.Error(w, "No optimization has been run yet", http.StatusNotFound)
		return
	}

	img, err := renderFn(run)
	if err != nil {
		h.log.Error().Err(err).Msg("Chart rendering failed")
		http.Error(w, "Chart rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(img); err != nil {
		h.log.Error().Err(err).Msg("Failed to write chart response")
	}
}
