package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/frontier/internal/database"
)

// SystemHandlers serves health and system status endpoints.
type SystemHandlers struct {
	log      zerolog.Logger
	pricesDB *database.DB
	cacheDB  *database.DB
	started  time.Time
}

// NewSystemHandlers creates system handlers.
func NewSystemHandlers(log zerolog.Logger, pricesDB, cacheDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:      log.With().Str("component", "system_handlers").Logger(),
		pricesDB: pricesDB,
		cacheDB:  cacheDB,
		started:  time.Now(),
	}
}

// HandleHealth handles GET /api/health - database reachability plus basic
// host stats.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	databases := make(map[string]string)
	for _, db := range []*database.DB{h.pricesDB, h.cacheDB} {
		if db == nil {
			continue
		}
		if err := db.QuickCheck(ctx); err != nil {
			h.log.Warn().Err(err).Str("db", db.Name()).Msg("Database health check failed")
			databases[db.Name()] = "unreachable"
			status = "degraded"
		} else {
			databases[db.Name()] = "ok"
		}
	}

	cpuAvg, ramPercent := h.systemStats()

	response := map[string]interface{}{
		"status":         status,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"databases":      databases,
		"system": map[string]interface{}{
			"cpu_percent":    cpuAvg,
			"ram_percent":    ramPercent,
			"go_routines":    runtime.NumGoroutine(),
			"go_version":     runtime.Version(),
		},
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode health response")
	}
}

// systemStats samples CPU and RAM usage. The short CPU interval keeps the
// endpoint responsive for pollers.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}
