// Frontier is a portfolio optimization service. It fetches historical prices
// from Yahoo Finance, estimates return and risk models, and serves
// mean-variance allocations over HTTP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/frontier/internal/clients/yahoo"
	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/modules/calculations"
	"github.com/aristath/frontier/internal/modules/charts"
	"github.com/aristath/frontier/internal/modules/marketdata"
	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/internal/scheduler"
	"github.com/aristath/frontier/internal/server"
	"github.com/aristath/frontier/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Int("port", cfg.Port).
		Str("data_dir", cfg.DataDir).
		Str("lookback", cfg.LookbackPeriod).
		Msg("Starting Frontier")

	pricesDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "prices.db"),
		Profile: database.ProfileStandard,
		Name:    "prices",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open prices database")
	}
	defer pricesDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{pricesDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("db", db.Name()).Msg("Failed to apply schema")
		}
	}

	// Wiring: yahoo -> marketdata -> optimization -> http
	yahooClient := yahoo.NewClient(log)
	priceRepo := marketdata.NewRepository(pricesDB.Conn())
	marketData := marketdata.NewService(priceRepo, yahooClient, log)

	calcCache := calculations.NewCache(cacheDB.Conn(), log)

	optimizer := optimization.NewOptimizer(optimization.Config{
		RiskFreeRate: cfg.RiskFreeRate,
		TradingDays:  cfg.TradingDays,
		RiskAversion: cfg.RiskAversion,
		WeightClip:   config.DefaultWeightClip,
	}, log)
	optimizationService := optimization.NewService(marketData, optimizer, calcCache, cfg.LookbackPeriod, log)

	chartService := charts.NewService(log)

	srv := server.New(server.Config{
		Log:                 log,
		Port:                cfg.Port,
		DevMode:             cfg.DevMode,
		PricesDB:            pricesDB,
		CacheDB:             cacheDB,
		OptimizationHandler: optimization.NewHandler(optimizationService, log),
		ChartsHandler:       charts.NewHandler(chartService, optimizationService, log),
	})

	var sched *scheduler.Scheduler
	if cfg.RefreshEnabled {
		sched = scheduler.New(log)
		refreshJob := marketdata.NewRefreshJob(marketData, cfg.LookbackPeriod)
		if err := sched.AddJob(cfg.RefreshSchedule, refreshJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to register refresh job")
		}
		sched.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	}

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("Frontier stopped")
}
