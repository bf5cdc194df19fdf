package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tidewater-labs/floodrisk/internal/api"
	"github.com/tidewater-labs/floodrisk/internal/benefit"
	"github.com/tidewater-labs/floodrisk/internal/config"
	"github.com/tidewater-labs/floodrisk/internal/curve"
	"github.com/tidewater-labs/floodrisk/internal/engine"
	"github.com/tidewater-labs/floodrisk/internal/events"
	"github.com/tidewater-labs/floodrisk/internal/risk"
	"github.com/tidewater-labs/floodrisk/internal/scenario"
	"github.com/tidewater-labs/floodrisk/internal/simdata"
	"github.com/tidewater-labs/floodrisk/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	level := slog.LevelInfo
	if os.Getenv("FLOODRISK_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Events (optional)
	var eventsClient events.Client
	if cfg.Events.URL != "" {
		ec, err := events.NewNATSClient(ctx, cfg.Events.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to event bus, running without events", "error", err)
		} else {
			eventsClient = ec
			defer ec.Close()
			logger.Info("connected to event bus")
		}
	}

	// Simulation data service
	simClient := simdata.NewHTTPClient(cfg.Simulation.URL, cfg.Simulation.Token)

	// Requirement resolver
	resolver := scenario.NewResolver(db, logger)

	tailPolicy := risk.TailPolicy{
		Frequent: risk.TailRule(cfg.Risk.FrequentTail),
		Rare:     risk.TailRule(cfg.Risk.RareTail),
	}
	interpolation := curve.Interpolation(cfg.Risk.Interpolation)
	irrCfg := benefit.IRRConfig{
		MinRate:       cfg.IRR.MinRate,
		MaxRate:       cfg.IRR.MaxRate,
		MaxIterations: cfg.IRR.MaxIterations,
		Tolerance:     cfg.IRR.Tolerance,
	}

	// Analytics engine
	eng := engine.New(db, simClient, eventsClient, resolver, engine.Options{
		ReturnPeriods: cfg.Site.ReturnPeriods,
		Interpolation: interpolation,
		TailPolicy:    tailPolicy,
		IRR:           irrCfg,
		SweepInterval: cfg.SweepInterval(),
	}, logger)
	eng.Start(ctx)
	defer eng.Stop()
	logger.Info("engine started", "sweep_interval", cfg.SweepInterval())

	// Equity weighter
	weighter := risk.NewWeighter(cfg.Site.Equity.AggregationLevels, cfg.Site.Equity.Elasticity)

	// API server
	router := api.NewRouter(db, resolver, eng, weighter, eventsClient, api.Options{
		ReturnPeriods:       cfg.Site.ReturnPeriods,
		Interpolation:       interpolation,
		TailPolicy:          tailPolicy,
		DefaultDiscountRate: cfg.Site.DiscountRate,
	}, cfg.Server.AdminToken, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsRouter := api.NewMetricsRouter()
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: metricsRouter,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}
