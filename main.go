package main

import (
	"context"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"github.com/google/uuid"

	"paperTrader/config"
	"paperTrader/internal/adapters/csvlog"
	"paperTrader/internal/adapters/httpserver"
	"paperTrader/internal/adapters/logger"
	"paperTrader/internal/adapters/marketdata"
	"paperTrader/internal/adapters/metrics"
	"paperTrader/internal/adapters/sink"
	"paperTrader/internal/adapters/sqlite"
	"paperTrader/internal/app"
	"paperTrader/internal/ports"
	"paperTrader/internal/strategy"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.Logging.Level})

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error(context.Background(), err, "Trading service exited with error")
		log.Fatalf("FATAL: %v", err)
	}
	appLogger.Info(context.Background(), "Application finished gracefully.")
}

// run wires the adapters and blocks until the session ends. Deferred
// closers flush the trade logs on every return path.
func run(cfg *config.Config, appLogger *logger.ZeroLogger) error {
	ctx := context.Background()
	sessionID := uuid.NewString()
	appLogger.Info(ctx, "Session started", map[string]interface{}{"sessionID": sessionID})

	// 3. Initialize Trade Sinks (CSV log and SQLite journal)
	csvWriter, err := csvlog.NewWriter(cfg.Logging.TradeLogPath, appLogger)
	if err != nil {
		return fmt.Errorf("failed to open CSV trade log: %w", err)
	}
	sinks := []ports.TradeSink{csvWriter}

	if cfg.Storage.JournalEnabled() {
		repo, err := sqlite.NewRepository(sqlite.Config{
			DBPath:    cfg.Storage.DBPath,
			SessionID: sessionID,
			Logger:    appLogger,
		})
		if err != nil {
			csvWriter.Close()
			return fmt.Errorf("failed to initialize trade journal: %w", err)
		}
		sinks = append(sinks, repo)
	}
	tradeSink := sink.NewMultiSink(sinks...)
	defer func() {
		if err := tradeSink.Close(); err != nil {
			appLogger.Error(ctx, err, "Error closing trade sinks")
		}
	}()
	appLogger.Info(ctx, "Trade sinks initialized", map[string]interface{}{"count": tradeSink.Len()})

	// 4. Initialize Market Data Client
	marketData, err := marketdata.New(cfg.MarketData, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize market data client: %w", err)
	}
	appLogger.Info(ctx, "Market data client initialized", map[string]interface{}{"provider": cfg.MarketData.Provider})

	// 5. Initialize Strategy
	assets := cfg.AssetNames()
	strat, err := strategy.New(strategy.Config{
		PriceWindow:  cfg.Strategy.PriceWindow,
		VolWindow:    cfg.Strategy.VolWindow,
		EMAWindow:    cfg.Strategy.EMAWindow,
		VolRSIWindow: cfg.Strategy.VolRSIWindow,
	}, assets, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize trading strategy: %w", err)
	}

	// 6. Initialize Metrics
	recorder := metrics.New()

	// 7. Initialize Application Service
	tradingService, err := app.NewTradingService(cfg, appLogger, marketData, tradeSink, recorder, strat)
	if err != nil {
		return fmt.Errorf("failed to initialize trading service: %w", err)
	}

	// 8. Status and metrics endpoint
	if cfg.Server.ServerEnabled() {
		srv, err := httpserver.New(httpserver.Config{
			Addr:    cfg.Server.Addr,
			Metrics: recorder.Handler(),
			Logger:  appLogger,
		}, tradingService)
		if err != nil {
			return fmt.Errorf("failed to initialize HTTP server: %w", err)
		}
		srv.Start()
		defer func() {
			if err := srv.Stop(ctx); err != nil {
				appLogger.Error(ctx, err, "Error stopping HTTP server")
			}
		}()
	}

	// 9. Start the Service
	return tradingService.Start(ctx)
}
