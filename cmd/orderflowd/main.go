package main

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"orderflow/internal/dbg"
	"orderflow/pkg/bus"
	"orderflow/pkg/common"
	"orderflow/pkg/config"
	"orderflow/pkg/data/duckdb"
	"orderflow/pkg/datasource"
	"orderflow/pkg/datasource/historical"
	"orderflow/pkg/datasource/synthetic"
	"orderflow/pkg/engine"
	"orderflow/pkg/middleware"
	"orderflow/pkg/replay"
	"orderflow/pkg/server"
	"orderflow/pkg/utility/fixed"
)

const version = "0.3.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	var logger *zap.Logger
	if cfg.Development {
		logger = dbg.NewDevLogger()
	} else {
		logger = dbg.NewProdLogger()
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	logger.Info("orderflowd started",
		zap.String("version", version),
		zap.String("symbol", cfg.Symbol),
		zap.String("feed", cfg.Feed))
	defer logger.Info("orderflowd finished")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	router := bus.NewRouter(cfg.EventCapacity)

	eng := engine.New(cfg.EngineConfig(), router)

	telemetry := middleware.NewTelemetry(logger)
	monitor := middleware.NewMonitor(middleware.MonitorAlerts)

	router.OnTrade = middleware.Chain(telemetry.WithTrade, monitor.WithTrade)(eng.OnTrade)
	router.OnQuote = middleware.Chain(telemetry.WithQuote, monitor.WithQuote)(eng.OnQuote)
	router.OnDepth = middleware.Chain(telemetry.WithDepth, monitor.WithDepth)(eng.OnDepth)
	router.OnMetricsFlush = eng.OnMetricsFlush

	store := duckdb.NewStore(cfg.DuckDBPath)
	if err := store.Connect(); err != nil {
		logger.Fatal("unable to open duckdb store", zap.Error(err))
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx, cfg.Symbol); err != nil {
		logger.Fatal("unable to create schema", zap.Error(err))
	}

	flusher := duckdb.NewFlusher(cfg.Symbol, cfg.FlushInterval, eng, store)
	go func() {
		if err := flusher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("flusher stopped", zap.Error(err))
		}
	}()

	scheduler := replay.NewScheduler(cfg.Symbol, router)

	feed, err := buildFeed(cfg, router)
	if err != nil {
		logger.Fatal("unable to build feed", zap.Error(err))
	}

	srv := server.New(eng, scheduler, store, feed, slog.Default())
	srv.AttachBroadcasts(router)
	router.OnTradeUpdate = middleware.Chain(telemetry.WithTradeUpdate)(router.OnTradeUpdate)
	router.OnDomUpdate = middleware.Chain(telemetry.WithDomUpdate)(router.OnDomUpdate)
	router.OnFootprintUpdate = middleware.Chain(telemetry.WithFootprintUpdate)(router.OnFootprintUpdate)
	router.OnCvdUpdate = middleware.Chain(telemetry.WithCvdUpdate)(router.OnCvdUpdate)
	router.OnTapeMetrics = middleware.Chain(telemetry.WithTapeMetrics)(router.OnTapeMetrics)
	router.OnMetricsUpdate = middleware.Chain(telemetry.WithMetricsUpdate)(router.OnMetricsUpdate)
	router.OnAlert = middleware.Chain(telemetry.WithAlert, monitor.WithAlert)(router.OnAlert)

	// Live cadence for the periodic metrics roll-up. During replay the
	// scheduler posts its own event-time flushes.
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if feed.Running() {
					_ = router.Post(bus.MetricsFlushEvent, common.MetricsFlush{TimeStamp: now})
				}
			}
		}
	}()

	routerDone := router.Exec(ctx)
	defer printStatistics(logger, router, telemetry)

	go func() {
		if err := srv.Run(ctx, cfg.HTTPAddr); err != nil &&
			!errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", zap.Error(err))
			cancel()
		}
	}()

	if err := feed.Start(); err != nil {
		logger.Warn("feed not started", zap.Error(err))
	}

	if err := <-routerDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("error during execution", zap.Error(err))
	}
}

func buildFeed(cfg *config.Config, router *bus.Router) (*datasource.Runner, error) {
	switch cfg.Feed {
	case "archive":
		source := historical.NewSource[historical.BinaryTrade](cfg.ArchivePath)
		if err := source.Open(); err != nil {
			return nil, err
		}
		return datasource.NewRunner(router, func() (datasource.MarketDataSource, error) {
			reader := historical.NewTradeReader(source, cfg.Symbol, time.Unix(0, 0), time.Now().Add(24*time.Hour))
			return datasource.FromTrades(reader), nil
		}), nil
	default:
		return datasource.NewRunner(router, func() (datasource.MarketDataSource, error) {
			generator := synthetic.NewTradeGenerator(
				cfg.Symbol,
				rand.New(rand.NewSource(time.Now().UnixNano())),
				time.Now(),
				fixed.FromInt(5000, 0),
				cfg.TickSize,
				fixed.FromFloat64(0.03),
				fixed.FromFloat64(0.2),
				fixed.FromFloat64(0.000001),
				1<<40,
			)
			return generator, nil
		}), nil
	}
}

func printStatistics(logger *zap.Logger, router *bus.Router, telemetry *middleware.Telemetry) {
	stats := router.Statistics()
	logger.Info("router statistics",
		zap.Duration("run_time", stats.RunTime),
		zap.Uint64("post_count", stats.PostCount),
		zap.Uint64("post_fails", stats.PostFails),
		zap.Uint64("dispatch_count", stats.DispatchCount),
		zap.Uint64("dispatch_fails", stats.DispatchFails),
		zap.Float64("throughput", stats.Throughput))
	telemetry.PrintStatistics()
}
