package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tradewind/internal/api"
	"tradewind/internal/broker"
	"tradewind/internal/config"
	"tradewind/internal/exec"
	"tradewind/internal/feed"
	"tradewind/internal/position"
	"tradewind/internal/risk"
	"tradewind/internal/store"
	"tradewind/internal/util"
)

func main() {
	cfgPath := "config/tradewind.yaml"
	if p := os.Getenv("TRADEWIND_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	// Price feed: the static feed is always wired (fed by the prices
	// endpoint); live deployments resolve unknown symbols via Alpaca.
	static := feed.NewStaticFeed()
	var prices feed.PriceFeed = static
	if !cfg.Execution.PaperMode && cfg.Alpaca.APIKey != "" {
		prices = feed.NewAlpacaFeed(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.DataURL)
	}

	rctx := risk.NewContext(cfg.Execution.StartOfDayNAV)
	engine, err := risk.NewEngine(cfg.Risk, rctx, prices)
	if err != nil {
		log.Fatalf("failed to build risk engine: %v", err)
	}

	positions := position.NewStore()

	var brk broker.Broker
	if cfg.Execution.PaperMode {
		brk = broker.NewSimulatorBroker(prices, cfg.Execution.SimulatorLatency)
	} else {
		brk = broker.NewAlpacaBroker(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL, cfg.Execution.RateLimitPerMin)
	}
	logger.Info("broker selected", "broker", brk.Name())

	var sink store.Sink
	var liveStore *store.SQLiteStore
	if cfg.Storage.SQLitePath != "" {
		liveStore, err = store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open sqlite store: %v", err)
		}
		defer liveStore.Close()
		sink = liveStore
	}

	coord := exec.NewCoordinator(engine, positions, brk, sink, cfg.Execution.Config, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if liveStore != nil && cfg.Storage.ReconcileInterval > 0 {
		rec := exec.NewReconciler(coord, positions, liveStore, cfg.Storage.ReconcileInterval, logger)
		go rec.Run(ctx)
	}
	if liveStore != nil && cfg.Storage.DataDir != "" && cfg.Storage.ArchiveInterval > 0 {
		archive := store.NewParquetArchive(cfg.Storage.DataDir)
		go store.NewArchiver(liveStore, archive, cfg.Storage.ArchiveInterval, logger).Run(ctx)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := api.NewServer(addr, coord, positions, engine, static, logger)

	logger.Info("tradewind-trader starting", "addr", addr, "paper_mode", cfg.Execution.PaperMode)
	if err := srv.ListenAndServe(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}

	// Let in-flight executions settle before exiting.
	coord.Wait()
	logger.Info("tradewind-trader stopped")
}
