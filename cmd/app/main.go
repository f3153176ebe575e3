package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"MacroPull/internal/di"
	"MacroPull/internal/usecase"
	"MacroPull/pkg/config"
	applogger "MacroPull/pkg/logger"
	"MacroPull/pkg/server"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", server.ModeServe, "run mode: serve|build|train|predict")
	series := flag.String("series", "", "indicator series id (defaults to fred.series_id)")
	symbol := flag.String("symbol", "", "ticker symbol (defaults to stock.symbol)")
	runID := flag.String("run-id", "", "run id (generated when empty)")
	flag.Parse()

	boot := applogger.NewWithWriter(os.Stderr)

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		boot.Error("config load failed", applogger.Error(err))
		os.Exit(1)
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		boot.Error("app initialization failed", applogger.Error(err))
		os.Exit(1)
	}

	boot.Info("starting",
		applogger.String("env", cfg.Environment),
		applogger.String("mode", *mode),
		applogger.String("feature_store", cfg.Storage.FeatureStore),
		applogger.Bool("kafka", cfg.Kafka.Enabled),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	req := usecase.BuildRequest{RunID: *runID, SeriesID: *series, Symbol: *symbol}
	err = app.RunMode(ctx, *mode, req, os.Stdout)
	stop()
	cleanup()
	if err != nil {
		boot.Error("run failed", applogger.String("mode", *mode), applogger.Error(err))
		os.Exit(1)
	}
}
