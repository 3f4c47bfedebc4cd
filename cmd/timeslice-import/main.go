package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"timeslice/internal/config"
	"timeslice/internal/gather"
	"timeslice/internal/store"
	"timeslice/internal/util"
)

func main() {
	symbol := flag.String("symbol", "", "instrument symbol for the imported bars (required)")
	file := flag.String("file", "", "path to the minute-bar CSV file (required)")
	flag.Parse()

	if *symbol == "" || *file == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfgPath := "config/timeslice.yaml"
	if p := os.Getenv("TIMESLICE_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slog.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	s, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := gather.NewCSVImporter(*symbol, *file, s).Run(ctx); err != nil {
		log.Fatalf("import failed: %v", err)
	}
}

func openStore(cfg *config.Config) (store.BarStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return store.NewSQLiteStore(cfg.Storage.SQLitePath)
	default:
		return store.NewParquetStore(cfg.Storage.DataDir), nil
	}
}
