package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timeslice/internal/config"
	"timeslice/internal/gather"
	"timeslice/internal/store"
	"timeslice/internal/util"
)

func main() {
	startFlag := flag.String("start", "", "start date (2006-01-02), overrides gather.start_date")
	endFlag := flag.String("end", "", "end date (2006-01-02), defaults to today")
	flag.Parse()

	cfgPath := "config/timeslice.yaml"
	if p := os.Getenv("TIMESLICE_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Instruments) == 0 {
		log.Fatal("no instruments configured")
	}
	if cfg.Alpaca.APIKey == "" || cfg.Alpaca.APISecret == "" {
		log.Fatal("alpaca credentials are not configured")
	}

	// Dual logger: stdout + /tmp log file.
	logFileName := fmt.Sprintf("/tmp/timeslice-gather-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.Create(logFileName)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	w := io.MultiWriter(os.Stdout, logFile)
	slog.SetDefault(util.NewLoggerTo(w, cfg.Logging.Level, cfg.Logging.Format))

	rng, err := resolveRange(cfg, *startFlag, *endFlag)
	if err != nil {
		log.Fatalf("invalid date range: %v", err)
	}

	s, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}

	gatherer := gather.NewMinuteBarGatherer(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL,
		s,
		cfg.Instruments,
		rng,
		cfg.Gather.RateLimitPerMin,
		cfg.Gather.MaxRetries,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting gather", "logFile", logFileName,
		"instruments", cfg.Instruments,
		"start", rng.Start.Format("2006-01-02"), "end", rng.End.Format("2006-01-02"))
	if err := gatherer.Run(ctx); err != nil {
		log.Fatalf("gather error: %v", err)
	}
}

func resolveRange(cfg *config.Config, startFlag, endFlag string) (gather.DateRange, error) {
	startStr := cfg.Gather.StartDate
	if startFlag != "" {
		startStr = startFlag
	}
	if startStr == "" {
		return gather.DateRange{}, fmt.Errorf("no start date: set gather.start_date or -start")
	}
	start, err := time.ParseInLocation("2006-01-02", startStr, time.UTC)
	if err != nil {
		return gather.DateRange{}, fmt.Errorf("parsing start date %q: %w", startStr, err)
	}

	end := time.Now().UTC()
	if endFlag != "" {
		end, err = time.ParseInLocation("2006-01-02", endFlag, time.UTC)
		if err != nil {
			return gather.DateRange{}, fmt.Errorf("parsing end date %q: %w", endFlag, err)
		}
	}
	if !start.Before(end) {
		return gather.DateRange{}, fmt.Errorf("start %s is not before end %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return gather.DateRange{Start: start, End: end}, nil
}

func openStore(cfg *config.Config) (store.BarStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return store.NewSQLiteStore(cfg.Storage.SQLitePath)
	default:
		return store.NewParquetStore(cfg.Storage.DataDir), nil
	}
}
