package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timeslice/internal/config"
	"timeslice/internal/datefilter"
	"timeslice/internal/httpapi"
	"timeslice/internal/series"
	"timeslice/internal/store"
	"timeslice/internal/util"
)

func main() {
	cfgPath := "config/timeslice.yaml"
	if p := os.Getenv("TIMESLICE_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	catalog, err := loadCatalog(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to load instruments: %v", err)
	}

	events, err := datefilter.LoadEventDir(cfg.Events.Dir)
	if err != nil {
		log.Fatalf("failed to load event calendars: %v", err)
	}
	engine := datefilter.NewEngine(events, cfg.Events.RestrictToData)
	logger.Info("filters ready", "labels", len(engine.Labels()))

	api := httpapi.NewServer(catalog, engine, logger)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.Handler(),
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

// loadCatalog opens the configured bar store and builds a price series for
// every configured instrument. With no instruments configured, every symbol
// present in the store is loaded.
func loadCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*series.Catalog, error) {
	s, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	symbols := cfg.Instruments
	if len(symbols) == 0 {
		symbols, err = s.ListSymbols(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing symbols: %w", err)
		}
	}

	catalog := series.NewCatalog()
	for _, symbol := range symbols {
		bars, err := s.ReadBars(ctx, symbol, time.Time{}, time.Now())
		if err != nil {
			return nil, fmt.Errorf("reading bars for %s: %w", symbol, err)
		}
		if len(bars) == 0 {
			logger.Warn("no bars for instrument", "symbol", symbol)
			continue
		}
		ps := series.FromBars(symbol, bars)
		catalog.Add(ps)
		logger.Info("instrument loaded", "symbol", symbol,
			"bars", ps.Len(), "dates", len(ps.Dates()))
	}
	return catalog, nil
}

func openStore(cfg *config.Config) (store.BarStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return store.NewSQLiteStore(cfg.Storage.SQLitePath)
	default:
		return store.NewParquetStore(cfg.Storage.DataDir), nil
	}
}
