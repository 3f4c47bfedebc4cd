package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"timeslice/internal/backtest"
	"timeslice/internal/datefilter"
	"timeslice/internal/domain"
	"timeslice/internal/series"
)

// Server serves the backtest viewer HTTP API. The catalog and filter engine
// are built at startup and read-only afterwards, so handlers need no locking.
type Server struct {
	catalog *series.Catalog
	filters *datefilter.Engine
	log     *slog.Logger
}

// NewServer creates a Server over the given instrument catalog and date
// filter engine.
func NewServer(catalog *series.Catalog, filters *datefilter.Engine, log *slog.Logger) *Server {
	return &Server{
		catalog: catalog,
		filters: filters,
		log:     log,
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/instruments", s.handleInstruments)
	mux.HandleFunc("GET /api/instruments/{symbol}/times", s.handleTimes)
	mux.HandleFunc("GET /api/instruments/{symbol}/dates", s.handleDates)
	mux.HandleFunc("GET /api/filters", s.handleFilters)
	mux.HandleFunc("POST /api/backtest", s.handleBacktest)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleInstruments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, InstrumentsResponse{Instruments: s.catalog.Symbols()})
}

func (s *Server) handleTimes(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	ps, ok := s.catalog.Get(symbol)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown instrument %q", symbol))
		return
	}

	times := ps.Times()
	out := make([]string, len(times))
	for i, tod := range times {
		out[i] = tod.String()
	}
	writeJSON(w, TimesResponse{Instrument: symbol, Times: out})
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	ps, ok := s.catalog.Get(symbol)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown instrument %q", symbol))
		return
	}

	dates := ps.Dates()
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	writeJSON(w, DatesResponse{Instrument: symbol, Dates: out})
}

func (s *Server) handleFilters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, FiltersResponse{Filters: s.filters.Labels()})
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decoding request: %v", err))
		return
	}

	primary, ok := s.catalog.Get(req.Instrument)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown instrument %q", req.Instrument))
		return
	}

	input := backtest.Single(primary)
	if req.Hedge != "" {
		hedge, ok := s.catalog.Get(req.Hedge)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown instrument %q", req.Hedge))
			return
		}
		input = backtest.Spread(primary, hedge)
	}

	entry, err := domain.ParseTimeOfDay(req.EntryTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	exit, err := domain.ParseTimeOfDay(req.ExitTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !entry.Before(exit) {
		writeError(w, http.StatusBadRequest, "exit time must be later than entry time")
		return
	}

	dates, err := s.resolveDates(&req, primary)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trades := backtest.GenerateTrades(dates, entry, exit, input)
	rows, err := backtest.Run(trades, domain.Position(req.Position))
	if err != nil {
		if errors.Is(err, backtest.ErrInvalidPosition) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	stats := backtest.ComputeStats(rows)

	s.log.Info("backtest",
		"instrument", req.Instrument,
		"hedge", req.Hedge,
		"entry", req.EntryTime,
		"exit", req.ExitTime,
		"position", req.Position,
		"dates", len(dates),
		"trades", stats.TradeCount,
	)

	writeJSON(w, BacktestResponse{
		Instrument:    req.Instrument,
		Hedge:         req.Hedge,
		Position:      req.Position,
		SelectedDates: len(dates),
		Trades:        convertRows(rows),
		Stats:         convertStats(stats),
	})
}

// resolveDates picks the trade dates for a request: explicit dates when
// present, otherwise the filter engine run against the primary instrument's
// observed dates.
func (s *Server) resolveDates(req *BacktestRequest, primary *series.PriceSeries) ([]time.Time, error) {
	if len(req.Dates) > 0 {
		dates := make([]time.Time, 0, len(req.Dates))
		for _, ds := range req.Dates {
			d, err := time.ParseInLocation("2006-01-02", ds, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("parsing date %q: %w", ds, err)
			}
			dates = append(dates, d)
		}
		return dates, nil
	}
	return s.filters.Compute(primary.Dates(), req.Filters), nil
}
