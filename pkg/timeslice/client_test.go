package timeslice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestInstruments(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/instruments" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"instruments": []string{"ES", "NQ"}})
	})

	got, err := c.Instruments(context.Background())
	if err != nil {
		t.Fatalf("Instruments: %v", err)
	}
	if len(got) != 2 || got[0] != "ES" {
		t.Errorf("Instruments = %v", got)
	}
}

func TestTimesEscapesSymbol(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/instruments/ES/times" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"times": []string{"09:30", "16:00"}})
	})

	got, err := c.Times(context.Background(), "ES")
	if err != nil {
		t.Fatalf("Times: %v", err)
	}
	if len(got) != 2 || got[1] != "16:00" {
		t.Errorf("Times = %v", got)
	}
}

func TestBacktest(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/backtest" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req BacktestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Instrument != "ES" || req.Position != "long" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(BacktestResult{
			Instrument:    "ES",
			Position:      "long",
			SelectedDates: 2,
			Trades: []TradeRow{
				{Date: "2024-01-02", PnL: 5, CumulativePnL: 5},
				{Date: "2024-01-03", PnL: -2, CumulativePnL: 3},
			},
			Stats: Stats{TradeCount: 2, AvgGapDays: 1},
		})
	})

	res, err := c.Backtest(context.Background(), BacktestRequest{
		Instrument: "ES", EntryTime: "09:30", ExitTime: "16:00", Position: "long",
		Filters: []string{"daily"},
	})
	if err != nil {
		t.Fatalf("Backtest: %v", err)
	}
	if len(res.Trades) != 2 || res.Trades[1].CumulativePnL != 3 {
		t.Errorf("Trades = %+v", res.Trades)
	}
	if res.Stats.MeanPnL != nil {
		t.Errorf("MeanPnL = %v, want nil for absent field", res.Stats.MeanPnL)
	}
}

func TestAPIError(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": `unknown instrument "XX"`})
	})

	_, err := c.Times(context.Background(), "XX")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", apiErr.StatusCode)
	}
	if apiErr.Message != `unknown instrument "XX"` {
		t.Errorf("Message = %q", apiErr.Message)
	}
}
