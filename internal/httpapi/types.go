// Package httpapi provides the HTTP REST API for the backtest viewer,
// exposing the loaded instruments, their observed dates and times, the
// available date filters, and the backtest operation itself.
package httpapi

import (
	"math"
	"time"

	"timeslice/internal/domain"
)

// BacktestRequest is the JSON body of POST /api/backtest. Hedge switches to
// spread mode when set. Explicit dates take precedence over filters when both
// are present.
type BacktestRequest struct {
	Instrument string   `json:"instrument"`
	Hedge      string   `json:"hedge,omitempty"`
	EntryTime  string   `json:"entryTime"`
	ExitTime   string   `json:"exitTime"`
	Position   string   `json:"position"`
	Filters    []string `json:"filters,omitempty"`
	Dates      []string `json:"dates,omitempty"`
}

// LegJSON is the JSON representation of one instrument leg of a trade.
type LegJSON struct {
	Symbol     string  `json:"symbol"`
	EntryPrice float64 `json:"entryPrice"`
	ExitPrice  float64 `json:"exitPrice"`
	Diff       float64 `json:"diff"`
}

// TradeRowJSON is one backtested trade with its running PnL.
type TradeRowJSON struct {
	Date          string   `json:"date"`
	EntryTime     string   `json:"entryTime"`
	ExitTime      string   `json:"exitTime"`
	Primary       LegJSON  `json:"primary"`
	Hedge         *LegJSON `json:"hedge,omitempty"`
	PriceDiff     float64  `json:"priceDiff"`
	PnL           float64  `json:"pnl"`
	CumulativePnL float64  `json:"cumulativePnl"`
}

// StatsJSON is the JSON representation of performance statistics. Undefined
// values (NaN sentinels) are serialized as null.
type StatsJSON struct {
	TradeCount int      `json:"tradeCount"`
	MeanPnL    *float64 `json:"meanPnl"`
	StdPnL     *float64 `json:"stdPnl"`
	AvgGapDays float64  `json:"avgGapDays"`
	Sharpe     *float64 `json:"sharpe"`
}

// BacktestResponse is the JSON body returned by POST /api/backtest. An empty
// Trades slice is a valid "no data for the given selection" outcome.
type BacktestResponse struct {
	Instrument    string         `json:"instrument"`
	Hedge         string         `json:"hedge,omitempty"`
	Position      string         `json:"position"`
	SelectedDates int            `json:"selectedDates"`
	Trades        []TradeRowJSON `json:"trades"`
	Stats         StatsJSON      `json:"stats"`
}

// InstrumentsResponse lists the loaded instruments.
type InstrumentsResponse struct {
	Instruments []string `json:"instruments"`
}

// TimesResponse lists the distinct times-of-day observed for an instrument.
type TimesResponse struct {
	Instrument string   `json:"instrument"`
	Times      []string `json:"times"`
}

// DatesResponse lists the distinct dates observed for an instrument.
type DatesResponse struct {
	Instrument string   `json:"instrument"`
	Dates      []string `json:"dates"`
}

// FiltersResponse lists the available date-filter labels.
type FiltersResponse struct {
	Filters []string `json:"filters"`
}

func convertLeg(l domain.Leg) LegJSON {
	return LegJSON{
		Symbol:     l.Symbol,
		EntryPrice: l.EntryPrice,
		ExitPrice:  l.ExitPrice,
		Diff:       l.Diff(),
	}
}

func convertRows(rows []domain.BacktestRow) []TradeRowJSON {
	out := make([]TradeRowJSON, 0, len(rows))
	for _, r := range rows {
		row := TradeRowJSON{
			Date:          r.Date.Format("2006-01-02"),
			EntryTime:     r.EntryTime.Format(time.RFC3339),
			ExitTime:      r.ExitTime.Format(time.RFC3339),
			Primary:       convertLeg(r.Primary),
			PriceDiff:     r.PriceDiff,
			PnL:           r.SignedPnL,
			CumulativePnL: r.CumulativePnL,
		}
		if r.Hedge != nil {
			h := convertLeg(*r.Hedge)
			row.Hedge = &h
		}
		out = append(out, row)
	}
	return out
}

func convertStats(s domain.PerformanceStats) StatsJSON {
	return StatsJSON{
		TradeCount: s.TradeCount,
		MeanPnL:    floatOrNull(s.MeanPnL),
		StdPnL:     floatOrNull(s.StdPnL),
		AvgGapDays: s.AvgGapDays,
		Sharpe:     floatOrNull(s.Sharpe),
	}
}

// floatOrNull maps NaN sentinels to nil so they serialize as JSON null.
func floatOrNull(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
