// Package domain defines the core value types shared across the timeslice
// system: price bars, time-of-day values, trade records, backtest rows, and
// performance statistics.
package domain

import (
	"fmt"
	"math"
	"time"
)

// Bar is a single minute OHLCV bar for one instrument.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// TimeOfDay is a wall-clock time at minute resolution, independent of any
// calendar date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a "15:04" formatted string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parsing time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// TimeOfDayOf extracts the time-of-day from a timestamp, rounded to the
// nearest minute.
func TimeOfDayOf(t time.Time) TimeOfDay {
	r := t.Round(time.Minute)
	return TimeOfDay{Hour: r.Hour(), Minute: r.Minute()}
}

// String formats the time as "15:04".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Before reports whether t is strictly earlier than o.
func (t TimeOfDay) Before(o TimeOfDay) bool {
	if t.Hour != o.Hour {
		return t.Hour < o.Hour
	}
	return t.Minute < o.Minute
}

// At combines the time-of-day with a calendar date, producing a minute
// timestamp in the date's location.
func (t TimeOfDay) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, date.Location())
}

// DateOf normalizes a timestamp to its calendar date (midnight, same
// location). Dates throughout the system are represented this way so they
// compare and sort as plain time.Time values.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Position is the direction of exposure for a backtest run.
type Position string

const (
	PositionLong  Position = "long"
	PositionShort Position = "short"
)

// Leg holds the observed entry/exit prices for one instrument within a trade.
type Leg struct {
	Symbol     string
	EntryPrice float64
	ExitPrice  float64
}

// Diff returns exit minus entry for this leg.
func (l Leg) Diff() float64 {
	return l.ExitPrice - l.EntryPrice
}

// TradeRecord is one qualifying date's trade: entry and exit observations on
// a single day. In spread mode Hedge is set and PriceDiff is the change in
// the primary-minus-hedge spread; otherwise Hedge is nil and PriceDiff is the
// primary leg's diff.
type TradeRecord struct {
	Date      time.Time
	EntryTime time.Time
	ExitTime  time.Time
	Primary   Leg
	Hedge     *Leg
	PriceDiff float64
}

// BacktestRow is a TradeRecord with the position sign applied and the running
// total up to and including this trade.
type BacktestRow struct {
	TradeRecord
	SignedPnL     float64
	CumulativePnL float64
}

// TradingDaysPerYear is the assumed number of trading days used to annualize
// the Sharpe ratio.
const TradingDaysPerYear = 252

// PerformanceStats summarizes a backtest run. MeanPnL and StdPnL are NaN when
// there are no trades; Sharpe is NaN when there are fewer than two trades or
// the PnL standard deviation is zero.
type PerformanceStats struct {
	TradeCount int
	MeanPnL    float64
	StdPnL     float64
	AvgGapDays float64
	Sharpe     float64
}

// SharpeDefined reports whether the Sharpe ratio could be computed.
func (s PerformanceStats) SharpeDefined() bool {
	return !math.IsNaN(s.Sharpe)
}
