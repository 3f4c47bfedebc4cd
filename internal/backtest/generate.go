// Package backtest implements the trade-generation and performance pipeline:
// per-date entry/exit trades from a price series (or an instrument-pair
// spread), signed and cumulative PnL for a position direction, and summary
// statistics including a gap-annualized Sharpe ratio.
package backtest

import (
	"time"

	"timeslice/internal/domain"
	"timeslice/internal/series"
)

// SeriesInput selects single-series or spread mode for trade generation.
// Construct it with Single or Spread.
type SeriesInput struct {
	primary *series.PriceSeries
	hedge   *series.PriceSeries
}

// Single backtests one instrument outright.
func Single(s *series.PriceSeries) SeriesInput {
	return SeriesInput{primary: s}
}

// Spread backtests the primary-minus-hedge spread of two instruments as a
// single synthetic instrument.
func Spread(primary, hedge *series.PriceSeries) SeriesInput {
	return SeriesInput{primary: primary, hedge: hedge}
}

// IsSpread reports whether the input is in paired-series mode.
func (in SeriesInput) IsSpread() bool { return in.hedge != nil }

// GenerateTrades builds one TradeRecord per input date whose entry and exit
// stamps both exist in every involved series. Dates failing the existence
// check are skipped; they model holidays and partial-day data, not errors.
// Input order is preserved and duplicate dates are processed independently.
//
// The caller guarantees exit is strictly later than entry; that check belongs
// to the input boundary, not here.
func GenerateTrades(dates []time.Time, entry, exit domain.TimeOfDay, in SeriesInput) []domain.TradeRecord {
	var trades []domain.TradeRecord

	for _, d := range dates {
		entryTS := entry.At(d)
		exitTS := exit.At(d)

		pEntry, ok := in.primary.Price(entryTS)
		if !ok {
			continue
		}
		pExit, ok := in.primary.Price(exitTS)
		if !ok {
			continue
		}

		rec := domain.TradeRecord{
			Date:      domain.DateOf(d),
			EntryTime: entryTS,
			ExitTime:  exitTS,
			Primary: domain.Leg{
				Symbol:     in.primary.Symbol(),
				EntryPrice: pEntry,
				ExitPrice:  pExit,
			},
		}

		if in.hedge == nil {
			rec.PriceDiff = rec.Primary.Diff()
			trades = append(trades, rec)
			continue
		}

		hEntry, ok := in.hedge.Price(entryTS)
		if !ok {
			continue
		}
		hExit, ok := in.hedge.Price(exitTS)
		if !ok {
			continue
		}

		rec.Hedge = &domain.Leg{
			Symbol:     in.hedge.Symbol(),
			EntryPrice: hEntry,
			ExitPrice:  hExit,
		}
		// spread(t) = primary(t) - hedge(t); diff = spread(exit) - spread(entry).
		rec.PriceDiff = (pExit - hExit) - (pEntry - hEntry)
		trades = append(trades, rec)
	}

	return trades
}
