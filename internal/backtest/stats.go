package backtest

import (
	"math"
	"sort"
	"time"

	"timeslice/internal/domain"
)

// ComputeStats derives summary statistics from a backtest run. Mean and std
// are NaN with zero trades; Sharpe is NaN with fewer than two trades or zero
// PnL variance. The standard deviation is the population form (divide by N).
func ComputeStats(rows []domain.BacktestRow) domain.PerformanceStats {
	stats := domain.PerformanceStats{
		TradeCount: len(rows),
		MeanPnL:    math.NaN(),
		StdPnL:     math.NaN(),
		Sharpe:     math.NaN(),
	}
	if len(rows) == 0 {
		return stats
	}

	n := float64(len(rows))
	var sum float64
	for _, r := range rows {
		sum += r.SignedPnL
	}
	mean := sum / n

	var sq float64
	for _, r := range rows {
		d := r.SignedPnL - mean
		sq += d * d
	}
	std := math.Sqrt(sq / n)

	stats.MeanPnL = mean
	stats.StdPnL = std

	if len(rows) < 2 {
		return stats
	}
	stats.AvgGapDays = avgGapDays(rows)

	if std == 0 {
		return stats
	}
	stats.Sharpe = (mean / std) * math.Sqrt(domain.TradingDaysPerYear/stats.AvgGapDays)
	return stats
}

// avgGapDays averages the calendar-day gaps between consecutive trade dates
// sorted ascending. Duplicate dates yield zero-length gaps; an all-zero
// average is substituted with 1 so annualization never divides by zero.
func avgGapDays(rows []domain.BacktestRow) float64 {
	dates := make([]time.Time, len(rows))
	for i, r := range rows {
		dates[i] = r.Date
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var total float64
	for i := 1; i < len(dates); i++ {
		total += dates[i].Sub(dates[i-1]).Hours() / 24
	}
	avg := total / float64(len(dates)-1)
	if avg == 0 {
		return 1
	}
	return avg
}
