package backtest

import (
	"errors"
	"fmt"

	"timeslice/internal/domain"
)

// ErrInvalidPosition is returned by Run for a position other than long or
// short. This is a programmer error and is never silently defaulted.
var ErrInvalidPosition = errors.New(`position must be "long" or "short"`)

// Run applies the position sign to each trade and accumulates PnL in input
// order. The caller supplies dates in the order it wants accumulated;
// chronological order is the usual convention but not enforced. The input
// slice is never mutated.
func Run(trades []domain.TradeRecord, position domain.Position) ([]domain.BacktestRow, error) {
	var sign float64
	switch position {
	case domain.PositionLong:
		sign = 1
	case domain.PositionShort:
		sign = -1
	default:
		return nil, fmt.Errorf("%w: got %q", ErrInvalidPosition, position)
	}

	rows := make([]domain.BacktestRow, 0, len(trades))
	var cum float64
	for _, tr := range trades {
		pnl := sign * tr.PriceDiff
		cum += pnl
		rows = append(rows, domain.BacktestRow{
			TradeRecord:   tr,
			SignedPnL:     pnl,
			CumulativePnL: cum,
		})
	}
	return rows, nil
}
