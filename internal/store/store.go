// Package store persists and retrieves minute price bars. Two backends are
// provided: Parquet files on disk (bulk history) and SQLite (single-file,
// queryable).
package store

import (
	"context"
	"time"

	"timeslice/internal/domain"
)

// BarStore persists and retrieves minute OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars, merging with any already stored.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end],
	// ordered by timestamp.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with stored bars.
	ListSymbols(ctx context.Context) ([]string, error)
}
