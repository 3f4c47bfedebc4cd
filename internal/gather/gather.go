// Package gather acquires minute bar data and writes it into a bar store,
// either by importing local CSV exports or by fetching from the Alpaca
// market-data API.
package gather

import (
	"context"
	"time"
)

// Gatherer is the interface for all data acquisition processes.
type Gatherer interface {
	// Name returns the gatherer identifier.
	Name() string
	// Run executes the acquisition until done or ctx is cancelled.
	Run(ctx context.Context) error
}

// DateRange is an inclusive time range for data fetching.
type DateRange struct {
	Start time.Time
	End   time.Time
}
