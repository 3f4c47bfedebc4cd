// Package series provides immutable, minute-indexed price series and a
// catalog of loaded instruments. A PriceSeries is built once from bar data
// and is read-only afterwards, so concurrent backtests need no locking.
package series

import (
	"sort"
	"time"

	"timeslice/internal/domain"
)

// PriceSeries maps exact minute timestamps to observed closing prices for a
// single instrument.
type PriceSeries struct {
	symbol string
	prices map[int64]float64
	dates  []time.Time
	times  []domain.TimeOfDay
}

// FromBars builds a PriceSeries from minute bars. Timestamps are rounded to
// the nearest minute; when two bars round to the same stamp the later one in
// the input wins.
func FromBars(symbol string, bars []domain.Bar) *PriceSeries {
	prices := make(map[int64]float64, len(bars))
	dateSet := make(map[int64]time.Time)
	timeSet := make(map[domain.TimeOfDay]struct{})

	for _, b := range bars {
		ts := b.Timestamp.UTC().Round(time.Minute)
		prices[ts.Unix()] = b.Close

		d := domain.DateOf(ts)
		dateSet[d.Unix()] = d
		timeSet[domain.TimeOfDayOf(ts)] = struct{}{}
	}

	dates := make([]time.Time, 0, len(dateSet))
	for _, d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	times := make([]domain.TimeOfDay, 0, len(timeSet))
	for tod := range timeSet {
		times = append(times, tod)
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	return &PriceSeries{
		symbol: symbol,
		prices: prices,
		dates:  dates,
		times:  times,
	}
}

// Symbol returns the instrument identifier.
func (s *PriceSeries) Symbol() string { return s.symbol }

// Len returns the number of distinct minute observations.
func (s *PriceSeries) Len() int { return len(s.prices) }

// Price looks up the closing price at the exact minute timestamp. The
// timestamp is rounded to the nearest minute before lookup.
func (s *PriceSeries) Price(ts time.Time) (float64, bool) {
	p, ok := s.prices[ts.UTC().Round(time.Minute).Unix()]
	return p, ok
}

// Dates returns the distinct calendar dates present, ascending. The returned
// slice is a copy.
func (s *PriceSeries) Dates() []time.Time {
	out := make([]time.Time, len(s.dates))
	copy(out, s.dates)
	return out
}

// Times returns the distinct times-of-day present, ascending. The returned
// slice is a copy.
func (s *PriceSeries) Times() []domain.TimeOfDay {
	out := make([]domain.TimeOfDay, len(s.times))
	copy(out, s.times)
	return out
}

// Catalog holds the price series loaded at startup, keyed by symbol. It is
// populated once and read-only afterwards.
type Catalog struct {
	series map[string]*PriceSeries
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{series: make(map[string]*PriceSeries)}
}

// Add registers a series under its symbol, replacing any previous entry.
func (c *Catalog) Add(s *PriceSeries) {
	c.series[s.Symbol()] = s
}

// Get retrieves a series by symbol. The second return value reports whether
// the symbol is loaded.
func (c *Catalog) Get(symbol string) (*PriceSeries, bool) {
	s, ok := c.series[symbol]
	return s, ok
}

// Symbols returns the loaded instrument identifiers, sorted.
func (c *Catalog) Symbols() []string {
	names := make([]string, 0, len(c.series))
	for name := range c.series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
