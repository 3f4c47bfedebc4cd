package gather

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"timeslice/internal/domain"
	"timeslice/internal/store"
	"timeslice/internal/util"
)

// Compile-time interface check.
var _ Gatherer = (*MinuteBarGatherer)(nil)

// MinuteBarGatherer fetches minute OHLCV bars for a fixed set of symbols via
// the Alpaca market-data API and writes them to a bar store. Fetches are
// chunked by month, rate limited, and retried with backoff.
type MinuteBarGatherer struct {
	client     *marketdata.Client
	store      store.BarStore
	symbols    []string
	rng        DateRange
	limiter    *util.RateLimiter
	maxRetries int
	log        *slog.Logger
}

// NewMinuteBarGatherer creates a MinuteBarGatherer with the given Alpaca
// credentials, target store, symbols, and date range.
func NewMinuteBarGatherer(apiKey, apiSecret, dataURL string, s store.BarStore, symbols []string, rng DateRange, ratePerMin, maxRetries int) *MinuteBarGatherer {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}

	return &MinuteBarGatherer{
		client:     marketdata.NewClient(opts),
		store:      s,
		symbols:    symbols,
		rng:        rng,
		limiter:    util.NewRateLimiter(ratePerMin),
		maxRetries: maxRetries,
		log:        slog.Default().With("gatherer", "minute-bars"),
	}
}

// Name returns the gatherer identifier.
func (g *MinuteBarGatherer) Name() string { return "minute-bars" }

// Run fetches minute bars for every configured symbol over the configured
// range, one month per API call, writing each chunk to the store as it
// arrives so interrupted runs keep their progress.
func (g *MinuteBarGatherer) Run(ctx context.Context) error {
	start := time.Now()
	var total int

	for _, symbol := range g.symbols {
		n, err := g.gatherSymbol(ctx, symbol)
		if err != nil {
			return fmt.Errorf("gathering %s: %w", symbol, err)
		}
		total += n
	}

	g.log.Info("complete", "symbols", len(g.symbols), "bars", total,
		"elapsed", time.Since(start).Round(time.Second))
	return nil
}

func (g *MinuteBarGatherer) gatherSymbol(ctx context.Context, symbol string) (int, error) {
	var total int
	for cur := g.rng.Start; cur.Before(g.rng.End); cur = cur.AddDate(0, 1, 0) {
		chunkEnd := cur.AddDate(0, 1, 0)
		if chunkEnd.After(g.rng.End) {
			chunkEnd = g.rng.End
		}

		if err := g.limiter.Wait(ctx); err != nil {
			return total, err
		}

		bars, err := g.fetchChunk(ctx, symbol, cur, chunkEnd)
		if err != nil {
			return total, err
		}
		if len(bars) == 0 {
			continue
		}

		if err := g.store.WriteBars(ctx, bars); err != nil {
			return total, fmt.Errorf("writing bars: %w", err)
		}
		total += len(bars)
		g.log.Debug("chunk stored", "symbol", symbol,
			"start", cur.Format("2006-01-02"), "bars", len(bars))
	}

	g.log.Info("symbol done", "symbol", symbol, "bars", total)
	return total, nil
}

func (g *MinuteBarGatherer) fetchChunk(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	var fetched []marketdata.Bar
	err := util.Retry(ctx, g.maxRetries, time.Second, func() error {
		var err error
		fetched, err = g.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneMin,
			Start:     start,
			End:       end,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars: %w", err)
	}

	bars := make([]domain.Bar, 0, len(fetched))
	for _, ab := range fetched {
		bars = append(bars, domain.Bar{
			Symbol:     strings.ToUpper(symbol),
			Timestamp:  ab.Timestamp,
			Open:       ab.Open,
			High:       ab.High,
			Low:        ab.Low,
			Close:      ab.Close,
			Volume:     int64(ab.Volume),
			TradeCount: int64(ab.TradeCount),
			VWAP:       ab.VWAP,
		})
	}
	return bars, nil
}
