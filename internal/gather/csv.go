package gather

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"timeslice/internal/domain"
	"timeslice/internal/store"
)

// Compile-time interface check.
var _ Gatherer = (*CSVImporter)(nil)

// csvTimeLayouts are the accepted timestamp formats in import files.
var csvTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04",
	"01/02/2006 15:04",
	time.RFC3339,
}

// CSVImporter reads a minute-bar CSV export for one instrument and writes it
// to a bar store. The file must have a header row naming at least a Time and
// a Close column (case-insensitive); Open, High, Low, and Volume columns are
// used when present. Timestamps are rounded to the nearest minute.
type CSVImporter struct {
	symbol string
	path   string
	store  store.BarStore
	log    *slog.Logger
}

// NewCSVImporter creates an importer for the given instrument and file.
func NewCSVImporter(symbol, path string, s store.BarStore) *CSVImporter {
	return &CSVImporter{
		symbol: strings.ToUpper(symbol),
		path:   path,
		store:  s,
		log:    slog.Default().With("gatherer", "csv-import", "symbol", symbol),
	}
}

// Name returns the gatherer identifier.
func (g *CSVImporter) Name() string { return "csv-import" }

// Run parses the CSV file and writes its bars to the store in one batch.
func (g *CSVImporter) Run(ctx context.Context) error {
	bars, err := g.parse()
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		g.log.Warn("no bars parsed", "path", g.path)
		return nil
	}

	if err := g.store.WriteBars(ctx, bars); err != nil {
		return fmt.Errorf("writing imported bars: %w", err)
	}
	g.log.Info("import complete", "path", g.path, "bars", len(bars))
	return nil
}

func (g *CSVImporter) parse() ([]domain.Bar, error) {
	f, err := os.Open(g.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", g.path, err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.path, err)
	}

	var bars []domain.Bar
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", g.path, err)
		}
		b, ok := g.parseRow(row, cols)
		if !ok {
			continue
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// columnMap holds the indices of the recognised CSV columns; -1 means the
// column is absent.
type columnMap struct {
	timeIdx   int
	openIdx   int
	highIdx   int
	lowIdx    int
	closeIdx  int
	volumeIdx int
}

func mapColumns(header []string) (columnMap, error) {
	cols := columnMap{timeIdx: -1, openIdx: -1, highIdx: -1, lowIdx: -1, closeIdx: -1, volumeIdx: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "time", "datetime", "timestamp":
			cols.timeIdx = i
		case "open":
			cols.openIdx = i
		case "high":
			cols.highIdx = i
		case "low":
			cols.lowIdx = i
		case "close", "last":
			cols.closeIdx = i
		case "volume":
			cols.volumeIdx = i
		}
	}
	if cols.timeIdx < 0 || cols.closeIdx < 0 {
		return cols, fmt.Errorf("header must name Time and Close columns, got %v", header)
	}
	return cols, nil
}

func (g *CSVImporter) parseRow(row []string, cols columnMap) (domain.Bar, bool) {
	if cols.timeIdx >= len(row) || cols.closeIdx >= len(row) {
		return domain.Bar{}, false
	}

	ts, ok := parseCSVTime(strings.TrimSpace(row[cols.timeIdx]))
	if !ok {
		return domain.Bar{}, false
	}
	closePx, err := strconv.ParseFloat(strings.TrimSpace(row[cols.closeIdx]), 64)
	if err != nil {
		return domain.Bar{}, false
	}

	b := domain.Bar{
		Symbol:    g.symbol,
		Timestamp: ts.Round(time.Minute),
		Open:      closePx,
		High:      closePx,
		Low:       closePx,
		Close:     closePx,
	}
	if v, ok := optionalFloat(row, cols.openIdx); ok {
		b.Open = v
	}
	if v, ok := optionalFloat(row, cols.highIdx); ok {
		b.High = v
	}
	if v, ok := optionalFloat(row, cols.lowIdx); ok {
		b.Low = v
	}
	if v, ok := optionalFloat(row, cols.volumeIdx); ok {
		b.Volume = int64(v)
	}
	return b, true
}

func parseCSVTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range csvTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func optionalFloat(row []string, idx int) (float64, bool) {
	if idx < 0 || idx >= len(row) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
