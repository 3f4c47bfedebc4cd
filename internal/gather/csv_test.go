package gather

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"timeslice/internal/domain"
	"timeslice/internal/store"
)

// memStore is a minimal BarStore capturing writes for assertions.
type memStore struct {
	bars []domain.Bar
}

func (m *memStore) WriteBars(_ context.Context, bars []domain.Bar) error {
	m.bars = append(m.bars, bars...)
	return nil
}

func (m *memStore) ReadBars(_ context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	var out []domain.Bar
	for _, b := range m.bars {
		if b.Symbol == symbol && !b.Timestamp.Before(start) && !b.Timestamp.After(end) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) ListSymbols(_ context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, b := range m.bars {
		if !seen[b.Symbol] {
			seen[b.Symbol] = true
			out = append(out, b.Symbol)
		}
	}
	return out, nil
}

var _ store.BarStore = (*memStore)(nil)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing csv: %v", err)
	}
	return path
}

func TestCSVImporterCloseOnly(t *testing.T) {
	path := writeCSV(t, "Time,Close\n2024-01-02 09:30:00,4770.75\n2024-01-02 16:00:00,4790.50\n")
	ms := &memStore{}

	imp := NewCSVImporter("es", path, ms)
	if err := imp.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(ms.bars) != 2 {
		t.Fatalf("imported %d bars, want 2", len(ms.bars))
	}
	b := ms.bars[0]
	if b.Symbol != "ES" {
		t.Errorf("Symbol = %q, want %q (uppercased)", b.Symbol, "ES")
	}
	if !b.Timestamp.Equal(time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)) {
		t.Errorf("Timestamp = %v", b.Timestamp)
	}
	if b.Close != 4770.75 || b.Open != 4770.75 {
		t.Errorf("Close/Open = %v/%v, want both 4770.75 when only Close is present", b.Close, b.Open)
	}
}

func TestCSVImporterFullOHLCV(t *testing.T) {
	path := writeCSV(t, "Time,Open,High,Low,Close,Volume\n2024-01-02 09:30,4770,4771.5,4769.25,4770.75,12000\n")
	ms := &memStore{}

	if err := NewCSVImporter("ES", path, ms).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ms.bars) != 1 {
		t.Fatalf("imported %d bars, want 1", len(ms.bars))
	}
	b := ms.bars[0]
	if b.Open != 4770 || b.High != 4771.5 || b.Low != 4769.25 || b.Close != 4770.75 {
		t.Errorf("OHLC = %v %v %v %v", b.Open, b.High, b.Low, b.Close)
	}
	if b.Volume != 12000 {
		t.Errorf("Volume = %d, want 12000", b.Volume)
	}
}

func TestCSVImporterRoundsToMinute(t *testing.T) {
	path := writeCSV(t, "Time,Close\n2024-01-02 09:29:58,100.0\n")
	ms := &memStore{}

	if err := NewCSVImporter("ES", path, ms).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	if !ms.bars[0].Timestamp.Equal(want) {
		t.Errorf("Timestamp = %v, want rounded %v", ms.bars[0].Timestamp, want)
	}
}

func TestCSVImporterSkipsBadRows(t *testing.T) {
	path := writeCSV(t, "Time,Close\nnot-a-time,100.0\n2024-01-02 09:30,abc\n2024-01-02 16:00,105.0\n")
	ms := &memStore{}

	if err := NewCSVImporter("ES", path, ms).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ms.bars) != 1 {
		t.Fatalf("imported %d bars, want 1 (bad rows skipped)", len(ms.bars))
	}
	if ms.bars[0].Close != 105.0 {
		t.Errorf("Close = %v, want 105.0", ms.bars[0].Close)
	}
}

func TestCSVImporterMissingColumns(t *testing.T) {
	path := writeCSV(t, "Date,Price\n2024-01-02,100.0\n")
	err := NewCSVImporter("ES", path, &memStore{}).Run(context.Background())
	if err == nil {
		t.Error("Run should fail without Time and Close columns")
	}
}
