package series

import (
	"testing"
	"time"

	"timeslice/internal/domain"
)

func bar(symbol string, ts time.Time, close float64) domain.Bar {
	return domain.Bar{Symbol: symbol, Timestamp: ts, Close: close}
}

func TestFromBarsLookup(t *testing.T) {
	ts1 := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	ts2 := time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC)
	s := FromBars("ES", []domain.Bar{
		bar("ES", ts1, 100.0),
		bar("ES", ts2, 105.0),
	})

	if s.Symbol() != "ES" {
		t.Errorf("Symbol = %q, want %q", s.Symbol(), "ES")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}

	p, ok := s.Price(ts1)
	if !ok || p != 100.0 {
		t.Errorf("Price(09:30) = %v, %v; want 100.0, true", p, ok)
	}
	if _, ok := s.Price(time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)); ok {
		t.Error("Price should report missing for an absent timestamp")
	}
}

func TestFromBarsRoundsToMinute(t *testing.T) {
	// 09:29:58 rounds to 09:30.
	s := FromBars("ES", []domain.Bar{
		bar("ES", time.Date(2024, 1, 2, 9, 29, 58, 0, time.UTC), 101.5),
	})

	p, ok := s.Price(time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC))
	if !ok || p != 101.5 {
		t.Errorf("Price(rounded stamp) = %v, %v; want 101.5, true", p, ok)
	}
}

func TestFromBarsDuplicateStampLastWins(t *testing.T) {
	ts := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	s := FromBars("ES", []domain.Bar{
		bar("ES", ts, 100.0),
		bar("ES", ts, 100.25),
	})

	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
	p, _ := s.Price(ts)
	if p != 100.25 {
		t.Errorf("Price = %v, want 100.25 (last bar wins)", p)
	}
}

func TestDatesAndTimesEnumeration(t *testing.T) {
	s := FromBars("NQ", []domain.Bar{
		bar("NQ", time.Date(2024, 1, 3, 16, 0, 0, 0, time.UTC), 3.0),
		bar("NQ", time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), 1.0),
		bar("NQ", time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC), 2.0),
	})

	dates := s.Dates()
	if len(dates) != 2 {
		t.Fatalf("Dates returned %d entries, want 2", len(dates))
	}
	if !dates[0].Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Dates[0] = %v, want 2024-01-02", dates[0])
	}
	if !dates[1].Equal(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Dates[1] = %v, want 2024-01-03", dates[1])
	}

	times := s.Times()
	if len(times) != 2 {
		t.Fatalf("Times returned %d entries, want 2", len(times))
	}
	if times[0] != (domain.TimeOfDay{Hour: 9, Minute: 30}) || times[1] != (domain.TimeOfDay{Hour: 16, Minute: 0}) {
		t.Errorf("Times = %v, want [09:30 16:00]", times)
	}
}

func TestDatesReturnsCopy(t *testing.T) {
	s := FromBars("ES", []domain.Bar{
		bar("ES", time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), 1.0),
	})
	d := s.Dates()
	d[0] = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	if !s.Dates()[0].Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Error("mutating the returned slice must not affect the series")
	}
}

func TestCatalog(t *testing.T) {
	c := NewCatalog()
	c.Add(FromBars("NQ", nil))
	c.Add(FromBars("ES", nil))

	if _, ok := c.Get("ES"); !ok {
		t.Error("Get(ES) should find the loaded series")
	}
	if _, ok := c.Get("CL"); ok {
		t.Error("Get(CL) should report missing")
	}

	syms := c.Symbols()
	if len(syms) != 2 || syms[0] != "ES" || syms[1] != "NQ" {
		t.Errorf("Symbols = %v, want [ES NQ]", syms)
	}
}
