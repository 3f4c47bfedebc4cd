package domain

import (
	"math"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{"09:30", TimeOfDay{9, 30}, false},
		{"16:00", TimeOfDay{16, 0}, false},
		{"00:00", TimeOfDay{0, 0}, false},
		{"24:00", TimeOfDay{}, true},
		{"9:30am", TimeOfDay{}, true},
		{"", TimeOfDay{}, true},
	}
	for _, c := range cases {
		got, err := ParseTimeOfDay(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q) expected error, got %v", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q) returned error: %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseTimeOfDay(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestTimeOfDayStringRoundTrip(t *testing.T) {
	tod := TimeOfDay{Hour: 9, Minute: 5}
	if tod.String() != "09:05" {
		t.Errorf("String() = %q, want %q", tod.String(), "09:05")
	}
	back, err := ParseTimeOfDay(tod.String())
	if err != nil {
		t.Fatalf("ParseTimeOfDay(String()) returned error: %v", err)
	}
	if back != tod {
		t.Errorf("round trip = %v, want %v", back, tod)
	}
}

func TestTimeOfDayBefore(t *testing.T) {
	a := TimeOfDay{9, 30}
	b := TimeOfDay{16, 0}
	if !a.Before(b) {
		t.Error("09:30 should be before 16:00")
	}
	if b.Before(a) {
		t.Error("16:00 should not be before 09:30")
	}
	if a.Before(a) {
		t.Error("Before should be strict")
	}
	if !(TimeOfDay{9, 15}).Before(TimeOfDay{9, 30}) {
		t.Error("09:15 should be before 09:30")
	}
}

func TestTimeOfDayAt(t *testing.T) {
	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	got := TimeOfDay{9, 30}.At(date)
	want := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("At = %v, want %v", got, want)
	}
}

func TestDateOf(t *testing.T) {
	ts := time.Date(2024, 6, 15, 13, 45, 12, 999, time.UTC)
	got := DateOf(ts)
	want := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DateOf = %v, want %v", got, want)
	}
}

func TestLegDiff(t *testing.T) {
	l := Leg{Symbol: "ES", EntryPrice: 100.0, ExitPrice: 105.0}
	if l.Diff() != 5.0 {
		t.Errorf("Diff = %v, want 5.0", l.Diff())
	}
}

func TestPerformanceStatsSharpeDefined(t *testing.T) {
	s := PerformanceStats{Sharpe: 1.25}
	if !s.SharpeDefined() {
		t.Error("Sharpe 1.25 should be defined")
	}
	s.Sharpe = math.NaN()
	if s.SharpeDefined() {
		t.Error("NaN Sharpe should be undefined")
	}
}

func TestPositionConstants(t *testing.T) {
	if PositionLong != "long" {
		t.Errorf("PositionLong = %q, want %q", PositionLong, "long")
	}
	if PositionShort != "short" {
		t.Errorf("PositionShort = %q, want %q", PositionShort, "short")
	}
}
