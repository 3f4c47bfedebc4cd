package datefilter

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"timeslice/internal/domain"
)

// eventDateLayouts are the accepted formats for one line of an event file.
var eventDateLayouts = []string{"2006-01-02", "2006/01/02", "01/02/2006"}

// EventCalendar holds named date lists loaded from plain-text files. Lists
// are loaded once at startup and read-only afterwards.
type EventCalendar struct {
	lists map[string][]time.Time
}

// NewEventCalendar creates an empty calendar.
func NewEventCalendar() *EventCalendar {
	return &EventCalendar{lists: make(map[string][]time.Time)}
}

// LoadEventDir reads every *.txt file in dir into a named date list keyed by
// the file's stem. Each line holds one date; blank and unparseable lines are
// skipped. A missing directory yields an empty calendar, not an error.
func LoadEventDir(dir string) (*EventCalendar, error) {
	cal := NewEventCalendar()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return cal, nil
		}
		return nil, err
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".txt")
		dates, err := readEventFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		cal.lists[name] = dates
	}
	return cal, nil
}

func readEventFile(path string) ([]time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var dates []time.Time
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		for _, layout := range eventDateLayouts {
			if d, err := time.ParseInLocation(layout, line, time.UTC); err == nil {
				dates = append(dates, domain.DateOf(d))
				break
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return dates, nil
}

// Names returns the loaded list names, sorted.
func (c *EventCalendar) Names() []string {
	names := make([]string, 0, len(c.lists))
	for name := range c.lists {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dates returns the dates in the named list. Unknown names yield nil.
func (c *EventCalendar) Dates(name string) []time.Time {
	return c.lists[name]
}
