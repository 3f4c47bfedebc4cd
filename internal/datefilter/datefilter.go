// Package datefilter selects the calendar dates that enter a backtest. The
// selection is a union of three kinds of filter label: the "daily" sentinel
// (every candidate date), weekday names (candidates falling on that weekday),
// and named event lists loaded from an external directory.
package datefilter

import (
	"sort"
	"time"
)

// Daily is the filter label selecting every candidate date.
const Daily = "daily"

// weekdayIndex maps the offered weekday labels to time.Weekday. Saturday and
// Sunday are not offered.
var weekdayIndex = map[string]time.Weekday{
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
}

// Weekdays returns the offered weekday labels in week order.
func Weekdays() []string {
	return []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
}

// Engine computes filtered date sets against an event calendar. When
// restrictEvents is set, event-sourced dates are intersected with the
// candidate universe; by default they are unioned in as-is, since event dates
// need not be among a dataset's observed trading dates.
type Engine struct {
	events         *EventCalendar
	restrictEvents bool
}

// NewEngine creates an Engine over the given event calendar.
func NewEngine(events *EventCalendar, restrictEvents bool) *Engine {
	if events == nil {
		events = NewEventCalendar()
	}
	return &Engine{events: events, restrictEvents: restrictEvents}
}

// Events exposes the engine's event calendar.
func (e *Engine) Events() *EventCalendar { return e.events }

// Labels returns every filter label this engine can resolve: the daily
// sentinel, the weekdays, and the loaded event list names.
func (e *Engine) Labels() []string {
	labels := append([]string{Daily}, Weekdays()...)
	return append(labels, e.events.Names()...)
}

// Compute returns the union of the dates selected by each filter label,
// deduplicated and sorted ascending. Labels that resolve to nothing (unknown
// event names) contribute no dates. With no filters the result is empty.
func (e *Engine) Compute(candidates []time.Time, filters []string) []time.Time {
	selected := make(map[int64]time.Time)

	for _, label := range filters {
		switch {
		case label == Daily:
			for _, d := range candidates {
				selected[d.Unix()] = d
			}
		default:
			if wd, ok := weekdayIndex[label]; ok {
				for _, d := range candidates {
					if d.Weekday() == wd {
						selected[d.Unix()] = d
					}
				}
				continue
			}
			e.addEventDates(selected, candidates, label)
		}
	}

	out := make([]time.Time, 0, len(selected))
	for _, d := range selected {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func (e *Engine) addEventDates(selected map[int64]time.Time, candidates []time.Time, name string) {
	dates := e.events.Dates(name)
	if len(dates) == 0 {
		return
	}
	if !e.restrictEvents {
		for _, d := range dates {
			selected[d.Unix()] = d
		}
		return
	}
	universe := make(map[int64]struct{}, len(candidates))
	for _, d := range candidates {
		universe[d.Unix()] = struct{}{}
	}
	for _, d := range dates {
		if _, ok := universe[d.Unix()]; ok {
			selected[d.Unix()] = d
		}
	}
}
