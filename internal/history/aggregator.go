// Package history shapes a user's stored entries into the list, calendar and
// chart views. It never fails: entries whose date cannot be read are logged
// and left out.
package history

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yourname/moodlog/internal"
)

const dayLayout = "2006-01-02"

type Day struct {
	Date    string                 `json:"date"`
	Entries []internal.HealthEntry `json:"entries"`
}

type CalendarDay struct {
	Date  string               `json:"date"`
	Entry internal.HealthEntry `json:"entry"`
}

type ChartPoint struct {
	Date         string               `json:"date"`
	Label        string               `json:"label"`
	Value        int                  `json:"value"`
	EntryIndex   int                  `json:"entryIndex"`
	TotalEntries int                  `json:"totalEntries"`
	Entry        internal.HealthEntry `json:"entry"`
}

type Aggregator struct {
	loc    *time.Location
	logger internal.Logger
}

type Option func(*Aggregator)

// WithLocation groups by the calendar day in loc. Without it an entry belongs
// to the day it was recorded on, in its own offset.
func WithLocation(loc *time.Location) Option {
	return func(a *Aggregator) { a.loc = loc }
}

func New(logger internal.Logger, opts ...Option) *Aggregator {
	a := &Aggregator{logger: logger}
	for _, o := range opts {
		o(a)
	}
	return a
}

type dated struct {
	entry internal.HealthEntry
	at    time.Time
	day   string
}

// prepare parses dates, drops the unreadable ones and applies the month
// filter. Stored order is preserved.
func (a *Aggregator) prepare(entries []internal.HealthEntry, month string) []dated {
	out := make([]dated, 0, len(entries))
	for _, e := range entries {
		t, err := internal.ParseTimestamp(e.Date)
		if err != nil {
			a.logger.Warnf("history: skipping entry %q with malformed date %q", e.ID, e.Date)
			continue
		}
		if a.loc != nil {
			t = t.In(a.loc)
		}
		d := dated{entry: e, at: t, day: t.Format(dayLayout)}
		if month != "" && !strings.HasPrefix(d.day, month) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// group buckets entries by day key, days ascending and entries ascending by
// time within each day.
func group(items []dated) [][]dated {
	byDay := map[string][]dated{}
	var keys []string
	for _, it := range items {
		if _, ok := byDay[it.day]; !ok {
			keys = append(keys, it.day)
		}
		byDay[it.day] = append(byDay[it.day], it)
	}
	sort.Strings(keys)

	out := make([][]dated, 0, len(keys))
	for _, k := range keys {
		day := byDay[k]
		sort.SliceStable(day, func(i, j int) bool { return day[i].at.Before(day[j].at) })
		out = append(out, day)
	}
	return out
}

func toDay(items []dated) Day {
	d := Day{Date: items[0].day, Entries: make([]internal.HealthEntry, len(items))}
	for i, it := range items {
		d.Entries[i] = it.entry
	}
	return d
}

// GroupByDay returns the month's days oldest first. An empty month means all.
func (a *Aggregator) GroupByDay(entries []internal.HealthEntry, month string) []Day {
	groups := group(a.prepare(entries, month))
	days := make([]Day, 0, len(groups))
	for _, g := range groups {
		days = append(days, toDay(g))
	}
	return days
}

// List is GroupByDay with the newest day first.
func (a *Aggregator) List(entries []internal.HealthEntry, month string) []Day {
	days := a.GroupByDay(entries, month)
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}
	return days
}

// Calendar keeps one entry per day: the latest by time, the first stored on a tie.
func (a *Aggregator) Calendar(entries []internal.HealthEntry, month string) []CalendarDay {
	latest := map[string]dated{}
	var keys []string
	for _, it := range a.prepare(entries, month) {
		cur, ok := latest[it.day]
		if !ok {
			keys = append(keys, it.day)
		}
		if !ok || it.at.After(cur.at) {
			latest[it.day] = it
		}
	}
	sort.Strings(keys)

	out := make([]CalendarDay, 0, len(keys))
	for _, k := range keys {
		out = append(out, CalendarDay{Date: k, Entry: latest[k].entry})
	}
	return out
}

// Chart returns every entry of the month oldest first with its rating. Days
// holding more than one entry number their labels: "4月1日 (1)", "4月1日 (2)".
func (a *Aggregator) Chart(entries []internal.HealthEntry, month string) []ChartPoint {
	type point struct {
		ChartPoint
		at time.Time
	}
	var points []point
	for _, day := range group(a.prepare(entries, month)) {
		base := dayLabel(day[0].at)
		for i, it := range day {
			label := base
			if len(day) > 1 {
				label = fmt.Sprintf("%s (%d)", base, i+1)
			}
			points = append(points, point{
				ChartPoint: ChartPoint{
					Date:         it.entry.Date,
					Label:        label,
					Value:        it.entry.EffectiveRating(),
					EntryIndex:   i + 1,
					TotalEntries: len(day),
					Entry:        it.entry,
				},
				at: it.at,
			})
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].at.Before(points[j].at) })

	out := make([]ChartPoint, len(points))
	for i, p := range points {
		out[i] = p.ChartPoint
	}
	return out
}

func dayLabel(t time.Time) string {
	return fmt.Sprintf("%d月%d日", int(t.Month()), t.Day())
}
