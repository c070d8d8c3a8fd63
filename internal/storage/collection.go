package storage

import "github.com/yourname/moodlog/internal"

// Collection helpers shared by the backends that hold a user's entries as a
// single slice.

func prependEntry(entries []internal.HealthEntry, e internal.HealthEntry) []internal.HealthEntry {
	out := make([]internal.HealthEntry, 0, len(entries)+1)
	out = append(out, e)
	return append(out, entries...)
}

// locateEntry finds the index to update: exact id first, then the first
// record with the same date string.
func locateEntry(entries []internal.HealthEntry, e internal.HealthEntry) int {
	for i := range entries {
		if entries[i].ID == e.ID {
			return i
		}
	}
	if !matchesByDate(e) {
		return -1
	}
	for i := range entries {
		if entries[i].Date == e.Date {
			return i
		}
	}
	return -1
}

// matchesByDate reports whether an update that missed by id may fall back to
// the date. An empty date never matches, even rows stored without one.
func matchesByDate(e internal.HealthEntry) bool {
	return e.Date != ""
}

func mergeEntries(existing, incoming []internal.HealthEntry) []internal.HealthEntry {
	pos := make(map[string]int, len(existing))
	for i, e := range existing {
		if _, seen := pos[e.ID]; !seen {
			pos[e.ID] = i
		}
	}
	merged := append([]internal.HealthEntry(nil), existing...)
	for _, e := range incoming {
		if i, ok := pos[e.ID]; ok {
			merged[i] = e
			continue
		}
		pos[e.ID] = len(merged)
		merged = append(merged, e)
	}
	return merged
}
