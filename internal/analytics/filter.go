package analytics

import (
	"fmt"
	"sort"
	"time"
)

// Filter is the active machine/shift/date selection applied to the minute
// log before aggregation. A nil Shifts slice selects every shift; an empty
// non-nil slice selects none (an empty result, not an error). Zero From/To
// leave the corresponding side of the date range unbounded.
type Filter struct {
	Machine string
	Shifts  []string
	From    time.Time
	To      time.Time
}

// Validate checks the selection against the observed machine set and
// rejects an inverted date range. Aggregators assume a validated filter.
func (f Filter) Validate(machines []string) error {
	if f.Machine == "" {
		return fmt.Errorf("machine is required")
	}
	found := false
	for _, m := range machines {
		if m == f.Machine {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown machine: %s", f.Machine)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return fmt.Errorf("invalid date range: start %s is after end %s",
			f.From.Format("2006-01-02"), f.To.Format("2006-01-02"))
	}
	return nil
}

// Match reports whether a minute record falls inside the selection.
func (f Filter) Match(rec MinuteRecord) bool {
	if rec.Machine != f.Machine {
		return false
	}
	if f.Shifts != nil {
		ok := false
		for _, s := range f.Shifts {
			if s == rec.Shift {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if !f.From.IsZero() && rec.Day < f.From.Format("2006-01-02") {
		return false
	}
	if !f.To.IsZero() && rec.Day > f.To.Format("2006-01-02") {
		return false
	}
	return true
}

// Apply returns the records matching the selection, in input order.
func (f Filter) Apply(recs []MinuteRecord) []MinuteRecord {
	out := make([]MinuteRecord, 0, len(recs))
	for _, r := range recs {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// DistinctMachines returns the sorted set of machines seen in the minute log.
func DistinctMachines(recs []MinuteRecord) []string {
	return distinct(recs, func(r MinuteRecord) string { return r.Machine })
}

// DistinctShifts returns the sorted set of shifts seen in the minute log.
func DistinctShifts(recs []MinuteRecord) []string {
	return distinct(recs, func(r MinuteRecord) string { return r.Shift })
}

func distinct(recs []MinuteRecord, key func(MinuteRecord) string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 8)
	for _, r := range recs {
		k := key(r)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
