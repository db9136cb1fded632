package dataset

import (
	"time"

	"github.com/google/uuid"

	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/analytics"
)

// Dataset is one immutable snapshot of the three raw tables. Aggregations
// never mutate it; a reload produces a fresh snapshot with a new ID.
type Dataset struct {
	SnapshotID string
	Source     string
	LoadedAt   time.Time

	Minutes  []analytics.MinuteRecord
	Downtime []analytics.DowntimeEvent
	SPC      []analytics.SPCSample

	machines []string
	shifts   []string
	firstDay string
	lastDay  string
}

// New wraps loaded raw tables into a snapshot, tagging it with a fresh ID
// and precomputing the distinct machine/shift sets and the observed day span.
func New(source string, minutes []analytics.MinuteRecord, downtime []analytics.DowntimeEvent, spc []analytics.SPCSample) *Dataset {
	d := &Dataset{
		SnapshotID: uuid.NewString(),
		Source:     source,
		LoadedAt:   time.Now().UTC(),
		Minutes:    minutes,
		Downtime:   downtime,
		SPC:        spc,
		machines:   analytics.DistinctMachines(minutes),
		shifts:     analytics.DistinctShifts(minutes),
	}
	for _, r := range minutes {
		if d.firstDay == "" || r.Day < d.firstDay {
			d.firstDay = r.Day
		}
		if r.Day > d.lastDay {
			d.lastDay = r.Day
		}
	}
	return d
}

// Machines returns the distinct machines observed in the minute log, sorted.
func (d *Dataset) Machines() []string { return d.machines }

// Shifts returns the distinct shifts observed in the minute log, sorted.
func (d *Dataset) Shifts() []string { return d.shifts }

// DaySpan returns the first and last calendar days in the minute log.
// Both are empty when the log is empty.
func (d *Dataset) DaySpan() (first, last string) { return d.firstDay, d.lastDay }
