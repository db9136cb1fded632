package analytics

import "sort"

// VitalFewThreshold is the fixed 80% reference line drawn on the Pareto
// chart. It is an annotation, not a computed value.
const VitalFewThreshold = 0.80

// DowntimePareto ranks a machine's downtime causes by total minutes and
// attaches each row's cumulative share of the machine total. Ties keep
// first-seen cause order. When total minutes is zero every share is nil;
// the caller renders that as undefined, never as a silent division.
func DowntimePareto(events []DowntimeEvent, machine string) []ParetoRow {
	totals := map[string]float64{}
	order := make([]string, 0, 8)
	for _, e := range events {
		if e.Machine != machine {
			continue
		}
		if _, ok := totals[e.Cause]; !ok {
			order = append(order, e.Cause)
		}
		totals[e.Cause] += e.Minutes
	}

	rows := make([]ParetoRow, 0, len(order))
	var total float64
	for _, cause := range order {
		rows = append(rows, ParetoRow{Cause: cause, Minutes: totals[cause]})
		total += totals[cause]
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Minutes > rows[j].Minutes })

	if total > 0 {
		var cum float64
		for i := range rows {
			cum += rows[i].Minutes
			pct := cum / total
			rows[i].CumPct = &pct
		}
	}
	return rows
}
