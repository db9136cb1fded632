package http

import (
	"fmt"
	nethttp "net/http"
	"strings"
	"time"

	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/analytics"
	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/cache"
	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/dataset"
)

const dayLayout = "2006-01-02"

// parseFilter builds the machine/shift/date selection from query params.
// An absent machine defaults to the first observed machine; an absent
// shifts param selects every shift while shifts= (present but empty)
// selects none. Dates are inclusive YYYY-MM-DD bounds.
func parseFilter(r *nethttp.Request, ds *dataset.Dataset) (analytics.Filter, error) {
	q := r.URL.Query()

	flt := analytics.Filter{Machine: strings.TrimSpace(q.Get("machine"))}
	machines := ds.Machines()
	if flt.Machine == "" && len(machines) > 0 {
		flt.Machine = machines[0]
	}

	if q.Has("shifts") {
		shifts := []string{}
		for _, tok := range strings.Split(q.Get("shifts"), ",") {
			tok = strings.TrimSpace(tok)
			if tok != "" {
				shifts = append(shifts, tok)
			}
		}
		flt.Shifts = shifts
	}

	var err error
	if flt.From, err = parseDay(q.Get("from")); err != nil {
		return flt, err
	}
	if flt.To, err = parseDay(q.Get("to")); err != nil {
		return flt, err
	}

	if flt.Machine == "" && len(machines) == 0 {
		// Empty minute log: serve empty results rather than rejecting.
		if !flt.From.IsZero() && !flt.To.IsZero() && flt.From.After(flt.To) {
			return flt, fmt.Errorf("invalid date range: start %s is after end %s",
				flt.From.Format(dayLayout), flt.To.Format(dayLayout))
		}
		return flt, nil
	}

	if err := flt.Validate(machines); err != nil {
		return flt, err
	}
	return flt, nil
}

func parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dayLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

// cacheKey identifies one derived payload: the view, the snapshot it was
// computed from, and the exact filter selection. A nil shift selection and
// an empty one must not collide.
func cacheKey(view, snapshotID string, flt analytics.Filter) string {
	shifts := "*"
	if flt.Shifts != nil {
		shifts = strings.Join(flt.Shifts, ",")
	}
	from, to := "", ""
	if !flt.From.IsZero() {
		from = flt.From.Format(dayLayout)
	}
	if !flt.To.IsZero() {
		to = flt.To.Format(dayLayout)
	}
	return strings.Join([]string{view, snapshotID, flt.Machine, shifts, from, to}, "|")
}

func filterMeta(ds *dataset.Dataset, flt analytics.Filter, count int) map[string]any {
	meta := map[string]any{
		"snapshot_id": ds.SnapshotID,
		"machine":     flt.Machine,
		"count":       count,
	}
	if flt.Shifts != nil {
		meta["shifts"] = flt.Shifts
	} else {
		meta["shifts"] = "all"
	}
	if !flt.From.IsZero() {
		meta["from"] = flt.From.Format(dayLayout)
	}
	if !flt.To.IsZero() {
		meta["to"] = flt.To.Format(dayLayout)
	}
	return meta
}

func metaHandler(store *dataset.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "dataset not loaded",
			})
			return
		}

		ds := store.Current()
		firstDay, lastDay := ds.DaySpan()
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"snapshot_id": ds.SnapshotID,
				"source":      ds.Source,
				"loaded_at":   ds.LoadedAt,
			},
			"data": map[string]any{
				"machines":        ds.Machines(),
				"shifts":          ds.Shifts(),
				"first_day":       firstDay,
				"last_day":        lastDay,
				"minute_records":  len(ds.Minutes),
				"downtime_events": len(ds.Downtime),
				"spc_samples":     len(ds.SPC),
			},
		})
	}
}

func dailyOEEHandler(store *dataset.Store, c *cache.Cache, idealRate float64) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "dataset not loaded",
			})
			return
		}

		ds := store.Current()
		flt, err := parseFilter(r, ds)
		if err != nil {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}

		key := cacheKey("oee_daily", ds.SnapshotID, flt)
		var rows []analytics.DailyOEE
		hit := c.Get(r.Context(), key, &rows)
		recordCacheLookup("oee_daily", hit)
		if !hit {
			start := time.Now()
			rows = analytics.DailyOEEBreakdown(flt.Apply(ds.Minutes), idealRate)
			recordCompute("oee_daily", time.Since(start).Seconds())
			_ = c.Set(r.Context(), key, rows, 0)
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": filterMeta(ds, flt, len(rows)),
			"data": rows,
		})
	}
}

func kpisHandler(store *dataset.Store, c *cache.Cache, idealRate float64, thresholds analytics.KPIThresholds) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "dataset not loaded",
			})
			return
		}

		ds := store.Current()
		flt, err := parseFilter(r, ds)
		if err != nil {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}

		key := cacheKey("oee_kpis", ds.SnapshotID, flt)
		var summary analytics.KPISummary
		hit := c.Get(r.Context(), key, &summary)
		recordCacheLookup("oee_kpis", hit)
		if !hit {
			start := time.Now()
			rows := analytics.DailyOEEBreakdown(flt.Apply(ds.Minutes), idealRate)
			summary = analytics.SummarizeKPIs(rows, thresholds)
			recordCompute("oee_kpis", time.Since(start).Seconds())
			_ = c.Set(r.Context(), key, summary, 0)
		}

		meta := filterMeta(ds, flt, summary.Days)
		meta["ideal_rate"] = idealRate
		meta["thresholds"] = thresholds
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": meta,
			"data": summary,
		})
	}
}

func paretoHandler(store *dataset.Store, c *cache.Cache) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "dataset not loaded",
			})
			return
		}

		ds := store.Current()
		flt, err := parseFilter(r, ds)
		if err != nil {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}

		// The downtime log carries no shift or date columns, so only the
		// machine part of the selection applies here.
		key := cacheKey("downtime_pareto", ds.SnapshotID, analytics.Filter{Machine: flt.Machine})
		var rows []analytics.ParetoRow
		hit := c.Get(r.Context(), key, &rows)
		recordCacheLookup("downtime_pareto", hit)
		if !hit {
			start := time.Now()
			rows = analytics.DowntimePareto(ds.Downtime, flt.Machine)
			recordCompute("downtime_pareto", time.Since(start).Seconds())
			_ = c.Set(r.Context(), key, rows, 0)
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"snapshot_id":         ds.SnapshotID,
				"machine":             flt.Machine,
				"count":               len(rows),
				"vital_few_threshold": analytics.VitalFewThreshold,
			},
			"data": rows,
		})
	}
}

func spcSummaryHandler(store *dataset.Store, c *cache.Cache) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "dataset not loaded",
			})
			return
		}

		ds := store.Current()
		flt, err := parseFilter(r, ds)
		if err != nil {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}

		key := cacheKey("spc_summary", ds.SnapshotID, analytics.Filter{Machine: flt.Machine})
		var summary analytics.SPCSummary
		hit := c.Get(r.Context(), key, &summary)
		recordCacheLookup("spc_summary", hit)
		if !hit {
			start := time.Now()
			summary = analytics.SummarizeSPC(ds.SPC, flt.Machine)
			recordCompute("spc_summary", time.Since(start).Seconds())
			_ = c.Set(r.Context(), key, summary, 0)
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"snapshot_id": ds.SnapshotID,
				"machine":     flt.Machine,
			},
			"data": map[string]any{
				"summary":        summary,
				"process_status": analytics.ProcessStatusLabel,
			},
		})
	}
}

func insightsHandler(store *dataset.Store, idealRate float64, thresholds analytics.KPIThresholds) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "dataset not loaded",
			})
			return
		}

		ds := store.Current()
		flt, err := parseFilter(r, ds)
		if err != nil {
			writeJSON(w, nethttp.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}

		start := time.Now()
		rows := analytics.DailyOEEBreakdown(flt.Apply(ds.Minutes), idealRate)
		kpis := analytics.SummarizeKPIs(rows, thresholds)
		pareto := analytics.DowntimePareto(ds.Downtime, flt.Machine)
		recordCompute("insights", time.Since(start).Seconds())

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": filterMeta(ds, flt, kpis.Days),
			"data": map[string]any{
				"kpis":           kpis,
				"insights":       buildInsights(flt.Machine, kpis, pareto, thresholds),
				"process_status": analytics.ProcessStatusLabel,
			},
		})
	}
}

func buildInsights(machine string, kpis analytics.KPISummary, pareto []analytics.ParetoRow, thresholds analytics.KPIThresholds) []string {
	if kpis.Days == 0 {
		return []string{"No production minutes match the current selection."}
	}

	out := make([]string, 0, 4)

	if kpis.AvgOEE != nil {
		switch kpis.OEEStatus {
		case analytics.StatusGood:
			out = append(out, fmt.Sprintf("Average OEE for %s is %.1f%%, at or above the %.0f%% target. Hold current practices.",
				machine, *kpis.AvgOEE*100, thresholds.Good*100))
		case analytics.StatusWarning:
			out = append(out, fmt.Sprintf("Average OEE for %s is %.1f%%, below the %.0f%% target. Review the loss breakdown below.",
				machine, *kpis.AvgOEE*100, thresholds.Good*100))
		default:
			out = append(out, fmt.Sprintf("Average OEE for %s is %.1f%%, well below the %.0f%% target. Escalate a structured loss analysis.",
				machine, *kpis.AvgOEE*100, thresholds.Good*100))
		}
	} else {
		out = append(out, fmt.Sprintf("OEE for %s is undefined over the selected period; every day lacks running minutes or produced units.", machine))
	}

	if pillar, value := weakestPillar(kpis); pillar != "" {
		out = append(out, fmt.Sprintf("%s is the weakest OEE pillar at %.1f%%; improvement effort pays off most there.", pillar, value*100))
	}

	if len(pareto) > 0 {
		vital := 0
		for _, row := range pareto {
			vital++
			if row.CumPct != nil && *row.CumPct >= analytics.VitalFewThreshold {
				break
			}
		}
		out = append(out, fmt.Sprintf("Top downtime cause for %s is %q (%.0f min). The first %d cause(s) cover the 80%% line; start countermeasures there.",
			machine, pareto[0].Cause, pareto[0].Minutes, vital))
	}

	return out
}

func weakestPillar(kpis analytics.KPISummary) (string, float64) {
	name, value := "", 0.0
	consider := func(n string, v *float64) {
		if v == nil {
			return
		}
		if name == "" || *v < value {
			name, value = n, *v
		}
	}
	consider("Availability", kpis.AvgAvailability)
	consider("Performance", kpis.AvgPerformance)
	consider("Quality", kpis.AvgQuality)
	return name, value
}

func reloadDatasetHandler(store *dataset.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method != nethttp.MethodPost {
			w.Header().Set("Allow", nethttp.MethodPost)
			writeJSON(w, nethttp.StatusMethodNotAllowed, map[string]any{
				"error": "method not allowed, use POST",
			})
			return
		}
		if store == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"error": "dataset not loaded",
			})
			return
		}

		start := time.Now()
		res, err := store.Reload(r.Context())
		recordSourceLoad(store.Source(), "Reload", time.Since(start).Seconds(), err)
		if err != nil {
			writeJSON(w, nethttp.StatusBadGateway, map[string]any{
				"error": "dataset reload failed, previous snapshot kept",
			})
			return
		}

		writeJSON(w, nethttp.StatusOK, map[string]any{
			"meta": map[string]any{
				"reloaded_at": time.Now().UTC(),
				"took_ms":     time.Since(start).Milliseconds(),
			},
			"data": res,
		})
	}
}
