package http

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

var (
	appStartedAtUnix = time.Now().Unix()
	inFlightRequests int64
	metricsMu        sync.Mutex
	httpSeries       = map[httpMetricKey]*httpMetricSeries{}
	sourceSeries     = map[sourceMetricKey]*sourceMetricSeries{}
	computeSeries    = map[computeMetricKey]*computeMetricSeries{}
	cacheSeries      = map[cacheMetricKey]*cacheMetricSeries{}
)

func metricsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		metricsMu.Lock()
		keys := make([]httpMetricKey, 0, len(httpSeries))
		for k := range httpSeries {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].Method != keys[j].Method {
				return keys[i].Method < keys[j].Method
			}
			if keys[i].Path != keys[j].Path {
				return keys[i].Path < keys[j].Path
			}
			return keys[i].Status < keys[j].Status
		})
		snapshot := make([]struct {
			Key    httpMetricKey
			Series httpMetricSeries
		}, 0, len(keys))
		for _, k := range keys {
			s := httpSeries[k]
			snapshot = append(snapshot, struct {
				Key    httpMetricKey
				Series httpMetricSeries
			}{Key: k, Series: *s})
		}

		srcKeys := make([]sourceMetricKey, 0, len(sourceSeries))
		for k := range sourceSeries {
			srcKeys = append(srcKeys, k)
		}
		sort.Slice(srcKeys, func(i, j int) bool {
			if srcKeys[i].Source != srcKeys[j].Source {
				return srcKeys[i].Source < srcKeys[j].Source
			}
			return srcKeys[i].Operation < srcKeys[j].Operation
		})
		srcSnapshot := make([]struct {
			Key    sourceMetricKey
			Series sourceMetricSeries
		}, 0, len(srcKeys))
		for _, k := range srcKeys {
			srcSnapshot = append(srcSnapshot, struct {
				Key    sourceMetricKey
				Series sourceMetricSeries
			}{k, *sourceSeries[k]})
		}

		compKeys := make([]computeMetricKey, 0, len(computeSeries))
		for k := range computeSeries {
			compKeys = append(compKeys, k)
		}
		sort.Slice(compKeys, func(i, j int) bool { return compKeys[i].View < compKeys[j].View })
		compSnapshot := make([]struct {
			Key    computeMetricKey
			Series computeMetricSeries
		}, 0, len(compKeys))
		for _, k := range compKeys {
			compSnapshot = append(compSnapshot, struct {
				Key    computeMetricKey
				Series computeMetricSeries
			}{k, *computeSeries[k]})
		}

		cacheKeys := make([]cacheMetricKey, 0, len(cacheSeries))
		for k := range cacheSeries {
			cacheKeys = append(cacheKeys, k)
		}
		sort.Slice(cacheKeys, func(i, j int) bool {
			if cacheKeys[i].View != cacheKeys[j].View {
				return cacheKeys[i].View < cacheKeys[j].View
			}
			return cacheKeys[i].Result < cacheKeys[j].Result
		})
		cacheSnapshot := make([]struct {
			Key    cacheMetricKey
			Series cacheMetricSeries
		}, 0, len(cacheKeys))
		for _, k := range cacheKeys {
			cacheSnapshot = append(cacheSnapshot, struct {
				Key    cacheMetricKey
				Series cacheMetricSeries
			}{k, *cacheSeries[k]})
		}
		metricsMu.Unlock()

		_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_http_requests_total Total HTTP requests handled by this app.")
		_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_http_requests_total counter")
		for _, it := range snapshot {
			_, _ = fmt.Fprintf(w, "oee_dashboard_http_requests_total{method=%q,path=%q,status=%q} %d\n",
				escapeLabel(it.Key.Method), escapeLabel(it.Key.Path), escapeLabel(it.Key.Status), it.Series.Count)
		}

		_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_http_request_duration_seconds_sum Total duration in seconds for observed requests.")
		_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_http_request_duration_seconds_sum counter")
		for _, it := range snapshot {
			_, _ = fmt.Fprintf(w, "oee_dashboard_http_request_duration_seconds_sum{method=%q,path=%q,status=%q} %.9f\n",
				escapeLabel(it.Key.Method), escapeLabel(it.Key.Path), escapeLabel(it.Key.Status), it.Series.DurationSecondsSum)
		}

		_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_http_request_duration_seconds_count Number of observed requests in duration series.")
		_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_http_request_duration_seconds_count counter")
		for _, it := range snapshot {
			_, _ = fmt.Fprintf(w, "oee_dashboard_http_request_duration_seconds_count{method=%q,path=%q,status=%q} %d\n",
				escapeLabel(it.Key.Method), escapeLabel(it.Key.Path), escapeLabel(it.Key.Status), it.Series.Count)
		}

		_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_http_in_flight_requests In-flight HTTP requests currently served by this app.")
		_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_http_in_flight_requests gauge")
		_, _ = fmt.Fprintf(w, "oee_dashboard_http_in_flight_requests %d\n", atomic.LoadInt64(&inFlightRequests))

		_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_source_load_duration_seconds_sum Raw-table load duration sum in seconds by source/operation.")
		_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_source_load_duration_seconds_sum counter")
		for _, it := range srcSnapshot {
			_, _ = fmt.Fprintf(w, "oee_dashboard_source_load_duration_seconds_sum{source=%q,operation=%q} %.9f\n",
				escapeLabel(it.Key.Source), escapeLabel(it.Key.Operation), it.Series.DurationSecondsSum)
		}
		_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_source_load_duration_seconds_count Raw-table load observation count by source/operation.")
		_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_source_load_duration_seconds_count counter")
		for _, it := range srcSnapshot {
			_, _ = fmt.Fprintf(w, "oee_dashboard_source_load_duration_seconds_count{source=%q,operation=%q} %d\n",
				escapeLabel(it.Key.Source), escapeLabel(it.Key.Operation), it.Series.Count)
		}
		_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_source_load_errors_total Raw-table load errors by source/operation.")
		_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_source_load_errors_total counter")
		for _, it := range srcSnapshot {
			_, _ = fmt.Fprintf(w, "oee_dashboard_source_load_errors_total{source=%q,operation=%q} %d\n",
				escapeLabel(it.Key.Source), escapeLabel(it.Key.Operation), it.Series.Errors)
		}

		_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_compute_duration_seconds_sum Derived-table computation duration sum in seconds by view.")
		_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_compute_duration_seconds_sum counter")
		for _, it := range compSnapshot {
			_, _ = fmt.Fprintf(w, "oee_dashboard_compute_duration_seconds_sum{view=%q} %.9f\n",
				escapeLabel(it.Key.View), it.Series.DurationSecondsSum)
		}
		_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_compute_duration_seconds_count Derived-table computation count by view.")
		_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_compute_duration_seconds_count counter")
		for _, it := range compSnapshot {
			_, _ = fmt.Fprintf(w, "oee_dashboard_compute_duration_seconds_count{view=%q} %d\n",
				escapeLabel(it.Key.View), it.Series.Count)
		}

		_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_cache_lookups_total Derived-payload cache lookups by view and result.")
		_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_cache_lookups_total counter")
		for _, it := range cacheSnapshot {
			_, _ = fmt.Fprintf(w, "oee_dashboard_cache_lookups_total{view=%q,result=%q} %d\n",
				escapeLabel(it.Key.View), escapeLabel(it.Key.Result), it.Series.Count)
		}

		uptime := time.Now().Unix() - appStartedAtUnix
		_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_uptime_seconds Process uptime in seconds.")
		_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_uptime_seconds gauge")
		_, _ = fmt.Fprintf(w, "oee_dashboard_uptime_seconds %d\n", uptime)

		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_runtime_goroutines Number of goroutines.")
		_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_runtime_goroutines gauge")
		_, _ = fmt.Fprintf(w, "oee_dashboard_runtime_goroutines %d\n", runtime.NumGoroutine())
		_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_runtime_memory_alloc_bytes Heap allocation bytes.")
		_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_runtime_memory_alloc_bytes gauge")
		_, _ = fmt.Fprintf(w, "oee_dashboard_runtime_memory_alloc_bytes %d\n", ms.Alloc)
		_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_runtime_gc_total Total GC runs since process start.")
		_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_runtime_gc_total counter")
		_, _ = fmt.Fprintf(w, "oee_dashboard_runtime_gc_total %d\n", ms.NumGC)

		if cpuSec, ok := processCPUSeconds(); ok {
			_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_runtime_cpu_seconds_total Total CPU time consumed by this process in seconds.")
			_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_runtime_cpu_seconds_total counter")
			_, _ = fmt.Fprintf(w, "oee_dashboard_runtime_cpu_seconds_total %.6f\n", cpuSec)
			if uptime > 0 {
				cpuPct := (cpuSec / float64(uptime)) * 100.0
				_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_runtime_cpu_percent Average CPU percent of one core since process start.")
				_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_runtime_cpu_percent gauge")
				_, _ = fmt.Fprintf(w, "oee_dashboard_runtime_cpu_percent %.6f\n", cpuPct)
			}
		}
		if io := processIOStats(); io != nil {
			_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_runtime_io_read_bytes_total Bytes read by this process from storage.")
			_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_runtime_io_read_bytes_total counter")
			_, _ = fmt.Fprintf(w, "oee_dashboard_runtime_io_read_bytes_total %d\n", io.ReadBytes)
			_, _ = fmt.Fprintln(w, "# HELP oee_dashboard_runtime_io_write_bytes_total Bytes written by this process to storage.")
			_, _ = fmt.Fprintln(w, "# TYPE oee_dashboard_runtime_io_write_bytes_total counter")
			_, _ = fmt.Fprintf(w, "oee_dashboard_runtime_io_write_bytes_total %d\n", io.WriteBytes)
		}
	})
}

func appMetricsSummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		type endpointRow struct {
			Method  string  `json:"method"`
			Path    string  `json:"path"`
			Status  string  `json:"status"`
			Count   uint64  `json:"count"`
			AvgMS   float64 `json:"avg_ms"`
			TotalMS float64 `json:"total_ms"`
		}
		type computeRow struct {
			View  string  `json:"view"`
			Count uint64  `json:"count"`
			AvgMS float64 `json:"avg_ms"`
		}

		metricsMu.Lock()
		httpRows := make([]endpointRow, 0, len(httpSeries))
		for k, s := range httpSeries {
			avg := 0.0
			if s.Count > 0 {
				avg = (s.DurationSecondsSum / float64(s.Count)) * 1000.0
			}
			httpRows = append(httpRows, endpointRow{
				Method:  k.Method,
				Path:    k.Path,
				Status:  k.Status,
				Count:   s.Count,
				AvgMS:   avg,
				TotalMS: s.DurationSecondsSum * 1000.0,
			})
		}

		computeRows := make([]computeRow, 0, len(computeSeries))
		for k, s := range computeSeries {
			avg := 0.0
			if s.Count > 0 {
				avg = (s.DurationSecondsSum / float64(s.Count)) * 1000.0
			}
			computeRows = append(computeRows, computeRow{View: k.View, Count: s.Count, AvgMS: avg})
		}

		var cacheHits, cacheMisses uint64
		for k, s := range cacheSeries {
			if k.Result == "hit" {
				cacheHits += s.Count
			} else {
				cacheMisses += s.Count
			}
		}

		var loadErrors uint64
		for _, s := range sourceSeries {
			loadErrors += s.Errors
		}
		metricsMu.Unlock()

		sort.Slice(httpRows, func(i, j int) bool { return httpRows[i].AvgMS > httpRows[j].AvgMS })
		sort.Slice(computeRows, func(i, j int) bool { return computeRows[i].AvgMS > computeRows[j].AvgMS })

		topHTTP := httpRows
		if len(topHTTP) > 5 {
			topHTTP = topHTTP[:5]
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"meta": map[string]any{
				"generated_at": time.Now().UTC(),
			},
			"data": map[string]any{
				"top_http_slowest_avg_ms": topHTTP,
				"compute_views":           computeRows,
				"cache": map[string]any{
					"hits":   cacheHits,
					"misses": cacheMisses,
				},
				"errors": map[string]any{
					"source_load_total": loadErrors,
				},
			},
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func observabilityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		atomic.AddInt64(&inFlightRequests, 1)
		defer atomic.AddInt64(&inFlightRequests, -1)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		sec := time.Since(start).Seconds()
		recordHTTPMetric(r.Method, r.URL.Path, rec.status, sec)
	})
}

type httpMetricKey struct {
	Method string
	Path   string
	Status string
}

type httpMetricSeries struct {
	Count              uint64
	DurationSecondsSum float64
}

type sourceMetricKey struct {
	Source    string
	Operation string
}

type sourceMetricSeries struct {
	Count              uint64
	Errors             uint64
	DurationSecondsSum float64
}

type computeMetricKey struct {
	View string
}

type computeMetricSeries struct {
	Count              uint64
	DurationSecondsSum float64
}

type cacheMetricKey struct {
	View   string
	Result string
}

type cacheMetricSeries struct {
	Count uint64
}

func recordHTTPMetric(method, path string, status int, durationSeconds float64) {
	key := httpMetricKey{
		Method: method,
		Path:   path,
		Status: fmt.Sprintf("%d", status),
	}
	metricsMu.Lock()
	defer metricsMu.Unlock()
	row, ok := httpSeries[key]
	if !ok {
		row = &httpMetricSeries{}
		httpSeries[key] = row
	}
	row.Count++
	row.DurationSecondsSum += durationSeconds
}

func recordSourceLoad(source, operation string, durationSeconds float64, err error) {
	if source == "" || operation == "" {
		return
	}
	key := sourceMetricKey{Source: source, Operation: operation}
	metricsMu.Lock()
	defer metricsMu.Unlock()
	row, ok := sourceSeries[key]
	if !ok {
		row = &sourceMetricSeries{}
		sourceSeries[key] = row
	}
	row.Count++
	row.DurationSecondsSum += durationSeconds
	if err != nil {
		row.Errors++
	}
}

func recordCompute(view string, durationSeconds float64) {
	if view == "" {
		return
	}
	key := computeMetricKey{View: view}
	metricsMu.Lock()
	defer metricsMu.Unlock()
	row, ok := computeSeries[key]
	if !ok {
		row = &computeMetricSeries{}
		computeSeries[key] = row
	}
	row.Count++
	row.DurationSecondsSum += durationSeconds
}

func recordCacheLookup(view string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	key := cacheMetricKey{View: view, Result: result}
	metricsMu.Lock()
	defer metricsMu.Unlock()
	row, ok := cacheSeries[key]
	if !ok {
		row = &cacheMetricSeries{}
		cacheSeries[key] = row
	}
	row.Count++
}

func escapeLabel(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, "\n", `\n`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return v
}

func processCPUSeconds() (float64, bool) {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return 0, false
	}
	user := float64(ru.Utime.Sec) + (float64(ru.Utime.Usec) / 1_000_000.0)
	sys := float64(ru.Stime.Sec) + (float64(ru.Stime.Usec) / 1_000_000.0)
	return user + sys, true
}

type ioStats struct {
	ReadBytes  uint64
	WriteBytes uint64
}

func processIOStats() *ioStats {
	b, err := os.ReadFile("/proc/self/io")
	if err != nil {
		return nil
	}
	out := &ioStats{}
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		v, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			continue
		}
		switch strings.TrimSpace(parts[0]) {
		case "read_bytes":
			out.ReadBytes = v
		case "write_bytes":
			out.WriteBytes = v
		}
	}
	return out
}
