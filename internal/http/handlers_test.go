package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/analytics"
	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/cache"
	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/dataset"
)

type stubLoader struct {
	minutes  []analytics.MinuteRecord
	downtime []analytics.DowntimeEvent
	spc      []analytics.SPCSample
	loads    int
}

func (l *stubLoader) Load(_ context.Context) (*dataset.Dataset, error) {
	l.loads++
	return dataset.New("stub", l.minutes, l.downtime, l.spc), nil
}

func (l *stubLoader) Describe() string { return "stub" }

func testMinutes() []analytics.MinuteRecord {
	recs := make([]analytics.MinuteRecord, 0, 16)
	add := func(day, machine, shift string, running bool, units, good int64) {
		ts, _ := time.Parse("2006-01-02", day)
		recs = append(recs, analytics.MinuteRecord{
			Timestamp: ts,
			Machine:   machine,
			Shift:     shift,
			Day:       day,
			IsRunning: running,
			Units:     units,
			GoodUnits: good,
		})
	}
	// CNC-1, 2024-03-01: 3 planned minutes, 2 running, 10 units, 9 good.
	add("2024-03-01", "CNC-1", "Morning", true, 6, 5)
	add("2024-03-01", "CNC-1", "Morning", true, 4, 4)
	add("2024-03-01", "CNC-1", "Night", false, 0, 0)
	// CNC-1, 2024-03-02: fully stopped day.
	add("2024-03-02", "CNC-1", "Morning", false, 0, 0)
	// Lathe-2 data should never leak into CNC-1 selections.
	add("2024-03-01", "Lathe-2", "Morning", true, 6, 6)
	return recs
}

func testStore(t *testing.T, loader *stubLoader) *dataset.Store {
	t.Helper()
	store, err := dataset.NewStore(context.Background(), loader, nil)
	if err != nil {
		t.Fatalf("failed to build store: %v", err)
	}
	return store
}

func testCache() *cache.Cache {
	return cache.New(cache.Config{DefaultTTL: time.Minute})
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return payload
}

func TestDailyOEEHandler_StoreUnavailable(t *testing.T) {
	h := dailyOEEHandler(nil, testCache(), analytics.DefaultIdealRate)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/oee/daily?machine=CNC-1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
	if decodeBody(t, rr)["error"] == nil {
		t.Fatalf("expected error field in response")
	}
}

func TestDailyOEEHandler_ComputesBreakdown(t *testing.T) {
	store := testStore(t, &stubLoader{minutes: testMinutes()})
	h := dailyOEEHandler(store, testCache(), analytics.DefaultIdealRate)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/oee/daily?machine=CNC-1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	payload := decodeBody(t, rr)
	rows := payload["data"].([]any)
	if len(rows) != 2 {
		t.Fatalf("expected 2 daily rows, got %d", len(rows))
	}

	first := rows[0].(map[string]any)
	if first["day"] != "2024-03-01" {
		t.Fatalf("expected first day 2024-03-01, got %v", first["day"])
	}
	// 2 running of 3 planned minutes.
	if got := first["availability"].(float64); got < 0.666 || got > 0.667 {
		t.Fatalf("expected availability ~0.6667, got %v", got)
	}
	// 9 good of 10 units.
	if got := first["quality"].(float64); got != 0.9 {
		t.Fatalf("expected quality 0.9, got %v", got)
	}

	second := rows[1].(map[string]any)
	if second["availability"].(float64) != 0 {
		t.Fatalf("expected zero availability on stopped day, got %v", second["availability"])
	}
	if second["performance"] != nil || second["oee"] != nil {
		t.Fatalf("expected null performance and oee on stopped day, got %v / %v",
			second["performance"], second["oee"])
	}
}

func TestDailyOEEHandler_DefaultsToFirstMachine(t *testing.T) {
	store := testStore(t, &stubLoader{minutes: testMinutes()})
	h := dailyOEEHandler(store, testCache(), analytics.DefaultIdealRate)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/oee/daily", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	meta := decodeBody(t, rr)["meta"].(map[string]any)
	if meta["machine"] != "CNC-1" {
		t.Fatalf("expected default machine CNC-1, got %v", meta["machine"])
	}
}

func TestDailyOEEHandler_EmptyShiftSelection(t *testing.T) {
	store := testStore(t, &stubLoader{minutes: testMinutes()})
	h := dailyOEEHandler(store, testCache(), analytics.DefaultIdealRate)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/oee/daily?machine=CNC-1&shifts=", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	rows := decodeBody(t, rr)["data"].([]any)
	if len(rows) != 0 {
		t.Fatalf("expected empty result for empty shift selection, got %d rows", len(rows))
	}
}

func TestDailyOEEHandler_BadRequests(t *testing.T) {
	store := testStore(t, &stubLoader{minutes: testMinutes()})
	h := dailyOEEHandler(store, testCache(), analytics.DefaultIdealRate)

	cases := []struct {
		name string
		url  string
	}{
		{"unknown machine", "/api/v1/oee/daily?machine=Press-9"},
		{"bad from date", "/api/v1/oee/daily?machine=CNC-1&from=03/01/2024"},
		{"inverted range", "/api/v1/oee/daily?machine=CNC-1&from=2024-03-05&to=2024-03-01"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, tc.url, nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", tc.name, http.StatusBadRequest, rr.Code)
		}
		if decodeBody(t, rr)["error"] == nil {
			t.Fatalf("%s: expected error field in response", tc.name)
		}
	}
}

func TestKPIsHandler_StatusClassification(t *testing.T) {
	store := testStore(t, &stubLoader{minutes: testMinutes()})
	h := kpisHandler(store, testCache(), analytics.DefaultIdealRate, analytics.DefaultKPIThresholds())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/oee/kpis?machine=CNC-1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	data := decodeBody(t, rr)["data"].(map[string]any)
	if data["days"].(float64) != 2 {
		t.Fatalf("expected 2 days, got %v", data["days"])
	}
	// Mean availability (0.6667+0)/2 is critical against the 0.75 cutoff.
	if data["availability_status"] != analytics.StatusCritical {
		t.Fatalf("expected availability status %q, got %v", analytics.StatusCritical, data["availability_status"])
	}
	// Quality 0.9 on the one defined day classifies as good.
	if data["quality_status"] != analytics.StatusGood {
		t.Fatalf("expected quality status %q, got %v", analytics.StatusGood, data["quality_status"])
	}
	if data["undefined_oee_days"].(float64) != 1 {
		t.Fatalf("expected 1 undefined oee day, got %v", data["undefined_oee_days"])
	}
}

func TestKPIsHandler_ServesFromCache(t *testing.T) {
	store := testStore(t, &stubLoader{minutes: testMinutes()})
	c := testCache()
	h := kpisHandler(store, c, analytics.DefaultIdealRate, analytics.DefaultKPIThresholds())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/oee/kpis?machine=CNC-1", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: expected status %d, got %d", i, http.StatusOK, rr.Code)
		}
	}

	ds := store.Current()
	key := cacheKey("oee_kpis", ds.SnapshotID, analytics.Filter{Machine: "CNC-1"})
	var cached analytics.KPISummary
	if !c.Get(context.Background(), key, &cached) {
		t.Fatalf("expected kpi summary cached under %q", key)
	}
	if cached.Days != 2 {
		t.Fatalf("expected cached summary with 2 days, got %d", cached.Days)
	}
}

func TestParetoHandler_RankedRows(t *testing.T) {
	loader := &stubLoader{
		minutes: testMinutes(),
		downtime: []analytics.DowntimeEvent{
			{Machine: "CNC-1", Cause: "Tool Change", Minutes: 30},
			{Machine: "CNC-1", Cause: "Mechanical Failure", Minutes: 120},
			{Machine: "CNC-1", Cause: "Material Shortage", Minutes: 50},
			{Machine: "Lathe-2", Cause: "Mechanical Failure", Minutes: 999},
		},
	}
	store := testStore(t, loader)
	h := paretoHandler(store, testCache())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/downtime/pareto?machine=CNC-1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	rows := decodeBody(t, rr)["data"].([]any)
	if len(rows) != 3 {
		t.Fatalf("expected 3 causes, got %d", len(rows))
	}
	top := rows[0].(map[string]any)
	if top["cause"] != "Mechanical Failure" || top["minutes"].(float64) != 120 {
		t.Fatalf("expected Mechanical Failure with 120 minutes first, got %v", top)
	}
	last := rows[2].(map[string]any)
	if got := last["cum_pct"].(float64); got != 1.0 {
		t.Fatalf("expected final cumulative share 1.0, got %v", got)
	}
}

func TestSPCSummaryHandler(t *testing.T) {
	loader := &stubLoader{
		minutes: testMinutes(),
		spc: []analytics.SPCSample{
			{Machine: "CNC-1", Xbar: 10.0, R: 0.4},
			{Machine: "CNC-1", Xbar: 10.2, R: 0.6},
			{Machine: "Lathe-2", Xbar: 99.0, R: 9.0},
		},
	}
	store := testStore(t, loader)
	h := spcSummaryHandler(store, testCache())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/spc/summary?machine=CNC-1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	data := decodeBody(t, rr)["data"].(map[string]any)
	summary := data["summary"].(map[string]any)
	if summary["sample_count"].(float64) != 2 {
		t.Fatalf("expected 2 samples, got %v", summary["sample_count"])
	}
	if got := summary["avg_xbar"].(float64); got < 10.09 || got > 10.11 {
		t.Fatalf("expected avg xbar ~10.1, got %v", got)
	}
	if data["process_status"] != analytics.ProcessStatusLabel {
		t.Fatalf("expected process status %q, got %v", analytics.ProcessStatusLabel, data["process_status"])
	}
}

func TestInsightsHandler_NamesTopDowntimeCause(t *testing.T) {
	loader := &stubLoader{
		minutes: testMinutes(),
		downtime: []analytics.DowntimeEvent{
			{Machine: "CNC-1", Cause: "Mechanical Failure", Minutes: 120},
			{Machine: "CNC-1", Cause: "Tool Change", Minutes: 20},
		},
	}
	store := testStore(t, loader)
	h := insightsHandler(store, analytics.DefaultIdealRate, analytics.DefaultKPIThresholds())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/insights?machine=CNC-1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	insights := decodeBody(t, rr)["data"].(map[string]any)["insights"].([]any)
	if len(insights) == 0 {
		t.Fatalf("expected at least one insight")
	}
	found := false
	for _, it := range insights {
		if s, ok := it.(string); ok && strings.Contains(s, "Mechanical Failure") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an insight naming the top downtime cause, got %v", insights)
	}
}

func TestMetaHandler(t *testing.T) {
	store := testStore(t, &stubLoader{minutes: testMinutes()})
	h := metaHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/meta", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	data := decodeBody(t, rr)["data"].(map[string]any)
	machines := data["machines"].([]any)
	if len(machines) != 2 || machines[0] != "CNC-1" || machines[1] != "Lathe-2" {
		t.Fatalf("unexpected machines: %v", machines)
	}
	if data["first_day"] != "2024-03-01" || data["last_day"] != "2024-03-02" {
		t.Fatalf("unexpected day span: %v / %v", data["first_day"], data["last_day"])
	}
}

func TestReloadDatasetHandler(t *testing.T) {
	loader := &stubLoader{minutes: testMinutes()}
	store := testStore(t, loader)
	h := reloadDatasetHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dataset/reload", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d on GET, got %d", http.StatusMethodNotAllowed, rr.Code)
	}

	before := store.Current().SnapshotID
	req = httptest.NewRequest(http.MethodPost, "/api/v1/dataset/reload", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}
	data := decodeBody(t, rr)["data"].(map[string]any)
	if data["previous_snapshot_id"] != before {
		t.Fatalf("expected previous snapshot %q, got %v", before, data["previous_snapshot_id"])
	}
	if data["snapshot_id"] == before {
		t.Fatalf("expected a fresh snapshot id after reload")
	}
	if loader.loads != 2 {
		t.Fatalf("expected 2 loads, got %d", loader.loads)
	}
}

func TestReadyHandler(t *testing.T) {
	store := testStore(t, &stubLoader{minutes: testMinutes()})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rr := httptest.NewRecorder()
	readyHandler(store).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	rr = httptest.NewRecorder()
	readyHandler(nil).ServeHTTP(rr, req)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d for missing store, got %d", http.StatusServiceUnavailable, rr.Code)
	}
}
