package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/analytics"
	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/cache"
	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/config"
	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/dataset"
)

// Server wraps an HTTP server, the dataset store and the payload cache.
type Server struct {
	httpServer      *nethttp.Server
	store           *dataset.Store
	loader          dataset.Loader
	cache           *cache.Cache
	refreshInterval time.Duration
	refreshCancel   context.CancelFunc
}

// NewServer loads the initial dataset snapshot from the configured backend
// and returns a configured HTTP server with v1 endpoints.
func NewServer(cfg config.Config) (*Server, error) {
	loader, err := newLoader(cfg)
	if err != nil {
		return nil, err
	}

	c := newCache(cfg)

	loadCtx, cancel := context.WithTimeout(context.Background(), cfg.FetchTimeout)
	defer cancel()

	start := time.Now()
	store, err := dataset.NewStore(loadCtx, loader, func(_, _ *dataset.Dataset) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Flush(ctx)
	})
	recordSourceLoad(loader.Describe(), "InitialLoad", time.Since(start).Seconds(), err)
	if err != nil {
		closeLoader(loader)
		return nil, fmt.Errorf("initial dataset load: %w", err)
	}

	thresholds := analytics.KPIThresholds{Good: cfg.KPIGood, Warning: cfg.KPIWarning}

	mux := nethttp.NewServeMux()

	mux.HandleFunc("/", dashboardHandler)
	mux.HandleFunc("/favicon.ico", faviconHandler)
	mux.Handle("/metrics", metricsHandler())
	mux.HandleFunc("/api/v1/metrics/app", appMetricsSummaryHandler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/healthz", healthHandler)
	mux.HandleFunc("/ready", readyHandler(store))
	mux.HandleFunc("/api/v1/meta", metaHandler(store))
	mux.HandleFunc("/api/v1/oee/daily", dailyOEEHandler(store, c, cfg.IdealRate))
	mux.HandleFunc("/api/v1/oee/kpis", kpisHandler(store, c, cfg.IdealRate, thresholds))
	mux.HandleFunc("/api/v1/downtime/pareto", paretoHandler(store, c))
	mux.HandleFunc("/api/v1/spc/summary", spcSummaryHandler(store, c))
	mux.HandleFunc("/api/v1/insights", insightsHandler(store, cfg.IdealRate, thresholds))
	mux.HandleFunc("/api/v1/dataset/reload", reloadDatasetHandler(store))
	mux.HandleFunc("/api/v1/status/services", servicesStatusHandler(store, loader, c, cfg.RefreshInterval))
	mux.HandleFunc("/api/v1/settings/thresholds", kpiThresholdsHandler(cfg))

	httpServer := &nethttp.Server{
		Addr:         cfg.ListenAddr,
		Handler:      loggingMiddleware(observabilityMiddleware(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		httpServer:      httpServer,
		store:           store,
		loader:          loader,
		cache:           c,
		refreshInterval: cfg.RefreshInterval,
	}, nil
}

func newLoader(cfg config.Config) (dataset.Loader, error) {
	if cfg.DBEnabled {
		return dataset.NewMySQLLoader(cfg)
	}
	if cfg.SQLitePath != "" {
		return dataset.NewSQLiteLoader(cfg.SQLitePath)
	}
	return dataset.NewCSVLoader(cfg.DataDir, cfg.DataBaseURL, cfg.FetchTimeout), nil
}

func newCache(cfg config.Config) *cache.Cache {
	return cache.New(cache.Config{
		RedisURL:    cfg.RedisURL,
		EnableRedis: cfg.CacheEnabled && cfg.RedisURL != "",
		DefaultTTL:  cfg.CacheTTL,
	})
}

func closeLoader(loader dataset.Loader) {
	if c, ok := loader.(io.Closer); ok {
		_ = c.Close()
	}
}

// ListenAndServe starts the HTTP server and, when configured, the
// background dataset refresher.
func (s *Server) ListenAndServe() error {
	if s.refreshInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.refreshCancel = cancel
		go s.store.StartRefresher(ctx, s.refreshInterval)
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server and the refresher.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.refreshCancel != nil {
		s.refreshCancel()
	}
	closeLoader(s.loader)
	return s.httpServer.Shutdown(ctx)
}

func healthHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func readyHandler(store *dataset.Store) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		if store == nil || store.Current() == nil {
			writeJSON(w, nethttp.StatusServiceUnavailable, map[string]any{
				"status": "loading",
			})
			return
		}
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"status":      "ready",
			"snapshot_id": store.Current().SnapshotID,
		})
	}
}

func loggingMiddleware(next nethttp.Handler) nethttp.Handler {
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: nethttp.StatusOK}
		next.ServeHTTP(rec, r)
		fmt.Printf("%s %s %s %s\n", r.Method, r.URL.Path, strconv.Itoa(rec.status), time.Since(start))
	})
}

func writeJSON(w nethttp.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
