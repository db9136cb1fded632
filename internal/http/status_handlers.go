package http

import (
	"context"
	nethttp "net/http"
	"time"

	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/cache"
	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/dataset"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func servicesStatusHandler(store *dataset.Store, loader dataset.Loader, c *cache.Cache, refreshInterval time.Duration) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
		defer cancel()

		payload := map[string]any{
			"generated_at": time.Now().UTC(),
			"services":     map[string]any{},
		}
		services := payload["services"].(map[string]any)

		services["dataset_source"] = sourceStatus(ctx, store, loader)
		services["cache"] = cacheStatus(ctx, c)
		services["refresher"] = map[string]any{
			"enabled":      refreshInterval > 0,
			"interval_sec": int(refreshInterval.Seconds()),
		}

		writeJSON(w, nethttp.StatusOK, payload)
	}
}

func sourceStatus(ctx context.Context, store *dataset.Store, loader dataset.Loader) map[string]any {
	if store == nil {
		return map[string]any{"enabled": false, "ok": false, "error": "dataset not loaded"}
	}

	status := map[string]any{
		"enabled": true,
		"ok":      true,
		"source":  store.Source(),
	}

	if p, probeable := loader.(pinger); probeable {
		start := time.Now()
		err := p.Ping(ctx)
		recordSourceLoad(store.Source(), "Ping", time.Since(start).Seconds(), err)
		if err != nil {
			status["ok"] = false
			status["error"] = err.Error()
		}
	}

	ds := store.Current()
	status["snapshot_id"] = ds.SnapshotID
	status["loaded_at"] = ds.LoadedAt
	status["minute_records"] = len(ds.Minutes)
	return status
}

func cacheStatus(ctx context.Context, c *cache.Cache) map[string]any {
	status := map[string]any{
		"backend": c.Backend(),
		"ok":      true,
	}
	if err := c.Ping(ctx); err != nil {
		status["ok"] = false
		status["error"] = err.Error()
	}
	return status
}
