package http

import (
	nethttp "net/http"

	"github.com/firmansyahr/Production-Performance-Analysis-and-Continuous-Improvement/internal/config"
)

func kpiThresholdsHandler(cfg config.Config) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, _ *nethttp.Request) {
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"data": map[string]any{
				"ideal_rate_units_per_min": cfg.IdealRate,
				"kpi_good":                 cfg.KPIGood,
				"kpi_warning":              cfg.KPIWarning,
				"cache_ttl_sec":            int(cfg.CacheTTL.Seconds()),
				"refresh_interval_sec":     int(cfg.RefreshInterval.Seconds()),
			},
		})
	}
}
