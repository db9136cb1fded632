package analytics

import "time"

// MinuteRecord is one row of the minutely production log: one machine,
// one minute of planned production time.
type MinuteRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Machine   string    `json:"machine"`
	Shift     string    `json:"shift"`
	Day       string    `json:"day"` // calendar date, YYYY-MM-DD
	IsRunning bool      `json:"is_running"`
	Units     int64     `json:"units"`
	GoodUnits int64     `json:"good_units"`
}

// DowntimeEvent is one logged downtime occurrence attributed to a cause.
type DowntimeEvent struct {
	Machine string  `json:"machine"`
	Cause   string  `json:"cause"`
	Minutes float64 `json:"minutes"`
}

// SPCSample is one x-bar/R subgroup sample.
type SPCSample struct {
	Machine string  `json:"machine"`
	Xbar    float64 `json:"xbar"`
	R       float64 `json:"r"`
}

// DailyOEE is the per-day aggregate for one machine/filter selection.
// Ratio fields are nil when their denominator is zero; JSON renders them
// as null so the frontend can show "no data" instead of 0%.
type DailyOEE struct {
	Day          string   `json:"day"`
	PlannedMin   int64    `json:"planned_min"`
	RunningMin   int64    `json:"running_min"`
	TotalUnits   int64    `json:"total_units"`
	GoodUnits    int64    `json:"good_units"`
	Availability *float64 `json:"availability"`
	Performance  *float64 `json:"performance"`
	Quality      *float64 `json:"quality"`
	OEE          *float64 `json:"oee"`
}

// ParetoRow is one ranked downtime cause with its cumulative share of the
// machine's total downtime minutes.
type ParetoRow struct {
	Cause   string   `json:"cause"`
	Minutes float64  `json:"minutes"`
	CumPct  *float64 `json:"cum_pct"`
}

// SPCSummary holds summary statistics over a machine's SPC samples.
type SPCSummary struct {
	SampleCount int      `json:"sample_count"`
	AvgXbar     *float64 `json:"avg_xbar"`
	AvgRange    *float64 `json:"avg_range"`
	MaxRange    *float64 `json:"max_range"`
}

// KPISummary carries the unweighted means across defined per-day rows plus
// how many days were excluded per ratio because the value was undefined.
type KPISummary struct {
	Days               int      `json:"days"`
	AvgOEE             *float64 `json:"avg_oee"`
	AvgAvailability    *float64 `json:"avg_availability"`
	AvgPerformance     *float64 `json:"avg_performance"`
	AvgQuality         *float64 `json:"avg_quality"`
	UndefinedOEE       int      `json:"undefined_oee_days"`
	UndefinedPerf      int      `json:"undefined_performance_days"`
	UndefinedQuality   int      `json:"undefined_quality_days"`
	OEEStatus          string   `json:"oee_status"`
	AvailabilityStatus string   `json:"availability_status"`
	PerformanceStatus  string   `json:"performance_status"`
	QualityStatus      string   `json:"quality_status"`
}

func ratio(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	v := num / den
	return &v
}
