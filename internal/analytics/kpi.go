package analytics

// KPI status levels for ratio values. StatusNoData marks a KPI whose mean
// had no defined rows to average.
const (
	StatusGood     = "good"
	StatusWarning  = "warning"
	StatusCritical = "critical"
	StatusNoData   = "no_data"
)

// DefaultIdealRate is the nominal units-per-minute a running machine is
// expected to produce.
const DefaultIdealRate = 6.0

// KPIThresholds holds the classifier cutoffs. Good must be >= Warning.
type KPIThresholds struct {
	Good    float64 `json:"good"`
	Warning float64 `json:"warning"`
}

// DefaultKPIThresholds returns the standard 85%/75% cutoffs.
func DefaultKPIThresholds() KPIThresholds {
	return KPIThresholds{Good: 0.85, Warning: 0.75}
}

// Classify maps a ratio to a three-level status. Total over the reals:
// values outside [0,1] classify by the same cutoffs.
func (t KPIThresholds) Classify(v float64) string {
	switch {
	case v >= t.Good:
		return StatusGood
	case v >= t.Warning:
		return StatusWarning
	default:
		return StatusCritical
	}
}
