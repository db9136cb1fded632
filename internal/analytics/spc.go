package analytics

// ProcessStatusLabel is the fixed process-status line shown on the SPC tab.
// No control-limit logic backs it; it is a display constant.
const ProcessStatusLabel = "Process Status: In Control"

// SummarizeSPC computes mean x-bar, mean range and max range over a
// machine's SPC samples. With no samples every statistic is nil.
func SummarizeSPC(samples []SPCSample, machine string) SPCSummary {
	var xbarSum, rSum, rMax float64
	n := 0
	for _, s := range samples {
		if s.Machine != machine {
			continue
		}
		xbarSum += s.Xbar
		rSum += s.R
		if n == 0 || s.R > rMax {
			rMax = s.R
		}
		n++
	}

	out := SPCSummary{SampleCount: n}
	if n == 0 {
		return out
	}
	avgX := xbarSum / float64(n)
	avgR := rSum / float64(n)
	out.AvgXbar = &avgX
	out.AvgRange = &avgR
	out.MaxRange = &rMax
	return out
}
