package analytics

import "sort"

// DailyOEEBreakdown groups an already-filtered minute log by calendar day and
// derives the OEE components per day against the given ideal units-per-minute
// rate. Rows come back ordered by day ascending for trend rendering.
//
// A day with zero running minutes has an undefined performance, and a day with
// zero produced units has an undefined quality; those ratios (and the OEE that
// depends on them) are nil rather than NaN or zero.
func DailyOEEBreakdown(recs []MinuteRecord, idealRate float64) []DailyOEE {
	buckets := map[string]*DailyOEE{}
	for _, r := range recs {
		b, ok := buckets[r.Day]
		if !ok {
			b = &DailyOEE{Day: r.Day}
			buckets[r.Day] = b
		}
		b.PlannedMin++
		if r.IsRunning {
			b.RunningMin++
		}
		b.TotalUnits += r.Units
		b.GoodUnits += r.GoodUnits
	}

	out := make([]DailyOEE, 0, len(buckets))
	for _, b := range buckets {
		b.Availability = ratio(float64(b.RunningMin), float64(b.PlannedMin))
		b.Performance = ratio(float64(b.TotalUnits), idealRate*float64(b.RunningMin))
		b.Quality = ratio(float64(b.GoodUnits), float64(b.TotalUnits))
		if b.Availability != nil && b.Performance != nil && b.Quality != nil {
			v := *b.Availability * *b.Performance * *b.Quality
			b.OEE = &v
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// SummarizeKPIs computes the unweighted means of the per-day ratios,
// excluding days whose ratio is undefined, and classifies each mean.
// A mean over zero defined days is nil and classifies as no status.
func SummarizeKPIs(days []DailyOEE, thresholds KPIThresholds) KPISummary {
	s := KPISummary{Days: len(days)}

	var availSum, perfSum, qualSum, oeeSum float64
	var availN, perfN, qualN, oeeN int
	for _, d := range days {
		if d.Availability != nil {
			availSum += *d.Availability
			availN++
		}
		if d.Performance != nil {
			perfSum += *d.Performance
			perfN++
		} else {
			s.UndefinedPerf++
		}
		if d.Quality != nil {
			qualSum += *d.Quality
			qualN++
		} else {
			s.UndefinedQuality++
		}
		if d.OEE != nil {
			oeeSum += *d.OEE
			oeeN++
		} else {
			s.UndefinedOEE++
		}
	}

	s.AvgAvailability = mean(availSum, availN)
	s.AvgPerformance = mean(perfSum, perfN)
	s.AvgQuality = mean(qualSum, qualN)
	s.AvgOEE = mean(oeeSum, oeeN)

	s.AvailabilityStatus = classifyPtr(s.AvgAvailability, thresholds)
	s.PerformanceStatus = classifyPtr(s.AvgPerformance, thresholds)
	s.QualityStatus = classifyPtr(s.AvgQuality, thresholds)
	s.OEEStatus = classifyPtr(s.AvgOEE, thresholds)
	return s
}

func mean(sum float64, n int) *float64 {
	if n == 0 {
		return nil
	}
	v := sum / float64(n)
	return &v
}

func classifyPtr(v *float64, t KPIThresholds) string {
	if v == nil {
		return StatusNoData
	}
	return t.Classify(*v)
}
