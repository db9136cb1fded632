package analytics

import "testing"

func TestSummarizeSPC(t *testing.T) {
	samples := []SPCSample{
		{Machine: "M1", Xbar: 10.0, R: 0.4},
		{Machine: "M1", Xbar: 10.2, R: 0.8},
		{Machine: "M1", Xbar: 9.8, R: 0.6},
		{Machine: "M2", Xbar: 50.0, R: 9.9},
	}

	s := SummarizeSPC(samples, "M1")
	if s.SampleCount != 3 {
		t.Fatalf("expected 3 samples, got %d", s.SampleCount)
	}
	almostEqual(t, "avg_xbar", s.AvgXbar, 10.0)
	almostEqual(t, "avg_range", s.AvgRange, 0.6)
	almostEqual(t, "max_range", s.MaxRange, 0.8)
}

func TestSummarizeSPC_NoSamples(t *testing.T) {
	s := SummarizeSPC(nil, "M1")
	if s.SampleCount != 0 {
		t.Fatalf("expected 0 samples, got %d", s.SampleCount)
	}
	if s.AvgXbar != nil || s.AvgRange != nil || s.MaxRange != nil {
		t.Fatalf("expected nil statistics for empty input: %+v", s)
	}
}
