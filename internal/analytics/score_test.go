package analytics

import (
	"math"
	"testing"
)

func TestComputeHealthScoreAllComponents(t *testing.T) {
	in := ScoreInput{
		HRVRMSSD:        []float64{55, 60, 58},        // excellent, 100
		SleepDuration:   []float64{480, 450, 510},     // in the 7-9h band, 100
		SleepEfficiency: []float64{90, 92, 88},        // mean 90
		Glucose:         []float64{95, 100, 105, 110}, // all in range, low CV
		RestingHR:       []float64{55, 58, 57},        // at or below 60, 100
	}

	score := ComputeHealthScore(in)
	if score == nil {
		t.Fatal("expected a score")
	}
	if len(score.Components) != 4 {
		t.Fatalf("expected 4 components, got %v", score.Components)
	}
	if score.Components["hrv"] != 100 {
		t.Errorf("hrv = %v, want 100", score.Components["hrv"])
	}
	if score.Components["sleep"] != 95 {
		t.Errorf("sleep = %v, want 95", score.Components["sleep"])
	}
	if score.Components["rhr"] != 100 {
		t.Errorf("rhr = %v, want 100", score.Components["rhr"])
	}
	if score.Overall < 90 || score.Overall > 100 {
		t.Errorf("overall = %v, want in [90, 100]", score.Overall)
	}
}

func TestComputeHealthScoreRenormalizes(t *testing.T) {
	score := ComputeHealthScore(ScoreInput{SleepDuration: []float64{480}})
	if score == nil {
		t.Fatal("expected a score")
	}
	if len(score.Components) != 1 {
		t.Fatalf("expected 1 component, got %v", score.Components)
	}
	// A single perfect component should carry the whole score.
	if score.Overall != 100 {
		t.Errorf("overall = %v, want 100", score.Overall)
	}
}

func TestComputeHealthScoreEmpty(t *testing.T) {
	if score := ComputeHealthScore(ScoreInput{}); score != nil {
		t.Errorf("expected nil score, got %+v", score)
	}
}

func TestScoreHRVBands(t *testing.T) {
	cases := []struct {
		rmssd, want float64
	}{
		{60, 100},
		{50, 100},
		{40, 85}, // 70 + 10*1.5
		{30, 70},
		{20, 46}, // 20*2.3
		{0, 0},
	}
	for _, c := range cases {
		if got := scoreHRV(c.rmssd); got != c.want {
			t.Errorf("scoreHRV(%v) = %v, want %v", c.rmssd, got, c.want)
		}
	}
}

func TestScoreSleepBands(t *testing.T) {
	if got := scoreSleep([]float64{360}, nil); got != round1(360.0/420*100) {
		t.Errorf("short sleep = %v", got)
	}
	if got := scoreSleep([]float64{600}, nil); got != 70 {
		t.Errorf("long sleep = %v, want 70", got)
	}
	if got := scoreSleep([]float64{480}, []float64{80}); got != 90 {
		t.Errorf("with efficiency = %v, want 90", got)
	}
}

func TestScoreGlucoseTimeInRangeAndVariability(t *testing.T) {
	// All in range, negligible variability.
	if got := scoreGlucose([]float64{100, 101, 99, 100}); got < 98 {
		t.Errorf("steady glucose = %v, want near 100", got)
	}
	// Half out of range.
	got := scoreGlucose([]float64{100, 100, 250, 250, 100, 100, 250, 250})
	if got > 50 {
		t.Errorf("half out of range = %v, want <= 50", got)
	}
	// High variability is capped at a 30 point penalty.
	volatile := []float64{70, 180, 70, 180, 70, 180}
	if got := scoreGlucose(volatile); got < 69.9 || got > 70.1 {
		t.Errorf("volatile glucose = %v, want 70", got)
	}
}

func TestScoreRestingHRBands(t *testing.T) {
	cases := []struct {
		rhr, want float64
	}{
		{55, 100},
		{60, 100},
		{70, 80},
		{80, 60},
		{90, 40},
		{120, 0},
	}
	for _, c := range cases {
		if got := scoreRestingHR(c.rhr); got != c.want {
			t.Errorf("scoreRestingHR(%v) = %v, want %v", c.rhr, got, c.want)
		}
	}
}

func TestRound1(t *testing.T) {
	if got := round1(87.654); math.Abs(got-87.7) > 1e-9 {
		t.Errorf("round1 = %v, want 87.7", got)
	}
}
