package analytics

import (
	"math"
	"testing"
)

// walk is a fixed irregular sequence so lagged self-pairings stay weak.
var walk = []float64{
	52, 67, 48, 71, 55, 63, 44, 69, 58, 50,
	73, 47, 61, 54, 68, 42, 66, 57, 49, 72,
	45, 64, 53, 70, 46, 62, 56, 74, 43, 60,
	51, 65, 59, 41, 75, 48, 67, 52, 63, 55,
}

func TestCorrelationCompute(t *testing.T) {
	var a, b Series
	for i, v := range walk {
		a = append(a, Point{T: day(i), V: v})
		b = append(b, Point{T: day(i), V: 2*v + 10})
	}

	c := NewCorrelationEngine().Compute(a, b, "glucose", "heart_rate", 0)
	if c == nil {
		t.Fatal("expected a correlation, got nil")
	}
	if math.Abs(c.R-1) > 1e-9 {
		t.Errorf("r = %v, want 1", c.R)
	}
	if !c.Significant {
		t.Errorf("expected significance, p = %v", c.PValue)
	}
	if c.N != len(walk) {
		t.Errorf("n = %d, want %d", c.N, len(walk))
	}
}

func TestCorrelationComputeTooFewSamples(t *testing.T) {
	var a, b Series
	for i := 0; i < 10; i++ {
		a = append(a, Point{T: day(i), V: float64(i)})
		b = append(b, Point{T: day(i), V: float64(i)})
	}
	if c := NewCorrelationEngine().Compute(a, b, "a", "b", 0); c != nil {
		t.Errorf("expected nil below minimum samples, got %+v", c)
	}
}

func TestFindLaggedPicksTrueLag(t *testing.T) {
	// b mirrors a two days later, so the strongest lag should be +2.
	var a, b Series
	for i, v := range walk {
		a = append(a, Point{T: day(i), V: v})
		b = append(b, Point{T: day(i + 2), V: v})
	}

	cs := NewCorrelationEngine().FindLagged(a, b, "sleep_total", "hrv")
	if len(cs) == 0 {
		t.Fatal("expected lagged correlations")
	}
	if cs[0].LagDays != 2 {
		t.Errorf("strongest lag = %d, want 2", cs[0].LagDays)
	}
	if math.Abs(cs[0].R-1) > 1e-9 {
		t.Errorf("strongest r = %v, want 1", cs[0].R)
	}
}

func TestDiscoverAppliesCorrection(t *testing.T) {
	series := map[string]Series{}
	var a, b, c Series
	for i, v := range walk {
		a = append(a, Point{T: day(i), V: v})
		b = append(b, Point{T: day(i), V: -3 * v})
		c = append(c, Point{T: day(i), V: noise[i%len(noise)]})
	}
	series["glucose"] = a
	series["heart_rate"] = b
	series["weight"] = c

	found := NewCorrelationEngine().Discover(series, []string{"glucose", "heart_rate", "weight"})
	if len(found) == 0 {
		t.Fatal("expected the glucose/heart_rate correlation to survive correction")
	}
	top := found[0]
	if top.Biomarker1 != "glucose" || top.Biomarker2 != "heart_rate" {
		t.Errorf("top pair = (%s, %s), want (glucose, heart_rate)", top.Biomarker1, top.Biomarker2)
	}
	if top.R > -0.99 {
		t.Errorf("top r = %v, want ~-1", top.R)
	}
	for _, f := range found {
		if !f.Significant {
			t.Errorf("discovered correlation not marked significant: %+v", f)
		}
		if f.Biomarker1 == "weight" || f.Biomarker2 == "weight" {
			t.Errorf("noise series should not correlate: %+v", f)
		}
	}
}

func TestMatrix(t *testing.T) {
	series := map[string]Series{}
	var a, b Series
	for i, v := range walk {
		a = append(a, Point{T: day(i), V: v})
		b = append(b, Point{T: day(i), V: -v})
	}
	series["a"] = a
	series["b"] = b
	series["empty"] = nil

	m := NewCorrelationEngine().Matrix(series, []string{"a", "b", "empty"})
	if m[0][0] != 1 || m[1][1] != 1 {
		t.Error("diagonal should be 1")
	}
	if math.Abs(m[0][1]+1) > 1e-9 || m[0][1] != m[1][0] {
		t.Errorf("m[0][1] = %v, want -1 and symmetric", m[0][1])
	}
	if !math.IsNaN(m[0][2]) {
		t.Errorf("m[0][2] = %v, want NaN for missing overlap", m[0][2])
	}
}
