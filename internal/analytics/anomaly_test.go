package analytics

import (
	"testing"
)

func TestDetectClinicalGlucose(t *testing.T) {
	s := Series{
		{T: at(0, 8), V: 95},   // normal
		{T: at(0, 10), V: 50},  // below critical low (54)
		{T: at(0, 12), V: 65},  // below low (70)
		{T: at(0, 14), V: 200}, // above high (180)
		{T: at(0, 16), V: 280}, // above critical high (250)
	}

	anomalies := NewAnomalyDetector().Detect(s, "glucose")
	if len(anomalies) != 4 {
		t.Fatalf("expected 4 anomalies, got %d: %+v", len(anomalies), anomalies)
	}

	wantPriorities := []string{PriorityCritical, PriorityHigh, PriorityHigh, PriorityCritical}
	for i, a := range anomalies {
		if a.Priority != wantPriorities[i] {
			t.Errorf("anomaly %d priority = %q, want %q (value %v)", i, a.Priority, wantPriorities[i], a.Value)
		}
		if a.Type != AnomalyPoint {
			t.Errorf("anomaly %d type = %q, want %q", i, a.Type, AnomalyPoint)
		}
	}
	if anomalies[0].ClinicalContext == "" {
		t.Error("critical anomaly should carry clinical context")
	}
}

func TestDetectClinicalUnknownBiomarker(t *testing.T) {
	s := Series{{T: day(0), V: 1e6}}
	if got := NewAnomalyDetector().detectClinical(s, "weight"); len(got) != 0 {
		t.Errorf("expected no clinical anomalies for weight, got %+v", got)
	}
}

func TestDetectOutliers(t *testing.T) {
	var s Series
	for i := 0; i < 40; i++ {
		v := 80 + noise[i%len(noise)]
		if i == 25 {
			v = 95
		}
		s = append(s, Point{T: day(i), V: v})
	}

	anomalies := NewAnomalyDetector().detectOutliers(s, "weight")
	if len(anomalies) != 1 {
		t.Fatalf("expected 1 outlier, got %d: %+v", len(anomalies), anomalies)
	}
	a := anomalies[0]
	if !a.Timestamp.Equal(day(25)) {
		t.Errorf("outlier at %v, want %v", a.Timestamp, day(25))
	}
	if a.Priority != PriorityMedium {
		t.Errorf("priority = %q, want %q", a.Priority, PriorityMedium)
	}
	if a.DeviationScore <= 3 {
		t.Errorf("deviation score = %v, want > 3", a.DeviationScore)
	}
}

func TestDetectOutliersShortSeries(t *testing.T) {
	s := Series{{T: day(0), V: 80}, {T: day(1), V: 95}}
	if got := NewAnomalyDetector().detectOutliers(s, "weight"); len(got) != 0 {
		t.Errorf("expected no outliers on a short series, got %+v", got)
	}
}

func TestDetectLevelShift(t *testing.T) {
	var s Series
	for i := 0; i < 70; i++ {
		v := 60 + noise[i%len(noise)]
		if i >= 35 {
			v = 75 + noise[i%len(noise)]
		}
		s = append(s, Point{T: day(i), V: v})
	}

	anomalies := NewAnomalyDetector().detectLevelShifts(s, "hrv")
	if len(anomalies) == 0 {
		t.Fatal("expected a level shift")
	}
	a := anomalies[0]
	if a.Type != AnomalyLevelShift {
		t.Errorf("type = %q, want %q", a.Type, AnomalyLevelShift)
	}
	if a.Priority != PriorityHigh {
		t.Errorf("priority = %q, want %q", a.Priority, PriorityHigh)
	}
	if a.DeviationScore < 15 {
		t.Errorf("deviation = %v%%, want > 15%%", a.DeviationScore)
	}
}

func TestDetectLevelShiftNoneOnStable(t *testing.T) {
	var s Series
	for i := 0; i < 70; i++ {
		s = append(s, Point{T: day(i), V: 60 + noise[i%len(noise)]})
	}
	if got := NewAnomalyDetector().detectLevelShifts(s, "hrv"); len(got) != 0 {
		t.Errorf("expected no level shifts, got %+v", got)
	}
}
