package analytics

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Anomaly types.
const (
	AnomalyPoint      = "point"
	AnomalyLevelShift = "level_shift"
)

// Anomaly priorities. These match the alert priorities exposed by the API.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Anomaly is a single detected irregularity in a biomarker series.
type Anomaly struct {
	Timestamp       time.Time `json:"timestamp"`
	Biomarker       string    `json:"biomarker"`
	Type            string    `json:"type"`
	Priority        string    `json:"priority"`
	Value           float64   `json:"value"`
	ExpectedLow     float64   `json:"expectedLow"`
	ExpectedHigh    float64   `json:"expectedHigh"`
	DeviationScore  float64   `json:"deviationScore"`
	Description     string    `json:"description"`
	ClinicalContext string    `json:"clinicalContext,omitempty"`
}

// thresholds holds the clinical cut-offs for one biomarker. A NaN bound
// means the biomarker has no cut-off on that side.
type thresholds struct {
	criticalLow, low, high, criticalHigh float64
}

var noBound = math.NaN()

// clinicalThresholds are fixed cut-offs that always raise an alert when
// violated, regardless of the user's own baseline.
var clinicalThresholds = map[string]thresholds{
	"glucose":     {criticalLow: 54, low: 70, high: 180, criticalHigh: 250},
	"heart_rate":  {criticalLow: 40, low: 50, high: 100, criticalHigh: 150},
	"hrv_sdnn":    {criticalLow: 20, low: 30, high: noBound, criticalHigh: noBound},
	"bp_systolic": {criticalLow: 90, low: 100, high: 140, criticalHigh: 180},
}

// AnomalyDetector finds clinical threshold violations, statistical outliers
// and sustained level shifts in a biomarker series.
type AnomalyDetector struct {
	// WindowSize is the rolling baseline length in samples.
	WindowSize int
	// ZThreshold is the rolling z-score above which a point is an outlier.
	ZThreshold float64
}

// NewAnomalyDetector creates a detector with a 30-sample window and a
// z-score threshold of 3.
func NewAnomalyDetector() *AnomalyDetector {
	return &AnomalyDetector{WindowSize: 30, ZThreshold: 3}
}

// Detect runs all detection methods over the series, most urgent first
// within each method.
func (d *AnomalyDetector) Detect(s Series, biomarker string) []Anomaly {
	s = s.DropNaN().Sorted()

	var out []Anomaly
	out = append(out, d.detectClinical(s, biomarker)...)
	out = append(out, d.detectOutliers(s, biomarker)...)
	out = append(out, d.detectLevelShifts(s, biomarker)...)
	return out
}

func (d *AnomalyDetector) detectClinical(s Series, biomarker string) []Anomaly {
	th, ok := clinicalThresholds[biomarker]
	if !ok {
		return nil
	}

	var out []Anomaly
	for _, p := range s {
		switch {
		case !math.IsNaN(th.criticalLow) && p.V < th.criticalLow:
			out = append(out, Anomaly{
				Timestamp:       p.T,
				Biomarker:       biomarker,
				Type:            AnomalyPoint,
				Priority:        PriorityCritical,
				Value:           p.V,
				ExpectedLow:     th.criticalLow,
				ExpectedHigh:    orInf(th.criticalHigh),
				DeviationScore:  math.Abs(p.V-th.criticalLow) / th.criticalLow,
				Description:     fmt.Sprintf("Critically low %s: %g", biomarker, p.V),
				ClinicalContext: "Immediate medical attention may be required",
			})
		case !math.IsNaN(th.criticalHigh) && p.V > th.criticalHigh:
			out = append(out, Anomaly{
				Timestamp:       p.T,
				Biomarker:       biomarker,
				Type:            AnomalyPoint,
				Priority:        PriorityCritical,
				Value:           p.V,
				ExpectedLow:     orZero(th.criticalLow),
				ExpectedHigh:    th.criticalHigh,
				DeviationScore:  (p.V - th.criticalHigh) / th.criticalHigh,
				Description:     fmt.Sprintf("Critically high %s: %g", biomarker, p.V),
				ClinicalContext: "Immediate medical attention may be required",
			})
		case !math.IsNaN(th.low) && p.V < th.low:
			out = append(out, Anomaly{
				Timestamp:      p.T,
				Biomarker:      biomarker,
				Type:           AnomalyPoint,
				Priority:       PriorityHigh,
				Value:          p.V,
				ExpectedLow:    th.low,
				ExpectedHigh:   orInf(th.high),
				DeviationScore: math.Abs(p.V-th.low) / th.low,
				Description:    fmt.Sprintf("Low %s: %g", biomarker, p.V),
			})
		case !math.IsNaN(th.high) && p.V > th.high:
			out = append(out, Anomaly{
				Timestamp:      p.T,
				Biomarker:      biomarker,
				Type:           AnomalyPoint,
				Priority:       PriorityHigh,
				Value:          p.V,
				ExpectedLow:    orZero(th.low),
				ExpectedHigh:   th.high,
				DeviationScore: (p.V - th.high) / th.high,
				Description:    fmt.Sprintf("High %s: %g", biomarker, p.V),
			})
		}
	}
	return out
}

// detectOutliers flags points whose rolling z-score against the trailing
// window exceeds the threshold. The first half-window is skipped so the
// baseline has at least WindowSize/2 samples.
func (d *AnomalyDetector) detectOutliers(s Series, biomarker string) []Anomaly {
	if len(s) < d.WindowSize {
		return nil
	}

	vals := s.Values()
	var out []Anomaly
	for i := d.WindowSize / 2; i < len(vals); i++ {
		lo := i - d.WindowSize
		if lo < 0 {
			lo = 0
		}
		window := vals[lo:i]
		mean, std := stat.MeanStdDev(window, nil)
		if std == 0 || math.IsNaN(std) {
			continue
		}
		z := math.Abs(vals[i]-mean) / std
		if z <= d.ZThreshold {
			continue
		}
		out = append(out, Anomaly{
			Timestamp:      s[i].T,
			Biomarker:      biomarker,
			Type:           AnomalyPoint,
			Priority:       PriorityMedium,
			Value:          vals[i],
			ExpectedLow:    mean - 2*std,
			ExpectedHigh:   mean + 2*std,
			DeviationScore: z,
			Description:    fmt.Sprintf("Unusual %s value: %.1f (z-score: %.1f)", biomarker, vals[i], z),
		})
	}
	return out
}

// detectLevelShifts compares successive windows against the initial baseline
// and reports sustained shifts above 15% confirmed by a t-test at p<0.01.
func (d *AnomalyDetector) detectLevelShifts(s Series, biomarker string) []Anomaly {
	const minShiftPercent = 15.0

	if len(s) < d.WindowSize*2 {
		return nil
	}

	vals := s.Values()
	baseline := vals[:d.WindowSize]
	baseMean, baseStd := stat.MeanStdDev(baseline, nil)
	if baseMean == 0 || baseStd == 0 {
		return nil
	}

	var out []Anomaly
	for i := d.WindowSize; i+d.WindowSize <= len(vals); i += d.WindowSize / 2 {
		recent := vals[i : i+d.WindowSize]
		recentMean := stat.Mean(recent, nil)

		pct := (recentMean - baseMean) / math.Abs(baseMean) * 100
		if math.Abs(pct) <= minShiftPercent {
			continue
		}
		if _, p := twoSampleT(baseline, recent); p >= 0.01 {
			continue
		}

		direction := "increased"
		if pct < 0 {
			direction = "decreased"
		}
		out = append(out, Anomaly{
			Timestamp:       s[i].T,
			Biomarker:       biomarker,
			Type:            AnomalyLevelShift,
			Priority:        PriorityHigh,
			Value:           recentMean,
			ExpectedLow:     baseMean - 2*baseStd,
			ExpectedHigh:    baseMean + 2*baseStd,
			DeviationScore:  math.Abs(pct),
			Description:     fmt.Sprintf("%s has %s by %.1f%% from baseline", biomarker, direction, math.Abs(pct)),
			ClinicalContext: fmt.Sprintf("Baseline mean: %.1f, Current: %.1f", baseMean, recentMean),
		})
	}
	return out
}

func orInf(v float64) float64 {
	if math.IsNaN(v) {
		return math.Inf(1)
	}
	return v
}

func orZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
