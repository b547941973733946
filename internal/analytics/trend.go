package analytics

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Trend directions.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// minTrendSamples is the minimum number of daily points required before a
// trend is reported.
const minTrendSamples = 7

// Trend is the result of fitting a linear trend to a biomarker series.
type Trend struct {
	Biomarker     string    `json:"biomarker"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	SlopePerDay   float64   `json:"slopePerDay"`
	RSquared      float64   `json:"rSquared"`
	PValue        float64   `json:"pValue"`
	Direction     string    `json:"direction"`
	Significant   bool      `json:"significant"`
	PercentChange float64   `json:"percentChange"`
}

// ChangePoint is a detected sustained level shift within a series.
type ChangePoint struct {
	Timestamp     time.Time `json:"timestamp"`
	BeforeMean    float64   `json:"beforeMean"`
	AfterMean     float64   `json:"afterMean"`
	Change        float64   `json:"change"`
	PercentChange float64   `json:"percentChange"`
	Confidence    float64   `json:"confidence"`
}

// TrendAnalyzer fits linear trends and finds change points in daily series.
type TrendAnalyzer struct {
	Alpha float64
}

// NewTrendAnalyzer creates a TrendAnalyzer at the 0.05 significance level.
func NewTrendAnalyzer() *TrendAnalyzer {
	return &TrendAnalyzer{Alpha: 0.05}
}

// Compute fits a least-squares line to the series (x in days since the first
// point) and reports slope, fit quality and significance. Returns nil when
// fewer than seven valid points are available.
func (a *TrendAnalyzer) Compute(s Series, biomarker string) *Trend {
	s = s.DropNaN().Sorted()
	if len(s) < minTrendSamples {
		return nil
	}

	start := s[0].T
	xs := make([]float64, len(s))
	ys := make([]float64, len(s))
	for i, p := range s {
		xs[i] = p.T.Sub(start).Hours() / 24
		ys[i] = p.V
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	r := stat.Correlation(xs, ys, nil)
	p := corrPValue(r, len(s))

	startVal := intercept
	endVal := intercept + slope*xs[len(xs)-1]
	var pct float64
	if startVal != 0 {
		pct = (endVal - startVal) / math.Abs(startVal) * 100
	}

	direction := TrendStable
	if p < a.Alpha {
		if slope > 0 {
			direction = TrendIncreasing
		} else {
			direction = TrendDecreasing
		}
	}

	return &Trend{
		Biomarker:     biomarker,
		Start:         start,
		End:           s[len(s)-1].T,
		SlopePerDay:   slope,
		RSquared:      r * r,
		PValue:        p,
		Direction:     direction,
		Significant:   p < a.Alpha,
		PercentChange: pct,
	}
}

// ChangePoints finds sustained level shifts by comparing the means of
// adjacent windows, confirming each candidate with a two-sample t-test.
// Change points within three days of each other are merged, keeping the one
// with the higher confidence.
func (a *TrendAnalyzer) ChangePoints(s Series, minSegment int, thresholdStd float64) []ChangePoint {
	s = s.DropNaN().Sorted()
	if len(s) < minSegment*2 {
		return nil
	}

	vals := s.Values()
	_, globalStd := stat.MeanStdDev(vals, nil)

	var cps []ChangePoint
	for i := minSegment; i <= len(vals)-minSegment; i++ {
		before := vals[i-minSegment : i]
		after := vals[i : i+minSegment]

		beforeMean := stat.Mean(before, nil)
		afterMean := stat.Mean(after, nil)
		change := afterMean - beforeMean

		if math.Abs(change) <= thresholdStd*globalStd {
			continue
		}
		_, p := twoSampleT(before, after)
		confidence := 1 - p
		if confidence <= 0.95 {
			continue
		}
		var pct float64
		if beforeMean != 0 {
			pct = change / math.Abs(beforeMean) * 100
		}
		cps = append(cps, ChangePoint{
			Timestamp:     s[i].T,
			BeforeMean:    beforeMean,
			AfterMean:     afterMean,
			Change:        change,
			PercentChange: pct,
			Confidence:    confidence,
		})
	}
	return mergeNearby(cps, 3*24*time.Hour)
}

func mergeNearby(cps []ChangePoint, maxGap time.Duration) []ChangePoint {
	if len(cps) == 0 {
		return nil
	}
	merged := []ChangePoint{cps[0]}
	for _, cp := range cps[1:] {
		last := &merged[len(merged)-1]
		if cp.Timestamp.Sub(last.Timestamp) <= maxGap {
			if cp.Confidence > last.Confidence {
				*last = cp
			}
		} else {
			merged = append(merged, cp)
		}
	}
	return merged
}
