// Package ingest normalizes raw device samples into canonical units and
// calibrates sensor streams against reference measurements.
package ingest

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Quality labels assigned to normalized samples.
const (
	QualityGood    = "good"
	QualityLow     = "low"
	QualityOutlier = "outlier"
	QualityImputed = "imputed"
)

// Sample is one raw observation from a device.
type Sample struct {
	Timestamp time.Time
	Value     float64
	Unit      string
}

// NormalizedSample is a sample converted to the canonical unit for its
// sensor type, annotated with a confidence and quality label.
type NormalizedSample struct {
	Timestamp  time.Time `json:"timestamp"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Confidence float64   `json:"confidence"`
	Quality    string    `json:"quality"`
}

// rule describes how one sensor type is normalized: accepted units with
// their conversion to the canonical unit, and the physiological range.
type rule struct {
	canonical string
	convert   map[string]func(float64) float64
	min, max  float64
}

func identity(v float64) float64 { return v }

var rules = map[string]rule{
	"heart_rate": {
		canonical: "bpm",
		convert: map[string]func(float64) float64{
			"bpm": identity,
			"hz":  func(v float64) float64 { return v * 60 },
		},
		min: 20, max: 300,
	},
	"glucose": {
		canonical: "mg/dL",
		convert: map[string]func(float64) float64{
			"mg/dl":  identity,
			"mmol/l": func(v float64) float64 { return v * 18.0182 },
		},
		min: 20, max: 600,
	},
	"weight": {
		canonical: "kg",
		convert: map[string]func(float64) float64{
			"kg": identity,
			"lb": func(v float64) float64 { return v / 2.2046226218 },
		},
		min: 20, max: 500,
	},
	"temperature": {
		canonical: "C",
		convert: map[string]func(float64) float64{
			"c": identity,
			"f": func(v float64) float64 { return (v - 32) * 5 / 9 },
		},
		min: 32, max: 44,
	},
}

// Normalizer converts raw samples to canonical units, flags outliers by
// rolling z-score and fills short gaps by linear interpolation.
type Normalizer struct {
	// OutlierWindow is the number of trailing samples used as the outlier
	// baseline.
	OutlierWindow int
	// OutlierZ is the z-score above which a sample is flagged.
	OutlierZ float64
	// MaxImputeGap is the longest gap that imputation will bridge.
	MaxImputeGap time.Duration
}

// NewNormalizer creates a Normalizer with a 10-sample outlier window, a
// z-score threshold of 3 and a 15-minute imputation limit.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		OutlierWindow: 10,
		OutlierZ:      3,
		MaxImputeGap:  15 * time.Minute,
	}
}

// Normalize converts a single sample for the given sensor type. Unknown
// sensor types are an error. A recognized sample outside the physiological
// range is an error. An unrecognized unit passes through unconverted with
// halved confidence and low quality.
func (n *Normalizer) Normalize(sensorType string, s Sample) (NormalizedSample, error) {
	r, ok := rules[sensorType]
	if !ok {
		return NormalizedSample{}, fmt.Errorf("unknown sensor type %q", sensorType)
	}

	out := NormalizedSample{
		Timestamp:  s.Timestamp,
		Unit:       r.canonical,
		Confidence: 1,
		Quality:    QualityGood,
	}

	conv, known := r.convert[strings.ToLower(s.Unit)]
	if known {
		out.Value = conv(s.Value)
	} else {
		out.Value = s.Value
		out.Confidence = 0.5
		out.Quality = QualityLow
	}

	if out.Value < r.min || out.Value > r.max {
		return NormalizedSample{}, fmt.Errorf("%s value %g out of range [%g, %g]",
			sensorType, out.Value, r.min, r.max)
	}
	return out, nil
}

// NormalizeSeries normalizes a batch in timestamp order, drops out-of-range
// samples, flags rolling z-score outliers and imputes short gaps. The
// returned error count reports dropped samples.
func (n *Normalizer) NormalizeSeries(sensorType string, samples []Sample) ([]NormalizedSample, int, error) {
	if _, ok := rules[sensorType]; !ok {
		return nil, 0, fmt.Errorf("unknown sensor type %q", sensorType)
	}

	dropped := 0
	out := make([]NormalizedSample, 0, len(samples))
	for _, s := range samples {
		ns, err := n.Normalize(sensorType, s)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, ns)
	}

	n.flagOutliers(out)
	out = n.impute(out)
	return out, dropped, nil
}

// flagOutliers marks samples whose rolling z-score against the trailing
// window exceeds the threshold. The baseline needs at least half a window.
func (n *Normalizer) flagOutliers(samples []NormalizedSample) {
	for i := n.OutlierWindow / 2; i < len(samples); i++ {
		lo := i - n.OutlierWindow
		if lo < 0 {
			lo = 0
		}
		window := make([]float64, 0, i-lo)
		for _, s := range samples[lo:i] {
			if s.Quality != QualityOutlier {
				window = append(window, s.Value)
			}
		}
		if len(window) < n.OutlierWindow/2 {
			continue
		}
		mean, std := stat.MeanStdDev(window, nil)
		if std == 0 || math.IsNaN(std) {
			continue
		}
		if math.Abs(samples[i].Value-mean)/std > n.OutlierZ {
			samples[i].Quality = QualityOutlier
			samples[i].Confidence *= 0.3
		}
	}
}

// impute bridges gaps up to MaxImputeGap with linearly interpolated samples
// placed at the midpoint cadence of the surrounding samples.
func (n *Normalizer) impute(samples []NormalizedSample) []NormalizedSample {
	if len(samples) < 3 {
		return samples
	}

	// Estimate the native cadence as the median inter-sample interval.
	cadence := medianInterval(samples)
	if cadence <= 0 {
		return samples
	}

	out := make([]NormalizedSample, 0, len(samples))
	for i, s := range samples {
		if i > 0 {
			prev := out[len(out)-1]
			gap := s.Timestamp.Sub(prev.Timestamp)
			if gap > cadence*3/2 && gap <= n.MaxImputeGap {
				steps := int(gap / cadence)
				for k := 1; k < steps; k++ {
					frac := float64(k) / float64(steps)
					out = append(out, NormalizedSample{
						Timestamp:  prev.Timestamp.Add(time.Duration(frac * float64(gap))),
						Value:      prev.Value + frac*(s.Value-prev.Value),
						Unit:       s.Unit,
						Confidence: 0.5,
						Quality:    QualityImputed,
					})
				}
			}
		}
		out = append(out, s)
	}
	return out
}

func medianInterval(samples []NormalizedSample) time.Duration {
	intervals := make([]time.Duration, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		intervals = append(intervals, samples[i].Timestamp.Sub(samples[i-1].Timestamp))
	}
	for i := 1; i < len(intervals); i++ {
		for j := i; j > 0 && intervals[j] < intervals[j-1]; j-- {
			intervals[j], intervals[j-1] = intervals[j-1], intervals[j]
		}
	}
	return intervals[len(intervals)/2]
}
