// Package analytics implements the statistical core: trend detection,
// cross-biomarker correlation, anomaly detection and health scoring over
// biomarker time series.
package analytics

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Point is a single (timestamp, value) observation.
type Point struct {
	T time.Time `json:"t"`
	V float64   `json:"v"`
}

// Series is a time-ordered sequence of observations for one biomarker.
type Series []Point

// Sorted returns a copy of the series ordered by timestamp.
func (s Series) Sorted() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.Slice(out, func(i, j int) bool { return out[i].T.Before(out[j].T) })
	return out
}

// Values returns the raw values of the series.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.V
	}
	return out
}

// DropNaN returns the series without NaN values.
func (s Series) DropNaN() Series {
	out := make(Series, 0, len(s))
	for _, p := range s {
		if !math.IsNaN(p.V) {
			out = append(out, p)
		}
	}
	return out
}

// Mean returns the arithmetic mean of the series, or NaN if empty.
func (s Series) Mean() float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	return stat.Mean(s.Values(), nil)
}

// Min returns the smallest value of the series, or NaN if empty.
func (s Series) Min() float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	min := s[0].V
	for _, p := range s[1:] {
		if p.V < min {
			min = p.V
		}
	}
	return min
}

// Max returns the largest value of the series, or NaN if empty.
func (s Series) Max() float64 {
	if len(s) == 0 {
		return math.NaN()
	}
	max := s[0].V
	for _, p := range s[1:] {
		if p.V > max {
			max = p.V
		}
	}
	return max
}

func dayKey(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

// ResampleDaily buckets the series into UTC calendar days, one point per day
// at the day boundary carrying the mean of that day's observations.
func (s Series) ResampleDaily() Series {
	return s.resampleDaily(func(vs []float64) float64 { return stat.Mean(vs, nil) })
}

// ResampleDailyMin buckets into UTC days keeping the minimum of each day.
func (s Series) ResampleDailyMin() Series {
	return s.resampleDaily(func(vs []float64) float64 {
		min := vs[0]
		for _, v := range vs[1:] {
			if v < min {
				min = v
			}
		}
		return min
	})
}

func (s Series) resampleDaily(agg func([]float64) float64) Series {
	if len(s) == 0 {
		return nil
	}
	buckets := make(map[time.Time][]float64)
	for _, p := range s {
		if math.IsNaN(p.V) {
			continue
		}
		d := dayKey(p.T)
		buckets[d] = append(buckets[d], p.V)
	}
	out := make(Series, 0, len(buckets))
	for d, vs := range buckets {
		out = append(out, Point{T: d, V: agg(vs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].T.Before(out[j].T) })
	return out
}

// AlignDaily pairs two daily series with a day lag applied to the second.
// A positive lag pairs a's value on day d with b's value on day d+lag, so a
// positive lag means the first series leads the second.
func AlignDaily(a, b Series, lagDays int) (x, y []float64) {
	bByDay := make(map[time.Time]float64, len(b))
	for _, p := range b {
		bByDay[dayKey(p.T)] = p.V
	}
	offset := time.Duration(lagDays) * 24 * time.Hour
	for _, p := range a {
		v, ok := bByDay[dayKey(p.T).Add(offset)]
		if !ok || math.IsNaN(p.V) || math.IsNaN(v) {
			continue
		}
		x = append(x, p.V)
		y = append(y, v)
	}
	return x, y
}
