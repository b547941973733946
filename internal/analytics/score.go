package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// HealthScore is a 0-100 composite of the available biomarker components.
// Components missing from the input are omitted and the remaining weights
// are renormalized, so a user with only sleep data still gets a score.
type HealthScore struct {
	Overall    float64            `json:"overall"`
	Components map[string]float64 `json:"components"`
}

// ScoreInput carries the recent raw values per component. Any slice may be
// empty.
type ScoreInput struct {
	HRVRMSSD        []float64 // ms
	SleepDuration   []float64 // minutes per night
	SleepEfficiency []float64 // percent per night
	Glucose         []float64 // mg/dL
	RestingHR       []float64 // bpm
}

var scoreWeights = map[string]float64{
	"hrv":     0.25,
	"sleep":   0.25,
	"glucose": 0.25,
	"rhr":     0.25,
}

// ComputeHealthScore returns nil when no component has data.
func ComputeHealthScore(in ScoreInput) *HealthScore {
	components := map[string]float64{}

	if len(in.HRVRMSSD) > 0 {
		components["hrv"] = scoreHRV(stat.Mean(in.HRVRMSSD, nil))
	}
	if len(in.SleepDuration) > 0 {
		components["sleep"] = scoreSleep(in.SleepDuration, in.SleepEfficiency)
	}
	if len(in.Glucose) > 0 {
		components["glucose"] = scoreGlucose(in.Glucose)
	}
	if len(in.RestingHR) > 0 {
		components["rhr"] = scoreRestingHR(stat.Mean(in.RestingHR, nil))
	}

	if len(components) == 0 {
		return nil
	}

	var weighted, totalWeight float64
	for name, score := range components {
		w := scoreWeights[name]
		weighted += score * w
		totalWeight += w
	}

	return &HealthScore{
		Overall:    round1(weighted / totalWeight),
		Components: components,
	}
}

// scoreHRV bands mean RMSSD: 50ms and above is excellent, below 30ms is poor.
func scoreHRV(rmssd float64) float64 {
	switch {
	case rmssd >= 50:
		return 100
	case rmssd >= 30:
		return round1(70 + (rmssd-30)*1.5)
	default:
		return round1(math.Max(0, rmssd*2.3))
	}
}

// scoreSleep averages a duration score (7-9h is optimal) with mean
// efficiency. Without efficiency data the duration score stands alone.
func scoreSleep(durations, efficiencies []float64) float64 {
	d := stat.Mean(durations, nil)

	var durationScore float64
	switch {
	case d >= 420 && d <= 540:
		durationScore = 100
	case d < 420:
		durationScore = d / 420 * 100
	default:
		durationScore = math.Max(0, 100-(d-540)/2)
	}

	if len(efficiencies) == 0 {
		return round1(durationScore)
	}
	eff := stat.Mean(efficiencies, nil)
	return round1((durationScore + eff) / 2)
}

// scoreGlucose is time-in-range (70-180 mg/dL) penalized by the coefficient
// of variation, capped at a 30 point penalty.
func scoreGlucose(values []float64) float64 {
	inRange := 0
	for _, v := range values {
		if v >= 70 && v <= 180 {
			inRange++
		}
	}
	tir := float64(inRange) / float64(len(values)) * 100

	mean, std := stat.MeanStdDev(values, nil)
	cv := 0.0
	if mean != 0 && len(values) > 1 {
		cv = std / mean * 100
	}

	return round1(math.Max(0, tir-math.Min(cv, 30)))
}

// scoreRestingHR bands mean resting heart rate: 60 bpm and below is ideal.
func scoreRestingHR(rhr float64) float64 {
	switch {
	case rhr <= 60:
		return 100
	case rhr <= 80:
		return round1(100 - (rhr-60)*2)
	default:
		return round1(math.Max(0, 60-(rhr-80)*2))
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
