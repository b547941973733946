package app

import (
	"context"
	"fmt"
	"time"

	"biomarkers/internal/analytics"
	"biomarkers/internal/domain"
)

// Biomarker names accepted by the analytics endpoints.
const (
	BiomarkerHeartRate       = "heart_rate"
	BiomarkerRestingHR       = "rhr"
	BiomarkerGlucose         = "glucose"
	BiomarkerWeight          = "weight"
	BiomarkerSystolic        = "bp_systolic"
	BiomarkerSleepTotal      = "sleep_total"
	BiomarkerSleepEfficiency = "sleep_efficiency"
	BiomarkerHRV             = "hrv"
)

// DefaultBiomarkers is the set used when a request names none.
var DefaultBiomarkers = []string{
	BiomarkerRestingHR,
	BiomarkerGlucose,
	BiomarkerWeight,
	BiomarkerSystolic,
	BiomarkerSleepTotal,
	BiomarkerSleepEfficiency,
	BiomarkerHRV,
}

// SeriesLoader builds daily biomarker series from the reading repositories
// for the analytics engines.
type SeriesLoader struct {
	heartRate     domain.HeartRateRepository
	glucose       domain.GlucoseRepository
	bloodPressure domain.BloodPressureRepository
	weight        domain.WeightRepository
	sleep         domain.SleepRepository
}

// NewSeriesLoader creates a SeriesLoader over the given repositories.
func NewSeriesLoader(
	hr domain.HeartRateRepository,
	gl domain.GlucoseRepository,
	bp domain.BloodPressureRepository,
	wt domain.WeightRepository,
	sl domain.SleepRepository,
) *SeriesLoader {
	return &SeriesLoader{heartRate: hr, glucose: gl, bloodPressure: bp, weight: wt, sleep: sl}
}

// loadLimit bounds how many raw readings one series load will pull.
const loadLimit = 50000

// Load returns the daily series for one biomarker over the window.
func (l *SeriesLoader) Load(ctx context.Context, userID int64, biomarker string, start, end time.Time) (analytics.Series, error) {
	switch biomarker {
	case BiomarkerHeartRate, BiomarkerRestingHR:
		readings, err := l.heartRate.ListHeartRate(ctx, userID, start, end, loadLimit)
		if err != nil {
			return nil, err
		}
		s := make(analytics.Series, 0, len(readings))
		for _, r := range readings {
			s = append(s, analytics.Point{T: r.Timestamp, V: float64(r.BPM)})
		}
		if biomarker == BiomarkerRestingHR {
			return s.ResampleDailyMin(), nil
		}
		return s.ResampleDaily(), nil

	case BiomarkerGlucose:
		readings, err := l.glucose.ListGlucose(ctx, userID, start, end, loadLimit)
		if err != nil {
			return nil, err
		}
		s := make(analytics.Series, 0, len(readings))
		for _, r := range readings {
			s = append(s, analytics.Point{T: r.Timestamp, V: r.MgDl})
		}
		return s.ResampleDaily(), nil

	case BiomarkerWeight:
		readings, err := l.weight.ListWeight(ctx, userID, start, end, loadLimit)
		if err != nil {
			return nil, err
		}
		s := make(analytics.Series, 0, len(readings))
		for _, r := range readings {
			s = append(s, analytics.Point{T: r.Timestamp, V: r.Kg})
		}
		return s.ResampleDaily(), nil

	case BiomarkerSystolic:
		readings, err := l.bloodPressure.ListBloodPressure(ctx, userID, start, end, loadLimit)
		if err != nil {
			return nil, err
		}
		s := make(analytics.Series, 0, len(readings))
		for _, r := range readings {
			s = append(s, analytics.Point{T: r.Timestamp, V: float64(r.Systolic)})
		}
		return s.ResampleDaily(), nil

	case BiomarkerSleepTotal, BiomarkerSleepEfficiency, BiomarkerHRV:
		sessions, err := l.sleep.ListSleep(ctx, userID, start, end, loadLimit)
		if err != nil {
			return nil, err
		}
		s := make(analytics.Series, 0, len(sessions))
		for _, sess := range sessions {
			switch biomarker {
			case BiomarkerSleepTotal:
				s = append(s, analytics.Point{T: sess.EndTime, V: float64(sess.TotalSleepMinutes)})
			case BiomarkerSleepEfficiency:
				if sess.EfficiencyPct != nil {
					s = append(s, analytics.Point{T: sess.EndTime, V: *sess.EfficiencyPct})
				}
			case BiomarkerHRV:
				if sess.AvgHRVMs != nil {
					s = append(s, analytics.Point{T: sess.EndTime, V: *sess.AvgHRVMs})
				}
			}
		}
		return s.ResampleDaily(), nil
	}

	return nil, fmt.Errorf("unknown biomarker %q", biomarker)
}

// LoadAll returns daily series for each requested biomarker, omitting any
// that have no data.
func (l *SeriesLoader) LoadAll(ctx context.Context, userID int64, biomarkers []string, start, end time.Time) (map[string]analytics.Series, error) {
	out := make(map[string]analytics.Series, len(biomarkers))
	for _, b := range biomarkers {
		s, err := l.Load(ctx, userID, b, start, end)
		if err != nil {
			return nil, err
		}
		if len(s) > 0 {
			out[b] = s
		}
	}
	return out, nil
}
