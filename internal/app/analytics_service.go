package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"biomarkers/internal/analytics"
	"biomarkers/internal/domain"
)

// BiomarkerSummary is the per-biomarker aggregate in the summary report.
type BiomarkerSummary struct {
	Biomarker string  `json:"biomarker"`
	Days      int     `json:"days"`
	Mean      float64 `json:"mean"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// DailyAnalysisResult reports one run of the daily analysis: anomaly
// detection plus refreshed trends, correlations, and summary statistics.
type DailyAnalysisResult struct {
	RanAt         time.Time               `json:"ranAt"`
	Anomalies     []analytics.Anomaly     `json:"anomalies"`
	AlertsCreated []domain.Alert          `json:"alertsCreated"`
	Trends        []analytics.Trend       `json:"trends"`
	Correlations  []analytics.Correlation `json:"correlations"`
	Summary       []BiomarkerSummary      `json:"summary"`
}

// AnalyticsService runs the statistical engines over a user's biomarker
// history.
type AnalyticsService struct {
	loader   *SeriesLoader
	alerts   *AlertService
	trends   *analytics.TrendAnalyzer
	corr     *analytics.CorrelationEngine
	detector *analytics.AnomalyDetector
	log      zerolog.Logger
}

// NewAnalyticsService creates an AnalyticsService with default engine
// parameters.
func NewAnalyticsService(loader *SeriesLoader, alerts *AlertService, log zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{
		loader:   loader,
		alerts:   alerts,
		trends:   analytics.NewTrendAnalyzer(),
		corr:     analytics.NewCorrelationEngine(),
		detector: analytics.NewAnomalyDetector(),
		log:      log,
	}
}

// clampDays bounds an analysis window request.
func clampDays(days, def, max int) int {
	if days <= 0 {
		return def
	}
	if days > max {
		return max
	}
	return days
}

// HealthScore computes the composite health score over the recent window.
// Returns nil when the user has no scoreable data.
func (s *AnalyticsService) HealthScore(ctx context.Context, userID int64, days int) (*analytics.HealthScore, error) {
	days = clampDays(days, 7, 90)
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	var in analytics.ScoreInput

	if hrv, err := s.loader.Load(ctx, userID, BiomarkerHRV, start, end); err != nil {
		return nil, err
	} else {
		in.HRVRMSSD = hrv.Values()
	}
	if sleep, err := s.loader.Load(ctx, userID, BiomarkerSleepTotal, start, end); err != nil {
		return nil, err
	} else {
		in.SleepDuration = sleep.Values()
	}
	if eff, err := s.loader.Load(ctx, userID, BiomarkerSleepEfficiency, start, end); err != nil {
		return nil, err
	} else {
		in.SleepEfficiency = eff.Values()
	}
	if gl, err := s.loader.Load(ctx, userID, BiomarkerGlucose, start, end); err != nil {
		return nil, err
	} else {
		in.Glucose = gl.Values()
	}
	if rhr, err := s.loader.Load(ctx, userID, BiomarkerRestingHR, start, end); err != nil {
		return nil, err
	} else {
		in.RestingHR = rhr.Values()
	}

	return analytics.ComputeHealthScore(in), nil
}

// Trends fits linear trends for the requested biomarkers. Biomarkers with
// too little data are omitted.
func (s *AnalyticsService) Trends(ctx context.Context, userID int64, days int, biomarkers []string) ([]analytics.Trend, error) {
	days = clampDays(days, 30, 365)
	if len(biomarkers) == 0 {
		biomarkers = DefaultBiomarkers
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	series, err := s.loader.LoadAll(ctx, userID, biomarkers, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]analytics.Trend, 0, len(series))
	for _, b := range biomarkers {
		data, ok := series[b]
		if !ok {
			continue
		}
		if t := s.trends.Compute(data, b); t != nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

// Correlations discovers significant cross-biomarker correlations,
// including lagged ones, over the window.
func (s *AnalyticsService) Correlations(ctx context.Context, userID int64, days int, biomarkers []string) ([]analytics.Correlation, error) {
	days = clampDays(days, 90, 365)
	if len(biomarkers) == 0 {
		biomarkers = DefaultBiomarkers
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	series, err := s.loader.LoadAll(ctx, userID, biomarkers, start, end)
	if err != nil {
		return nil, err
	}
	return s.corr.Discover(series, biomarkers), nil
}

// Summary aggregates each biomarker's daily series over the window.
func (s *AnalyticsService) Summary(ctx context.Context, userID int64, days int) ([]BiomarkerSummary, error) {
	days = clampDays(days, 30, 365)
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	series, err := s.loader.LoadAll(ctx, userID, DefaultBiomarkers, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]BiomarkerSummary, 0, len(series))
	for _, b := range DefaultBiomarkers {
		data, ok := series[b]
		if !ok {
			continue
		}
		out = append(out, BiomarkerSummary{
			Biomarker: b,
			Days:      len(data),
			Mean:      data.Mean(),
			Min:       data.Min(),
			Max:       data.Max(),
		})
	}
	return out, nil
}

// anomalyBiomarkers are scanned by the daily analysis.
var anomalyBiomarkers = []string{
	BiomarkerGlucose,
	BiomarkerHeartRate,
	BiomarkerSystolic,
	BiomarkerWeight,
	BiomarkerHRV,
}

// detectionName maps a series name to the name anomaly detection runs
// under. The clinical HRV cut-offs are defined against SDNN, so the hrv
// series is detected as hrv_sdnn.
func detectionName(b string) string {
	if b == BiomarkerHRV {
		return "hrv_sdnn"
	}
	return b
}

// maxDailyCorrelations caps how many correlations a daily run reports,
// strongest first.
const maxDailyCorrelations = 10

// DailyAnalysis runs the full daily pipeline: anomaly detection with
// alerting over the trailing 60 days, weekly trends, the monthly
// correlation scan, and summary statistics. Deduplicated anomalies are
// reported without an alert.
func (s *AnalyticsService) DailyAnalysis(ctx context.Context, userID int64) (*DailyAnalysisResult, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -60)

	result := &DailyAnalysisResult{RanAt: end}
	for _, b := range anomalyBiomarkers {
		series, err := s.loader.Load(ctx, userID, b, start, end)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", b, err)
		}
		if len(series) == 0 {
			continue
		}

		anomalies := s.detector.Detect(series, detectionName(b))
		result.Anomalies = append(result.Anomalies, anomalies...)

		for _, a := range anomalies {
			alert, err := s.alerts.RaiseFromAnomaly(ctx, userID, a)
			if err != nil {
				return nil, err
			}
			if alert != nil {
				result.AlertsCreated = append(result.AlertsCreated, *alert)
			}
		}
	}

	trends, err := s.Trends(ctx, userID, 7, nil)
	if err != nil {
		return nil, fmt.Errorf("weekly trends: %w", err)
	}
	result.Trends = trends

	corr, err := s.Correlations(ctx, userID, 30, nil)
	if err != nil {
		return nil, fmt.Errorf("monthly correlations: %w", err)
	}
	if len(corr) > maxDailyCorrelations {
		corr = corr[:maxDailyCorrelations]
	}
	result.Correlations = corr

	summary, err := s.Summary(ctx, userID, 30)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}
	result.Summary = summary

	s.log.Info().
		Int64("user_id", userID).
		Int("anomalies", len(result.Anomalies)).
		Int("alerts", len(result.AlertsCreated)).
		Int("trends", len(result.Trends)).
		Int("correlations", len(result.Correlations)).
		Msg("daily analysis complete")
	return result, nil
}
