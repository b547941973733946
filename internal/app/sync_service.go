package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"biomarkers/internal/domain"
	"biomarkers/internal/ingest"
	"biomarkers/internal/metrics"
	"biomarkers/internal/oauth"
)

// SyncCounts reports how many records one sync run stored per kind.
type SyncCounts struct {
	Weight        int `json:"weight"`
	BloodPressure int `json:"bloodPressure"`
	HeartRate     int `json:"heartRate"`
	Sleep         int `json:"sleep"`
}

func (c SyncCounts) total() int {
	return c.Weight + c.BloodPressure + c.HeartRate + c.Sleep
}

// SyncService pulls data from vendor APIs for connected devices and stores
// it through the reading repositories.
type SyncService struct {
	devices    *DeviceService
	deviceRepo domain.DeviceRepository

	heartRate     domain.HeartRateRepository
	bloodPressure domain.BloodPressureRepository
	weight        domain.WeightRepository
	sleep         domain.SleepRepository

	// Base URLs are overridable for tests; empty selects production.
	WithingsBaseURL string
	WhoopBaseURL    string

	norm *ingest.Normalizer
	log  zerolog.Logger
}

// NewSyncService creates a SyncService.
func NewSyncService(
	devices *DeviceService,
	deviceRepo domain.DeviceRepository,
	hr domain.HeartRateRepository,
	bp domain.BloodPressureRepository,
	wt domain.WeightRepository,
	sl domain.SleepRepository,
	log zerolog.Logger,
) *SyncService {
	return &SyncService{
		devices:       devices,
		deviceRepo:    deviceRepo,
		heartRate:     hr,
		bloodPressure: bp,
		weight:        wt,
		sleep:         sl,
		norm:          ingest.NewNormalizer(),
		log:           log,
	}
}

// SyncDevice pulls the trailing daysBack days of data for one device and
// marks it synced.
func (s *SyncService) SyncDevice(ctx context.Context, userID int64, deviceID string, daysBack int) (SyncCounts, error) {
	if daysBack <= 0 {
		daysBack = 30
	}

	d, err := s.devices.Get(ctx, userID, deviceID)
	if err != nil {
		return SyncCounts{}, err
	}

	token, err := s.devices.AccessToken(ctx, d)
	if err != nil {
		return SyncCounts{}, err
	}

	end := time.Now()
	start := end.AddDate(0, 0, -daysBack)

	var counts SyncCounts
	switch d.Vendor {
	case domain.VendorWithings:
		counts, err = s.syncWithings(ctx, d, token, start, end)
	case domain.VendorWhoop:
		counts, err = s.syncWhoop(ctx, d, token, start, end)
	default:
		return SyncCounts{}, fmt.Errorf("%w: %s", ErrUnknownVendor, d.Vendor)
	}
	metrics.DeviceSyncs.WithLabelValues(d.Vendor, strconv.FormatBool(err == nil)).Inc()
	if err != nil {
		return counts, err
	}
	metrics.ReadingsIngested.WithLabelValues("weight").Add(float64(counts.Weight))
	metrics.ReadingsIngested.WithLabelValues("blood_pressure").Add(float64(counts.BloodPressure))
	metrics.ReadingsIngested.WithLabelValues("heart_rate").Add(float64(counts.HeartRate))
	metrics.ReadingsIngested.WithLabelValues("sleep").Add(float64(counts.Sleep))

	if err := s.deviceRepo.MarkDeviceSynced(ctx, d.ID, end); err != nil {
		return counts, err
	}

	s.log.Info().
		Str("device_id", d.ID).
		Str("vendor", d.Vendor).
		Int("records", counts.total()).
		Msg("device sync complete")
	return counts, nil
}

// SyncAllConnected syncs every connected device, continuing past individual
// failures.
func (s *SyncService) SyncAllConnected(ctx context.Context, daysBack int) {
	devices, err := s.deviceRepo.ListConnectedDevices(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("list connected devices")
		return
	}

	for _, d := range devices {
		if _, err := s.SyncDevice(ctx, d.UserID, d.ID, daysBack); err != nil {
			s.log.Error().Err(err).
				Str("device_id", d.ID).
				Str("vendor", d.Vendor).
				Msg("device sync failed")
		}
	}
}

func (s *SyncService) syncWithings(ctx context.Context, d *domain.Device, token string, start, end time.Time) (SyncCounts, error) {
	client := oauth.NewWithingsClient(token)
	if s.WithingsBaseURL != "" {
		client.BaseURL = s.WithingsBaseURL
	}

	var counts SyncCounts

	groups, err := client.Measurements(ctx, start, end)
	if err != nil {
		return counts, err
	}
	var weightSamples []ingest.Sample
	for _, g := range groups {
		at := g.Time()

		if kg, ok := g.Measure(oauth.WithingsTypeWeight); ok {
			weightSamples = append(weightSamples, ingest.Sample{Timestamp: at, Value: kg, Unit: "kg"})
		}

		sys, haveSys := g.Measure(oauth.WithingsTypeSystolic)
		dia, haveDia := g.Measure(oauth.WithingsTypeDiastolic)
		if haveSys && haveDia {
			r := &domain.BloodPressureReading{
				UserID:    d.UserID,
				Timestamp: at,
				Systolic:  int(sys),
				Diastolic: int(dia),
				DeviceID:  &d.ID,
			}
			if pulse, ok := g.Measure(oauth.WithingsTypePulse); ok {
				p := int(pulse)
				r.Pulse = &p
			}
			if r.Validate() == nil {
				id, err := s.bloodPressure.AddBloodPressure(ctx, r)
				if err != nil {
					return counts, err
				}
				if id != 0 {
					counts.BloodPressure++
				}
			}
		}
	}

	stored, err := s.persistWeights(ctx, d, weightSamples)
	if err != nil {
		return counts, err
	}
	counts.Weight = stored

	summaries, err := client.SleepSummaries(ctx, start, end)
	if err != nil {
		return counts, err
	}
	for _, n := range summaries {
		light := int(n.LightSleepDuration / 60)
		deep := int(n.DeepSleepDuration / 60)
		rem := int(n.RemSleepDuration / 60)

		sess := &domain.SleepSession{
			UserID:            d.UserID,
			StartTime:         time.Unix(n.Startdate, 0).UTC(),
			EndTime:           time.Unix(n.Enddate, 0).UTC(),
			TotalSleepMinutes: light + deep + rem,
			LightSleepMinutes: &light,
			DeepSleepMinutes:  &deep,
			RemSleepMinutes:   &rem,
			Score:             n.SleepScore,
			AvgHeartRateBPM:   n.HRAverage,
			MinHeartRateBPM:   n.HRMin,
			DeviceID:          &d.ID,
		}
		sess.TimeInBedMinutes = int(sess.EndTime.Sub(sess.StartTime).Minutes())
		if sess.Validate() != nil {
			continue
		}
		sess.ID = fmt.Sprintf("withings-%s-%d", d.ID, n.Startdate)
		if err := s.sleep.AddSleep(ctx, sess); err != nil {
			return counts, err
		}
		counts.Sleep++
	}

	return counts, nil
}

func (s *SyncService) syncWhoop(ctx context.Context, d *domain.Device, token string, start, end time.Time) (SyncCounts, error) {
	client := oauth.NewWhoopClient(token)
	if s.WhoopBaseURL != "" {
		client.BaseURL = s.WhoopBaseURL
	}

	var counts SyncCounts

	recoveries, err := client.Recoveries(ctx, start, end, 100)
	if err != nil {
		return counts, err
	}
	hrvBySleep := make(map[string]float64)
	var hrSamples []ingest.Sample
	for _, r := range recoveries {
		if !r.Scored() {
			continue
		}
		if r.Score.HRVRmssdMilli != nil && r.SleepID != "" {
			hrvBySleep[r.SleepID] = *r.Score.HRVRmssdMilli
		}
		if r.Score.RestingHeartRate != nil {
			hrSamples = append(hrSamples, ingest.Sample{
				Timestamp: r.CreatedAt,
				Value:     *r.Score.RestingHeartRate,
				Unit:      "bpm",
			})
		}
	}
	stored, err := s.persistRestingHeartRate(ctx, d, hrSamples)
	if err != nil {
		return counts, err
	}
	counts.HeartRate = stored

	sleeps, err := client.Sleeps(ctx, start, end, 100)
	if err != nil {
		return counts, err
	}
	for _, w := range sleeps {
		if !w.Scored() {
			continue
		}
		stages := w.Score.StageSummary
		light := int(stages.TotalLightMilli / 60000)
		deep := int(stages.TotalSlowWaveMilli / 60000)
		rem := int(stages.TotalREMMilli / 60000)

		sess := &domain.SleepSession{
			ID:                fmt.Sprintf("whoop-%s", w.ID),
			UserID:            d.UserID,
			StartTime:         w.Start,
			EndTime:           w.End,
			TotalSleepMinutes: light + deep + rem,
			TimeInBedMinutes:  int(stages.TotalInBedMilli / 60000),
			LightSleepMinutes: &light,
			DeepSleepMinutes:  &deep,
			RemSleepMinutes:   &rem,
			EfficiencyPct:     w.Score.SleepEfficiencyPercentage,
			DeviceID:          &d.ID,
		}
		if w.Score.SleepPerformancePercentage != nil {
			score := int(*w.Score.SleepPerformancePercentage)
			sess.Score = &score
		}
		if hrv, ok := hrvBySleep[w.ID]; ok {
			sess.AvgHRVMs = &hrv
		}
		if sess.Validate() != nil {
			continue
		}
		if err := s.sleep.AddSleep(ctx, sess); err != nil {
			return counts, err
		}
		counts.Sleep++
	}

	return counts, nil
}

// persistWeights runs a weight series through the normalizer and stores what
// survives. Flagged outliers and interpolated fill-ins are not persisted.
func (s *SyncService) persistWeights(ctx context.Context, d *domain.Device, samples []ingest.Sample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	normalized, dropped, err := s.norm.NormalizeSeries("weight", samples)
	if err != nil {
		return 0, err
	}
	if dropped > 0 {
		s.log.Warn().Int("dropped", dropped).Str("device_id", d.ID).Msg("weight samples out of range")
	}

	stored := 0
	for _, ns := range normalized {
		if ns.Quality == ingest.QualityOutlier || ns.Quality == ingest.QualityImputed {
			continue
		}
		r := &domain.WeightReading{UserID: d.UserID, Timestamp: ns.Timestamp, Kg: ns.Value, DeviceID: &d.ID}
		if r.Validate() != nil {
			continue
		}
		id, err := s.weight.AddWeight(ctx, r)
		if err != nil {
			return stored, err
		}
		if id != 0 {
			stored++
		}
	}
	return stored, nil
}

// persistRestingHeartRate normalizes and stores the resting heart rate
// stream from recovery records.
func (s *SyncService) persistRestingHeartRate(ctx context.Context, d *domain.Device, samples []ingest.Sample) (int, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	normalized, dropped, err := s.norm.NormalizeSeries("heart_rate", samples)
	if err != nil {
		return 0, err
	}
	if dropped > 0 {
		s.log.Warn().Int("dropped", dropped).Str("device_id", d.ID).Msg("heart rate samples out of range")
	}

	activity := "resting"
	stored := 0
	for _, ns := range normalized {
		if ns.Quality == ingest.QualityOutlier || ns.Quality == ingest.QualityImputed {
			continue
		}
		hr := &domain.HeartRateReading{
			UserID:       d.UserID,
			Timestamp:    ns.Timestamp,
			BPM:          int(ns.Value),
			ActivityType: &activity,
			DeviceID:     &d.ID,
		}
		if hr.Validate() != nil {
			continue
		}
		id, err := s.heartRate.AddHeartRate(ctx, hr)
		if err != nil {
			return stored, err
		}
		if id != 0 {
			stored++
		}
	}
	return stored, nil
}
