package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"biomarkers/internal/domain"
	"biomarkers/internal/ingest"
)

// ErrNotFound indicates the requested record does not exist or belongs to
// another user.
var ErrNotFound = errors.New("not found")

// defaultListLimit caps reading queries that do not specify a limit.
const defaultListLimit = 1000

// calibrationWindow is how far apart a fingerstick and a sensor reading may
// be and still count as a calibration pair.
const calibrationWindow = 15 * time.Minute

// minCalibrationUpdates is how many pairs a calibrator needs before sensor
// readings are corrected.
const minCalibrationUpdates = 2

// ReadingService encapsulates biometric reading use cases: validated writes
// and windowed reads for each reading kind. Glucose sensor readings are run
// through a per-user calibrator learned from manual fingerstick references.
type ReadingService struct {
	heartRate     domain.HeartRateRepository
	glucose       domain.GlucoseRepository
	bloodPressure domain.BloodPressureRepository
	weight        domain.WeightRepository

	mu          sync.Mutex
	calibrators map[int64]*ingest.KalmanCalibrator
}

// NewReadingService creates a ReadingService backed by the given repositories.
func NewReadingService(
	hr domain.HeartRateRepository,
	gl domain.GlucoseRepository,
	bp domain.BloodPressureRepository,
	wt domain.WeightRepository,
) *ReadingService {
	return &ReadingService{
		heartRate:     hr,
		glucose:       gl,
		bloodPressure: bp,
		weight:        wt,
		calibrators:   make(map[int64]*ingest.KalmanCalibrator),
	}
}

// window normalizes a query range: a zero start means 30 days back, a zero
// end means now, and a non-positive limit gets the default.
func window(start, end time.Time, limit int) (time.Time, time.Time, int) {
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -30)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	return start, end, limit
}

// RecordHeartRate validates and stores a heart rate reading.
func (s *ReadingService) RecordHeartRate(ctx context.Context, r *domain.HeartRateReading) (int64, error) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	if err := r.Validate(); err != nil {
		return 0, err
	}
	return s.heartRate.AddHeartRate(ctx, r)
}

// ListHeartRate returns heart rate readings in the window in ascending
// time order.
func (s *ReadingService) ListHeartRate(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.HeartRateReading, error) {
	start, end, limit = window(start, end, limit)
	return s.heartRate.ListHeartRate(ctx, userID, start, end, limit)
}

// DeleteHeartRate removes a reading owned by the user.
func (s *ReadingService) DeleteHeartRate(ctx context.Context, userID, id int64) error {
	return deleted(s.heartRate.DeleteHeartRate(ctx, userID, id))
}

// RecordGlucose validates and stores a glucose reading. Device readings are
// corrected by the user's calibrator once it has seen enough fingerstick
// pairs. A manual reading also serves as a calibration reference when a
// device reading exists within the calibration window.
func (s *ReadingService) RecordGlucose(ctx context.Context, r *domain.GlucoseReading) (int64, error) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	if r.DeviceID != nil {
		s.applyGlucoseCalibration(r)
	}
	if err := r.Validate(); err != nil {
		return 0, err
	}
	id, err := s.glucose.AddGlucose(ctx, r)
	if err != nil {
		return 0, err
	}
	if r.DeviceID == nil {
		s.learnGlucoseCalibration(ctx, r)
	}
	return id, nil
}

// CalibrateGlucoseSensor fits a static correction from calibration points a
// device reports up front and installs it for the user, replacing whatever
// the calibrator had learned so far.
func (s *ReadingService) CalibrateGlucoseSensor(userID int64, raw, reference []float64) (scale, offset float64, err error) {
	scale, offset, err = ingest.FitCalibration(raw, reference)
	if err != nil {
		return 0, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := ingest.NewKalmanCalibrator()
	k.Seed(scale, offset, len(raw))
	s.calibrators[userID] = k
	return scale, offset, nil
}

func (s *ReadingService) applyGlucoseCalibration(r *domain.GlucoseReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.calibrators[r.UserID]
	if !ok || k.Updates() < minCalibrationUpdates {
		return
	}
	r.MgDl = k.Calibrate(r.MgDl)
}

// learnGlucoseCalibration pairs a manual fingerstick with the nearest device
// reading inside the calibration window and feeds the pair to the user's
// calibrator. Lookup errors are ignored so calibration never blocks a write.
func (s *ReadingService) learnGlucoseCalibration(ctx context.Context, ref *domain.GlucoseReading) {
	start := ref.Timestamp.Add(-calibrationWindow)
	end := ref.Timestamp.Add(calibrationWindow)
	readings, err := s.glucose.ListGlucose(ctx, ref.UserID, start, end, defaultListLimit)
	if err != nil {
		return
	}

	var nearest *domain.GlucoseReading
	for i := range readings {
		r := &readings[i]
		if r.DeviceID == nil {
			continue
		}
		if nearest == nil || timeGap(r.Timestamp, ref.Timestamp) < timeGap(nearest.Timestamp, ref.Timestamp) {
			nearest = r
		}
	}
	if nearest == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.calibrators[ref.UserID]
	if !ok {
		k = ingest.NewKalmanCalibrator()
		s.calibrators[ref.UserID] = k
	}
	k.Update(nearest.MgDl, ref.MgDl)
}

func timeGap(a, b time.Time) time.Duration {
	d := a.Sub(b)
	if d < 0 {
		return -d
	}
	return d
}

// ListGlucose returns glucose readings in the window in ascending time
// order.
func (s *ReadingService) ListGlucose(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.GlucoseReading, error) {
	start, end, limit = window(start, end, limit)
	return s.glucose.ListGlucose(ctx, userID, start, end, limit)
}

// DeleteGlucose removes a reading owned by the user.
func (s *ReadingService) DeleteGlucose(ctx context.Context, userID, id int64) error {
	return deleted(s.glucose.DeleteGlucose(ctx, userID, id))
}

// RecordBloodPressure validates and stores a blood pressure reading.
func (s *ReadingService) RecordBloodPressure(ctx context.Context, r *domain.BloodPressureReading) (int64, error) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	if err := r.Validate(); err != nil {
		return 0, err
	}
	return s.bloodPressure.AddBloodPressure(ctx, r)
}

// ListBloodPressure returns blood pressure readings in the window in
// ascending time order.
func (s *ReadingService) ListBloodPressure(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.BloodPressureReading, error) {
	start, end, limit = window(start, end, limit)
	return s.bloodPressure.ListBloodPressure(ctx, userID, start, end, limit)
}

// DeleteBloodPressure removes a reading owned by the user.
func (s *ReadingService) DeleteBloodPressure(ctx context.Context, userID, id int64) error {
	return deleted(s.bloodPressure.DeleteBloodPressure(ctx, userID, id))
}

// RecordWeight validates and stores a weight reading. The value and unit
// are converted to kilograms before validation.
func (s *ReadingService) RecordWeight(ctx context.Context, userID int64, value float64, unit string, at time.Time, deviceID *string) (int64, error) {
	if unit != "kg" && unit != "lb" {
		return 0, errors.New("unit must be \"kg\" or \"lb\"")
	}
	kg := domain.ConvertWeight(value, unit, "kg")
	if at.IsZero() {
		at = time.Now()
	}
	r := &domain.WeightReading{UserID: userID, Timestamp: at, Kg: kg, DeviceID: deviceID}
	if err := r.Validate(); err != nil {
		return 0, err
	}
	return s.weight.AddWeight(ctx, r)
}

// ListWeight returns weight readings in the window in ascending time
// order.
func (s *ReadingService) ListWeight(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.WeightReading, error) {
	start, end, limit = window(start, end, limit)
	return s.weight.ListWeight(ctx, userID, start, end, limit)
}

// DeleteWeight removes a reading owned by the user.
func (s *ReadingService) DeleteWeight(ctx context.Context, userID, id int64) error {
	return deleted(s.weight.DeleteWeight(ctx, userID, id))
}

func deleted(ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
