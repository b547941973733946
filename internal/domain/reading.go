package domain

import (
	"context"
	"time"
)

// HeartRateReading represents a single heart rate measurement.
type HeartRateReading struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	Timestamp    time.Time `json:"timestamp"`
	BPM          int       `json:"bpm"`
	ActivityType *string   `json:"activityType,omitempty"`
	Confidence   *float64  `json:"confidence,omitempty"`
	DeviceID     *string   `json:"deviceId,omitempty"`
}

// GlucoseReading represents a single glucose measurement (CGM or manual).
type GlucoseReading struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Timestamp   time.Time `json:"timestamp"`
	MgDl        float64   `json:"mgDl"`
	Trend       *string   `json:"trend,omitempty"`
	MealContext *string   `json:"mealContext,omitempty"`
	DeviceID    *string   `json:"deviceId,omitempty"`
}

// BloodPressureReading represents a single blood pressure measurement.
type BloodPressureReading struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
	Systolic  int       `json:"systolic"`
	Diastolic int       `json:"diastolic"`
	Pulse     *int      `json:"pulse,omitempty"`
	DeviceID  *string   `json:"deviceId,omitempty"`
}

// WeightReading represents a single body weight measurement in kilograms.
type WeightReading struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Timestamp time.Time `json:"timestamp"`
	Kg        float64   `json:"kg"`
	DeviceID  *string   `json:"deviceId,omitempty"`
}

// HeartRateRepository is the port for heart rate persistence.
type HeartRateRepository interface {
	AddHeartRate(ctx context.Context, r *HeartRateReading) (int64, error)
	ListHeartRate(ctx context.Context, userID int64, start, end time.Time, limit int) ([]HeartRateReading, error)
	DeleteHeartRate(ctx context.Context, userID, id int64) (bool, error)
}

// GlucoseRepository is the port for glucose persistence.
type GlucoseRepository interface {
	AddGlucose(ctx context.Context, r *GlucoseReading) (int64, error)
	ListGlucose(ctx context.Context, userID int64, start, end time.Time, limit int) ([]GlucoseReading, error)
	DeleteGlucose(ctx context.Context, userID, id int64) (bool, error)
}

// BloodPressureRepository is the port for blood pressure persistence.
type BloodPressureRepository interface {
	AddBloodPressure(ctx context.Context, r *BloodPressureReading) (int64, error)
	ListBloodPressure(ctx context.Context, userID int64, start, end time.Time, limit int) ([]BloodPressureReading, error)
	DeleteBloodPressure(ctx context.Context, userID, id int64) (bool, error)
}

// WeightRepository is the port for weight persistence.
type WeightRepository interface {
	AddWeight(ctx context.Context, r *WeightReading) (int64, error)
	ListWeight(ctx context.Context, userID int64, start, end time.Time, limit int) ([]WeightReading, error)
	DeleteWeight(ctx context.Context, userID, id int64) (bool, error)
}
