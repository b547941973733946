package domain

import "fmt"

// Accepted measurement ranges for manually recorded readings. Values outside
// these bounds are rejected rather than stored.
const (
	MinHeartRateBPM = 30
	MaxHeartRateBPM = 250

	MinGlucoseMgDl = 20
	MaxGlucoseMgDl = 600

	MinSystolic  = 60
	MaxSystolic  = 250
	MinDiastolic = 30
	MaxDiastolic = 150

	MinWeightKg = 20
	MaxWeightKg = 500
)

// Validate checks a heart rate reading against accepted ranges.
func (r *HeartRateReading) Validate() error {
	if r.BPM < MinHeartRateBPM || r.BPM > MaxHeartRateBPM {
		return fmt.Errorf("heart rate must be between %d and %d bpm", MinHeartRateBPM, MaxHeartRateBPM)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// Validate checks a glucose reading against accepted ranges.
func (r *GlucoseReading) Validate() error {
	if r.MgDl < MinGlucoseMgDl || r.MgDl > MaxGlucoseMgDl {
		return fmt.Errorf("glucose must be between %d and %d mg/dL", MinGlucoseMgDl, MaxGlucoseMgDl)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// Validate checks a blood pressure reading against accepted ranges.
func (r *BloodPressureReading) Validate() error {
	if r.Systolic < MinSystolic || r.Systolic > MaxSystolic {
		return fmt.Errorf("systolic must be between %d and %d mmHg", MinSystolic, MaxSystolic)
	}
	if r.Diastolic < MinDiastolic || r.Diastolic > MaxDiastolic {
		return fmt.Errorf("diastolic must be between %d and %d mmHg", MinDiastolic, MaxDiastolic)
	}
	if r.Diastolic >= r.Systolic {
		return fmt.Errorf("diastolic must be below systolic")
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// Validate checks a weight reading against accepted ranges.
func (r *WeightReading) Validate() error {
	if r.Kg < MinWeightKg || r.Kg > MaxWeightKg {
		return fmt.Errorf("weight must be between %d and %d kg", MinWeightKg, MaxWeightKg)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	return nil
}

// Validate checks a sleep session for internal consistency.
func (s *SleepSession) Validate() error {
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return fmt.Errorf("start and end times are required")
	}
	if !s.EndTime.After(s.StartTime) {
		return fmt.Errorf("end time must be after start time")
	}
	if s.TotalSleepMinutes < 0 {
		return fmt.Errorf("total sleep minutes must not be negative")
	}
	inBed := int(s.EndTime.Sub(s.StartTime).Minutes())
	if s.TotalSleepMinutes > inBed {
		return fmt.Errorf("total sleep exceeds time in bed")
	}
	return nil
}
