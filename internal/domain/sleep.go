package domain

import (
	"context"
	"time"
)

// SleepSession represents one night of sleep as reported by a tracker.
type SleepSession struct {
	ID                string    `json:"id"`
	UserID            int64     `json:"userId"`
	StartTime         time.Time `json:"startTime"`
	EndTime           time.Time `json:"endTime"`
	TotalSleepMinutes int       `json:"totalSleepMinutes"`
	TimeInBedMinutes  int       `json:"timeInBedMinutes"`
	LightSleepMinutes *int      `json:"lightSleepMinutes,omitempty"`
	DeepSleepMinutes  *int      `json:"deepSleepMinutes,omitempty"`
	RemSleepMinutes   *int      `json:"remSleepMinutes,omitempty"`
	EfficiencyPct     *float64  `json:"efficiencyPct,omitempty"`
	Score             *int      `json:"score,omitempty"`
	AvgHeartRateBPM   *int      `json:"avgHeartRateBpm,omitempty"`
	MinHeartRateBPM   *int      `json:"minHeartRateBpm,omitempty"`
	AvgHRVMs          *float64  `json:"avgHrvMs,omitempty"`
	DeviceID          *string   `json:"deviceId,omitempty"`
}

// SleepRepository is the port for sleep session persistence.
type SleepRepository interface {
	AddSleep(ctx context.Context, s *SleepSession) error
	ListSleep(ctx context.Context, userID int64, start, end time.Time, limit int) ([]SleepSession, error)
	LatestSleep(ctx context.Context, userID int64) (*SleepSession, error)
	DeleteSleep(ctx context.Context, userID int64, id string) (bool, error)
}
