package postgres

import (
	"context"
	"database/sql"
	"time"

	"biomarkers/internal/domain"
)

const sleepColumns = "id, user_id, start_time, end_time, total_sleep_minutes, time_in_bed_minutes, light_sleep_minutes, deep_sleep_minutes, rem_sleep_minutes, efficiency_pct, score, avg_heart_rate_bpm, min_heart_rate_bpm, avg_hrv_ms, device_id"

func scanSleep(row interface{ Scan(...any) error }) (*domain.SleepSession, error) {
	var s domain.SleepSession
	err := row.Scan(&s.ID, &s.UserID, &s.StartTime, &s.EndTime, &s.TotalSleepMinutes,
		&s.TimeInBedMinutes, &s.LightSleepMinutes, &s.DeepSleepMinutes, &s.RemSleepMinutes,
		&s.EfficiencyPct, &s.Score, &s.AvgHeartRateBPM, &s.MinHeartRateBPM, &s.AvgHRVMs, &s.DeviceID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// AddSleep inserts a sleep session. Re-inserting an existing vendor session
// ID is a no-op so repeated device syncs stay idempotent.
func (d *DB) AddSleep(ctx context.Context, s *domain.SleepSession) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO sleep_sessions ("+sleepColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15) ON CONFLICT (id) DO NOTHING",
		s.ID, s.UserID, s.StartTime.UTC(), s.EndTime.UTC(), s.TotalSleepMinutes,
		s.TimeInBedMinutes, s.LightSleepMinutes, s.DeepSleepMinutes, s.RemSleepMinutes,
		s.EfficiencyPct, s.Score, s.AvgHeartRateBPM, s.MinHeartRateBPM, s.AvgHRVMs, s.DeviceID)
	return err
}

// ListSleep returns sleep sessions ending in [start, end) ordered by end time.
func (d *DB) ListSleep(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.SleepSession, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+sleepColumns+" FROM sleep_sessions WHERE user_id = $1 AND end_time >= $2 AND end_time < $3 ORDER BY end_time LIMIT $4",
		userID, start.UTC(), end.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SleepSession
	for rows.Next() {
		s, err := scanSleep(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// LatestSleep returns the most recent sleep session, or nil when none exist.
func (d *DB) LatestSleep(ctx context.Context, userID int64) (*domain.SleepSession, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+sleepColumns+" FROM sleep_sessions WHERE user_id = $1 ORDER BY end_time DESC LIMIT 1",
		userID)
	s, err := scanSleep(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// DeleteSleep removes a sleep session owned by the user.
func (d *DB) DeleteSleep(ctx context.Context, userID int64, id string) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"DELETE FROM sleep_sessions WHERE user_id = $1 AND id = $2", userID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
