package postgres

import (
	"context"
	"database/sql"
	"time"

	"biomarkers/internal/domain"
)

// insertReading runs an insert that is a no-op when the row collides with
// an existing vendor reading. Returns id 0 for such duplicates.
func (d *DB) insertReading(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx, query, args...).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return id, err
}

// AddHeartRate inserts a heart rate reading and returns its ID.
func (d *DB) AddHeartRate(ctx context.Context, r *domain.HeartRateReading) (int64, error) {
	return d.insertReading(ctx,
		"INSERT INTO heart_rate_readings (user_id, ts, bpm, activity_type, confidence, device_id) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING RETURNING id",
		r.UserID, r.Timestamp.UTC(), r.BPM, r.ActivityType, r.Confidence, r.DeviceID,
	)
}

// ListHeartRate returns heart rate readings in [start, end) ordered by time.
func (d *DB) ListHeartRate(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.HeartRateReading, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, ts, bpm, activity_type, confidence, device_id FROM heart_rate_readings WHERE user_id = $1 AND ts >= $2 AND ts < $3 ORDER BY ts LIMIT $4",
		userID, start.UTC(), end.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HeartRateReading
	for rows.Next() {
		var r domain.HeartRateReading
		if err := rows.Scan(&r.ID, &r.UserID, &r.Timestamp, &r.BPM, &r.ActivityType, &r.Confidence, &r.DeviceID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteHeartRate removes a reading owned by the user.
func (d *DB) DeleteHeartRate(ctx context.Context, userID, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"DELETE FROM heart_rate_readings WHERE user_id = $1 AND id = $2", userID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// AddGlucose inserts a glucose reading and returns its ID.
func (d *DB) AddGlucose(ctx context.Context, r *domain.GlucoseReading) (int64, error) {
	return d.insertReading(ctx,
		"INSERT INTO glucose_readings (user_id, ts, mg_dl, trend, meal_context, device_id) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING RETURNING id",
		r.UserID, r.Timestamp.UTC(), r.MgDl, r.Trend, r.MealContext, r.DeviceID,
	)
}

// ListGlucose returns glucose readings in [start, end) ordered by time.
func (d *DB) ListGlucose(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.GlucoseReading, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, ts, mg_dl, trend, meal_context, device_id FROM glucose_readings WHERE user_id = $1 AND ts >= $2 AND ts < $3 ORDER BY ts LIMIT $4",
		userID, start.UTC(), end.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GlucoseReading
	for rows.Next() {
		var r domain.GlucoseReading
		if err := rows.Scan(&r.ID, &r.UserID, &r.Timestamp, &r.MgDl, &r.Trend, &r.MealContext, &r.DeviceID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteGlucose removes a reading owned by the user.
func (d *DB) DeleteGlucose(ctx context.Context, userID, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"DELETE FROM glucose_readings WHERE user_id = $1 AND id = $2", userID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// AddBloodPressure inserts a blood pressure reading and returns its ID.
func (d *DB) AddBloodPressure(ctx context.Context, r *domain.BloodPressureReading) (int64, error) {
	return d.insertReading(ctx,
		"INSERT INTO blood_pressure_readings (user_id, ts, systolic, diastolic, pulse, device_id) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT DO NOTHING RETURNING id",
		r.UserID, r.Timestamp.UTC(), r.Systolic, r.Diastolic, r.Pulse, r.DeviceID,
	)
}

// ListBloodPressure returns blood pressure readings in [start, end) ordered by time.
func (d *DB) ListBloodPressure(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.BloodPressureReading, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, ts, systolic, diastolic, pulse, device_id FROM blood_pressure_readings WHERE user_id = $1 AND ts >= $2 AND ts < $3 ORDER BY ts LIMIT $4",
		userID, start.UTC(), end.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BloodPressureReading
	for rows.Next() {
		var r domain.BloodPressureReading
		if err := rows.Scan(&r.ID, &r.UserID, &r.Timestamp, &r.Systolic, &r.Diastolic, &r.Pulse, &r.DeviceID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteBloodPressure removes a reading owned by the user.
func (d *DB) DeleteBloodPressure(ctx context.Context, userID, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"DELETE FROM blood_pressure_readings WHERE user_id = $1 AND id = $2", userID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// AddWeight inserts a weight reading and returns its ID.
func (d *DB) AddWeight(ctx context.Context, r *domain.WeightReading) (int64, error) {
	return d.insertReading(ctx,
		"INSERT INTO weight_readings (user_id, ts, kg, device_id) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING RETURNING id",
		r.UserID, r.Timestamp.UTC(), r.Kg, r.DeviceID,
	)
}

// ListWeight returns weight readings in [start, end) ordered by time.
func (d *DB) ListWeight(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.WeightReading, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, ts, kg, device_id FROM weight_readings WHERE user_id = $1 AND ts >= $2 AND ts < $3 ORDER BY ts LIMIT $4",
		userID, start.UTC(), end.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WeightReading
	for rows.Next() {
		var r domain.WeightReading
		if err := rows.Scan(&r.ID, &r.UserID, &r.Timestamp, &r.Kg, &r.DeviceID); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteWeight removes a reading owned by the user.
func (d *DB) DeleteWeight(ctx context.Context, userID, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"DELETE FROM weight_readings WHERE user_id = $1 AND id = $2", userID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
