package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps a *sql.DB and implements the domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// NewFromSQL wraps an existing connection without migrating. Used by tests.
func NewFromSQL(s *sql.DB) *DB {
	return &DB{sql: s}
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate(ctx context.Context) error {
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS users (id BIGSERIAL PRIMARY KEY, username TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE TABLE IF NOT EXISTS sessions (token TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, user_agent TEXT NOT NULL DEFAULT '', ip TEXT NOT NULL DEFAULT '', expires_at TIMESTAMPTZ NOT NULL, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",

		"CREATE TABLE IF NOT EXISTS heart_rate_readings (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, ts TIMESTAMPTZ NOT NULL, bpm INTEGER NOT NULL, activity_type TEXT, confidence DOUBLE PRECISION, device_id TEXT);",
		"CREATE INDEX IF NOT EXISTS idx_heart_rate_user_ts ON heart_rate_readings(user_id, ts);",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_heart_rate_device ON heart_rate_readings(user_id, ts, device_id) WHERE device_id IS NOT NULL;",

		"CREATE TABLE IF NOT EXISTS glucose_readings (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, ts TIMESTAMPTZ NOT NULL, mg_dl DOUBLE PRECISION NOT NULL, trend TEXT, meal_context TEXT, device_id TEXT);",
		"CREATE INDEX IF NOT EXISTS idx_glucose_user_ts ON glucose_readings(user_id, ts);",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_glucose_device ON glucose_readings(user_id, ts, device_id) WHERE device_id IS NOT NULL;",

		"CREATE TABLE IF NOT EXISTS blood_pressure_readings (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, ts TIMESTAMPTZ NOT NULL, systolic INTEGER NOT NULL, diastolic INTEGER NOT NULL, pulse INTEGER, device_id TEXT);",
		"CREATE INDEX IF NOT EXISTS idx_blood_pressure_user_ts ON blood_pressure_readings(user_id, ts);",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_blood_pressure_device ON blood_pressure_readings(user_id, ts, device_id) WHERE device_id IS NOT NULL;",

		"CREATE TABLE IF NOT EXISTS weight_readings (id BIGSERIAL PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, ts TIMESTAMPTZ NOT NULL, kg DOUBLE PRECISION NOT NULL, device_id TEXT);",
		"CREATE INDEX IF NOT EXISTS idx_weight_user_ts ON weight_readings(user_id, ts);",
		"CREATE UNIQUE INDEX IF NOT EXISTS uq_weight_device ON weight_readings(user_id, ts, device_id) WHERE device_id IS NOT NULL;",

		"CREATE TABLE IF NOT EXISTS sleep_sessions (id TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, start_time TIMESTAMPTZ NOT NULL, end_time TIMESTAMPTZ NOT NULL, total_sleep_minutes INTEGER NOT NULL, time_in_bed_minutes INTEGER NOT NULL, light_sleep_minutes INTEGER, deep_sleep_minutes INTEGER, rem_sleep_minutes INTEGER, efficiency_pct DOUBLE PRECISION, score INTEGER, avg_heart_rate_bpm INTEGER, min_heart_rate_bpm INTEGER, avg_hrv_ms DOUBLE PRECISION, device_id TEXT);",
		"CREATE INDEX IF NOT EXISTS idx_sleep_user_end ON sleep_sessions(user_id, end_time);",

		"CREATE TABLE IF NOT EXISTS devices (id TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, name TEXT NOT NULL, type TEXT NOT NULL, vendor TEXT NOT NULL, model TEXT, connected BOOLEAN NOT NULL DEFAULT FALSE, last_sync_at TIMESTAMPTZ, access_token TEXT NOT NULL DEFAULT '', refresh_token TEXT NOT NULL DEFAULT '', token_expires_at TIMESTAMPTZ, created_at TIMESTAMPTZ NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_devices_user ON devices(user_id);",

		"CREATE TABLE IF NOT EXISTS alerts (id TEXT PRIMARY KEY, user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE, created_at TIMESTAMPTZ NOT NULL, status TEXT NOT NULL, priority TEXT NOT NULL, biomarker TEXT NOT NULL, anomaly_type TEXT NOT NULL, value DOUBLE PRECISION NOT NULL, title TEXT NOT NULL, message TEXT NOT NULL, recommendation TEXT, detected_at TIMESTAMPTZ NOT NULL, acknowledged_at TIMESTAMPTZ, resolved_at TIMESTAMPTZ);",
		"CREATE INDEX IF NOT EXISTS idx_alerts_user_created ON alerts(user_id, created_at);",
		"CREATE INDEX IF NOT EXISTS idx_alerts_user_detected ON alerts(user_id, detected_at);",
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
