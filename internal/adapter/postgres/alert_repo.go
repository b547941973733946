package postgres

import (
	"context"
	"database/sql"
	"time"

	"biomarkers/internal/domain"
)

const alertColumns = "id, user_id, created_at, status, priority, biomarker, anomaly_type, value, title, message, recommendation, detected_at, acknowledged_at, resolved_at"

func scanAlert(row interface{ Scan(...any) error }) (*domain.Alert, error) {
	var a domain.Alert
	err := row.Scan(&a.ID, &a.UserID, &a.CreatedAt, &a.Status, &a.Priority,
		&a.Biomarker, &a.AnomalyType, &a.Value, &a.Title, &a.Message,
		&a.Recommendation, &a.DetectedAt, &a.AcknowledgedAt, &a.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// AddAlert inserts an alert.
func (d *DB) AddAlert(ctx context.Context, a *domain.Alert) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO alerts ("+alertColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)",
		a.ID, a.UserID, a.CreatedAt.UTC(), a.Status, a.Priority, a.Biomarker,
		a.AnomalyType, a.Value, a.Title, a.Message, a.Recommendation,
		a.DetectedAt.UTC(), a.AcknowledgedAt, a.ResolvedAt)
	return err
}

// GetAlert returns one alert owned by the user, or nil when absent.
func (d *DB) GetAlert(ctx context.Context, userID int64, id string) (*domain.Alert, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+alertColumns+" FROM alerts WHERE user_id = $1 AND id = $2",
		userID, id)
	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAlerts returns the user's alerts newest first. Empty status or
// priority skips that filter.
func (d *DB) ListAlerts(ctx context.Context, userID int64, status, priority string, limit int) ([]domain.Alert, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+alertColumns+" FROM alerts WHERE user_id = $1 AND ($2 = '' OR status = $2) AND ($3 = '' OR priority = $3) ORDER BY created_at DESC LIMIT $4",
		userID, status, priority, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

// ListAlertsSince returns alerts detected at or after the given time.
func (d *DB) ListAlertsSince(ctx context.Context, userID int64, since time.Time) ([]domain.Alert, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+alertColumns+" FROM alerts WHERE user_id = $1 AND detected_at >= $2 ORDER BY detected_at DESC",
		userID, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAlerts(rows)
}

func collectAlerts(rows *sql.Rows) ([]domain.Alert, error) {
	var out []domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// UpdateAlertStatus transitions an alert and stamps the transition time on
// the matching field.
func (d *DB) UpdateAlertStatus(ctx context.Context, userID int64, id, status string, at time.Time) (bool, error) {
	var query string
	switch status {
	case domain.AlertAcknowledged:
		query = "UPDATE alerts SET status = $3, acknowledged_at = $4 WHERE user_id = $1 AND id = $2"
	case domain.AlertResolved, domain.AlertDismissed:
		query = "UPDATE alerts SET status = $3, resolved_at = $4 WHERE user_id = $1 AND id = $2"
	default:
		query = "UPDATE alerts SET status = $3 WHERE user_id = $1 AND id = $2"
	}

	var res sql.Result
	var err error
	if status == domain.AlertActive {
		res, err = d.sql.ExecContext(ctx, query, userID, id, status)
	} else {
		res, err = d.sql.ExecContext(ctx, query, userID, id, status, at.UTC())
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
