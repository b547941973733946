package postgres

import (
	"context"
	"database/sql"
	"time"

	"biomarkers/internal/domain"
)

const deviceColumns = "id, user_id, name, type, vendor, model, connected, last_sync_at, access_token, refresh_token, token_expires_at, created_at"

func scanDevice(row interface{ Scan(...any) error }) (*domain.Device, error) {
	var d domain.Device
	var expires sql.NullTime
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Type, &d.Vendor, &d.Model,
		&d.Connected, &d.LastSyncAt, &d.Token.AccessToken, &d.Token.RefreshToken,
		&expires, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if expires.Valid {
		d.Token.ExpiresAt = expires.Time
	}
	return &d, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// AddDevice inserts a device.
func (d *DB) AddDevice(ctx context.Context, dev *domain.Device) error {
	_, err := d.sql.ExecContext(ctx,
		"INSERT INTO devices ("+deviceColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)",
		dev.ID, dev.UserID, dev.Name, dev.Type, dev.Vendor, dev.Model,
		dev.Connected, dev.LastSyncAt, dev.Token.AccessToken, dev.Token.RefreshToken,
		nullTime(dev.Token.ExpiresAt), dev.CreatedAt)
	return err
}

// GetDevice returns one device owned by the user, or nil when absent.
func (d *DB) GetDevice(ctx context.Context, userID int64, id string) (*domain.Device, error) {
	row := d.sql.QueryRowContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE user_id = $1 AND id = $2",
		userID, id)
	dev, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// ListDevices returns the user's devices ordered by creation time.
func (d *DB) ListDevices(ctx context.Context, userID int64) ([]domain.Device, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE user_id = $1 ORDER BY created_at",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDevices(rows)
}

// ListConnectedDevices returns every connected device across all users.
func (d *DB) ListConnectedDevices(ctx context.Context) ([]domain.Device, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE connected ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectDevices(rows)
}

func collectDevices(rows *sql.Rows) ([]domain.Device, error) {
	var out []domain.Device
	for rows.Next() {
		dev, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *dev)
	}
	return out, rows.Err()
}

// DeleteDevice removes a device owned by the user.
func (d *DB) DeleteDevice(ctx context.Context, userID int64, id string) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"DELETE FROM devices WHERE user_id = $1 AND id = $2", userID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateDeviceToken stores a fresh credential set and marks the device
// connected.
func (d *DB) UpdateDeviceToken(ctx context.Context, id string, token domain.OAuthToken) error {
	_, err := d.sql.ExecContext(ctx,
		"UPDATE devices SET access_token = $1, refresh_token = $2, token_expires_at = $3, connected = TRUE WHERE id = $4",
		token.AccessToken, token.RefreshToken, nullTime(token.ExpiresAt), id)
	return err
}

// MarkDeviceSynced records the completion time of a sync.
func (d *DB) MarkDeviceSynced(ctx context.Context, id string, at time.Time) error {
	_, err := d.sql.ExecContext(ctx,
		"UPDATE devices SET last_sync_at = $1 WHERE id = $2", at.UTC(), id)
	return err
}
