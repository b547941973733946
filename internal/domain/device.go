package domain

import (
	"context"
	"time"
)

// Device types.
const (
	DeviceTypeSmartwatch     = "smartwatch"
	DeviceTypeFitnessTracker = "fitness_tracker"
	DeviceTypeCGM            = "cgm"
	DeviceTypeSmartRing      = "smart_ring"
	DeviceTypeSmartScale     = "smart_scale"
	DeviceTypeBloodPressure  = "blood_pressure"
	DeviceTypeSleepTracker   = "sleep_tracker"
	DeviceTypeOther          = "other"
)

// Device vendors with an OAuth integration or manual pairing.
const (
	VendorWithings = "withings"
	VendorWhoop    = "whoop"
	VendorGeneric  = "generic"
)

// OAuthToken holds the credential set issued by a device vendor.
type OAuthToken struct {
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"-"`
}

// Expired reports whether the access token is past its expiry.
func (t OAuthToken) Expired() bool {
	return !t.ExpiresAt.IsZero() && time.Now().After(t.ExpiresAt)
}

// Device represents a connected health device or data source.
type Device struct {
	ID         string     `json:"id"`
	UserID     int64      `json:"userId"`
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Vendor     string     `json:"vendor"`
	Model      *string    `json:"model,omitempty"`
	Connected  bool       `json:"connected"`
	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
	Token      OAuthToken `json:"-"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// DeviceRepository is the port for device persistence.
type DeviceRepository interface {
	AddDevice(ctx context.Context, d *Device) error
	GetDevice(ctx context.Context, userID int64, id string) (*Device, error)
	ListDevices(ctx context.Context, userID int64) ([]Device, error)
	ListConnectedDevices(ctx context.Context) ([]Device, error)
	DeleteDevice(ctx context.Context, userID int64, id string) (bool, error)
	UpdateDeviceToken(ctx context.Context, id string, token OAuthToken) error
	MarkDeviceSynced(ctx context.Context, id string, at time.Time) error
}
