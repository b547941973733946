package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"biomarkers/internal/domain"
	"biomarkers/internal/oauth"
)

var (
	// ErrUnknownVendor indicates the device vendor has no OAuth integration.
	ErrUnknownVendor = errors.New("no integration for vendor")
	// ErrDeviceNotConnected indicates a sync was requested for a device
	// without a stored credential.
	ErrDeviceNotConnected = errors.New("device is not connected")
)

var validDeviceTypes = map[string]bool{
	domain.DeviceTypeSmartwatch:     true,
	domain.DeviceTypeFitnessTracker: true,
	domain.DeviceTypeCGM:            true,
	domain.DeviceTypeSmartRing:      true,
	domain.DeviceTypeSmartScale:     true,
	domain.DeviceTypeBloodPressure:  true,
	domain.DeviceTypeSleepTracker:   true,
	domain.DeviceTypeOther:          true,
}

// DeviceService manages registered devices and their OAuth credentials.
type DeviceService struct {
	repo      domain.DeviceRepository
	providers map[string]oauth.Provider
}

// NewDeviceService creates a DeviceService. The providers map is keyed by
// vendor name; vendors without an entry can only be paired manually.
func NewDeviceService(repo domain.DeviceRepository, providers map[string]oauth.Provider) *DeviceService {
	if providers == nil {
		providers = map[string]oauth.Provider{}
	}
	return &DeviceService{repo: repo, providers: providers}
}

// Register adds a new device for the user.
func (s *DeviceService) Register(ctx context.Context, userID int64, name, deviceType, vendor string, model *string) (*domain.Device, error) {
	if name == "" {
		return nil, errors.New("name is required")
	}
	if !validDeviceTypes[deviceType] {
		return nil, fmt.Errorf("unknown device type %q", deviceType)
	}
	if vendor == "" {
		vendor = domain.VendorGeneric
	}

	d := &domain.Device{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Type:      deviceType,
		Vendor:    vendor,
		Model:     model,
		CreatedAt: time.Now(),
	}
	if err := s.repo.AddDevice(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Get returns a device owned by the user, or ErrNotFound.
func (s *DeviceService) Get(ctx context.Context, userID int64, id string) (*domain.Device, error) {
	d, err := s.repo.GetDevice(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotFound
	}
	return d, nil
}

// List returns all devices owned by the user.
func (s *DeviceService) List(ctx context.Context, userID int64) ([]domain.Device, error) {
	return s.repo.ListDevices(ctx, userID)
}

// Delete removes a device and its stored credential.
func (s *DeviceService) Delete(ctx context.Context, userID int64, id string) error {
	return deleted(s.repo.DeleteDevice(ctx, userID, id))
}

// BeginConnect starts the OAuth flow for a device and returns the vendor
// authorization URL together with the state parameter the callback must
// echo back.
func (s *DeviceService) BeginConnect(ctx context.Context, userID int64, id string) (authURL, state string, err error) {
	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return "", "", err
	}
	p, ok := s.providers[d.Vendor]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnknownVendor, d.Vendor)
	}

	state, err = oauth.GenerateState()
	if err != nil {
		return "", "", err
	}
	return p.AuthorizationURL(state), state, nil
}

// CompleteConnect exchanges an authorization code from the OAuth callback
// and stores the resulting credential, marking the device connected.
func (s *DeviceService) CompleteConnect(ctx context.Context, userID int64, id, code string) error {
	d, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	p, ok := s.providers[d.Vendor]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownVendor, d.Vendor)
	}

	token, err := p.Exchange(ctx, code)
	if err != nil {
		return err
	}
	return s.repo.UpdateDeviceToken(ctx, d.ID, token)
}

// AccessToken returns a valid access token for a connected device,
// refreshing and persisting the credential when it has expired.
func (s *DeviceService) AccessToken(ctx context.Context, d *domain.Device) (string, error) {
	if d.Token.AccessToken == "" {
		return "", ErrDeviceNotConnected
	}
	if !d.Token.Expired() {
		return d.Token.AccessToken, nil
	}

	p, ok := s.providers[d.Vendor]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownVendor, d.Vendor)
	}
	if d.Token.RefreshToken == "" {
		return "", fmt.Errorf("%s token expired and no refresh token stored", d.Vendor)
	}

	token, err := p.Refresh(ctx, d.Token.RefreshToken)
	if err != nil {
		return "", err
	}
	if err := s.repo.UpdateDeviceToken(ctx, d.ID, token); err != nil {
		return "", err
	}
	d.Token = token
	return token.AccessToken, nil
}
