package app

import (
	"context"
	"errors"
	"time"

	"biomarkers/internal/domain"
)

type mockUserRepo struct {
	getByUsernameFn func(ctx context.Context, username string) (*domain.User, error)
	getByIDFn       func(ctx context.Context, id int64) (*domain.User, error)
	createFn        func(ctx context.Context, username, passwordHash string) (*domain.User, error)
	countFn         func(ctx context.Context) (int, error)
	listFn          func(ctx context.Context) ([]domain.User, error)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, errors.New("not found")
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, errors.New("not found")
}

func (m *mockUserRepo) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, username, passwordHash)
	}
	return &domain.User{ID: 1, Username: username, PasswordHash: passwordHash}, nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockSessionRepo struct {
	createFn        func(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error
	getByTokenFn    func(ctx context.Context, token string) (*domain.Session, error)
	deleteFn        func(ctx context.Context, token string) error
	deleteExpiredFn func(ctx context.Context) error
}

func (m *mockSessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	if m.createFn != nil {
		return m.createFn(ctx, userID, token, userAgent, ip, expiresAt)
	}
	return nil
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.getByTokenFn != nil {
		return m.getByTokenFn(ctx, token)
	}
	return nil, errors.New("not found")
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, token)
	}
	return nil
}

func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx)
	}
	return nil
}

type mockHeartRateRepo struct {
	addFn    func(ctx context.Context, r *domain.HeartRateReading) (int64, error)
	listFn   func(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.HeartRateReading, error)
	deleteFn func(ctx context.Context, userID, id int64) (bool, error)
}

func (m *mockHeartRateRepo) AddHeartRate(ctx context.Context, r *domain.HeartRateReading) (int64, error) {
	if m.addFn != nil {
		return m.addFn(ctx, r)
	}
	return 1, nil
}

func (m *mockHeartRateRepo) ListHeartRate(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.HeartRateReading, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, start, end, limit)
	}
	return nil, nil
}

func (m *mockHeartRateRepo) DeleteHeartRate(ctx context.Context, userID, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return false, nil
}

type mockGlucoseRepo struct {
	addFn    func(ctx context.Context, r *domain.GlucoseReading) (int64, error)
	listFn   func(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.GlucoseReading, error)
	deleteFn func(ctx context.Context, userID, id int64) (bool, error)
}

func (m *mockGlucoseRepo) AddGlucose(ctx context.Context, r *domain.GlucoseReading) (int64, error) {
	if m.addFn != nil {
		return m.addFn(ctx, r)
	}
	return 1, nil
}

func (m *mockGlucoseRepo) ListGlucose(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.GlucoseReading, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, start, end, limit)
	}
	return nil, nil
}

func (m *mockGlucoseRepo) DeleteGlucose(ctx context.Context, userID, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return false, nil
}

type mockBloodPressureRepo struct {
	addFn    func(ctx context.Context, r *domain.BloodPressureReading) (int64, error)
	listFn   func(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.BloodPressureReading, error)
	deleteFn func(ctx context.Context, userID, id int64) (bool, error)
}

func (m *mockBloodPressureRepo) AddBloodPressure(ctx context.Context, r *domain.BloodPressureReading) (int64, error) {
	if m.addFn != nil {
		return m.addFn(ctx, r)
	}
	return 1, nil
}

func (m *mockBloodPressureRepo) ListBloodPressure(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.BloodPressureReading, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, start, end, limit)
	}
	return nil, nil
}

func (m *mockBloodPressureRepo) DeleteBloodPressure(ctx context.Context, userID, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return false, nil
}

type mockWeightRepo struct {
	addFn    func(ctx context.Context, r *domain.WeightReading) (int64, error)
	listFn   func(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.WeightReading, error)
	deleteFn func(ctx context.Context, userID, id int64) (bool, error)
}

func (m *mockWeightRepo) AddWeight(ctx context.Context, r *domain.WeightReading) (int64, error) {
	if m.addFn != nil {
		return m.addFn(ctx, r)
	}
	return 1, nil
}

func (m *mockWeightRepo) ListWeight(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.WeightReading, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, start, end, limit)
	}
	return nil, nil
}

func (m *mockWeightRepo) DeleteWeight(ctx context.Context, userID, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return false, nil
}

type mockSleepRepo struct {
	addFn    func(ctx context.Context, s *domain.SleepSession) error
	listFn   func(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.SleepSession, error)
	latestFn func(ctx context.Context, userID int64) (*domain.SleepSession, error)
	deleteFn func(ctx context.Context, userID int64, id string) (bool, error)
}

func (m *mockSleepRepo) AddSleep(ctx context.Context, s *domain.SleepSession) error {
	if m.addFn != nil {
		return m.addFn(ctx, s)
	}
	return nil
}

func (m *mockSleepRepo) ListSleep(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.SleepSession, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, start, end, limit)
	}
	return nil, nil
}

func (m *mockSleepRepo) LatestSleep(ctx context.Context, userID int64) (*domain.SleepSession, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockSleepRepo) DeleteSleep(ctx context.Context, userID int64, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return false, nil
}

type mockDeviceRepo struct {
	addFn           func(ctx context.Context, d *domain.Device) error
	getFn           func(ctx context.Context, userID int64, id string) (*domain.Device, error)
	listFn          func(ctx context.Context, userID int64) ([]domain.Device, error)
	listConnectedFn func(ctx context.Context) ([]domain.Device, error)
	deleteFn        func(ctx context.Context, userID int64, id string) (bool, error)
	updateTokenFn   func(ctx context.Context, id string, token domain.OAuthToken) error
	markSyncedFn    func(ctx context.Context, id string, at time.Time) error
}

func (m *mockDeviceRepo) AddDevice(ctx context.Context, d *domain.Device) error {
	if m.addFn != nil {
		return m.addFn(ctx, d)
	}
	return nil
}

func (m *mockDeviceRepo) GetDevice(ctx context.Context, userID int64, id string) (*domain.Device, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockDeviceRepo) ListDevices(ctx context.Context, userID int64) ([]domain.Device, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockDeviceRepo) ListConnectedDevices(ctx context.Context) ([]domain.Device, error) {
	if m.listConnectedFn != nil {
		return m.listConnectedFn(ctx)
	}
	return nil, nil
}

func (m *mockDeviceRepo) DeleteDevice(ctx context.Context, userID int64, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, id)
	}
	return false, nil
}

func (m *mockDeviceRepo) UpdateDeviceToken(ctx context.Context, id string, token domain.OAuthToken) error {
	if m.updateTokenFn != nil {
		return m.updateTokenFn(ctx, id, token)
	}
	return nil
}

func (m *mockDeviceRepo) MarkDeviceSynced(ctx context.Context, id string, at time.Time) error {
	if m.markSyncedFn != nil {
		return m.markSyncedFn(ctx, id, at)
	}
	return nil
}

type mockAlertRepo struct {
	addFn          func(ctx context.Context, a *domain.Alert) error
	getFn          func(ctx context.Context, userID int64, id string) (*domain.Alert, error)
	listFn         func(ctx context.Context, userID int64, status, priority string, limit int) ([]domain.Alert, error)
	listSinceFn    func(ctx context.Context, userID int64, since time.Time) ([]domain.Alert, error)
	updateStatusFn func(ctx context.Context, userID int64, id, status string, at time.Time) (bool, error)
}

func (m *mockAlertRepo) AddAlert(ctx context.Context, a *domain.Alert) error {
	if m.addFn != nil {
		return m.addFn(ctx, a)
	}
	return nil
}

func (m *mockAlertRepo) GetAlert(ctx context.Context, userID int64, id string) (*domain.Alert, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockAlertRepo) ListAlerts(ctx context.Context, userID int64, status, priority string, limit int) ([]domain.Alert, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, status, priority, limit)
	}
	return nil, nil
}

func (m *mockAlertRepo) ListAlertsSince(ctx context.Context, userID int64, since time.Time) ([]domain.Alert, error) {
	if m.listSinceFn != nil {
		return m.listSinceFn(ctx, userID, since)
	}
	return nil, nil
}

func (m *mockAlertRepo) UpdateAlertStatus(ctx context.Context, userID int64, id, status string, at time.Time) (bool, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, userID, id, status, at)
	}
	return true, nil
}
