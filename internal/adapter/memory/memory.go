// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"biomarkers/internal/domain"
)

// DB implements in-memory storage for every domain repository.
type DB struct {
	mu            sync.Mutex
	users         []*domain.User
	sessions      map[string]*domain.Session
	heartRates    []domain.HeartRateReading
	glucose       []domain.GlucoseReading
	bloodPressure []domain.BloodPressureReading
	weights       []domain.WeightReading
	sleep         map[string]domain.SleepSession
	devices       map[string]domain.Device
	alerts        map[string]domain.Alert

	userIDCounter    int64
	readingIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		sessions: make(map[string]*domain.Session),
		sleep:    make(map[string]domain.SleepSession),
		devices:  make(map[string]domain.Device),
		alerts:   make(map[string]domain.Alert),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)
var _ domain.HeartRateRepository = (*DB)(nil)
var _ domain.GlucoseRepository = (*DB)(nil)
var _ domain.BloodPressureRepository = (*DB)(nil)
var _ domain.WeightRepository = (*DB)(nil)
var _ domain.SleepRepository = (*DB)(nil)
var _ domain.DeviceRepository = (*DB)(nil)
var _ domain.AlertRepository = (*DB)(nil)

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, u := range db.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, u := range db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("username already exists")
		}
	}
	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	db.users = append(db.users, u)
	cp := *u
	return &cp, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// List returns all users ordered by ID.
func (db *DB) List(ctx context.Context) ([]domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]domain.User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- SessionRepository ---

// SessionRepo implements session operations on the in-memory DB.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.sessions[token] = &domain.Session{
		Token:     token,
		UserID:    userID,
		UserAgent: userAgent,
		IP:        ip,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	s, ok := r.db.sessions[token]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for token, s := range r.db.sessions {
		if s.ExpiresAt.Before(now) {
			delete(r.db.sessions, token)
		}
	}
	return nil
}

// --- HeartRateRepository ---

// sameVendorReading reports whether two rows are the same vendor
// observation: same user, timestamp and device. Manual rows (no device)
// never collide.
func sameVendorReading(aUser int64, aTs time.Time, aDev *string, bUser int64, bTs time.Time, bDev *string) bool {
	return aDev != nil && bDev != nil && *aDev == *bDev && aUser == bUser && aTs.Equal(bTs)
}

// AddHeartRate adds a heart rate reading. A duplicate vendor reading is a
// no-op reported as id 0.
func (db *DB) AddHeartRate(ctx context.Context, r *domain.HeartRateReading) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, e := range db.heartRates {
		if sameVendorReading(e.UserID, e.Timestamp, e.DeviceID, r.UserID, r.Timestamp, r.DeviceID) {
			return 0, nil
		}
	}
	db.readingIDCounter++
	cp := *r
	cp.ID = db.readingIDCounter
	db.heartRates = append(db.heartRates, cp)
	return cp.ID, nil
}

// ListHeartRate returns heart rate readings in [start, end) ordered by time.
func (db *DB) ListHeartRate(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.HeartRateReading, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.HeartRateReading
	for _, r := range db.heartRates {
		if r.UserID == userID && inWindow(r.Timestamp, start, end) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteHeartRate removes a reading owned by the user.
func (db *DB) DeleteHeartRate(ctx context.Context, userID, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i, r := range db.heartRates {
		if r.UserID == userID && r.ID == id {
			db.heartRates = append(db.heartRates[:i], db.heartRates[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// --- GlucoseRepository ---

// AddGlucose adds a glucose reading. A duplicate vendor reading is a
// no-op reported as id 0.
func (db *DB) AddGlucose(ctx context.Context, r *domain.GlucoseReading) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, e := range db.glucose {
		if sameVendorReading(e.UserID, e.Timestamp, e.DeviceID, r.UserID, r.Timestamp, r.DeviceID) {
			return 0, nil
		}
	}
	db.readingIDCounter++
	cp := *r
	cp.ID = db.readingIDCounter
	db.glucose = append(db.glucose, cp)
	return cp.ID, nil
}

// ListGlucose returns glucose readings in [start, end) ordered by time.
func (db *DB) ListGlucose(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.GlucoseReading, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.GlucoseReading
	for _, r := range db.glucose {
		if r.UserID == userID && inWindow(r.Timestamp, start, end) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteGlucose removes a reading owned by the user.
func (db *DB) DeleteGlucose(ctx context.Context, userID, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i, r := range db.glucose {
		if r.UserID == userID && r.ID == id {
			db.glucose = append(db.glucose[:i], db.glucose[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// --- BloodPressureRepository ---

// AddBloodPressure adds a blood pressure reading. A duplicate vendor
// reading is a no-op reported as id 0.
func (db *DB) AddBloodPressure(ctx context.Context, r *domain.BloodPressureReading) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, e := range db.bloodPressure {
		if sameVendorReading(e.UserID, e.Timestamp, e.DeviceID, r.UserID, r.Timestamp, r.DeviceID) {
			return 0, nil
		}
	}
	db.readingIDCounter++
	cp := *r
	cp.ID = db.readingIDCounter
	db.bloodPressure = append(db.bloodPressure, cp)
	return cp.ID, nil
}

// ListBloodPressure returns blood pressure readings in [start, end) ordered by time.
func (db *DB) ListBloodPressure(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.BloodPressureReading, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.BloodPressureReading
	for _, r := range db.bloodPressure {
		if r.UserID == userID && inWindow(r.Timestamp, start, end) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteBloodPressure removes a reading owned by the user.
func (db *DB) DeleteBloodPressure(ctx context.Context, userID, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i, r := range db.bloodPressure {
		if r.UserID == userID && r.ID == id {
			db.bloodPressure = append(db.bloodPressure[:i], db.bloodPressure[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// --- WeightRepository ---

// AddWeight adds a weight reading. A duplicate vendor reading is a no-op
// reported as id 0.
func (db *DB) AddWeight(ctx context.Context, r *domain.WeightReading) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, e := range db.weights {
		if sameVendorReading(e.UserID, e.Timestamp, e.DeviceID, r.UserID, r.Timestamp, r.DeviceID) {
			return 0, nil
		}
	}
	db.readingIDCounter++
	cp := *r
	cp.ID = db.readingIDCounter
	db.weights = append(db.weights, cp)
	return cp.ID, nil
}

// ListWeight returns weight readings in [start, end) ordered by time.
func (db *DB) ListWeight(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.WeightReading, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.WeightReading
	for _, r := range db.weights {
		if r.UserID == userID && inWindow(r.Timestamp, start, end) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteWeight removes a reading owned by the user.
func (db *DB) DeleteWeight(ctx context.Context, userID, id int64) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i, r := range db.weights {
		if r.UserID == userID && r.ID == id {
			db.weights = append(db.weights[:i], db.weights[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// --- SleepRepository ---

// AddSleep stores a sleep session. Storing an existing ID again is a no-op
// so repeated device syncs stay idempotent.
func (db *DB) AddSleep(ctx context.Context, s *domain.SleepSession) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.sleep[s.ID]; ok {
		return nil
	}
	db.sleep[s.ID] = *s
	return nil
}

// ListSleep returns sleep sessions ending in [start, end) ordered by end time.
func (db *DB) ListSleep(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.SleepSession, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.SleepSession
	for _, s := range db.sleep {
		if s.UserID == userID && inWindow(s.EndTime, start, end) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndTime.Before(out[j].EndTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// LatestSleep returns the most recent sleep session, or nil when none exist.
func (db *DB) LatestSleep(ctx context.Context, userID int64) (*domain.SleepSession, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var latest *domain.SleepSession
	for _, s := range db.sleep {
		s := s
		if s.UserID != userID {
			continue
		}
		if latest == nil || s.EndTime.After(latest.EndTime) {
			latest = &s
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

// DeleteSleep removes a sleep session owned by the user.
func (db *DB) DeleteSleep(ctx context.Context, userID int64, id string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.sleep[id]
	if !ok || s.UserID != userID {
		return false, nil
	}
	delete(db.sleep, id)
	return true, nil
}

// --- DeviceRepository ---

// AddDevice stores a device.
func (db *DB) AddDevice(ctx context.Context, d *domain.Device) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.devices[d.ID] = *d
	return nil
}

// GetDevice returns one device owned by the user, or nil when absent.
func (db *DB) GetDevice(ctx context.Context, userID int64, id string) (*domain.Device, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	d, ok := db.devices[id]
	if !ok || d.UserID != userID {
		return nil, nil
	}
	cp := d
	return &cp, nil
}

// ListDevices returns the user's devices ordered by creation time.
func (db *DB) ListDevices(ctx context.Context, userID int64) ([]domain.Device, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.Device
	for _, d := range db.devices {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// ListConnectedDevices returns every connected device across all users.
func (db *DB) ListConnectedDevices(ctx context.Context) ([]domain.Device, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.Device
	for _, d := range db.devices {
		if d.Connected {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteDevice removes a device owned by the user.
func (db *DB) DeleteDevice(ctx context.Context, userID int64, id string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	d, ok := db.devices[id]
	if !ok || d.UserID != userID {
		return false, nil
	}
	delete(db.devices, id)
	return true, nil
}

// UpdateDeviceToken stores a fresh credential set and marks the device
// connected.
func (db *DB) UpdateDeviceToken(ctx context.Context, id string, token domain.OAuthToken) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	d, ok := db.devices[id]
	if !ok {
		return errors.New("device not found")
	}
	d.Token = token
	d.Connected = true
	db.devices[id] = d
	return nil
}

// MarkDeviceSynced records the completion time of a sync.
func (db *DB) MarkDeviceSynced(ctx context.Context, id string, at time.Time) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	d, ok := db.devices[id]
	if !ok {
		return errors.New("device not found")
	}
	d.LastSyncAt = &at
	db.devices[id] = d
	return nil
}

// --- AlertRepository ---

// AddAlert stores an alert.
func (db *DB) AddAlert(ctx context.Context, a *domain.Alert) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.alerts[a.ID] = *a
	return nil
}

// GetAlert returns one alert owned by the user, or nil when absent.
func (db *DB) GetAlert(ctx context.Context, userID int64, id string) (*domain.Alert, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	a, ok := db.alerts[id]
	if !ok || a.UserID != userID {
		return nil, nil
	}
	cp := a
	return &cp, nil
}

// ListAlerts returns the user's alerts newest first. Empty status or
// priority skips that filter.
func (db *DB) ListAlerts(ctx context.Context, userID int64, status, priority string, limit int) ([]domain.Alert, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.Alert
	for _, a := range db.alerts {
		if a.UserID != userID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		if priority != "" && a.Priority != priority {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListAlertsSince returns alerts detected at or after the given time.
func (db *DB) ListAlertsSince(ctx context.Context, userID int64, since time.Time) ([]domain.Alert, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []domain.Alert
	for _, a := range db.alerts {
		if a.UserID == userID && !a.DetectedAt.Before(since) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.After(out[j].DetectedAt) })
	return out, nil
}

// UpdateAlertStatus transitions an alert and stamps the transition time on
// the matching field.
func (db *DB) UpdateAlertStatus(ctx context.Context, userID int64, id, status string, at time.Time) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	a, ok := db.alerts[id]
	if !ok || a.UserID != userID {
		return false, nil
	}
	a.Status = status
	switch status {
	case domain.AlertAcknowledged:
		a.AcknowledgedAt = &at
	case domain.AlertResolved, domain.AlertDismissed:
		a.ResolvedAt = &at
	}
	db.alerts[id] = a
	return true, nil
}
