package adapthttp_test

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	adapthttp "biomarkers/internal/adapter/http"
	"biomarkers/internal/app"
	"biomarkers/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock repositories (function-fields pattern)
// ---------------------------------------------------------------------------

type mockUserRepo struct{}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, nil
}
func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return nil, nil
}
func (m *mockUserRepo) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	return &domain.User{ID: 1, Username: username}, nil
}
func (m *mockUserRepo) Count(ctx context.Context) (int, error)          { return 0, nil }
func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) { return nil, nil }

type mockSessionRepo struct{}

func (m *mockSessionRepo) Create(ctx context.Context, userID int64, token, userAgent, ip string, expiresAt time.Time) error {
	return nil
}
func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	return nil, nil
}
func (m *mockSessionRepo) Delete(ctx context.Context, token string) error { return nil }
func (m *mockSessionRepo) DeleteExpired(ctx context.Context) error        { return nil }

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

type mockGlucoseRepo struct{}

func (m *mockGlucoseRepo) AddGlucose(ctx context.Context, r *domain.GlucoseReading) (int64, error) {
	return 1, nil
}
func (m *mockGlucoseRepo) ListGlucose(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.GlucoseReading, error) {
	return nil, nil
}
func (m *mockGlucoseRepo) DeleteGlucose(ctx context.Context, userID, id int64) (bool, error) {
	return false, nil
}

type mockBloodPressureRepo struct{}

func (m *mockBloodPressureRepo) AddBloodPressure(ctx context.Context, r *domain.BloodPressureReading) (int64, error) {
	return 1, nil
}
func (m *mockBloodPressureRepo) ListBloodPressure(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.BloodPressureReading, error) {
	return nil, nil
}
func (m *mockBloodPressureRepo) DeleteBloodPressure(ctx context.Context, userID, id int64) (bool, error) {
	return false, nil
}

type mockWeightRepo struct{}

func (m *mockWeightRepo) AddWeight(ctx context.Context, r *domain.WeightReading) (int64, error) {
	return 1, nil
}
func (m *mockWeightRepo) ListWeight(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.WeightReading, error) {
	return nil, nil
}
func (m *mockWeightRepo) DeleteWeight(ctx context.Context, userID, id int64) (bool, error) {
	return false, nil
}

type mockSleepRepo struct {
	latestFn func(ctx context.Context, userID int64) (*domain.SleepSession, error)
}

func (m *mockSleepRepo) AddSleep(ctx context.Context, s *domain.SleepSession) error { return nil }
func (m *mockSleepRepo) ListSleep(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.SleepSession, error) {
	return nil, nil
}
func (m *mockSleepRepo) LatestSleep(ctx context.Context, userID int64) (*domain.SleepSession, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockSleepRepo) DeleteSleep(ctx context.Context, userID int64, id string) (bool, error) {
	return false, nil
}

type mockDeviceRepo struct {
	getFn func(ctx context.Context, userID int64, id string) (*domain.Device, error)
}

func (m *mockDeviceRepo) AddDevice(ctx context.Context, d *domain.Device) error { return nil }
func (m *mockDeviceRepo) GetDevice(ctx context.Context, userID int64, id string) (*domain.Device, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, id)
	}
	return nil, nil
}
func (m *mockDeviceRepo) ListDevices(ctx context.Context, userID int64) ([]domain.Device, error) {
	return nil, nil
}
func (m *mockDeviceRepo) ListConnectedDevices(ctx context.Context) ([]domain.Device, error) {
	return nil, nil
}
func (m *mockDeviceRepo) DeleteDevice(ctx context.Context, userID int64, id string) (bool, error) {
	return false, nil
}
func (m *mockDeviceRepo) UpdateDeviceToken(ctx context.Context, id string, token domain.OAuthToken) error {
	return nil
}
func (m *mockDeviceRepo) MarkDeviceSynced(ctx context.Context, id string, at time.Time) error {
	return nil
}

type mockAlertRepo struct {
	getFn          func(ctx context.Context, userID int64, id string) (*domain.Alert, error)
	listFn         func(ctx context.Context, userID int64, status, priority string, limit int) ([]domain.Alert, error)
	updateStatusFn func(ctx context.Context, userID int64, id, status string, at time.Time) (bool, error)
}

func (m *mockAlertRepo) AddAlert(ctx context.Context, a *domain.Alert) error { return nil }
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
	return nil, nil
}
func (m *mockAlertRepo) UpdateAlertStatus(ctx context.Context, userID int64, id, status string, at time.Time) (bool, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, userID, id, status, at)
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Test-server helper
// ---------------------------------------------------------------------------

type testRepos struct {
	heartRate *mockHeartRateRepo
	sleep     *mockSleepRepo
	devices   *mockDeviceRepo
	alerts    *mockAlertRepo
}

func newTestServer(t *testing.T, repos testRepos) (*httptest.Server, *app.AlertBus) {
	t.Helper()

	if repos.heartRate == nil {
		repos.heartRate = &mockHeartRateRepo{}
	}
	if repos.sleep == nil {
		repos.sleep = &mockSleepRepo{}
	}
	if repos.devices == nil {
		repos.devices = &mockDeviceRepo{}
	}
	if repos.alerts == nil {
		repos.alerts = &mockAlertRepo{}
	}

	gl := &mockGlucoseRepo{}
	bp := &mockBloodPressureRepo{}
	wt := &mockWeightRepo{}

	log := zerolog.Nop()
	bus := app.NewAlertBus()

	authSvc := app.NewAuthService(&mockUserRepo{}, &mockSessionRepo{})
	readingSvc := app.NewReadingService(repos.heartRate, gl, bp, wt)
	sleepSvc := app.NewSleepService(repos.sleep)
	deviceSvc := app.NewDeviceService(repos.devices, nil)
	alertSvc := app.NewAlertService(repos.alerts, bus, log)
	loader := app.NewSeriesLoader(repos.heartRate, gl, bp, wt, repos.sleep)
	analyticsSvc := app.NewAnalyticsService(loader, alertSvc, log)
	syncSvc := app.NewSyncService(deviceSvc, repos.devices, repos.heartRate, bp, wt, repos.sleep, log)

	srv := adapthttp.New(adapthttp.Services{
		Auth:      authSvc,
		Readings:  readingSvc,
		Sleep:     sleepSvc,
		Devices:   deviceSvc,
		Sync:      syncSvc,
		Analytics: analyticsSvc,
		Alerts:    alertSvc,
		Bus:       bus,
	}, adapthttp.OIDCSettings{}, log).WithoutAuth()

	return httptest.NewServer(srv.Handler()), bus
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return m
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, testRepos{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["ok"] != true {
		t.Errorf("body = %v", body)
	}
}

func TestAuthRequired(t *testing.T) {
	hr := &mockHeartRateRepo{}
	gl := &mockGlucoseRepo{}
	bp := &mockBloodPressureRepo{}
	wt := &mockWeightRepo{}
	sl := &mockSleepRepo{}
	dv := &mockDeviceRepo{}
	al := &mockAlertRepo{}

	log := zerolog.Nop()
	bus := app.NewAlertBus()
	alertSvc := app.NewAlertService(al, bus, log)
	loader := app.NewSeriesLoader(hr, gl, bp, wt, sl)
	deviceSvc := app.NewDeviceService(dv, nil)

	srv := adapthttp.New(adapthttp.Services{
		Auth:      app.NewAuthService(&mockUserRepo{}, &mockSessionRepo{}),
		Readings:  app.NewReadingService(hr, gl, bp, wt),
		Sleep:     app.NewSleepService(sl),
		Devices:   deviceSvc,
		Sync:      app.NewSyncService(deviceSvc, dv, hr, bp, wt, sl, log),
		Analytics: app.NewAnalyticsService(loader, alertSvc, log),
		Alerts:    alertSvc,
		Bus:       bus,
	}, adapthttp.OIDCSettings{}, log)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/readings/heart-rate")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestRecordHeartRate(t *testing.T) {
	var stored *domain.HeartRateReading
	hr := &mockHeartRateRepo{
		addFn: func(ctx context.Context, r *domain.HeartRateReading) (int64, error) {
			stored = r
			return 7, nil
		},
	}
	ts, _ := newTestServer(t, testRepos{heartRate: hr})
	defer ts.Close()

	body := `{"timestamp":"2026-03-01T08:00:00Z","bpm":62}`
	resp, err := http.Post(ts.URL+"/api/v1/readings/heart-rate", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if stored == nil || stored.BPM != 62 || stored.UserID != 1 {
		t.Errorf("stored = %+v", stored)
	}
	if got := decodeBody(t, resp); got["id"] != float64(7) {
		t.Errorf("id = %v, want 7", got["id"])
	}
}

func TestRecordHeartRate_Invalid(t *testing.T) {
	ts, _ := newTestServer(t, testRepos{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/readings/heart-rate", "application/json",
		strings.NewReader(`{"timestamp":"2026-03-01T08:00:00Z","bpm":550}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestListHeartRate(t *testing.T) {
	hr := &mockHeartRateRepo{
		listFn: func(ctx context.Context, userID int64, start, end time.Time, limit int) ([]domain.HeartRateReading, error) {
			return []domain.HeartRateReading{
				{ID: 1, UserID: userID, Timestamp: time.Now(), BPM: 58},
			}, nil
		},
	}
	ts, _ := newTestServer(t, testRepos{heartRate: hr})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/readings/heart-rate?limit=10")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	items, ok := body["items"].([]any)
	if !ok || len(items) != 1 {
		t.Errorf("items = %v", body["items"])
	}
}

func TestDeleteHeartRate_NotFound(t *testing.T) {
	ts, _ := newTestServer(t, testRepos{})
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/readings/heart-rate/42", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRecordWeight_InvalidUnit(t *testing.T) {
	ts, _ := newTestServer(t, testRepos{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/readings/weight", "application/json",
		strings.NewReader(`{"value":180,"unit":"stone"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLatestSleep_NotFound(t *testing.T) {
	ts, _ := newTestServer(t, testRepos{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/sleep/latest")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestRegisterDevice(t *testing.T) {
	ts, _ := newTestServer(t, testRepos{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/devices", "application/json",
		strings.NewReader(`{"name":"ScanWatch","type":"smartwatch","vendor":"withings"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["vendor"] != "withings" || body["id"] == "" {
		t.Errorf("device = %v", body)
	}
}

func TestDeviceCallback_InvalidState(t *testing.T) {
	ts, _ := newTestServer(t, testRepos{})
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/devices/callback?state=forged&code=x", nil)
	req.AddCookie(&http.Cookie{Name: "device_connect", Value: "real|1|dev-1"})
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAlertAcknowledge(t *testing.T) {
	al := &mockAlertRepo{
		getFn: func(ctx context.Context, userID int64, id string) (*domain.Alert, error) {
			return &domain.Alert{ID: id, UserID: userID, Status: domain.AlertActive}, nil
		},
	}
	ts, _ := newTestServer(t, testRepos{alerts: al})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/alerts/a1/acknowledge", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAlertAcknowledge_InvalidTransition(t *testing.T) {
	al := &mockAlertRepo{
		getFn: func(ctx context.Context, userID int64, id string) (*domain.Alert, error) {
			return &domain.Alert{ID: id, UserID: userID, Status: domain.AlertResolved}, nil
		},
	}
	ts, _ := newTestServer(t, testRepos{alerts: al})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/alerts/a1/acknowledge", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestHealthScoreEndpoint_NoData(t *testing.T) {
	ts, _ := newTestServer(t, testRepos{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/analytics/score")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body["score"] != nil {
		t.Errorf("score = %v, want null without data", body["score"])
	}
}

func TestRateLimit(t *testing.T) {
	hr := &mockHeartRateRepo{}
	gl := &mockGlucoseRepo{}
	bp := &mockBloodPressureRepo{}
	wt := &mockWeightRepo{}
	sl := &mockSleepRepo{}
	dv := &mockDeviceRepo{}
	al := &mockAlertRepo{}

	log := zerolog.Nop()
	bus := app.NewAlertBus()
	alertSvc := app.NewAlertService(al, bus, log)
	loader := app.NewSeriesLoader(hr, gl, bp, wt, sl)
	deviceSvc := app.NewDeviceService(dv, nil)

	srv := adapthttp.New(adapthttp.Services{
		Auth:      app.NewAuthService(&mockUserRepo{}, &mockSessionRepo{}),
		Readings:  app.NewReadingService(hr, gl, bp, wt),
		Sleep:     app.NewSleepService(sl),
		Devices:   deviceSvc,
		Sync:      app.NewSyncService(deviceSvc, dv, hr, bp, wt, sl, log),
		Analytics: app.NewAnalyticsService(loader, alertSvc, log),
		Alerts:    alertSvc,
		Bus:       bus,
	}, adapthttp.OIDCSettings{}, log).WithoutAuth().WithRateLimit(1, 1)

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	limited := false
	for i := 0; i < 5; i++ {
		resp, err := http.Get(ts.URL + "/api/v1/alerts")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("burst of requests was never rate limited")
	}
}

func TestAlertStream(t *testing.T) {
	ts, bus := newTestServer(t, testRepos{})
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/alerts/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the handler a moment to subscribe before publishing.
	time.Sleep(50 * time.Millisecond)
	bus.Publish(domain.Alert{ID: "a1", UserID: 1, Priority: domain.PriorityHigh})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got domain.Alert
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.ID != "a1" || got.Priority != domain.PriorityHigh {
		t.Errorf("alert = %+v", got)
	}
}

func TestGlucoseCalibration(t *testing.T) {
	ts, _ := newTestServer(t, testRepos{})
	defer ts.Close()

	body := `{"raw":[100,150,200],"reference":[90,140,190]}`
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/readings/glucose/calibration", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	got := decodeBody(t, resp)
	scale, _ := got["scale"].(float64)
	offset, _ := got["offset"].(float64)
	if math.Abs(scale-1) > 1e-9 || math.Abs(offset+10) > 1e-9 {
		t.Errorf("fit = %v", got)
	}
}

func TestGlucoseCalibration_TooFewPoints(t *testing.T) {
	ts, _ := newTestServer(t, testRepos{})
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/readings/glucose/calibration",
		strings.NewReader(`{"raw":[100,150],"reference":[90,140]}`))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
