// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"biomarkers/internal/app"
	"biomarkers/internal/metrics"
)

// OIDCSettings carries the optional SSO provider configuration.
type OIDCSettings struct {
	Enabled      bool
	Provider     *oidc.Provider
	OAuth2Config oauth2.Config
}

// Services bundles the application services the HTTP adapter drives.
type Services struct {
	Auth      *app.AuthService
	Readings  *app.ReadingService
	Sleep     *app.SleepService
	Devices   *app.DeviceService
	Sync      *app.SyncService
	Analytics *app.AnalyticsService
	Alerts    *app.AlertService
	Bus       *app.AlertBus
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth      *app.AuthService
	readings  *app.ReadingService
	sleep     *app.SleepService
	devices   *app.DeviceService
	sync      *app.SyncService
	analytics *app.AnalyticsService
	alerts    *app.AlertService
	bus       *app.AlertBus

	oidcConfig  OIDCSettings
	limiter     *rateLimiter
	log         zerolog.Logger
	disableAuth bool
}

// New creates a Server wired to the given application services.
func New(svcs Services, oidcCfg OIDCSettings, log zerolog.Logger) *Server {
	return &Server{
		auth:       svcs.Auth,
		readings:   svcs.Readings,
		sleep:      svcs.Sleep,
		devices:    svcs.Devices,
		sync:       svcs.Sync,
		analytics:  svcs.Analytics,
		alerts:     svcs.Alerts,
		bus:        svcs.Bus,
		oidcConfig: oidcCfg,
		log:        log,
	}
}

// WithRateLimit enables per-client rate limiting on the API.
func (s *Server) WithRateLimit(perSecond, burst int) *Server {
	s.limiter = newRateLimiter(perSecond, burst)
	return s
}

// WithoutAuth disables session validation. Tests only.
func (s *Server) WithoutAuth() *Server {
	s.disableAuth = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.rateLimitMiddleware)

	// Unauthenticated surface.
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/auth/setup", s.handleSetupUser).Methods(http.MethodPost)
	api.HandleFunc("/auth/sso/login", s.handleSSOLogin).Methods(http.MethodGet)
	api.HandleFunc("/auth/sso/callback", s.handleSSOCallback).Methods(http.MethodGet)
	api.HandleFunc("/config", s.handleConfig).Methods(http.MethodGet)
	api.HandleFunc("/devices/callback", s.handleDeviceCallback).Methods(http.MethodGet)

	// Session-authenticated surface.
	priv := api.NewRoute().Subrouter()
	priv.Use(s.authMiddleware)

	priv.HandleFunc("/readings/heart-rate", s.handleHeartRate).Methods(http.MethodGet, http.MethodPost)
	priv.HandleFunc("/readings/heart-rate/{id:[0-9]+}", s.handleDeleteHeartRate).Methods(http.MethodDelete)
	priv.HandleFunc("/readings/glucose", s.handleGlucose).Methods(http.MethodGet, http.MethodPost)
	priv.HandleFunc("/readings/glucose/calibration", s.handleGlucoseCalibration).Methods(http.MethodPut)
	priv.HandleFunc("/readings/glucose/{id:[0-9]+}", s.handleDeleteGlucose).Methods(http.MethodDelete)
	priv.HandleFunc("/readings/blood-pressure", s.handleBloodPressure).Methods(http.MethodGet, http.MethodPost)
	priv.HandleFunc("/readings/blood-pressure/{id:[0-9]+}", s.handleDeleteBloodPressure).Methods(http.MethodDelete)
	priv.HandleFunc("/readings/weight", s.handleWeight).Methods(http.MethodGet, http.MethodPost)
	priv.HandleFunc("/readings/weight/{id:[0-9]+}", s.handleDeleteWeight).Methods(http.MethodDelete)

	priv.HandleFunc("/sleep", s.handleSleep).Methods(http.MethodGet, http.MethodPost)
	priv.HandleFunc("/sleep/latest", s.handleLatestSleep).Methods(http.MethodGet)
	priv.HandleFunc("/sleep/{id}", s.handleDeleteSleep).Methods(http.MethodDelete)

	priv.HandleFunc("/devices", s.handleDevices).Methods(http.MethodGet, http.MethodPost)
	priv.HandleFunc("/devices/{id}", s.handleDevice).Methods(http.MethodGet, http.MethodDelete)
	priv.HandleFunc("/devices/{id}/connect", s.handleDeviceConnect).Methods(http.MethodGet)
	priv.HandleFunc("/devices/{id}/sync", s.handleDeviceSync).Methods(http.MethodPost)

	priv.HandleFunc("/analytics/score", s.handleScore).Methods(http.MethodGet)
	priv.HandleFunc("/analytics/trends", s.handleTrends).Methods(http.MethodGet)
	priv.HandleFunc("/analytics/correlations", s.handleCorrelations).Methods(http.MethodGet)
	priv.HandleFunc("/analytics/summary", s.handleSummary).Methods(http.MethodGet)
	priv.HandleFunc("/analytics/daily", s.handleDailyAnalysis).Methods(http.MethodPost)

	priv.HandleFunc("/alerts", s.handleAlerts).Methods(http.MethodGet)
	priv.HandleFunc("/alerts/stream", s.handleAlertStream).Methods(http.MethodGet)
	priv.HandleFunc("/alerts/{id}", s.handleAlert).Methods(http.MethodGet)
	priv.HandleFunc("/alerts/{id}/acknowledge", s.handleAlertTransition(s.alerts.Acknowledge)).Methods(http.MethodPost)
	priv.HandleFunc("/alerts/{id}/resolve", s.handleAlertTransition(s.alerts.Resolve)).Methods(http.MethodPost)
	priv.HandleFunc("/alerts/{id}/dismiss", s.handleAlertTransition(s.alerts.Dismiss)).Methods(http.MethodPost)

	return r
}
