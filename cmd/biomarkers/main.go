package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	adapthttp "biomarkers/internal/adapter/http"
	"biomarkers/internal/adapter/postgres"
	"biomarkers/internal/app"
	"biomarkers/internal/config"
	"biomarkers/internal/logging"
	appoauth "biomarkers/internal/oauth"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}
	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db open")
	}
	defer func() { _ = db.Close() }()

	sessionRepo := postgres.NewSessionRepo(db)

	providers := make(map[string]appoauth.Provider)
	if cfg.Withings.Configured() {
		providers["withings"] = appoauth.NewWithingsProvider(appoauth.Config{
			ClientID:     cfg.Withings.ClientID,
			ClientSecret: cfg.Withings.ClientSecret,
			RedirectURL:  cfg.Withings.RedirectURL,
		}, "", "")
	}
	if cfg.Whoop.Configured() {
		providers["whoop"] = appoauth.NewWhoopProvider(appoauth.Config{
			ClientID:     cfg.Whoop.ClientID,
			ClientSecret: cfg.Whoop.ClientSecret,
			RedirectURL:  cfg.Whoop.RedirectURL,
		}, "", "")
	}

	bus := app.NewAlertBus()

	authSvc := app.NewAuthService(db, sessionRepo)
	readingSvc := app.NewReadingService(db, db, db, db)
	sleepSvc := app.NewSleepService(db)
	deviceSvc := app.NewDeviceService(db, providers)
	syncSvc := app.NewSyncService(deviceSvc, db, db, db, db, db, log)
	alertSvc := app.NewAlertService(db, bus, log)
	loader := app.NewSeriesLoader(db, db, db, db, db)
	analyticsSvc := app.NewAnalyticsService(loader, alertSvc, log)

	sched := app.NewScheduler(syncSvc, analyticsSvc, db, sessionRepo, log)
	sched.SyncSchedule = cfg.SyncSchedule
	sched.AnalysisSchedule = cfg.AnalysisSchedule
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("scheduler start")
	}
	defer sched.Stop()

	oidcSettings := loadOIDC(cfg, log)

	srv := adapthttp.New(adapthttp.Services{
		Auth:      authSvc,
		Readings:  readingSvc,
		Sleep:     sleepSvc,
		Devices:   deviceSvc,
		Sync:      syncSvc,
		Analytics: analyticsSvc,
		Alerts:    alertSvc,
		Bus:       bus,
	}, oidcSettings, log).WithRateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst)

	log.Info().Str("addr", cfg.Addr).Msg("listening")
	if err := http.ListenAndServe(cfg.Addr, srv.Handler()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server")
	}
}

// loadOIDC performs OIDC discovery when single sign-on is configured. A
// discovery failure at boot is fatal so a typo in the issuer URL does not
// silently disable SSO.
func loadOIDC(cfg *config.Config, log zerolog.Logger) adapthttp.OIDCSettings {
	if !cfg.OIDC.Enabled() {
		return adapthttp.OIDCSettings{}
	}
	provider, err := oidc.NewProvider(context.Background(), cfg.OIDC.IssuerURL)
	if err != nil {
		log.Fatal().Err(err).Str("issuer", cfg.OIDC.IssuerURL).Msg("oidc discovery")
	}
	return adapthttp.OIDCSettings{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			RedirectURL:  cfg.OIDC.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}
}
