// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
)

// ProviderCredentials holds one device vendor's OAuth client settings.
type ProviderCredentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Configured reports whether the vendor integration can be enabled.
func (p ProviderCredentials) Configured() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// OIDC holds the optional SSO provider settings.
type OIDC struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Enabled reports whether SSO login should be offered.
func (o OIDC) Enabled() bool {
	return o.IssuerURL != "" && o.ClientID != ""
}

// Config is the full application configuration.
type Config struct {
	Addr        string
	DatabaseURL string

	LogLevel  string
	LogPretty bool

	SyncSchedule     string
	AnalysisSchedule string

	RateLimitPerSec int
	RateLimitBurst  int

	Withings ProviderCredentials
	Whoop    ProviderCredentials
	OIDC     OIDC
}

// Load reads configuration from the environment, applying defaults.
func Load() *Config {
	return &Config{
		Addr:        getEnv("ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: os.Getenv("LOG_PRETTY") == "true",

		SyncSchedule:     getEnv("SYNC_SCHEDULE", "@every 1h"),
		AnalysisSchedule: getEnv("ANALYSIS_SCHEDULE", "0 6 * * *"),

		RateLimitPerSec: getEnvInt("RATE_LIMIT_PER_SEC", 20),
		RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 40),

		Withings: ProviderCredentials{
			ClientID:     os.Getenv("WITHINGS_CLIENT_ID"),
			ClientSecret: os.Getenv("WITHINGS_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("WITHINGS_REDIRECT_URL"),
		},
		Whoop: ProviderCredentials{
			ClientID:     os.Getenv("WHOOP_CLIENT_ID"),
			ClientSecret: os.Getenv("WHOOP_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("WHOOP_REDIRECT_URL"),
		},
		OIDC: OIDC{
			IssuerURL:    os.Getenv("OIDC_ISSUER_URL"),
			ClientID:     os.Getenv("OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OIDC_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("OIDC_REDIRECT_URL"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
