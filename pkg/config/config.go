// pkg/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env       string
	HTTPAddr  string // integration-service
	AdminAddr string // admin-api-service

	// HubSpot app defaults (per-account overrides come from the credential store)
	HubSpotClientID     string
	HubSpotClientSecret string
	HubSpotScopes       string
	HubSpotAuthURL      string
	HubSpotAPIBase      string
	RedirectURI         string

	// Post-install confirmation page
	ThankYouURL string

	// Secrets-at-rest key for per-account app credentials
	EncryptionKey string

	// Outbound HTTP
	DispatchTimeout time.Duration

	// Redis & Postgres
	RedisURL    string
	DatabaseURL string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Env:                 env("HSMINI_ENV", "dev"),
		HTTPAddr:            env("HSMINI_HTTP_ADDR", ":8080"),
		AdminAddr:           env("ADMIN_HTTP_ADDR", ":8082"),
		HubSpotClientID:     env("HUBSPOT_CLIENT_ID", ""),
		HubSpotClientSecret: env("HUBSPOT_CLIENT_SECRET", ""),
		HubSpotScopes:       env("HUBSPOT_SCOPES", "crm.objects.contacts.read"),
		HubSpotAuthURL:      env("HUBSPOT_AUTH_URL", "https://app.hubspot.com/oauth/authorize"),
		HubSpotAPIBase:      env("HUBSPOT_API_BASE", "https://api.hubapi.com"),
		RedirectURI:         env("HUBSPOT_REDIRECT_URI", "http://localhost:8080/oauth/callback"),
		ThankYouURL:         env("THANK_YOU_URL", "http://localhost:3001/thank-you"),
		EncryptionKey:       env("ENCRYPTION_KEY", ""),
		DispatchTimeout:     envDur("DISPATCH_TIMEOUT_SEC", 15) * time.Second,
		RedisURL:            env("REDIS_URL", ""),
		DatabaseURL:         env("DATABASE_URL", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Println("[WARN] DATABASE_URL not set — using in-memory account store for dev")
	}
	if cfg.HubSpotClientID == "" {
		log.Println("[WARN] HUBSPOT_CLIENT_ID not set — installs need per-account app credentials")
	}
	return cfg
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func envDur(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		i, _ := strconv.Atoi(v)
		return time.Duration(i)
	}
	return time.Duration(def)
}
