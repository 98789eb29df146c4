package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

const (
	defaultDBPath = "./dev.db"
	defaultPort   = "8080"
	defaultEnv    = "development"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string
	AdminEmail    string
	AdminPassword string
	SessionSecret string
	DBPath        string
	Port          string

	// HaloPSA sync settings. Sync is disabled when HaloBaseURL is empty.
	HaloBaseURL      string
	HaloClientID     string
	HaloClientSecret string
}

// Load reads environment variables and returns a populated Config.
func Load() Config {
	// Best-effort: load local dev environment variables.
	// We don't fail if the file is missing; production should use real env injection.
	_ = godotenv.Load()

	cfg := Config{
		Env:              os.Getenv("APP_ENV"),
		AdminEmail:       os.Getenv("ADMIN_EMAIL"),
		AdminPassword:    os.Getenv("ADMIN_PASSWORD"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		DBPath:           os.Getenv("DB_PATH"),
		Port:             os.Getenv("PORT"),
		HaloBaseURL:      os.Getenv("HALO_BASE_URL"),
		HaloClientID:     os.Getenv("HALO_CLIENT_ID"),
		HaloClientSecret: os.Getenv("HALO_CLIENT_SECRET"),
	}

	if cfg.Env == "" {
		cfg.Env = defaultEnv
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}

	if cfg.AdminEmail == "" {
		log.Print("warning: ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		log.Print("warning: ADMIN_PASSWORD is not set")
	}
	if cfg.SessionSecret == "" {
		log.Print("warning: SESSION_SECRET is not set")
	}
	if cfg.HaloBaseURL == "" {
		log.Print("halo sync disabled: HALO_BASE_URL is not set")
	}

	return cfg
}

// IsDev reports whether the app runs in the development environment.
func (c Config) IsDev() bool {
	return c.Env == defaultEnv
}

// HaloEnabled reports whether PSA sync is configured.
func (c Config) HaloEnabled() bool {
	return c.HaloBaseURL != "" && c.HaloClientID != "" && c.HaloClientSecret != ""
}
