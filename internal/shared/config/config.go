package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ProviderConfig holds the verification provider credentials.
type ProviderConfig struct {
	BaseURL     string
	KeyID       string
	KeySecret   string
	Environment string // "test" or "live"; recorded on every linked account
}

// Config holds all configuration for the application.
type Config struct {
	AppEnv        string
	HTTPAddr      string
	DatabaseURL   string
	EncryptionKey string
	Provider      ProviderConfig
}

// Load loads configuration from environment variables. A .env file is
// honored when present so local runs and tests do not need exported vars.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// A missing .env is fine in prod; anything else we want to know about.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	bindings := map[string]string{
		"app.env":         "APP_ENV",
		"http.addr":       "HTTP_ADDR",
		"database.url":    "DATABASE_URL",
		"encryption.key":  "ENCRYPTION_KEY",
		"provider.base":   "PROVIDER_BASE_URL",
		"provider.key":    "PROVIDER_KEY_ID",
		"provider.secret": "PROVIDER_KEY_SECRET",
		"provider.env":    "PROVIDER_ENV",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("could not bind %s: %w", key, err)
		}
	}

	viper.SetDefault("app.env", "dev")
	viper.SetDefault("http.addr", ":8080")
	viper.SetDefault("provider.base", "https://api.razorpay.com")
	viper.SetDefault("provider.env", "test")

	cfg := Config{
		AppEnv:        viper.GetString("app.env"),
		HTTPAddr:      viper.GetString("http.addr"),
		DatabaseURL:   viper.GetString("database.url"),
		EncryptionKey: viper.GetString("encryption.key"),
		Provider: ProviderConfig{
			BaseURL:     viper.GetString("provider.base"),
			KeyID:       viper.GetString("provider.key"),
			KeySecret:   viper.GetString("provider.secret"),
			Environment: viper.GetString("provider.env"),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is not set in environment or .env file")
	}
	if cfg.EncryptionKey == "" {
		return nil, errors.New("ENCRYPTION_KEY is not set in environment or .env file")
	}
	if len(cfg.EncryptionKey) != 64 {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be a 64-character hex string (32 bytes), but got %d chars", len(cfg.EncryptionKey))
	}
	if cfg.Provider.Environment != "test" && cfg.Provider.Environment != "live" {
		return nil, fmt.Errorf("PROVIDER_ENV must be 'test' or 'live', got %q", cfg.Provider.Environment)
	}
	if cfg.AppEnv != "dev" && (cfg.Provider.KeyID == "" || cfg.Provider.KeySecret == "") {
		return nil, errors.New("PROVIDER_KEY_ID and PROVIDER_KEY_SECRET are required outside dev")
	}

	return &cfg, nil
}
