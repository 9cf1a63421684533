package configs

import (
	"fmt"
	"os"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all environment-driven settings for the service.
type Config struct {
	Port   string
	AppEnv string

	JWTSecret string

	// Google credentials: either the raw service-account JSON or a path to it.
	GoogleServiceAccountJSON    string
	GoogleServiceAccountKeyPath string

	GoogleSheetID       string
	GoogleDriveFolderID string
	// Optional: when set, all Drive calls carry shared-drive flags.
	GoogleDriveSharedDriveID string

	GeminiAPIKey string
	GeminiModel  string

	WebhookSecret string
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Load reads .env (if present) and builds the Config singleton.
// Google Sheets/Drive settings are mandatory; the Gemini key is not,
// AI features are simply disabled without it.
func Load() (*Config, error) {
	var err error
	cfgOnce.Do(func() {
		_ = godotenv.Load() // .env is optional in deployed environments

		cfg = &Config{
			Port:                        getEnv("PORT", "3000"),
			AppEnv:                      getEnv("APP_ENV", "development"),
			JWTSecret:                   getEnv("JWT_SECRET", ""),
			GoogleServiceAccountJSON:    os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
			GoogleServiceAccountKeyPath: os.Getenv("GOOGLE_SERVICE_ACCOUNT_KEY_PATH"),
			GoogleSheetID:               os.Getenv("GOOGLE_SHEET_ID"),
			GoogleDriveFolderID:         os.Getenv("GOOGLE_DRIVE_FOLDER_ID"),
			GoogleDriveSharedDriveID:    os.Getenv("GOOGLE_DRIVE_SHARED_DRIVE_ID"),
			GeminiAPIKey:                os.Getenv("GEMINI_API_KEY"),
			GeminiModel:                 getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
			WebhookSecret:               os.Getenv("WEBHOOK_SECRET"),
		}

		if cfg.JWTSecret == "" {
			err = fmt.Errorf("JWT_SECRET is not set")
			return
		}
		if cfg.GoogleServiceAccountJSON == "" && cfg.GoogleServiceAccountKeyPath == "" {
			err = fmt.Errorf("google credentials not found: set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_KEY_PATH")
			return
		}
		if cfg.GoogleSheetID == "" {
			err = fmt.Errorf("GOOGLE_SHEET_ID is not set")
			return
		}
		if cfg.GoogleDriveFolderID == "" {
			err = fmt.Errorf("GOOGLE_DRIVE_FOLDER_ID is not set")
			return
		}
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Get returns the loaded Config. Panics when Load was never called;
// configuration problems must surface at startup, not mid-request.
func Get() *Config {
	if cfg == nil {
		panic("configs: Load must be called before Get")
	}
	return cfg
}

// Override replaces the singleton. Tests use it to run config-dependent
// code without an environment.
func Override(c *Config) {
	cfg = c
}

// IsProduction reports whether the service runs with production rules
// (verification codes are then never echoed in responses).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
