// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// Crop pipeline
	Resampling  string // "nearest", "bilinear", "catmullrom"
	EncoderName string // "png", "jpeg"
	JPEGQuality int

	// Export bundling
	ExportPrefix string

	// API access — bcrypt hash of the bearer token; empty disables auth
	APIKeyHash string

	// Upload rate limiting (requests per minute per client)
	UploadRateLimit int

	// PostgreSQL crop history (optional — empty host disables it)
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible preview store; optional)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// S3-compatible export storage (optional)
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PublicURL string
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		Resampling:   envOrDefault("CROP_RESAMPLING", "bilinear"),
		EncoderName:  envOrDefault("CROP_ENCODER", "png"),
		ExportPrefix: envOrDefault("EXPORT_PREFIX", "crop"),

		APIKeyHash: os.Getenv("API_KEY_HASH"),

		DBHost:     os.Getenv("POSTGRES_HOST"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "cropdesk"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "cropdesk"),

		ValkeyHost:     os.Getenv("VALKEY_HOST"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3Region:    envOrDefault("S3_REGION", "us-east-1"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    envOrDefault("S3_BUCKET", "cropdesk-exports"),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),
	}

	var err error
	cfg.JPEGQuality, err = envInt("CROP_JPEG_QUALITY", 90)
	if err != nil {
		return nil, err
	}
	cfg.UploadRateLimit, err = envInt("UPLOAD_RATE_LIMIT", 30)
	if err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		if cfg.HistoryEnabled() && cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.APIKeyHash == "" {
			return nil, fmt.Errorf("API_KEY_HASH must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// HistoryEnabled reports whether a PostgreSQL crop history is configured.
func (c *Config) HistoryEnabled() bool {
	return c.DBHost != ""
}

// ValkeyEnabled reports whether a Valkey preview store is configured.
func (c *Config) ValkeyEnabled() bool {
	return c.ValkeyHost != ""
}

// StorageEnabled reports whether S3 export storage is configured.
func (c *Config) StorageEnabled() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt reads an integer environment variable with a fallback.
func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
