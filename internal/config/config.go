package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Auth modes
const (
	AuthModeLocal      = "local"
	AuthModeAuthorizer = "authorizer"
)

// Storage backends
const (
	StorageLocal = "local"
	StorageGCS   = "gcs"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port          string
	LogLevel      string
	SecureCookies bool
	AuthRateLimit int // requests per minute per client on /api/auth, zero disables
	CatalogFile   string

	// Database configuration
	DBType            string // mysql, mariadb, postgres, sqlite, sqlite3, sqlserver
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Identity configuration
	AuthMode      string
	AuthzURL      string
	AuthzClientID string
	AuthzRedirect string

	// Session store configuration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	// File storage configuration
	StorageBackend     string
	StorageDir         string
	StorageBaseURL     string
	GCSBucket          string
	GCSCredentialsFile string

	// Standards resolver, zero disables it
	ResolveInterval time.Duration
}

// Load loads configuration from environment variables.
// When ENV_FILE is set, that file is loaded first without overriding the environment.
func Load() (*Config, error) {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load ENV_FILE %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:               getEnv("PORT", "3000"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		SecureCookies:      getEnvAsBool("SECURE_COOKIES", false),
		AuthRateLimit:      getEnvAsInt("AUTH_RATE_LIMIT", 20),
		CatalogFile:        getEnv("CATALOG_FILE", ""),
		DBType:             strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBDatabase:         getEnv("DB_DATABASE", ""),
		DBUser:             getEnv("DB_USER", ""),
		DBPassword:         getEnv("DB_PASSWORD", ""),
		DBConnectionLimit:  getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		AuthMode:           strings.ToLower(getEnv("AUTH_MODE", AuthModeLocal)),
		AuthzURL:           getEnv("AUTHZ_URL", ""),
		AuthzClientID:      getEnv("AUTHZ_CLIENT_ID", ""),
		AuthzRedirect:      getEnv("AUTHZ_REDIRECT_URL", ""),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		SessionTTL:         getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
		StorageBackend:     strings.ToLower(getEnv("STORAGE_BACKEND", StorageLocal)),
		StorageDir:         getEnv("STORAGE_DIR", "./uploads"),
		StorageBaseURL:     getEnv("STORAGE_BASE_URL", "/files"),
		GCSBucket:          getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		ResolveInterval:    getEnvAsDuration("RESOLVE_INTERVAL", time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and enumerations
func (cfg *Config) Validate() error {
	if cfg.DBDatabase == "" {
		return fmt.Errorf("DB_DATABASE is required")
	}
	switch cfg.DBType {
	case "mysql", "mariadb", "postgres", "postgresql", "sqlite", "sqlite3", "sqlserver", "mssql":
	default:
		return fmt.Errorf("unsupported DB_TYPE: %s", cfg.DBType)
	}
	if !cfg.IsSQLite() && cfg.DBUser == "" {
		return fmt.Errorf("DB_USER is required")
	}

	switch cfg.AuthMode {
	case AuthModeLocal:
		if cfg.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required")
		}
	case AuthModeAuthorizer:
		if cfg.AuthzURL == "" {
			return fmt.Errorf("AUTHZ_URL is required")
		}
		if cfg.AuthzClientID == "" {
			return fmt.Errorf("AUTHZ_CLIENT_ID is required")
		}
	default:
		return fmt.Errorf("unsupported AUTH_MODE: %s", cfg.AuthMode)
	}

	switch cfg.StorageBackend {
	case StorageLocal:
		if cfg.StorageDir == "" {
			return fmt.Errorf("STORAGE_DIR is required")
		}
	case StorageGCS:
		if cfg.GCSBucket == "" {
			return fmt.Errorf("GCS_BUCKET is required")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND: %s", cfg.StorageBackend)
	}

	if cfg.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if cfg.AuthRateLimit < 0 {
		return fmt.Errorf("AUTH_RATE_LIMIT must not be negative")
	}
	if cfg.ResolveInterval < 0 {
		return fmt.Errorf("RESOLVE_INTERVAL must not be negative")
	}
	return nil
}

// IsSQLite reports whether the configured database is a sqlite file
func (cfg *Config) IsSQLite() bool {
	return cfg.DBType == "sqlite" || cfg.DBType == "sqlite3"
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts a Go duration ("90s", "1h") or a number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
