package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Auth         AuthConfig
	SMTP         SMTPConfig
	SMTPFallback SMTPConfig
	Storage      StorageConfig
	EventStore   EventStoreConfig
	LegacyHR     LegacyHRConfig
	App          AppConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

type AuthConfig struct {
	JWTSecret string
}

// SMTPConfig describes one outbound mail provider. The dispatcher is handed
// a primary and a fallback provider built from two of these.
type SMTPConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	From     string
	UseTLS   bool
}

type StorageConfig struct {
	// Root is the directory documents are written under
	Root string
	// BaseURL prefixes the retrievable URL returned for stored objects
	BaseURL string
}

// EventStoreConfig holds configuration for the EventStoreDB lifecycle stream.
type EventStoreConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Insecure bool
	Username string
	Password string
}

// LegacyHRConfig points at the legacy payroll SQL Server instance employee
// records are imported from.
type LegacyHRConfig struct {
	Enabled      bool
	Host         string
	Port         int
	Database     string
	User         string
	Password     string
	PollInterval time.Duration
}

// AppConfig holds platform-wide business settings.
type AppConfig struct {
	// FrontendURL is the base URL public amendment links are built against
	FrontendURL    string
	LegalTeamEmail string
	HRTeamEmail    string
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "spazaafy"),
			Password: getEnv("DB_PASSWORD", "spazaafy"),
			Database: getEnv("DB_NAME", "spazaafy"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-in-prod"),
		},
		SMTP: SMTPConfig{
			Enabled:  getEnvBool("SMTP_ENABLED", false),
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			User:     getEnv("SMTP_USER", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "no-reply@spazaafy.co.za"),
			UseTLS:   getEnvBool("SMTP_USE_TLS", true),
		},
		SMTPFallback: SMTPConfig{
			Enabled:  getEnvBool("SMTP_FALLBACK_ENABLED", false),
			Host:     getEnv("SMTP_FALLBACK_HOST", ""),
			Port:     getEnvInt("SMTP_FALLBACK_PORT", 587),
			User:     getEnv("SMTP_FALLBACK_USER", ""),
			Password: getEnv("SMTP_FALLBACK_PASSWORD", ""),
			From:     getEnv("SMTP_FALLBACK_FROM", "no-reply@spazaafy.co.za"),
			UseTLS:   getEnvBool("SMTP_FALLBACK_USE_TLS", true),
		},
		Storage: StorageConfig{
			Root:    getEnv("STORAGE_ROOT", "./data/documents"),
			BaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/files"),
		},
		EventStore: EventStoreConfig{
			Enabled:  getEnvBool("EVENTSTORE_ENABLED", false),
			Host:     getEnv("EVENTSTORE_HOST", "localhost"),
			Port:     getEnvInt("EVENTSTORE_PORT", 2113),
			Insecure: getEnvBool("EVENTSTORE_INSECURE", true),
			Username: getEnv("EVENTSTORE_USERNAME", ""),
			Password: getEnv("EVENTSTORE_PASSWORD", ""),
		},
		LegacyHR: LegacyHRConfig{
			Enabled:      getEnvBool("LEGACY_HR_ENABLED", false),
			Host:         getEnv("LEGACY_HR_HOST", "localhost"),
			Port:         getEnvInt("LEGACY_HR_PORT", 1433),
			Database:     getEnv("LEGACY_HR_DB", "payroll"),
			User:         getEnv("LEGACY_HR_USER", ""),
			Password:     getEnv("LEGACY_HR_PASSWORD", ""),
			PollInterval: getEnvDuration("LEGACY_HR_POLL_INTERVAL", 5*time.Minute),
		},
		App: AppConfig{
			FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
			LegalTeamEmail: getEnv("LEGAL_TEAM_EMAIL", "legal@spazaafy.co.za"),
			HRTeamEmail:    getEnv("HR_TEAM_EMAIL", "hr@spazaafy.co.za"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
