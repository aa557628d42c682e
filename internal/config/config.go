package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

// Config holds all application configuration
type Config struct {
	HTTPAddr     string
	StoreBackend string
	BadgerPath   string
	Database     DatabaseConfig
	// MigrationsURL is the golang-migrate source for the postgres schema
	MigrationsURL string
	CatalogFile   string

	// Telegram bot; disabled when BotToken is empty
	BotToken    string
	BotPassword string

	Location        *time.Location
	DefaultDueLimit int
	LapsePolicy     string
	Mastery         MasteryConfig

	SessionIdleTimeout time.Duration
	// ReminderHour is the local hour of the daily reminder, -1 disables it
	ReminderHour int
	LogLevel     string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
}

// MasteryConfig holds the thresholds for counting an item as mastered
type MasteryConfig struct {
	MinRepetitions int
	MinEaseFactor  float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		BadgerPath:   getEnv("BADGER_PATH", "data/progress"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "vocabsrs"),
			User:     getEnv("DB_USER", "vocabsrs"),
			Password: os.Getenv("DB_PASSWORD"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		MigrationsURL: getEnv("MIGRATIONS_URL", "file://migrations"),
		CatalogFile:   getEnv("CATALOG_FILE", "content/vocabulary.yaml"),
		BotToken:      os.Getenv("BOT_TOKEN"),
		BotPassword:   os.Getenv("BOT_PASSWORD"),
		LapsePolicy:   strings.ToLower(getEnv("SRS_LAPSE_POLICY", "strict")),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
	}

	var err error
	if cfg.Location, err = time.LoadLocation(getEnv("TIMEZONE", "UTC")); err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	if cfg.DefaultDueLimit, err = getEnvInt("DEFAULT_DUE_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.Mastery.MinRepetitions, err = getEnvInt("MASTERED_MIN_REPETITIONS", 3); err != nil {
		return nil, err
	}
	if cfg.Mastery.MinEaseFactor, err = getEnvFloat("MASTERED_MIN_EASE", 2.5); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTimeout, err = getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ReminderHour, err = getEnvInt("REMINDER_HOUR", 9); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case BackendBadger:
		if c.BadgerPath == "" {
			return fmt.Errorf("BADGER_PATH is required")
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendPostgres, BackendBadger, c.StoreBackend)
	}

	if c.BotToken != "" && c.BotPassword == "" {
		return fmt.Errorf("BOT_PASSWORD is required when BOT_TOKEN is set")
	}
	if c.DefaultDueLimit <= 0 {
		return fmt.Errorf("DEFAULT_DUE_LIMIT must be positive")
	}
	if c.Mastery.MinRepetitions < 1 {
		return fmt.Errorf("MASTERED_MIN_REPETITIONS must be at least 1")
	}
	if c.ReminderHour < -1 || c.ReminderHour > 23 {
		return fmt.Errorf("REMINDER_HOUR must be between 0 and 23, or -1 to disable")
	}
	if c.LapsePolicy != "strict" && c.LapsePolicy != "freeze_ease" {
		return fmt.Errorf("SRS_LAPSE_POLICY must be strict or freeze_ease")
	}
	return nil
}

// BotEnabled reports whether the Telegram bot should run
func (c *Config) BotEnabled() bool {
	return c.BotToken != ""
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30m: %w", key, err)
	}
	return d, nil
}
