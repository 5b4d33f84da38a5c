package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Port        int            `yaml:"port"`
	Database    DatabaseConfig `yaml:"database"`
	JWTSecret   string         `yaml:"jwt_secret"`
	Environment string         `yaml:"environment"`
	CORSOrigins []string       `yaml:"cors_origins"`

	// RefreshPerMinute caps how often the feed consumer may fall back to a
	// full bulk refresh after malformed push messages.
	RefreshPerMinute float64 `yaml:"refresh_per_minute"`

	// SeriesHours is the look-back of the live hourly series kept in memory.
	SeriesHours int `yaml:"series_hours"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type         string `yaml:"type"` // postgres
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// Load loads configuration from an optional YAML file (CONFIG_FILE), a .env
// file if present, and environment variables, in increasing precedence.
func Load() *Config {
	// A missing .env is fine; explicit env always wins over it.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        8080,
		Environment: "production",
		Database: DatabaseConfig{
			Type:         "postgres",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		RefreshPerMinute: 6,
		SeriesHours:      24,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(cfg, path); err != nil {
			log.Fatalf("Failed to load config file %s: %v", path, err)
		}
	}

	cfg.Port = getEnvInt("PORT", cfg.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.Database.Type = getEnv("DATABASE_TYPE", cfg.Database.Type)
	cfg.Database.DSN = getEnv("DATABASE_DSN", cfg.Database.DSN)
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = buildPostgresDSN()
	}
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.RefreshPerMinute = getEnvFloat("REFRESH_PER_MINUTE", cfg.RefreshPerMinute)
	cfg.SeriesHours = getEnvInt("SERIES_HOURS", cfg.SeriesHours)

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = splitAndTrim(origins, ",")
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = defaultCORSOrigins(cfg.Environment)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	return cfg
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin must be configured")
	}
	if c.SeriesHours <= 0 {
		return fmt.Errorf("series_hours must be positive")
	}
	if c.Environment == "production" && c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	return nil
}

func defaultCORSOrigins(env string) []string {
	if env == "development" {
		return []string{"http://localhost:3000", "http://localhost:8080"}
	}
	log.Println("WARNING: CORS_ORIGINS not set. Using default localhost origins.")
	return []string{"http://localhost:3000", "http://localhost:8080"}
}

func buildPostgresDSN() string {
	host := getEnv("POSTGRES_HOST", "localhost")
	port := getEnv("POSTGRES_PORT", "5432")
	user := getEnv("POSTGRES_USER", "pulsedeck")
	password := getEnv("POSTGRES_PASSWORD", "secret")
	dbName := getEnv("POSTGRES_DB", "pulsedeck")
	sslMode := getEnv("POSTGRES_SSLMODE", "disable")

	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(user, password),
		Host:   fmt.Sprintf("%s:%s", host, port),
		Path:   dbName,
	}

	query := u.Query()
	query.Set("sslmode", sslMode)
	u.RawQuery = query.Encode()

	return u.String()
}

func splitAndTrim(s, sep string) []string {
	parts := []string{}
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return fallback
}
