package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port              string
	Environment       string
	BackendURL        string
	BackendTimeout    time.Duration
	TimeZone          string
	TimeLayout        string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	StagingTTL        time.Duration
	JWTSecret         string
	GroupByTimestamps bool
}

func Load() Config {
	return Config{
		Port:           getEnv("PORT", "8081"),
		Environment:    getEnv("ENV", "development"),
		BackendURL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5000"), "/"),
		BackendTimeout: time.Duration(getEnvInt("BACKEND_TIMEOUT_SECONDS", 10)) * time.Second,
		TimeZone:       getEnv("CONSOLE_TIMEZONE", "Local"),
		TimeLayout:     os.Getenv("CONSOLE_TIME_LAYOUT"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		StagingTTL:     time.Duration(getEnvInt("STAGING_TTL_MINUTES", 120)) * time.Minute,
		JWTSecret:      strings.TrimSpace(os.Getenv("JWT_SECRET")),
		// Legacy mode groups sales only by rendered timestamp, ignoring
		// transaction ids.
		GroupByTimestamps: getEnvBool("GROUP_BY_TIMESTAMP", false),
	}
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location resolves TimeZone, the zone in which timestamps are rendered and
// expiration days are judged.
func (c Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid CONSOLE_TIMEZONE %q: %w", c.TimeZone, err)
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}
