// Package config loads application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every setting the application reads at startup.
type Config struct {
	AppName    string
	AppVersion string
	HTTPAddr   string
	APIPrefix  string
	LogLevel   string

	DBPath  string
	DBDebug bool

	JWT JWTConfig

	ShutdownTimeout    time.Duration
	CORSAllowedOrigins string

	RedisAddr     string
	RedisPassword string
	AuthRateLimit int

	SeedDemoData bool
}

// JWTConfig is passed explicitly to the token service.
type JWTConfig struct {
	SecretKey            string
	Algorithm            string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

const defaultSecretKey = "change-me-in-production-please"

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		AppName:    "Task Tracker API",
		AppVersion: "1.0.0",
		HTTPAddr:   ":3000",
		APIPrefix:  "/api/v1",
		LogLevel:   "info",
		DBPath:     "task_tracker.db",
		JWT: JWTConfig{
			SecretKey:            defaultSecretKey,
			Algorithm:            "HS256",
			AccessTokenDuration:  30 * time.Minute,
			RefreshTokenDuration: 7 * 24 * time.Hour,
		},
		ShutdownTimeout:    30 * time.Second,
		CORSAllowedOrigins: "*",
		AuthRateLimit:      20,
	}
}

// Load reads the configuration from environment variables on top of Default.
func Load() (Config, error) {
	cfg := Default()

	cfg.AppName = getEnv("APP_NAME", cfg.AppName)
	cfg.AppVersion = getEnv("APP_VERSION", cfg.AppVersion)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.APIPrefix = getEnv("API_PREFIX", cfg.APIPrefix)
	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.CORSAllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", cfg.CORSAllowedOrigins)
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JWT.SecretKey = getEnv("JWT_SECRET_KEY", cfg.JWT.SecretKey)
	cfg.JWT.Algorithm = strings.ToUpper(getEnv("JWT_ALGORITHM", cfg.JWT.Algorithm))

	var err error
	if cfg.DBDebug, err = getEnvBool("DB_DEBUG", false); err != nil {
		return Config{}, err
	}
	if cfg.SeedDemoData, err = getEnvBool("SEED_DEMO_DATA", false); err != nil {
		return Config{}, err
	}
	if cfg.AuthRateLimit, err = getEnvInt("AUTH_RATE_LIMIT", cfg.AuthRateLimit); err != nil {
		return Config{}, err
	}

	minutes, err := getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", int(cfg.JWT.AccessTokenDuration/time.Minute))
	if err != nil {
		return Config{}, err
	}
	cfg.JWT.AccessTokenDuration = time.Duration(minutes) * time.Minute

	days, err := getEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", int(cfg.JWT.RefreshTokenDuration/(24*time.Hour)))
	if err != nil {
		return Config{}, err
	}
	cfg.JWT.RefreshTokenDuration = time.Duration(days) * 24 * time.Hour

	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the application cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.JWT.SecretKey == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY must not be empty"))
	}
	switch c.JWT.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("unsupported JWT_ALGORITHM %q", c.JWT.Algorithm))
	}
	if c.JWT.AccessTokenDuration <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	if c.JWT.RefreshTokenDuration <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_EXPIRE_DAYS must be positive"))
	}
	if c.AuthRateLimit <= 0 {
		errs = append(errs, errors.New("AUTH_RATE_LIMIT must be positive"))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unsupported LOG_LEVEL %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// UsesDefaultSecret reports whether the signing key was left at its default.
func (c Config) UsesDefaultSecret() bool {
	return c.JWT.SecretKey == defaultSecretKey
}

// RateLimitEnabled reports whether a Redis address was configured.
func (c Config) RateLimitEnabled() bool {
	return c.RedisAddr != ""
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
