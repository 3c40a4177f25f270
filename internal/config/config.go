package config

import (
	"fmt"
	"time"

	"github.com/couchcryptid/db-bootstrap-api/internal/retry"
	"github.com/joho/godotenv"
)

// Config holds application settings loaded from environment variables.
// Database connection fields are not part of it: they are resolved later
// by the secrets provider, either from Secrets Manager or from DB_* variables.
type Config struct {
	Port            string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	MaxInFlight     int

	AWSSecretName string
	AWSRegion     string
	AWSEndpoint   string

	ConnectAttempts int
	ConnectInterval time.Duration
	ProbeTimeout    time.Duration
	MonitorInterval time.Duration
	PoolMaxConns    int32
	DBSSLMode       string
}

// Load reads configuration from environment variables and returns it,
// or an error if values are invalid. A .env file in the working directory
// is read first when present; variables already set take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := positiveDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	connectInterval, err := nonNegativeDuration("DB_CONNECT_INTERVAL", retry.DefaultPolicy().Interval)
	if err != nil {
		return nil, err
	}
	probeTimeout, err := positiveDuration("DB_PROBE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	monitorInterval, err := nonNegativeDuration("DB_MONITOR_INTERVAL", 0)
	if err != nil {
		return nil, err
	}
	connectAttempts, err := intAtLeast("DB_CONNECT_ATTEMPTS", retry.DefaultPolicy().MaxAttempts, 1)
	if err != nil {
		return nil, err
	}
	poolMaxConns, err := intAtLeast("DB_POOL_MAX_CONNS", 4, 1)
	if err != nil {
		return nil, err
	}
	maxInFlight, err := intAtLeast("MAX_IN_FLIGHT", 256, 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:            EnvOrDefault("PORT", "3000"),
		LogLevel:        EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		MaxInFlight:     maxInFlight,
		AWSSecretName:   EnvOrDefault("AWS_SECRET_NAME", ""),
		AWSRegion:       EnvOrDefault("AWS_REGION", "us-east-1"),
		AWSEndpoint:     EnvOrDefault("AWS_ENDPOINT_URL", ""),
		ConnectAttempts: connectAttempts,
		ConnectInterval: connectInterval,
		ProbeTimeout:    probeTimeout,
		MonitorInterval: monitorInterval,
		PoolMaxConns:    int32(min(poolMaxConns, 1<<16)), //nolint:gosec // clamped above
		DBSSLMode:       EnvOrDefault("DB_SSLMODE", "disable"),
	}

	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

// UsesSecretStore reports whether database credentials come from Secrets Manager.
func (c *Config) UsesSecretStore() bool {
	return c.AWSSecretName != ""
}

// RetryPolicy returns the policy the connectivity manager probes the database with.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: c.ConnectAttempts, Interval: c.ConnectInterval}
}
