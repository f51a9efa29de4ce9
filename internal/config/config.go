// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"

	"cafe-control-plane/internal/session/domain"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTSecret signs console tokens (HS256). Required for the server.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTTTL is the console token lifetime (e.g. "12h").
	JWTTTL string `mapstructure:"JWT_TTL"`
	// KDFIterations is the PBKDF2 iteration count for admin passwords.
	KDFIterations int `mapstructure:"KDF_ITERATIONS"`
	// HeartbeatTimeout is how stale a heartbeat may be before a terminal
	// shows Offline (e.g. "2s").
	HeartbeatTimeout string `mapstructure:"HEARTBEAT_TIMEOUT"`
	// PinLength is the length of generated session PINs (4-12).
	PinLength int `mapstructure:"PIN_LENGTH"`
	// SweepInterval is how often the worker closes overdue sessions (e.g. "30s").
	SweepInterval string `mapstructure:"SWEEP_INTERVAL"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint; empty disables export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "12h")
	v.SetDefault("KDF_ITERATIONS", 100000)
	v.SetDefault("HEARTBEAT_TIMEOUT", "2s")
	v.SetDefault("PIN_LENGTH", 6)
	v.SetDefault("SWEEP_INTERVAL", "30s")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.KDFIterations < 100000 {
		return nil, errors.New("config: KDF_ITERATIONS must be at least 100000")
	}
	if cfg.PinLength < domain.MinPinLength || cfg.PinLength > domain.MaxPinLength {
		return nil, errors.New("config: PIN_LENGTH must be between 4 and 12")
	}

	return &cfg, nil
}

// TokenTTL parses JWTTTL as a time.Duration. Returns 12h if unset or invalid.
func (c *Config) TokenTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTTTL)
	if err != nil || d <= 0 {
		return 12 * time.Hour
	}
	return d
}

// HeartbeatTimeoutDuration parses HeartbeatTimeout. Returns 2s if unset or invalid.
func (c *Config) HeartbeatTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.HeartbeatTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// SweepIntervalDuration parses SweepInterval. Returns 30s if unset or invalid.
func (c *Config) SweepIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.SweepInterval)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
