// Package config provides environment-based configuration and validation for
// the VoiceLedger server.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config holds the complete server configuration. It is validated during
// startup; the server refuses to boot on an invalid configuration.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Postgres    PostgresConfig
	Auth        AuthConfig
	S3          S3Config
}

// ApplicationConfig contains general application configuration.
type ApplicationConfig struct {
	Env  string
	Name string
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string
	Format string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// PostgresConfig contains the database connection settings.
type PostgresConfig struct {
	URL string
}

// AuthConfig contains token issuing settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// S3Config contains voice-clip storage settings. Endpoint is optional and
// supports S3-compatible stores like MinIO.
type S3Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
}

// validate checks that required values are present and sane.
func (c *Config) validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 {
		validationErrors = append(validationErrors, "SERVER_PORT must be greater than 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		validationErrors = append(validationErrors, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	}
	if c.Postgres.URL == "" {
		validationErrors = append(validationErrors, "POSTGRES_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		validationErrors = append(validationErrors, "AUTH_JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		validationErrors = append(validationErrors, "AUTH_TOKEN_TTL must be greater than 0")
	}
	if c.S3.Bucket == "" {
		validationErrors = append(validationErrors, "S3_BUCKET is required")
	}
	if c.S3.Region == "" {
		validationErrors = append(validationErrors, "S3_REGION is required")
	}

	if len(validationErrors) > 0 {
		return errors.New("configuration validation failed: " + strings.Join(validationErrors, "; "))
	}
	return nil
}
