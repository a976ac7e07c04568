// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host     string
	Port     string
	Env      string // "development", "production", "testing"
	BaseURL  string // public origin used in share links and OG tags
	LogLevel string

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Uploaded photo storage
	StorageDriver string // "local" or "s3"
	UploadDir     string
	S3Endpoint    string
	S3Region      string
	S3AccessKey   string
	S3SecretKey   string
	S3Bucket      string
	S3PublicURL   string

	// Auth
	SessionSecure    bool
	GuestTokenSecret string
	GuestTokenTTL    time.Duration

	// Outgoing mail
	MailProvider string // "ses" or "noop"
	MailFrom     string
	MailFromName string
	SESRegion    string
	SESAccessKey string
	SESSecretKey string

	// Social preview image
	PreviewLocale          string
	PreviewBrand           string
	PreviewFontDir         string
	PreviewPortraitTimeout time.Duration
	OGCacheTTL             time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Outside production a .env file in the
// working directory is loaded first; variables already set win. Returns an
// error if critical values are missing in production mode.
func Load() (*Config, error) {
	env := envOrDefault("APP_ENV", "development")
	if env != "production" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			slog.Warn("could not load .env file", "error", err)
		}
		env = envOrDefault("APP_ENV", "development")
	}

	cfg := &Config{
		Host:     envOrDefault("APP_HOST", "0.0.0.0"),
		Port:     envOrDefault("APP_PORT", "8080"),
		Env:      env,
		BaseURL:  envOrDefault("APP_BASE_URL", "http://localhost:8080"),
		LogLevel: envOrDefault("LOG_LEVEL", "info"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "kekkon"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", "changeme"),
		DBName:     envOrDefault("POSTGRES_DB", "kekkon"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		StorageDriver: envOrDefault("STORAGE_DRIVER", "local"),
		UploadDir:     envOrDefault("UPLOAD_DIR", "./uploads"),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
		S3Region:      envOrDefault("S3_REGION", "ap-southeast-3"),
		S3AccessKey:   os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:   os.Getenv("S3_SECRET_KEY"),
		S3Bucket:      envOrDefault("S3_BUCKET", "kekkon-uploads"),
		S3PublicURL:   os.Getenv("S3_PUBLIC_URL"),

		SessionSecure:    envBool("SESSION_SECURE", env == "production"),
		GuestTokenSecret: os.Getenv("GUEST_TOKEN_SECRET"),
		GuestTokenTTL:    envDuration("GUEST_TOKEN_TTL", 90*24*time.Hour),

		MailProvider: envOrDefault("MAIL_PROVIDER", "noop"),
		MailFrom:     envOrDefault("MAIL_FROM", "no-reply@kekkon.local"),
		MailFromName: envOrDefault("MAIL_FROM_NAME", "kekkon"),
		SESRegion:    envOrDefault("SES_REGION", "ap-southeast-1"),
		SESAccessKey: os.Getenv("SES_ACCESS_KEY"),
		SESSecretKey: os.Getenv("SES_SECRET_KEY"),

		PreviewLocale:          envOrDefault("PREVIEW_LOCALE", "id"),
		PreviewBrand:           envOrDefault("PREVIEW_BRAND", "kekkon · digital wedding invitations"),
		PreviewFontDir:         os.Getenv("PREVIEW_FONT_DIR"),
		PreviewPortraitTimeout: envDuration("PREVIEW_PORTRAIT_TIMEOUT", 500*time.Millisecond),
		OGCacheTTL:             envDuration("OG_CACHE_TTL", 24*time.Hour),
	}

	if cfg.IsProd() {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.GuestTokenSecret == "" {
			return nil, fmt.Errorf("GUEST_TOKEN_SECRET must be set in production")
		}
	}
	if cfg.GuestTokenSecret == "" {
		cfg.GuestTokenSecret = "dev-guest-token-secret"
	}

	switch cfg.StorageDriver {
	case "local", "s3":
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q (want local or s3)", cfg.StorageDriver)
	}
	switch cfg.MailProvider {
	case "ses", "noop":
	default:
		return nil, fmt.Errorf("unknown MAIL_PROVIDER %q (want ses or noop)", cfg.MailProvider)
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

// IsProd returns true if the application is running in production mode.
func (c *Config) IsProd() bool {
	return c.Env == "production"
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envBool parses a boolean variable ("true", "1", "false", ...), returning
// fallback when unset or unparsable.
func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// envDuration parses a Go duration ("500ms", "24h"), returning fallback when
// unset, unparsable or not positive.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
