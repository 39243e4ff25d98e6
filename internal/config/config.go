// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading. Values come
// from built-in defaults, an optional YAML file, and environment variables,
// each layer overriding the previous one. It provides a centralized Config
// struct used across the application.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Env      string `yaml:"env"` // "development", "production", "testing"
	LogLevel string `yaml:"log_level"`

	// Database engine: "sqlite" (file at DBPath) or "postgres".
	DBDriver string `yaml:"db_driver"`
	DBPath   string `yaml:"db_path"`

	// PostgreSQL connection
	DBHost     string `yaml:"postgres_host"`
	DBPort     string `yaml:"postgres_port"`
	DBUser     string `yaml:"postgres_user"`
	DBPassword string `yaml:"postgres_password"`
	DBName     string `yaml:"postgres_db"`

	// Valkey (Redis-compatible) query cache. Disabled when ValkeyHost is empty.
	ValkeyHost     string        `yaml:"valkey_host"`
	ValkeyPort     string        `yaml:"valkey_port"`
	ValkeyPassword string        `yaml:"valkey_password"`
	ValkeyDB       int           `yaml:"valkey_db"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`

	// Spreadsheet export. Exporting is disabled when the URL is empty.
	SheetsWebhookURL    string `yaml:"sheets_webhook_url"`
	ExportRatePerMinute int    `yaml:"export_rate_per_minute"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

// Default returns the development defaults.
func Default() *Config {
	return &Config{
		Host:     "0.0.0.0",
		Port:     "8080",
		Env:      "development",
		LogLevel: "info",

		DBDriver: "sqlite",
		DBPath:   "./promptvault.db",

		DBHost:     "localhost",
		DBPort:     "5432",
		DBUser:     "promptvault",
		DBPassword: "changeme",
		DBName:     "promptvault",

		ValkeyPort: "6379",
		CacheTTL:   time.Minute,

		ExportRatePerMinute: 6,
		CORSAllowedOrigins:  []string{"*"},
	}
}

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// Load builds the configuration from the defaults, the YAML file at path
// (skipped when path is empty), and the environment. Returns an error if
// a value is malformed or a critical value is missing in production mode.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields with any environment variables that are set.
func (c *Config) applyEnv() error {
	envString(&c.Host, "APP_HOST")
	envString(&c.Port, "APP_PORT")
	envString(&c.Env, "APP_ENV")
	envString(&c.LogLevel, "LOG_LEVEL")

	envString(&c.DBDriver, "DB_DRIVER")
	envString(&c.DBPath, "DB_PATH")
	envString(&c.DBHost, "POSTGRES_HOST")
	envString(&c.DBPort, "POSTGRES_PORT")
	envString(&c.DBUser, "POSTGRES_USER")
	envString(&c.DBPassword, "POSTGRES_PASSWORD")
	envString(&c.DBName, "POSTGRES_DB")

	envString(&c.ValkeyHost, "VALKEY_HOST")
	envString(&c.ValkeyPort, "VALKEY_PORT")
	envString(&c.ValkeyPassword, "VALKEY_PASSWORD")

	// The Apps Script name is accepted for existing deployments.
	envString(&c.SheetsWebhookURL, "GOOGLE_APPS_SCRIPT_WEBHOOK_URL")
	envString(&c.SheetsWebhookURL, "SHEETS_WEBHOOK_URL")

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORSAllowedOrigins = splitList(v)
	}

	if v := os.Getenv("VALKEY_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VALKEY_DB: %w", err)
		}
		c.ValkeyDB = n
	}
	if v := os.Getenv("EXPORT_RATE_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("EXPORT_RATE_PER_MINUTE: %w", err)
		}
		c.ExportRatePerMinute = n
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		c.CacheTTL = d
	}
	return nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver)
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	if c.SheetsWebhookURL != "" {
		u, err := url.Parse(c.SheetsWebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("SHEETS_WEBHOOK_URL must be an http or https URL, got %q", c.SheetsWebhookURL)
		}
	}

	if c.ExportRatePerMinute < 0 {
		return fmt.Errorf("EXPORT_RATE_PER_MINUTE must not be negative")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}

	if c.Env == "production" && c.DBDriver == "postgres" {
		if c.DBPassword == "changeme" {
			return fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}

	return nil
}

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		return c.PostgresDSN()
	}
	return c.DBPath
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// CacheEnabled reports whether a Valkey host is configured.
func (c *Config) CacheEnabled() bool {
	return c.ValkeyHost != ""
}

// ExportEnabled reports whether a webhook destination is configured.
func (c *Config) ExportEnabled() bool {
	return c.SheetsWebhookURL != ""
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

// envString sets *dst to the environment variable key when it is set and
// not empty.
func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
