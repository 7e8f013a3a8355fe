// Package common provides shared utilities for Stocklens
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Stocklens
type Config struct {
	Environment string           `toml:"environment"`
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Auth        AuthConfig       `toml:"auth"`
	Projection  ProjectionConfig `toml:"projection"`
	Logging     LoggingConfig    `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the analysis store backend.
// Backend is "memory" (process-local, lost on restart) or "sqlite".
type StorageConfig struct {
	Backend  string `toml:"backend"`
	Path     string `toml:"path"`      // sqlite database file
	ChartDir string `toml:"chart_dir"` // rendered chart PNGs
}

// AuthConfig holds JWT authentication configuration.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"` // duration string, default "24h"
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// ProjectionConfig selects the default projection policy.
// Policy is "fixed" or "linear"; Scale is "standard" or "conservative"
// and only applies to the fixed policy.
type ProjectionConfig struct {
	Policy string `toml:"policy"`
	Scale  string `toml:"scale"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Format     string   `toml:"format"`
	Outputs    []string `toml:"outputs"`
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Storage: StorageConfig{
			Backend:  "memory",
			Path:     "data/stock_analysis.db",
			ChartDir: "data/charts",
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
		},
		Projection: ProjectionConfig{
			Policy: "fixed",
			Scale:  "standard",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			Outputs:    []string{"console"},
			FilePath:   "./logs/stocklens.log",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	validateStorageBackend(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKLENS_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("STOCKLENS_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("STOCKLENS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("STOCKLENS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if backend := os.Getenv("STOCKLENS_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = backend
	}

	if path := os.Getenv("STOCKLENS_DB_PATH"); path != "" {
		config.Storage.Path = path
	}

	if dir := os.Getenv("STOCKLENS_CHART_DIR"); dir != "" {
		config.Storage.ChartDir = dir
	}

	if v := os.Getenv("STOCKLENS_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("STOCKLENS_AUTH_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}

	if v := os.Getenv("STOCKLENS_PROJECTION_POLICY"); v != "" {
		config.Projection.Policy = v
	}
	if v := os.Getenv("STOCKLENS_PROJECTION_SCALE"); v != "" {
		config.Projection.Scale = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// validateStorageBackend ensures Backend is "memory" or "sqlite", defaulting to "memory".
func validateStorageBackend(config *Config) {
	backend := strings.ToLower(strings.TrimSpace(config.Storage.Backend))
	if backend != "memory" && backend != "sqlite" {
		backend = "memory"
	}
	config.Storage.Backend = backend
}
