package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete shelfd configuration.
//
// This structure captures all configurable aspects of the server:
//   - Logging configuration
//   - Server-wide settings (listen address, shutdown timeout)
//   - Catalog store selection and store-specific configuration
//   - Blob store selection and store-specific configuration
//   - Metrics exposure
//
// Configuration sources (in order of precedence):
//  1. Environment variables (SHELFD_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Store Configuration Pattern:
// Each store type has its own configuration section as a map; only the
// section matching the selected Type is decoded (see factories.go).
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains server-wide settings
	Server ServerConfig `mapstructure:"server"`

	// Catalog specifies the catalog store type and type-specific configuration
	Catalog CatalogConfig `mapstructure:"catalog"`

	// Blob specifies the blob store type and type-specific configuration
	Blob BlobConfig `mapstructure:"blob"`

	// Metrics controls Prometheus metrics exposure
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Seed controls whether the initial institutional records are inserted
	// into an empty catalog at startup
	Seed SeedConfig `mapstructure:"seed"`

	// GC controls the orphaned-blob sweeper
	GC GCConfig `mapstructure:"gc"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// Listen is the HTTP listen address (host:port)
	Listen string `mapstructure:"listen" validate:"required"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`

	// MaxUploadBytes caps the accepted upload body size
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"gt=0"`

	// RateLimit is the maximum sustained request rate in requests per
	// second. Zero disables rate limiting.
	RateLimit float64 `mapstructure:"rate_limit" validate:"gte=0"`

	// RateBurst is the burst capacity of the rate limiter. Zero defaults
	// to RateLimit.
	RateBurst int `mapstructure:"rate_burst" validate:"gte=0"`
}

// CatalogConfig specifies catalog store configuration.
//
// The Type field determines which store implementation is used; only the
// corresponding type-specific section is decoded.
type CatalogConfig struct {
	// Type specifies which catalog store implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Memory contains memory-specific configuration
	Memory map[string]any `mapstructure:"memory"`

	// Badger contains BadgerDB-specific configuration
	Badger map[string]any `mapstructure:"badger"`
}

// BlobConfig specifies blob store configuration.
type BlobConfig struct {
	// Type specifies which blob store implementation to use
	// Valid values: filesystem, memory, s3
	Type string `mapstructure:"type" validate:"required,oneof=filesystem memory s3"`

	// Filesystem contains filesystem-specific configuration
	Filesystem map[string]any `mapstructure:"filesystem"`

	// Memory contains memory-specific configuration
	Memory map[string]any `mapstructure:"memory"`

	// S3 contains S3-specific configuration
	S3 map[string]any `mapstructure:"s3"`
}

// MetricsConfig controls Prometheus metrics exposure.
type MetricsConfig struct {
	// Enabled turns metrics collection and the /metrics endpoint on
	Enabled bool `mapstructure:"enabled"`

	// Listen is the metrics listen address; empty serves /metrics on the
	// main listener instead of a dedicated one
	Listen string `mapstructure:"listen"`
}

// SeedConfig controls startup seeding.
type SeedConfig struct {
	// Records inserts the initial institutional file records when the
	// catalog is empty
	Records bool `mapstructure:"records"`
}

// GCConfig controls the orphaned-blob sweeper.
type GCConfig struct {
	// Enabled turns periodic sweeping on. Requires a blob store that can
	// enumerate its keys.
	Enabled bool `mapstructure:"enabled"`

	// Interval is how often to sweep
	Interval time.Duration `mapstructure:"interval"`

	// DryRun logs orphans without removing them
	DryRun bool `mapstructure:"dry_run"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SHELFD_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file
// settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use SHELFD_ prefix and underscores
	// Example: SHELFD_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("SHELFD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing file
// is acceptable - defaults apply.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "shelfd")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "shelfd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
