// Package config loads the service configuration from YAML files,
// environment variables and defaults with proper precedence.
//
// Configuration is resolved in the following order (later sources override
// earlier ones):
//  1. Default values
//  2. Configuration file (./config.yaml, ./configs/config.yaml,
//     ~/.catalog/config.yaml, /etc/catalog/config.yaml)
//  3. Environment variables with the CATALOG_ prefix
//     (e.g. CATALOG_SERVER_PORT=8095, CATALOG_LOGGING_LEVEL=debug)
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host is the server bind address (default: 0.0.0.0)
	Host string `mapstructure:"host"`

	// Port is the server listen port (default: 8080)
	Port int `mapstructure:"port"`

	// ReadTimeout is the maximum duration for reading requests
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration for writing responses
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// ShutdownTimeout is the maximum duration for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// Debug enables echo debug mode
	Debug bool `mapstructure:"debug"`

	// BodyLimit is the maximum request body size, e.g. "10M"
	BodyLimit string `mapstructure:"body_limit"`

	// RateLimit is the maximum requests per second (0 = no limit)
	RateLimit float64 `mapstructure:"rate_limit"`

	// AllowedOrigins are the CORS allowed origins
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the log level (debug, info, warn, error)
	Level string `mapstructure:"level"`

	// Format is the log format (json, text)
	Format string `mapstructure:"format"`

	// File is an optional log file in addition to the console
	File string `mapstructure:"file"`
}

// FilesConfig names the JSON state files and the archive database. Relative
// names resolve against the working directory, which must be writable.
type FilesConfig struct {
	// Settings is the settings file (default: settings.json)
	Settings string `mapstructure:"settings"`

	// Cache is the turnover cache snapshot file (default: turnover_cache.json)
	Cache string `mapstructure:"cache"`

	// Recipes is the bootstrap recipe file (default: default_receipt.json)
	Recipes string `mapstructure:"recipes"`

	// Archive is the bbolt backup journal (default: archive.db)
	Archive string `mapstructure:"archive"`
}

// Config is the root configuration of the catalog service.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Files   FilesConfig   `mapstructure:"files"`
}

// Loader provides configuration loading functionality.
type Loader struct {
	v      *viper.Viper
	prefix string
}

// NewLoader creates a loader with the given environment prefix.
func NewLoader(envPrefix string) *Loader {
	return &Loader{
		v:      viper.New(),
		prefix: envPrefix,
	}
}

// SetConfigDefaults sets the standard service defaults.
func (l *Loader) SetConfigDefaults() {
	l.v.SetDefault("server.host", "0.0.0.0")
	l.v.SetDefault("server.port", 8080)
	l.v.SetDefault("server.read_timeout", "30s")
	l.v.SetDefault("server.write_timeout", "30s")
	l.v.SetDefault("server.shutdown_timeout", "10s")
	l.v.SetDefault("server.debug", false)
	l.v.SetDefault("server.body_limit", "10M")
	l.v.SetDefault("server.rate_limit", 0)
	l.v.SetDefault("server.allowed_origins", []string{"*"})

	l.v.SetDefault("logging.level", "info")
	l.v.SetDefault("logging.format", "text")
	l.v.SetDefault("logging.file", "")

	l.v.SetDefault("files.settings", "settings.json")
	l.v.SetDefault("files.cache", "turnover_cache.json")
	l.v.SetDefault("files.recipes", "default_receipt.json")
	l.v.SetDefault("files.archive", "archive.db")
}

// Load reads configuration from file and environment variables. If cfgFile
// is empty, config.yaml is searched in the standard locations.
func (l *Loader) Load(cfgFile string, target interface{}) error {
	if cfgFile != "" {
		l.v.SetConfigFile(cfgFile)
	} else {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("./configs")
		l.v.AddConfigPath("$HOME/.catalog")
		l.v.AddConfigPath("/etc/catalog")
	}

	if err := l.v.ReadInConfig(); err != nil {
		if cfgFile != "" && !isFileNotFoundError(err) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		if cfgFile == "" {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	if l.prefix != "" {
		l.v.SetEnvPrefix(l.prefix)
	}
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if err := l.v.Unmarshal(target); err != nil {
		return fmt.Errorf("unable to decode config: %w", err)
	}

	return nil
}

// LoadConfig loads and validates the configuration with standard defaults.
func LoadConfig(envPrefix, cfgFile string) (*Config, error) {
	loader := NewLoader(envPrefix)
	loader.SetConfigDefaults()

	cfg := &Config{}
	if err := loader.Load(cfgFile, cfg); err != nil {
		return nil, err
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ValidateConfig validates the loaded configuration.
func ValidateConfig(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Files.Settings == "" || cfg.Files.Cache == "" {
		return fmt.Errorf("settings and cache file names must not be empty")
	}
	return nil
}

// isFileNotFoundError checks if an error is a file not found error.
func isFileNotFoundError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return errors.Is(pathErr, os.ErrNotExist)
	}
	return false
}
