// Package config provides configuration management for the market data server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"finmcp/internal/analysis/indicators"
	apperrors "finmcp/internal/errors"
)

// EnvPrefix prefixes every environment override, e.g. FINMCP_DATA_PROVIDER.
const EnvPrefix = "FINMCP"

// FileName is the configuration file name inside the config directory.
const FileName = "config.toml"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig    `mapstructure:"server" json:"server"`
	Data       DataConfig      `mapstructure:"data" json:"data"`
	Indicators IndicatorConfig `mapstructure:"indicators" json:"indicators"`
	Logging    LoggingConfig   `mapstructure:"logging" json:"logging"`
	UI         UIConfig        `mapstructure:"ui" json:"ui"`
}

// ServerConfig holds MCP transport configuration.
type ServerConfig struct {
	Transport       string        `mapstructure:"transport" json:"transport"` // stdio, http
	Addr            string        `mapstructure:"addr" json:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
}

// DataConfig selects and configures the market data provider.
type DataConfig struct {
	Provider string       `mapstructure:"provider" json:"provider"` // yahoo, csv, sqlite
	Yahoo    YahooConfig  `mapstructure:"yahoo" json:"yahoo"`
	CSV      CSVConfig    `mapstructure:"csv" json:"csv"`
	SQLite   SQLiteConfig `mapstructure:"sqlite" json:"sqlite"`
}

// YahooConfig holds Yahoo Finance client settings.
type YahooConfig struct {
	BaseURL           string        `mapstructure:"base_url" json:"base_url"`
	UserAgent         string        `mapstructure:"user_agent" json:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout" json:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" json:"requests_per_second"`
	Burst             int           `mapstructure:"burst" json:"burst"`
	MaxAttempts       int           `mapstructure:"max_attempts" json:"max_attempts"`
	RetryDelay        time.Duration `mapstructure:"retry_delay" json:"retry_delay"`
	BreakerFailures   int           `mapstructure:"breaker_failures" json:"breaker_failures"`
	BreakerCooldown   time.Duration `mapstructure:"breaker_cooldown" json:"breaker_cooldown"`
}

// CSVConfig points at a directory of <SYMBOL>.csv files.
type CSVConfig struct {
	Dir string `mapstructure:"dir" json:"dir"`
}

// SQLiteConfig points at a bar archive database.
type SQLiteConfig struct {
	Path string `mapstructure:"path" json:"path"`
}

// IndicatorConfig selects the indicator backend.
type IndicatorConfig struct {
	Backend string `mapstructure:"backend" json:"backend"` // native, talib
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" json:"level"`
	File       bool   `mapstructure:"file" json:"file"`
	FilePath   string `mapstructure:"file_path" json:"file_path"`
	MaxSize    int    `mapstructure:"max_size" json:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" json:"max_age"` // days
}

// UIConfig holds CLI output configuration.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled" json:"color_enabled"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/finmcp"
	}
	return filepath.Join(home, ".config", "finmcp")
}

// Path returns the config file path inside configDir.
func Path(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, FileName)
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("server.transport", "stdio")
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("data.provider", "yahoo")
	v.SetDefault("data.yahoo.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("data.yahoo.user_agent", "Mozilla/5.0")
	v.SetDefault("data.yahoo.timeout", "15s")
	v.SetDefault("data.yahoo.requests_per_second", 2.0)
	v.SetDefault("data.yahoo.burst", 4)
	v.SetDefault("data.yahoo.max_attempts", 3)
	v.SetDefault("data.yahoo.retry_delay", "250ms")
	v.SetDefault("data.yahoo.breaker_failures", 5)
	v.SetDefault("data.yahoo.breaker_cooldown", "30s")
	v.SetDefault("data.csv.dir", filepath.Join(configDir, "data"))
	v.SetDefault("data.sqlite.path", filepath.Join(configDir, "bars.db"))

	v.SetDefault("indicators.backend", "native")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", false)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "finmcp.log"))
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)

	v.SetDefault("ui.color_enabled", true)
}

// Load reads config.toml from configDir (default DefaultConfigDir), then
// applies FINMCP_* environment overrides. A missing file means defaults.
// A .env file in the working directory or configDir is loaded first; it
// never overrides variables that are already set.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	loadDotEnv(".env", filepath.Join(configDir, ".env"))

	v := viper.New()
	setDefaults(v, configDir)
	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("loading %s: %w", FileName, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", FileName, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func loadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case "stdio", "http":
	default:
		return invalid("server.transport %q (must be 'stdio' or 'http')", c.Server.Transport)
	}
	if c.Server.Transport == "http" && c.Server.Addr == "" {
		return invalid("server.addr is required for the http transport")
	}

	switch strings.ToLower(c.Data.Provider) {
	case "yahoo":
		if c.Data.Yahoo.RequestsPerSecond < 0 {
			return invalid("data.yahoo.requests_per_second must be non-negative")
		}
		if c.Data.Yahoo.MaxAttempts < 1 {
			return invalid("data.yahoo.max_attempts must be at least 1")
		}
	case "csv":
		if c.Data.CSV.Dir == "" {
			return invalid("data.csv.dir is required for the csv provider")
		}
	case "sqlite":
		if c.Data.SQLite.Path == "" {
			return invalid("data.sqlite.path is required for the sqlite provider")
		}
	default:
		return invalid("data.provider %q (must be 'yahoo', 'csv' or 'sqlite')", c.Data.Provider)
	}

	if !slices.Contains(indicators.BackendNames(), c.Indicators.Backend) {
		return invalid("indicators.backend %q (must be one of %s)",
			c.Indicators.Backend, strings.Join(indicators.BackendNames(), ", "))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "disabled", "off":
	default:
		return invalid("logging.level %q", c.Logging.Level)
	}
	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", apperrors.ErrConfigInvalid, fmt.Sprintf(format, args...))
}
