// Package config loads the service configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/yegors/procroute/pkg/logger"
)

// EnvConfigPath overrides the configuration file path
const EnvConfigPath = "PROCROUTE_CONFIG"

// Reference source kinds
const (
	SourceCSV    = "csv"
	SourceHTTP   = "http"
	SourceSQLite = "sqlite"
)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `toml:"server" yaml:"server"`
	Logging     LoggingConfig     `toml:"logging" yaml:"logging"`
	Reference   ReferenceConfig   `toml:"reference" yaml:"reference"`
	RoutePoints RoutePointsConfig `toml:"route_points" yaml:"route_points"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Host               string        `toml:"host" yaml:"host"`
	Port               int           `toml:"port" yaml:"port" validate:"min=1,max=65535"`
	CORSAllowedOrigins []string      `toml:"cors_allowed_origins" yaml:"cors_allowed_origins"`
	ReadTimeout        time.Duration `toml:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout       time.Duration `toml:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level      string `toml:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format     string `toml:"format" yaml:"format" validate:"oneof=json console"`
	File       string `toml:"file" yaml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb" yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `toml:"max_backups" yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `toml:"max_age_days" yaml:"max_age_days" validate:"gte=0"`
	Compress   bool   `toml:"compress" yaml:"compress"`
}

// Logger converts the section to a logger configuration
func (l LoggingConfig) Logger() logger.Config {
	return logger.Config{
		Level:      l.Level,
		Format:     l.Format,
		File:       l.File,
		MaxSizeMB:  l.MaxSizeMB,
		MaxBackups: l.MaxBackups,
		MaxAgeDays: l.MaxAgeDays,
		Compress:   l.Compress,
	}
}

// ReferenceConfig selects where procedure reference tables come from
type ReferenceConfig struct {
	Source string `toml:"source" yaml:"source" validate:"oneof=csv http sqlite"`

	DPPath   string `toml:"dp_path" yaml:"dp_path" validate:"required_if=Source csv"`
	STARPath string `toml:"star_path" yaml:"star_path" validate:"required_if=Source csv"`

	DPURL      string        `toml:"dp_url" yaml:"dp_url" validate:"required_if=Source http"`
	STARURL    string        `toml:"star_url" yaml:"star_url" validate:"required_if=Source http"`
	Timeout    time.Duration `toml:"timeout" yaml:"timeout" validate:"gte=0"`
	MaxRetries int           `toml:"max_retries" yaml:"max_retries" validate:"gte=0"`

	SQLitePath string `toml:"sqlite_path" yaml:"sqlite_path" validate:"required_if=Source sqlite"`
	DPTable    string `toml:"dp_table" yaml:"dp_table"`
	STARTable  string `toml:"star_table" yaml:"star_table"`

	Watch    bool          `toml:"watch" yaml:"watch"`
	Debounce time.Duration `toml:"debounce" yaml:"debounce" validate:"gte=0"`
}

// RoutePointsConfig points at the known route-point list
type RoutePointsConfig struct {
	File string `toml:"file" yaml:"file"`
}

// Default returns the configuration used when a field is not set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Reference: ReferenceConfig{
			Source:     SourceCSV,
			DPPath:     "data/dp.csv",
			STARPath:   "data/star.csv",
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			DPTable:    "dp_procedures",
			STARTable:  "star_procedures",
			Debounce:   500 * time.Millisecond,
		},
	}
}

// Path returns the configuration path to use: explicit, then the
// environment, then config.toml
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env
	}
	return "config.toml"
}

// Load reads configuration from path. TOML is the default format; .yaml and
// .yml files are read as YAML. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := decode(path, data, cfg); err != nil {
			return nil, err
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to parse TOML config: %w", err)
		}
	}
	return nil
}

func (c *Config) normalize() {
	c.Reference.Source = strings.ToLower(strings.TrimSpace(c.Reference.Source))
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)

	defaults := Default()
	if c.Reference.DPTable == "" {
		c.Reference.DPTable = defaults.Reference.DPTable
	}
	if c.Reference.STARTable == "" {
		c.Reference.STARTable = defaults.Reference.STARTable
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
