// Package config loads server configuration from YAML and SHOPLIST_* environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/and161185/shoplist/internal/ordering"
)

// HTTPConfig holds the JSON API listener settings.
type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// GRPCConfig holds the optional health listener. Empty HealthAddr disables it.
type GRPCConfig struct {
	HealthAddr string `yaml:"health_addr"`
}

// StorageConfig selects the backend.
type StorageConfig struct {
	Driver string `yaml:"driver"` // postgres | sqlite
	DSN    string `yaml:"dsn"`    // connection string, or file path for sqlite
}

// OrderingConfig selects the reordering strategy.
type OrderingConfig struct {
	Strategy    string        `yaml:"strategy"` // index | identity
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Config holds the complete configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	GRPC     GRPCConfig     `yaml:"grpc"`
	Storage  StorageConfig  `yaml:"storage"`
	Ordering OrderingConfig `yaml:"ordering"`
	Log      LogConfig      `yaml:"log"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Storage: StorageConfig{
			Driver: DriverSQLite,
			DSN:    "shoplist.db",
		},
		Ordering: OrderingConfig{
			Strategy:    string(ordering.StrategyIndex),
			LockTimeout: 2 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults and applies environment overrides.
// A missing file is not an error; an empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv lets SHOPLIST_* variables take precedence over file values.
func (c *Config) applyEnv() error {
	str := map[string]*string{
		"SHOPLIST_HTTP_ADDR":         &c.HTTP.Addr,
		"SHOPLIST_GRPC_HEALTH_ADDR":  &c.GRPC.HealthAddr,
		"SHOPLIST_STORAGE_DRIVER":    &c.Storage.Driver,
		"SHOPLIST_STORAGE_DSN":       &c.Storage.DSN,
		"SHOPLIST_ORDERING_STRATEGY": &c.Ordering.Strategy,
		"SHOPLIST_LOG_LEVEL":         &c.Log.Level,
	}
	for k, dst := range str {
		if v, ok := os.LookupEnv(k); ok {
			*dst = v
		}
	}

	dur := map[string]*time.Duration{
		"SHOPLIST_HTTP_READ_TIMEOUT":     &c.HTTP.ReadTimeout,
		"SHOPLIST_HTTP_WRITE_TIMEOUT":    &c.HTTP.WriteTimeout,
		"SHOPLIST_HTTP_SHUTDOWN_TIMEOUT": &c.HTTP.ShutdownTimeout,
		"SHOPLIST_ORDERING_LOCK_TIMEOUT": &c.Ordering.LockTimeout,
	}
	for k, dst := range dur {
		v, ok := os.LookupEnv(k)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", k, v, err)
		}
		*dst = d
	}

	if v, ok := os.LookupEnv("SHOPLIST_LOG_DEVELOPMENT"); ok {
		c.Log.Development = v == "1" || v == "true"
	}
	return nil
}

// Validate returns an error if the configuration contains invalid values.
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr must not be empty")
	}
	switch c.Storage.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("invalid storage.driver %q: must be one of postgres, sqlite", c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("storage.dsn must not be empty")
	}
	if _, err := ordering.ParseStrategy(c.Ordering.Strategy); err != nil {
		return fmt.Errorf("invalid ordering.strategy: %w", err)
	}
	if c.Ordering.LockTimeout <= 0 {
		return fmt.Errorf("ordering.lock_timeout must be positive")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return fmt.Errorf("http.shutdown_timeout must be positive")
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	return nil
}

// NewLogger builds the process logger.
func NewLogger(c LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	lvl, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = lvl
	return zc.Build()
}

// DefaultTemplate is a commented example configuration file.
func DefaultTemplate() string {
	return `# shoplist server configuration

http:
  addr: ":8080"
  read_timeout: 10s
  write_timeout: 10s
  shutdown_timeout: 5s

grpc:
  health_addr: ""             # e.g. ":9090"; empty disables the gRPC health listener

storage:
  driver: sqlite              # sqlite | postgres
  dsn: shoplist.db            # file path for sqlite, URL for postgres

ordering:
  strategy: index             # index | identity
  lock_timeout: 2s            # wait for the store before answering 503

log:
  level: info
  development: false
`
}
