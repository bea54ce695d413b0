// Package config loads process configuration from an optional YAML file and
// HACKATHON_* environment variables, in that order.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-hackathon-store/cache"
	"github.com/goliatone/go-hackathon-store/internal/sqlstore"
	"github.com/goliatone/go-hackathon-store/repositorycache"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HACKATHON_"

const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendDynamoDB = "dynamodb"
)

// Config is the process configuration.
type Config struct {
	Backend  string          `yaml:"backend"`
	SQL      sqlstore.Config `yaml:"sql"`
	DynamoDB DynamoDBConfig  `yaml:"dynamodb"`
	Cache    cache.Config    `yaml:"cache"`
	Lists    ListConfig      `yaml:"lists"`
	Sweep    SweepConfig     `yaml:"sweep"`
	Log      LogConfig       `yaml:"log"`
}

type DynamoDBConfig struct {
	Region       string `yaml:"region"`
	Endpoint     string `yaml:"endpoint"`
	TablePrefix  string `yaml:"table_prefix"`
	CreateTables bool   `yaml:"create_tables"`
}

// ListConfig controls the partition list cache.
type ListConfig struct {
	TTL         time.Duration `yaml:"ttl"`
	AutoRefresh bool          `yaml:"auto_refresh"`
}

// SweepConfig controls counter sweeps. SettleDelay is how long the stream
// handler waits before sweeping again the counters its first pass moved.
type SweepConfig struct {
	Workers     int           `yaml:"workers"`
	SettleDelay time.Duration `yaml:"settle_delay"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Backend: BackendMemory,
		SQL: sqlstore.Config{
			Driver: sqlstore.DriverSQLite,
			DSN:    "file:hackathons.db?cache=shared",
		},
		DynamoDB: DynamoDBConfig{
			TablePrefix: "hackathon-",
		},
		Cache: cache.DefaultConfig(),
		Lists: ListConfig{
			TTL:         repositorycache.DefaultTTL,
			AutoRefresh: true,
		},
		Sweep: SweepConfig{
			Workers:     4,
			SettleDelay: 2 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path, when path is
// not empty, and then with environment overrides. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("BACKEND"); ok {
		cfg.Backend = strings.ToLower(v)
	}
	if v, ok := get("SQL_DRIVER"); ok {
		cfg.SQL.Driver = v
	}
	if v, ok := get("SQL_DSN"); ok {
		cfg.SQL.DSN = v
	}
	if v, ok := get("DYNAMODB_REGION"); ok {
		cfg.DynamoDB.Region = v
	}
	if v, ok := get("DYNAMODB_ENDPOINT"); ok {
		cfg.DynamoDB.Endpoint = v
	}
	if v, ok := get("DYNAMODB_TABLE_PREFIX"); ok {
		cfg.DynamoDB.TablePrefix = v
	}
	if v, ok := get("LIST_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sLIST_TTL: %w", EnvPrefix, err)
		}
		cfg.Lists.TTL = d
	}
	if v, ok := get("LIST_AUTO_REFRESH"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sLIST_AUTO_REFRESH: %w", EnvPrefix, err)
		}
		cfg.Lists.AutoRefresh = b
	}
	if v, ok := get("SWEEP_WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sSWEEP_WORKERS: %w", EnvPrefix, err)
		}
		cfg.Sweep.Workers = n
	}
	if v, ok := get("SWEEP_SETTLE_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sSWEEP_SETTLE_DELAY: %w", EnvPrefix, err)
		}
		cfg.Sweep.SettleDelay = d
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
	return nil
}

// Validate checks the configuration and returns a validation category error.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Backend, validation.Required,
			validation.In(BackendMemory, BackendSQLite, BackendPostgres, BackendDynamoDB)),
		validation.Field(&c.Lists, validation.By(func(any) error {
			return validation.Validate(c.Lists.TTL, validation.Required, validation.Min(time.Second))
		})),
		validation.Field(&c.Sweep, validation.By(func(any) error {
			return validation.Errors{
				"workers":      validation.Validate(c.Sweep.Workers, validation.Required, validation.Min(1), validation.Max(64)),
				"settle_delay": validation.Validate(c.Sweep.SettleDelay, validation.Min(time.Duration(0)), validation.Max(time.Minute)),
			}.Filter()
		})),
		validation.Field(&c.Log, validation.By(func(any) error {
			return validation.Errors{
				"level":  validation.Validate(strings.ToLower(c.Log.Level), validation.In("debug", "info", "warn", "error")),
				"format": validation.Validate(c.Log.Format, validation.In("text", "json")),
			}.Filter()
		})),
		validation.Field(&c.SQL, validation.When(c.Backend == BackendSQLite || c.Backend == BackendPostgres,
			validation.By(func(any) error {
				return validation.Errors{
					"driver": validation.Validate(c.SQL.Driver, validation.Required),
					"dsn":    validation.Validate(c.SQL.DSN, validation.Required),
				}.Filter()
			}))),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "config: invalid configuration")
	}
	if err := c.Cache.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "config: invalid cache configuration")
	}
	return nil
}

// SQLDriver returns the database/sql driver name for the configured backend.
func (c Config) SQLDriver() string {
	switch c.Backend {
	case BackendPostgres:
		return sqlstore.DriverPostgres
	case BackendSQLite:
		return sqlstore.DriverSQLite
	}
	return c.SQL.Driver
}

// NewLogger builds the process logger described by the log section.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLogLevel(c.Log.Level)}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLogLevel maps a level name to a slog level, defaulting to info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
