// Package config loads labtrack settings from defaults, an optional YAML file
// and LABTRACK_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"labtrack/pkg/domain"

	"gopkg.in/yaml.v3"
)

// Driver names a storage backend.
type Driver string

// Supported storage drivers.
const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverRedis    Driver = "redis"
	DriverFS       Driver = "fs"
	DriverS3       Driver = "s3"
	DriverBlobMem  Driver = "blobmem"
)

// Config is the root configuration document.
type Config struct {
	Storage Storage `yaml:"storage"`
	Log     Log     `yaml:"log"`
	Locale  string  `yaml:"locale"`
}

// Storage selects and configures the snapshot backend.
type Storage struct {
	Driver      Driver `yaml:"driver"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	Redis       Redis  `yaml:"redis"`
	FSRoot      string `yaml:"fs_root"`
	S3          S3     `yaml:"s3"`
	// Prefix namespaces object keys for blob-backed drivers.
	Prefix string `yaml:"prefix"`
	Keys   Keys   `yaml:"keys"`
}

// Redis connection settings.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// S3 bucket settings. Credentials come from the AWS default chain.
type S3 struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// Keys overrides the two snapshot key names.
type Keys struct {
	Parameters string `yaml:"parameters"`
	Series     string `yaml:"series"`
}

// LocaleTag returns the display locale; unknown tags fall back to English.
func (c Config) LocaleTag() domain.Locale { return domain.ParseLocale(c.Locale) }

// Log controls logger construction.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration: a local sqlite file and
// console logging at info level.
func Default() Config {
	return Config{
		Storage: Storage{
			Driver:     DriverSQLite,
			SQLitePath: "labtrack.db",
			Redis:      Redis{Addr: "localhost:6379", Prefix: "labtrack:"},
			FSRoot:     "./blobdata",
			S3:         S3{Region: "us-east-1"},
			Prefix:     "labtrack/",
			Keys: Keys{
				Parameters: domain.DefaultParametersKey,
				Series:     domain.DefaultSeriesKey,
			},
		},
		Log:    Log{Level: "info", Format: "console"},
		Locale: string(domain.DefaultLocale),
	}
}

// Load builds the configuration. An empty path skips the file; a missing
// file at a non-empty path is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Storage.Driver = Driver(getEnv("LABTRACK_STORAGE_DRIVER", string(c.Storage.Driver)))
	c.Storage.SQLitePath = getEnv("LABTRACK_SQLITE_PATH", c.Storage.SQLitePath)
	c.Storage.PostgresDSN = getEnv("LABTRACK_POSTGRES_DSN", c.Storage.PostgresDSN)
	c.Storage.Redis.Addr = getEnv("LABTRACK_REDIS_ADDR", c.Storage.Redis.Addr)
	c.Storage.Redis.Password = getEnv("LABTRACK_REDIS_PASSWORD", c.Storage.Redis.Password)
	c.Storage.Redis.Prefix = getEnv("LABTRACK_REDIS_PREFIX", c.Storage.Redis.Prefix)
	if v := os.Getenv("LABTRACK_REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LABTRACK_REDIS_DB: %w", err)
		}
		c.Storage.Redis.DB = db
	}
	c.Storage.FSRoot = getEnv("LABTRACK_FS_ROOT", c.Storage.FSRoot)
	c.Storage.S3.Bucket = getEnv("LABTRACK_S3_BUCKET", c.Storage.S3.Bucket)
	c.Storage.S3.Region = getEnv("LABTRACK_S3_REGION", c.Storage.S3.Region)
	c.Storage.S3.Endpoint = getEnv("LABTRACK_S3_ENDPOINT", c.Storage.S3.Endpoint)
	c.Storage.S3.PathStyle = getEnvBool("LABTRACK_S3_PATH_STYLE", c.Storage.S3.PathStyle)
	c.Storage.Prefix = getEnv("LABTRACK_STORAGE_PREFIX", c.Storage.Prefix)
	c.Storage.Keys.Parameters = getEnv("LABTRACK_PARAMETERS_KEY", c.Storage.Keys.Parameters)
	c.Storage.Keys.Series = getEnv("LABTRACK_SERIES_KEY", c.Storage.Keys.Series)
	c.Log.Level = getEnv("LABTRACK_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LABTRACK_LOG_FORMAT", c.Log.Format)
	c.Locale = getEnv("LABTRACK_LOCALE", c.Locale)
	return nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite, DriverBlobMem:
	case DriverPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("storage.postgres_dsn required for postgres driver"))
		}
	case DriverRedis:
		if c.Storage.Redis.Addr == "" {
			errs = append(errs, errors.New("storage.redis.addr required for redis driver"))
		}
	case DriverFS:
		if c.Storage.FSRoot == "" {
			errs = append(errs, errors.New("storage.fs_root required for fs driver"))
		}
	case DriverS3:
		if c.Storage.S3.Bucket == "" {
			errs = append(errs, errors.New("storage.s3.bucket required for s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	if c.Storage.Keys.Parameters == "" || c.Storage.Keys.Series == "" {
		errs = append(errs, errors.New("storage.keys must name both keys"))
	} else if c.Storage.Keys.Parameters == c.Storage.Keys.Series {
		errs = append(errs, errors.New("storage.keys.parameters and storage.keys.series must differ"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
