// Package config loads runtime settings from an optional YAML file and
// INITIATIVE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Storage drivers understood by core.OpenDataStore.
const (
	DriverMemory   = "memory"
	DriverNull     = "null"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverBadger   = "badger"
	DriverBlob     = "blob"
)

// Config is the root of the YAML document.
type Config struct {
	Storage Storage `yaml:"storage"`
	Log     Log     `yaml:"log"`
	Metrics Metrics `yaml:"metrics"`
}

// Storage selects and configures the journal backend.
type Storage struct {
	Driver   string   `yaml:"driver"`
	SQLite   SQLite   `yaml:"sqlite"`
	Postgres Postgres `yaml:"postgres"`
	Badger   Badger   `yaml:"badger"`
	Blob     Blob     `yaml:"blob"`
}

type SQLite struct {
	Path string `yaml:"path"`
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

type Badger struct {
	Path       string `yaml:"path"`
	InMemory   bool   `yaml:"in_memory"`
	SyncWrites bool   `yaml:"sync_writes"`
}

// Blob configures the object-store backend.
type Blob struct {
	Driver string `yaml:"driver"` // fs|memory|s3
	FSRoot string `yaml:"fs_root"`
	S3     S3     `yaml:"s3"`
}

type S3 struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Prefix          string `yaml:"prefix"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

// Log controls the slog handler built by the CLI.
type Log struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Format string `yaml:"format"` // text|json
}

// Metrics controls the optional Prometheus endpoint.
type Metrics struct {
	Addr string `yaml:"addr"`
}

// Default returns the settings used when no file or environment is supplied.
func Default() Config {
	return Config{
		Storage: Storage{
			Driver: DriverSQLite,
			SQLite: SQLite{Path: "initiative.db"},
			Badger: Badger{Path: "initiative.badger", SyncWrites: true},
			Blob:   Blob{Driver: "fs", FSRoot: "./blobdata"},
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads path (when non-empty) over the defaults, then applies the
// process environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from INITIATIVE_* variables:
//
//	INITIATIVE_STORAGE_DRIVER: memory|null|sqlite|postgres|badger|blob
//	INITIATIVE_SQLITE_PATH, INITIATIVE_POSTGRES_DSN, INITIATIVE_BADGER_PATH
//	INITIATIVE_BLOB_DRIVER: fs|memory|s3
//	INITIATIVE_BLOB_FS_ROOT
//	INITIATIVE_BLOB_S3_BUCKET, _REGION, _PREFIX, _ENDPOINT, _PATH_STYLE
//	INITIATIVE_LOG_LEVEL, INITIATIVE_LOG_FORMAT, INITIATIVE_METRICS_ADDR
//
// S3 credentials are taken from the standard AWS_* chain unless set in YAML.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"INITIATIVE_STORAGE_DRIVER":   &c.Storage.Driver,
		"INITIATIVE_SQLITE_PATH":      &c.Storage.SQLite.Path,
		"INITIATIVE_POSTGRES_DSN":     &c.Storage.Postgres.DSN,
		"INITIATIVE_BADGER_PATH":      &c.Storage.Badger.Path,
		"INITIATIVE_BLOB_DRIVER":      &c.Storage.Blob.Driver,
		"INITIATIVE_BLOB_FS_ROOT":     &c.Storage.Blob.FSRoot,
		"INITIATIVE_BLOB_S3_BUCKET":   &c.Storage.Blob.S3.Bucket,
		"INITIATIVE_BLOB_S3_REGION":   &c.Storage.Blob.S3.Region,
		"INITIATIVE_BLOB_S3_PREFIX":   &c.Storage.Blob.S3.Prefix,
		"INITIATIVE_BLOB_S3_ENDPOINT": &c.Storage.Blob.S3.Endpoint,
		"INITIATIVE_LOG_LEVEL":        &c.Log.Level,
		"INITIATIVE_LOG_FORMAT":       &c.Log.Format,
		"INITIATIVE_METRICS_ADDR":     &c.Metrics.Addr,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("INITIATIVE_BLOB_S3_PATH_STYLE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("INITIATIVE_BLOB_S3_PATH_STYLE: %w", err)
		}
		c.Storage.Blob.S3.PathStyle = b
	}
	return nil
}

// Validate rejects unknown drivers and missing required settings.
func (c Config) Validate() error {
	var errs []error
	switch c.Storage.Driver {
	case DriverMemory, DriverNull, DriverSQLite, DriverBadger:
	case DriverPostgres:
		// an empty DSN falls back to the postgres package default
	case DriverBlob:
		switch c.Storage.Blob.Driver {
		case "", "fs", "memory":
		case "s3":
			if c.Storage.Blob.S3.Bucket == "" {
				errs = append(errs, errors.New("storage.blob.s3.bucket is required for the s3 blob driver"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown blob driver %q", c.Storage.Blob.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
