// Package config loads smokecheck configuration.
//
// Precedence (highest to lowest):
//  1. Environment variables (SMOKECHECK_STORAGE_DRIVER, SMOKECHECK_LOG_LEVEL, ...)
//  2. YAML config file
//  3. Hardcoded defaults
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"smokecheck/internal/core"
)

// EnvPrefix is stripped from every environment variable before mapping.
const EnvPrefix = "SMOKECHECK_"

const (
	maxConfigFileSize = 1024 * 1024

	DefaultDriver     = "sqlite"
	DefaultSQLitePath = "smokecheck.db"
	DefaultFSRoot     = "./smokecheck-data"
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "console"
)

// Config is the root configuration document.
type Config struct {
	Storage   Storage `koanf:"storage"`
	Log       Log     `koanf:"log"`
	KeyPrefix string  `koanf:"key_prefix"`
}

// Storage selects and configures the durable key-value backend.
type Storage struct {
	Driver      string `koanf:"driver"`
	FSRoot      string `koanf:"fs_root"`
	SQLitePath  string `koanf:"sqlite_path"`
	PostgresDSN string `koanf:"postgres_dsn"`
	S3          S3     `koanf:"s3"`
}

// S3 configures the s3 driver. Credentials come from the default AWS chain.
type S3 struct {
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	Endpoint  string `koanf:"endpoint"`
	Prefix    string `koanf:"prefix"`
	PathStyle bool   `koanf:"path_style"`
}

// Log configures the zap logger.
type Log struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

var validDrivers = map[string]bool{"memory": true, "fs": true, "sqlite": true, "postgres": true, "s3": true}

// envKeys maps environment names (without EnvPrefix) to config paths.
// Unlisted variables are ignored.
var envKeys = map[string]string{
	"STORAGE_DRIVER":        "storage.driver",
	"STORAGE_FS_ROOT":       "storage.fs_root",
	"STORAGE_SQLITE_PATH":   "storage.sqlite_path",
	"STORAGE_POSTGRES_DSN":  "storage.postgres_dsn",
	"STORAGE_S3_BUCKET":     "storage.s3.bucket",
	"STORAGE_S3_REGION":     "storage.s3.region",
	"STORAGE_S3_ENDPOINT":   "storage.s3.endpoint",
	"STORAGE_S3_PREFIX":     "storage.s3.prefix",
	"STORAGE_S3_PATH_STYLE": "storage.s3.path_style",
	"LOG_LEVEL":             "log.level",
	"LOG_FORMAT":            "log.format",
	"KEY_PREFIX":            "key_prefix",
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// Load reads the optional YAML file at path (skipped when empty or missing),
// then overlays SMOKECHECK_* environment variables.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		content, err := readConfigFile(path)
		if err != nil {
			return Config{}, err
		}
		if content != nil {
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func envKey(name string) string {
	return envKeys[strings.TrimPrefix(name, EnvPrefix)]
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}

func applyDefaults(cfg *Config) {
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultDriver
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = DefaultSQLitePath
	}
	if cfg.Storage.FSRoot == "" {
		cfg.Storage.FSRoot = DefaultFSRoot
	}
	if cfg.Storage.S3.Region == "" {
		cfg.Storage.S3.Region = "us-east-1"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = core.DefaultKeyPrefix
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// Validate rejects unknown drivers, incomplete driver settings and unknown log settings.
func (c Config) Validate() error {
	driver := c.Storage.Driver
	if !validDrivers[driver] {
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if driver == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("storage.s3.bucket required for s3 driver")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
