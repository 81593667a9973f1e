// Package config loads server configuration.
//
// Precedence, lowest to highest: built-in defaults, an optional YAML file
// (CONFIG_PATH, else ./sakaydb.yaml when present), environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/TresYap/sakaydb/internal/platform/validation"
)

// ConfigPathEnvVar names the env var that points at a YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPath is read when present and CONFIG_PATH is unset.
const DefaultConfigPath = "sakaydb.yaml"

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	Log     LogConfig     `koanf:"log"`
	Ledger  LedgerConfig  `koanf:"ledger"`
}

// ServerConfig configures the HTTP listener. RateLimitRequests is the number of
// requests allowed per client IP per RateLimitWindow; 0 disables limiting.
// Idempotency-Key replays are honored for IdempotencyTTL; 0 keeps them forever.
type ServerConfig struct {
	Port              int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	IdempotencyTTL    time.Duration `koanf:"idempotency_ttl" validate:"gte=0"`
}

type StorageConfig struct {
	Backend     string        `koanf:"backend" validate:"oneof=memory csv sqlite postgres s3"`
	DataDir     string        `koanf:"data_dir" validate:"required_if=Backend csv"`
	SQLitePath  string        `koanf:"sqlite_path" validate:"required_if=Backend sqlite"`
	DatabaseURL string        `koanf:"database_url" validate:"required_if=Backend postgres"`
	S3          S3Config      `koanf:"s3"`
	Breaker     BreakerConfig `koanf:"breaker"`
}

type S3Config struct {
	Bucket          string `koanf:"bucket"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	Prefix          string `koanf:"prefix"`
	PathStyle       bool   `koanf:"path_style"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
}

// BreakerConfig guards the remote backends (postgres, s3).
type BreakerConfig struct {
	MaxFailures uint32        `koanf:"max_failures" validate:"gte=1"`
	Timeout     time.Duration `koanf:"timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

type LedgerConfig struct {
	// LegacyLocationPairing gives a trip's pickup and dropoff distinct ids
	// when the locations table is empty, even if the names match.
	LegacyLocationPairing bool `koanf:"legacy_location_pairing"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:              8080,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RateLimitWindow:   time.Minute,
			IdempotencyTTL:    24 * time.Hour,
		},
		Storage: StorageConfig{
			Backend:    BackendCSV,
			DataDir:    "./data",
			SQLitePath: "./data/sakaydb.db",
			S3:         S3Config{Region: "us-east-1"},
			Breaker:    BreakerConfig{MaxFailures: 5, Timeout: 30 * time.Second},
		},
		Log: LogConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration from defaults, the config file and the environment.
func Load() (Config, error) {
	path := os.Getenv(ConfigPathEnvVar)
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath); err == nil {
			path = DefaultConfigPath
		}
	}
	return LoadFile(path)
}

// LoadFile is Load with an explicit config file path. An empty path skips the file layer.
func LoadFile(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field backend requirements.
func (c Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		if details := validation.FieldErrors(err); details != nil {
			parts := make([]string, 0, len(details))
			for field, msg := range details {
				parts = append(parts, fmt.Sprintf("%s %v", field, msg))
			}
			slices.Sort(parts)
			return fmt.Errorf("invalid config: %s", strings.Join(parts, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage.Backend == BackendS3 && c.Storage.S3.Bucket == "" {
		return errors.New("invalid config: storage.s3.bucket is required for the s3 backend")
	}
	return nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

var envMappings = map[string]string{
	"port":                    "server.port",
	"read_header_timeout":     "server.read_header_timeout",
	"shutdown_timeout":        "server.shutdown_timeout",
	"rate_limit_requests":     "server.rate_limit_requests",
	"rate_limit_window":       "server.rate_limit_window",
	"idempotency_ttl":         "server.idempotency_ttl",
	"storage_backend":         "storage.backend",
	"data_dir":                "storage.data_dir",
	"sqlite_path":             "storage.sqlite_path",
	"database_url":            "storage.database_url",
	"s3_bucket":               "storage.s3.bucket",
	"s3_region":               "storage.s3.region",
	"s3_endpoint":             "storage.s3.endpoint",
	"s3_prefix":               "storage.s3.prefix",
	"s3_path_style":           "storage.s3.path_style",
	"s3_access_key_id":        "storage.s3.access_key_id",
	"s3_secret_access_key":    "storage.s3.secret_access_key",
	"breaker_max_failures":    "storage.breaker.max_failures",
	"breaker_timeout":         "storage.breaker.timeout",
	"log_level":               "log.level",
	"log_format":              "log.format",
	"legacy_location_pairing": "ledger.legacy_location_pairing",
}

// envTransformFunc maps environment variables to koanf paths.
//
//   - PORT -> server.port, DATABASE_URL -> storage.database_url (see envMappings)
//   - SAKAYDB_SERVER__RATE_LIMIT_WINDOW -> server.rate_limit_window
//
// Anything else is ignored.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if path, ok := envMappings[key]; ok {
		return path
	}
	if rest, ok := strings.CutPrefix(key, "sakaydb_"); ok && rest != "" {
		return strings.ReplaceAll(rest, "__", ".")
	}
	return ""
}
