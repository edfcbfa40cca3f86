// ABOUTME: Layered configuration: defaults, YAML file, .env, DIARY_* env vars and flags.
// ABOUTME: Handles XDG config paths and validates the engine choice.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/diary/internal/db"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EngineAuto   = "auto"
	EngineSQLite = "sqlite"
	EngineBlob   = "blob"
	EngineMemory = "memory"

	defaultQuota      = 5 << 20
	defaultLogMode    = "development"
	defaultLogLevel   = "warn"
	defaultPageURL    = "https://diary.local/"
	defaultQREndpoint = "https://api.qrserver.com/v1/create-qr-code/"

	envPrefix = "DIARY"
)

// Keys, also used as flag bindings.
const (
	KeyDataDir        = "data_dir"
	KeyEngine         = "engine"
	KeyBlobQuotaBytes = "blob_quota_bytes"
	KeyMaxPageCount   = "max_page_count"
	KeyLogMode        = "log_mode"
	KeyLogLevel       = "log_level"
	KeyPageURL        = "page_url"
	KeyQREndpoint     = "qr_endpoint"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	DataDir        string `mapstructure:"data_dir"`
	Engine         string `mapstructure:"engine"`
	BlobQuotaBytes int64  `mapstructure:"blob_quota_bytes"`
	MaxPageCount   int    `mapstructure:"max_page_count"`
	LogMode        string `mapstructure:"log_mode"`
	LogLevel       string `mapstructure:"log_level"`
	PageURL        string `mapstructure:"page_url"`
	QREndpoint     string `mapstructure:"qr_endpoint"`
}

// New returns a viper instance with defaults and DIARY_* env lookup.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDataDir, db.DataDir())
	v.SetDefault(KeyEngine, EngineAuto)
	v.SetDefault(KeyBlobQuotaBytes, defaultQuota)
	v.SetDefault(KeyMaxPageCount, 0)
	v.SetDefault(KeyLogMode, defaultLogMode)
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetDefault(KeyPageURL, defaultPageURL)
	v.SetDefault(KeyQREndpoint, defaultQREndpoint)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads .env from the working directory, then the config file, and
// unmarshals the result. An empty configFile means config.yaml in
// ConfigDir, which may be absent.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Engine = strings.ToLower(strings.TrimSpace(cfg.Engine))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv never overrides variables already set in the environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Engine {
	case EngineAuto, EngineSQLite, EngineBlob, EngineMemory:
	default:
		return fmt.Errorf("%w: unknown engine %q (want auto, sqlite, blob or memory)", ErrInvalidConfig, c.Engine)
	}
	if c.DataDir == "" && c.Engine != EngineMemory {
		return fmt.Errorf("%w: data_dir cannot be empty", ErrInvalidConfig)
	}
	if c.BlobQuotaBytes < 0 {
		return fmt.Errorf("%w: blob_quota_bytes cannot be negative", ErrInvalidConfig)
	}
	if c.MaxPageCount < 0 {
		return fmt.Errorf("%w: max_page_count cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// DBPath is the SQLite file inside DataDir.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "diary.db")
}

// BlobDir is the badger directory inside DataDir.
func (c *Config) BlobDir() string {
	return filepath.Join(c.DataDir, "blob")
}

// ConfigDir returns the configuration directory path.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "diary")
}
