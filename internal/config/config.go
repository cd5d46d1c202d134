package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/afterglow/internal/constants"
)

// Config is the optional application file config. Everything in it can be
// overridden from the environment.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
	HTTP    HTTPConfig    `yaml:"http"`
	Legacy  LegacyConfig  `yaml:"legacy"`
	Relay   RelayConfig   `yaml:"relay"`
}

type StorageConfig struct {
	// DSN is a SQLite file path or a PostgreSQL connection string.
	DSN string `yaml:"dsn"`
}

type LogConfig struct {
	Debug bool `yaml:"debug"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type LegacyConfig struct {
	File string `yaml:"file"`
}

type RelayConfig struct {
	Listen       string   `yaml:"listen"`
	AllowedHosts []string `yaml:"allowed_hosts"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Storage: StorageConfig{DSN: constants.DefaultConfigPath},
		HTTP:    HTTPConfig{Timeout: constants.DefaultHTTPTimeout},
		Relay:   RelayConfig{Listen: constants.DefaultRelayAddr},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
// A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(ExpandPath(path), &cfg); err != nil {
			return Config{}, err
		}
	}

	if dsn := os.Getenv("AFTERGLOW_DB"); dsn != "" {
		cfg.Storage.DSN = dsn
	}
	if debug := os.Getenv("AFTERGLOW_DEBUG"); debug != "" {
		v, err := strconv.ParseBool(debug)
		if err != nil {
			return Config{}, fmt.Errorf("invalid AFTERGLOW_DEBUG: %w", err)
		}
		cfg.Log.Debug = v
	}
	if timeout := os.Getenv("AFTERGLOW_HTTP_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return Config{}, fmt.Errorf("invalid AFTERGLOW_HTTP_TIMEOUT: %w", err)
		}
		cfg.HTTP.Timeout = d
	}
	if file := os.Getenv("AFTERGLOW_LEGACY_FILE"); file != "" {
		cfg.Legacy.File = file
	}

	// A zero timeout would let a hung request block forever
	if cfg.HTTP.Timeout <= 0 {
		cfg.HTTP.Timeout = constants.DefaultHTTPTimeout
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
