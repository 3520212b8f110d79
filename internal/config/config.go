// Package config resolves runtime configuration: defaults, the TOML config
// file, an optional .env file, then environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultAPIURL     = "http://127.0.0.1:8000/api/v1"
	DefaultDataFile   = ".nota.db"
	DefaultLogLevel   = "warn"
	DefaultQuotaBytes = int64(5 * 1024 * 1024)

	configFileName  = ".nota.toml"
	configDirEnvKey = "NOTA_CONFIG_DIR"
	apiURLEnvKey    = "NOTA_API_URL"
	dataPathEnvKey  = "NOTA_DATA"
)

// Config defines runtime configuration for nota.
type Config struct {
	APIURL     string `toml:"api_url"`
	DataPath   string `toml:"data_path"`
	QuotaBytes int64  `toml:"quota_bytes"`
	LogLevel   string `toml:"log_level"`
	LogFile    string `toml:"log_file"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:     DefaultAPIURL,
		DataPath:   "",
		QuotaBytes: DefaultQuotaBytes,
		LogLevel:   "",
		LogFile:    "",
	}
}

var allowedKeys = []string{
	"api_url",
	"data_path",
	"quota_bytes",
	"log_level",
	"log_file",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "data_path":
		return c.DataPath, nil
	case "quota_bytes":
		return strconv.FormatInt(c.QuotaBytes, 10), nil
	case "log_level":
		return c.LogLevel, nil
	case "log_file":
		return c.LogFile, nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// Path returns the config file path: NOTA_CONFIG_DIR when set, otherwise
// the home directory.
func Path() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	data[key] = parsedValue

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from the config file and applies env overrides. A .env
// file in the working directory is folded into the environment first; a
// missing one is fine.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	path, err := Path()
	if err == nil {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if cfg.DataPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DataPath = filepath.Join(home, DefaultDataFile)
		}
	}

	if apiURL := strings.TrimSpace(os.Getenv(apiURLEnvKey)); apiURL != "" {
		cfg.APIURL = apiURL
	}
	if dataPath := strings.TrimSpace(os.Getenv(dataPathEnvKey)); dataPath != "" {
		cfg.DataPath = dataPath
	}

	if cfg.QuotaBytes <= 0 {
		cfg.QuotaBytes = DefaultQuotaBytes
	}

	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	if key == "quota_bytes" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	}
	return value, nil
}
