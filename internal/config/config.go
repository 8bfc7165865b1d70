// Package config resolves application settings from a JSON config file and
// environment variables. Any file key can be overridden by setting
// __CONFIG_OVERRIDE_<key> in the environment; API keys live in the
// environment only.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// DefaultPath is the config file location relative to the working directory.
const DefaultPath = "config/config.json"

// apiKeyEnv maps service names to their environment variable names.
// Unknown services fall back to the upper-cased service name itself.
var apiKeyEnv = map[string]string{
	"bitquery_client_id":     "BITQUERY_CLIENT_ID",
	"bitquery_client_secret": "BITQUERY_CLIENT_SECRET",
	"birdeye":                "BIRDEYE_API_KEY",
	"coingecko":              "COINGECKO_API_KEY",
}

// Config holds file-backed settings.
type Config struct {
	values map[string]any
}

// Load reads the config file at path. A missing file yields an empty
// config: every lookup then falls through to environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{values: make(map[string]any)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := json.Unmarshal(data, &cfg.values); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Get returns the configuration value for key as a string. Environment
// overrides of the form __CONFIG_OVERRIDE_<key> win over the file. Missing
// keys return the empty string.
func (c *Config) Get(key string) string {
	if v, ok := os.LookupEnv("__CONFIG_OVERRIDE_" + key); ok {
		return v
	}

	v, ok := c.values[key]
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// JSON numbers; trim the trailing .0 of integral values
		s := fmt.Sprintf("%v", val)
		return s
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// APIKey returns the API key for a service from the environment.
// It first tries an environment variable with the same (upper-cased) name
// as the service, then the predefined mapping. Returns "" when unset.
func (c *Config) APIKey(service string) string {
	if v, ok := os.LookupEnv(strings.ToUpper(service)); ok {
		return v
	}
	envKey, ok := apiKeyEnv[service]
	if !ok {
		return ""
	}
	return os.Getenv(envKey)
}

// Typed accessors for well-known settings.

func (c *Config) PostgresDSN() string   { return c.firstOf("postgres_dsn", "POSTGRES_DSN") }
func (c *Config) ClickhouseDSN() string { return c.firstOf("clickhouse_dsn", "CLICKHOUSE_DSN") }
func (c *Config) RedisAddr() string     { return c.firstOf("redis_addr", "REDIS_ADDR") }
func (c *Config) LogLevel() string      { return c.firstOf("log_level", "LOG_LEVEL") }

// StorageDir returns the directory for generated artifacts (reports, CSV
// exports). Defaults to "data".
func (c *Config) StorageDir() string {
	if dir := c.firstOf("storage_dir", "STORAGE_DIR"); dir != "" {
		return dir
	}
	return "data"
}

// firstOf returns the config file value for key, falling back to the given
// environment variable.
func (c *Config) firstOf(key, env string) string {
	if v := c.Get(key); v != "" {
		return v
	}
	return os.Getenv(env)
}
