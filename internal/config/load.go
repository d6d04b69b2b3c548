package config

import (
	"fmt"
	"os"

	"github.com/titanous/json5"
)

// Env var names for secrets and path overrides.
const (
	EnvConfigPath    = "DILBOT_CONFIG"
	EnvTelegramToken = "DILBOT_TELEGRAM_TOKEN"
	EnvPostgresDSN   = "DILBOT_POSTGRES_DSN"
)

// Load reads the config file at path, applies defaults, and overlays
// secrets from the environment. A missing file is not an error: the
// defaults plus env secrets are enough for a standalone run.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := json5.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvTelegramToken); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		cfg.Database.PostgresDSN = v
	}
}

// Validate checks that required settings are present for a live run.
func (c *Config) Validate() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("%s environment variable is not set", EnvTelegramToken)
	}
	if c.Database.Driver == "postgres" && c.Database.PostgresDSN == "" {
		return fmt.Errorf("database driver is postgres but %s is not set", EnvPostgresDSN)
	}
	if c.Geo.MinLat >= c.Geo.MaxLat || c.Geo.MinLon >= c.Geo.MaxLon {
		return fmt.Errorf("invalid geo bounds: lat [%v, %v], lon [%v, %v]",
			c.Geo.MinLat, c.Geo.MaxLat, c.Geo.MinLon, c.Geo.MaxLon)
	}
	return nil
}
