package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestLoadMissingFile verifies that a missing config file yields pure
// defaults rather than an error.
func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json5"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.Pipeline.DebounceSeconds != 3 {
		t.Errorf("DebounceSeconds = %d, want default 3", cfg.Pipeline.DebounceSeconds)
	}
	if cfg.Pipeline.HistoryLimit != 10 {
		t.Errorf("HistoryLimit = %d, want default 10", cfg.Pipeline.HistoryLimit)
	}
	if cfg.Models.MaxAttempts != 3 || cfg.Models.BaseDelaySeconds != 2 {
		t.Errorf("retry defaults = %d/%ds, want 3/2s",
			cfg.Models.MaxAttempts, cfg.Models.BaseDelaySeconds)
	}
	if cfg.Geo.MinLat >= cfg.Geo.MaxLat {
		t.Errorf("geo lat defaults invalid: [%v, %v]", cfg.Geo.MinLat, cfg.Geo.MaxLat)
	}
}

// TestLoadJSON5 verifies json5 parsing (comments, trailing commas) and
// that explicit values win over defaults.
func TestLoadJSON5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	data := `{
		// comments are allowed
		models: {
			text_model: "llama3.1:70b",
		},
		pipeline: {
			debounce_seconds: 5,
			history_limit: 20,
		},
		geo: { min_lat: 10, max_lat: 20, min_lon: 30, max_lon: 40 },
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Models.TextModel != "llama3.1:70b" {
		t.Errorf("TextModel = %q", cfg.Models.TextModel)
	}
	if cfg.Pipeline.DebounceSeconds != 5 {
		t.Errorf("DebounceSeconds = %d, want 5", cfg.Pipeline.DebounceSeconds)
	}
	if cfg.Pipeline.HistoryLimit != 20 {
		t.Errorf("HistoryLimit = %d, want 20", cfg.Pipeline.HistoryLimit)
	}
	if cfg.Geo.MinLat != 10 || cfg.Geo.MaxLon != 40 {
		t.Errorf("geo = %+v, want explicit values", cfg.Geo)
	}
	// Vision model untouched → default.
	if cfg.Models.VisionModel == "" {
		t.Error("VisionModel default missing")
	}
}

// TestEnvSecrets verifies that token and DSN come from the environment.
func TestEnvSecrets(t *testing.T) {
	t.Setenv(EnvTelegramToken, "123:abc")
	t.Setenv(EnvPostgresDSN, "postgres://x")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json5"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("Token = %q, want env value", cfg.Telegram.Token)
	}
	if cfg.Database.PostgresDSN != "postgres://x" {
		t.Errorf("PostgresDSN = %q, want env value", cfg.Database.PostgresDSN)
	}
}

// TestValidate covers the required-setting checks.
func TestValidate(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if err := cfg.Validate(); err == nil {
		t.Error("Validate() without token should fail")
	}

	cfg.Telegram.Token = "123:abc"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}

	cfg.Database.Driver = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() postgres without DSN should fail")
	}

	cfg.Database.Driver = ""
	cfg.Geo.MinLat, cfg.Geo.MaxLat = 50, 40
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with inverted geo bounds should fail")
	}
}
