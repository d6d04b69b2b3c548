// Package config loads and watches the bot configuration. Config files
// are JSON5 (comments and trailing commas allowed); secrets (Telegram
// token, Postgres DSN) come from the environment only and are never
// persisted.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Telegram  TelegramConfig  `json:"telegram"`
	Models    ModelsConfig    `json:"models"`
	Pipeline  PipelineConfig  `json:"pipeline"`
	Geo       GeoConfig       `json:"geo"`
	Database  DatabaseConfig  `json:"database,omitempty"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
}

// TelegramConfig configures the Telegram transport.
// Token is read from env DILBOT_TELEGRAM_TOKEN only (secret).
type TelegramConfig struct {
	Token         string  `json:"-"`
	Proxy         string  `json:"proxy,omitempty"`
	MediaMaxBytes int64   `json:"media_max_bytes,omitempty"` // default 20MB (Bot API limit)
	SendRate      float64 `json:"send_rate,omitempty"`       // outbound messages/sec, default 25
}

// ModelsConfig selects the inference backend and models.
type ModelsConfig struct {
	OllamaHost  string `json:"ollama_host"`
	TextModel   string `json:"text_model"`
	VisionModel string `json:"vision_model"`

	// Retry policy for transient backend failures.
	MaxAttempts      int `json:"max_attempts,omitempty"`       // default 3
	BaseDelaySeconds int `json:"base_delay_seconds,omitempty"` // default 2
}

// PipelineConfig tunes the turn pipeline and image batching. This
// section is hot-reloadable: edits to the config file take effect on
// the next turn without a restart.
type PipelineConfig struct {
	DebounceSeconds       int    `json:"debounce_seconds,omitempty"`        // default 3
	TypingIntervalSeconds int    `json:"typing_interval_seconds,omitempty"` // default 5
	HistoryLimit          int    `json:"history_limit,omitempty"`           // default 10
	SystemPrompt          string `json:"system_prompt,omitempty"`
	VisionPrompt          string `json:"vision_prompt,omitempty"`
	ApologyText           string `json:"apology_text,omitempty"`
	DocumentReply         string `json:"document_reply,omitempty"`
}

// GeoConfig bounds the coordinate extraction heuristic. Only coordinate
// pairs inside these ranges are promoted to native location messages;
// the bounds guard against false positives in free-form model text.
type GeoConfig struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// DatabaseConfig selects the block-list backend.
// PostgresDSN is read from env DILBOT_POSTGRES_DSN only (secret).
type DatabaseConfig struct {
	Driver      string `json:"driver,omitempty"` // "postgres", "sqlite", or "" (disabled)
	PostgresDSN string `json:"-"`
	SQLitePath  string `json:"sqlite_path,omitempty"`
}

// TelemetryConfig configures OpenTelemetry trace export. Disabled by
// default.
type TelemetryConfig struct {
	Enabled  bool   `json:"enabled,omitempty"`
	Endpoint string `json:"endpoint,omitempty"` // OTLP endpoint, e.g. "localhost:4317"
	Protocol string `json:"protocol,omitempty"` // "grpc" (default) or "http"
	Insecure bool   `json:"insecure,omitempty"`
}

// Debounce returns the image-batch quiet period.
func (p PipelineConfig) Debounce() time.Duration {
	return time.Duration(p.DebounceSeconds) * time.Second
}

// TypingInterval returns the typing-indicator repeat interval.
func (p PipelineConfig) TypingInterval() time.Duration {
	return time.Duration(p.TypingIntervalSeconds) * time.Second
}

// BaseDelay returns the retry backoff base.
func (m ModelsConfig) BaseDelay() time.Duration {
	return time.Duration(m.BaseDelaySeconds) * time.Second
}

func applyDefaults(cfg *Config) {
	if cfg.Telegram.MediaMaxBytes == 0 {
		cfg.Telegram.MediaMaxBytes = 20 * 1024 * 1024
	}
	if cfg.Telegram.SendRate == 0 {
		cfg.Telegram.SendRate = 25
	}
	if cfg.Models.OllamaHost == "" {
		cfg.Models.OllamaHost = "http://127.0.0.1:11434"
	}
	if cfg.Models.TextModel == "" {
		cfg.Models.TextModel = "deepseek-v3.2:cloud"
	}
	if cfg.Models.VisionModel == "" {
		cfg.Models.VisionModel = "qwen3-vl:235b-cloud"
	}
	if cfg.Models.MaxAttempts == 0 {
		cfg.Models.MaxAttempts = 3
	}
	if cfg.Models.BaseDelaySeconds == 0 {
		cfg.Models.BaseDelaySeconds = 2
	}
	if cfg.Pipeline.DebounceSeconds == 0 {
		cfg.Pipeline.DebounceSeconds = 3
	}
	if cfg.Pipeline.TypingIntervalSeconds == 0 {
		cfg.Pipeline.TypingIntervalSeconds = 5
	}
	if cfg.Pipeline.HistoryLimit == 0 {
		cfg.Pipeline.HistoryLimit = 10
	}
	if cfg.Pipeline.SystemPrompt == "" {
		cfg.Pipeline.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Pipeline.VisionPrompt == "" {
		cfg.Pipeline.VisionPrompt = DefaultVisionPrompt
	}
	if cfg.Pipeline.ApologyText == "" {
		cfg.Pipeline.ApologyText = DefaultApologyText
	}
	if cfg.Pipeline.DocumentReply == "" {
		cfg.Pipeline.DocumentReply = DefaultDocumentReply
	}
	// Operating region of the business (Samarkand and surroundings).
	if cfg.Geo.MinLat == 0 && cfg.Geo.MaxLat == 0 {
		cfg.Geo.MinLat, cfg.Geo.MaxLat = 37.0, 45.7
	}
	if cfg.Geo.MinLon == 0 && cfg.Geo.MaxLon == 0 {
		cfg.Geo.MinLon, cfg.Geo.MaxLon = 55.9, 73.2
	}
	if cfg.Telemetry.Protocol == "" {
		cfg.Telemetry.Protocol = "grpc"
	}
}
