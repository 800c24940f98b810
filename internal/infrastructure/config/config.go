// Package config loads engine configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all engine configuration.
type Config struct {
	Engine  EngineConfig
	Logging LogConfig
	Server  ServerConfig
}

// EngineConfig tunes the actor runtime.
type EngineConfig struct {
	// CommandBuffer is the capacity of each actor's command channel.
	CommandBuffer int `envconfig:"GOSUB_COMMAND_BUFFER" default:"64"`

	// DefaultFPS is the repaint cadence used when ResumeDrawing does not
	// specify one.
	DefaultFPS uint32 `envconfig:"GOSUB_DEFAULT_FPS" default:"30"`

	// CloseAckTimeout bounds how long a zone waits for a tab to
	// acknowledge close before force-dropping it.
	CloseAckTimeout time.Duration `envconfig:"GOSUB_CLOSE_ACK_TIMEOUT" default:"3s"`

	// MaxTabs caps tabs per zone. Zero means unlimited.
	MaxTabs int `envconfig:"GOSUB_MAX_TABS" default:"0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"GOSUB_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"GOSUB_LOG_DEV" default:"false"`
}

// ServerConfig holds the demo host's HTTP configuration.
type ServerConfig struct {
	Port string `envconfig:"GOSUB_PORT" default:"8030"`
	Host string `envconfig:"GOSUB_HOST" default:"0.0.0.0"`

	// FrameRate caps frame events forwarded per WebSocket connection,
	// in events per second.
	FrameRate float64 `envconfig:"GOSUB_WS_FRAME_RATE" default:"60"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from the environment or returns the
// defaults when the environment is unusable.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			CommandBuffer:   64,
			DefaultFPS:      30,
			CloseAckTimeout: 3 * time.Second,
		},
		Logging: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Port:      "8030",
			Host:      "0.0.0.0",
			FrameRate: 60,
		},
	}
}
