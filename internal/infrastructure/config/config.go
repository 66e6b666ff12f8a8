package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Logging   LogConfig
	Organizer OrganizerConfig
	Limits    LimitConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// OrganizerConfig holds organizer engine configuration.
type OrganizerConfig struct {
	// RulesPath optionally points at a category ruleset file
	// (.yaml, .yml, .json or .toml). Empty means built-in rules.
	RulesPath string `envconfig:"ORGANIZER_RULES" default:""`

	// MaxDepth bounds recursive analysis when the caller gives none.
	MaxDepth int `envconfig:"ORGANIZER_MAX_DEPTH" default:"2"`

	// Workers bounds the move worker pool. 1 means sequential.
	Workers int `envconfig:"ORGANIZER_WORKERS" default:"4"`

	// MoveRate paces provider move calls per second. 0 means unpaced.
	MoveRate int `envconfig:"ORGANIZER_MOVE_RATE" default:"0"`

	// RespectProjects is the default for callers that leave it unset.
	RespectProjects bool `envconfig:"ORGANIZER_RESPECT_PROJECTS" default:"true"`
}

// LimitConfig holds payload size limits.
type LimitConfig struct {
	// ReadMaxBytes caps organizer.read payloads.
	ReadMaxBytes int64 `envconfig:"ORGANIZER_READ_MAX_BYTES" default:"1048576"`

	// SniffMaxBytes caps content fetched for MIME detection.
	SniffMaxBytes int64 `envconfig:"ORGANIZER_SNIFF_MAX_BYTES" default:"524288"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
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
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Organizer: OrganizerConfig{
			RulesPath:       "",
			MaxDepth:        2,
			Workers:         4,
			MoveRate:        0,
			RespectProjects: true,
		},
		Limits: LimitConfig{
			ReadMaxBytes:  1 << 20,
			SniffMaxBytes: 512 << 10,
		},
	}
}
