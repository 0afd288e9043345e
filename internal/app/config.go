package app

import (
	"errors"
	"strings"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	SettingsPath  string // hcl file
	ResourcesPath string // overrides the settings' resources directory
	Listen        string // "" disables the HTTP server

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	if strings.TrimSpace(cfg.SettingsPath) == "" {
		return nil, errors.New("SettingsPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
