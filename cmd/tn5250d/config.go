package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the daemon's YAML configuration.
type Config struct {
	// SystemName is shown on the sign-on screen and menus
	SystemName string `yaml:"systemName"`
	// Subsystem is the interactive subsystem name shown at sign-on
	Subsystem string `yaml:"subsystem"`
	// DisplayName is the virtual display device shown at sign-on when the
	// terminal doesn't report its own
	DisplayName string `yaml:"displayName"`
	// IdleTimeout tears down sessions that send nothing. Zero uses the
	// engine default.
	IdleTimeout time.Duration `yaml:"idleTimeout"`
	// Users maps user IDs to passwords. An empty password means none is
	// required.
	Users map[string]string `yaml:"users"`
}

func defaultConfig() Config {
	return Config{
		SystemName:  "DEMO400",
		Subsystem:   "QINTER",
		DisplayName: "QPADEV0001",
		IdleTimeout: 5 * time.Minute,
		Users: map[string]string{
			"QSECOFR": "QSECOFR",
			"QUSER":   "QUSER",
			"DEMO":    "DEMO",
			"GUEST":   "",
		},
	}
}

// loadConfig returns the defaults overlaid with the YAML file at path, if
// any.
func loadConfig(path string) (Config, error) {
	config := defaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if config.SystemName == "" || config.Subsystem == "" {
		return Config{}, fmt.Errorf("config: systemName and subsystem must not be empty")
	}

	return config, nil
}
