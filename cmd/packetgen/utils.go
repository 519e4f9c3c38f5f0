package main

import (
	"fmt"
	"os"

	"github.com/packetgen/packetgen/internal/config"
)

// loadConfig resolves cfgFile to a path (defaulting to ./packetgen.yaml),
// writing a fresh default config file the first time it's missing and
// returning those defaults as is; an existing file is loaded and validated.
func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		path = "packetgen.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Printf("config file not found, writing defaults to %s\n", path)
		cfg := config.DefaultConfig()
		if err := cfg.Save(path); err != nil {
			return nil, fmt.Errorf("create default config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
