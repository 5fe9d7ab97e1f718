package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config carries the application's secret pair. It comes from a YAML file
// and can be overridden from the environment (a .env file is honored when
// present).
type Config struct {
	SecretID  string `yaml:"secret_id"`
	SecretKey string `yaml:"secret_key"`
}

func loadConfig(path string) (*Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	_ = godotenv.Load()

	var cfg Config

	if path != "" {
		contents, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file at %s does not exist", path)
			}
			return nil, fmt.Errorf("could not read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(contents, &cfg); err != nil {
			return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
		}
	}

	if v := os.Getenv("NORDIGEN_SECRET_ID"); v != "" {
		cfg.SecretID = v
	}
	if v := os.Getenv("NORDIGEN_SECRET_KEY"); v != "" {
		cfg.SecretKey = v
	}

	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("secret_id and secret_key must be set via config file or NORDIGEN_SECRET_ID/NORDIGEN_SECRET_KEY")
	}

	return &cfg, nil
}
