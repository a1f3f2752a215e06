package main

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// config is the full configuration of the staleserve binary.
// Values are resolved in order: environment, config file, flags.
type config struct {
	Port   int    `yaml:"port" env:"STALESERVE_PORT" envDefault:"8080"`
	Origin string `yaml:"origin" env:"STALESERVE_ORIGIN"`
	Cache  struct {
		Browser  int      `yaml:"browser" env:"STALESERVE_BROWSER_TTL"`
		Server   int      `yaml:"server" env:"STALESERVE_SERVER_TTL"`
		Store    string   `yaml:"store" env:"STALESERVE_STORE"`
		Dir      string   `yaml:"dir" env:"STALESERVE_DIR"`
		NotCache []string `yaml:"notCache"`
	} `yaml:"cache"`
}

// loadConfig reads the environment and, if a filename is given, the
// YAML config file on top of it.
func loadConfig(filename string) (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	if filename == "" {
		return cfg, nil
	}
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(configBytes, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}
