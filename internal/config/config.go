// Package config loads the server configuration from an optional YAML
// file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Port          int      `yaml:"port"`
	MetricsPort   int      `yaml:"metrics_port"`
	DatabasePath  string   `yaml:"database_path"`
	OpenAIKey     string   `yaml:"openai_key"`
	Model         string   `yaml:"model"`
	OwnershipMode string   `yaml:"ownership_mode"`
	CORSOrigins   []string `yaml:"cors_allowed_origins"`
	LogLevel      string   `yaml:"log_level"`
}

// Load reads the config file at path (skipped when the file does not
// exist), applies defaults, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Port:          4000,
		MetricsPort:   9090,
		DatabasePath:  "fridgetrack.db",
		Model:         "gpt-4o-mini",
		OwnershipMode: "shared",
		CORSOrigins:   []string{"http://localhost:5173"},
		LogLevel:      "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults + env only.
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	cfg.applyEnv()

	if cfg.OwnershipMode != "shared" && cfg.OwnershipMode != "per-member" {
		return nil, fmt.Errorf("invalid ownership_mode %q: expected \"shared\" or \"per-member\"", cfg.OwnershipMode)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("METRICS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.MetricsPort = p
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIKey = v
	}
	if v := os.Getenv("FRIDGETRACK_DB"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("OWNERSHIP_MODE"); v != "" {
		c.OwnershipMode = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}
