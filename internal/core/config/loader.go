package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a configuration usable without any config file, wired to
// the simulated source so the binary runs out of the box.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Source.Primary.Name == "" {
		cfg.Source.Primary.Name = "primary"
	}
	if cfg.Source.Primary.Width == 0 {
		cfg.Source.Primary.Width = 640
	}
	if cfg.Source.Primary.Height == 0 {
		cfg.Source.Primary.Height = 480
	}
	if cfg.Source.Primary.FPS == 0 {
		cfg.Source.Primary.FPS = 30
	}
	if cfg.Source.Primary.ConnectTimeout == 0 {
		cfg.Source.Primary.ConnectTimeout = 5 * time.Second
	}
	if cfg.Source.Fallback != nil {
		if cfg.Source.Fallback.Name == "" {
			cfg.Source.Fallback.Name = "fallback"
		}
		if cfg.Source.Fallback.ConnectTimeout == 0 {
			cfg.Source.Fallback.ConnectTimeout = 2 * time.Second
		}
	}
	if cfg.Detector.ConfidenceThreshold == 0 {
		cfg.Detector.ConfidenceThreshold = 0.5
	}
	if cfg.Performance.TargetFPS == 0 {
		cfg.Performance.TargetFPS = 15.0
	}
	if cfg.Performance.MaxMemoryMB == 0 {
		cfg.Performance.MaxMemoryMB = 512.0
	}
	if cfg.Performance.TickInterval == 0 {
		cfg.Performance.TickInterval = time.Second
	}
	if cfg.Performance.ReclaimInterval == 0 {
		cfg.Performance.ReclaimInterval = 30 * time.Second
	}
	if cfg.Recovery.MaxConsecutiveErrors == 0 {
		cfg.Recovery.MaxConsecutiveErrors = 5
	}
	if cfg.Recovery.StallWindow == 0 {
		cfg.Recovery.StallWindow = 30 * time.Second
	}
	if cfg.Recovery.MaxAttempts == 0 {
		cfg.Recovery.MaxAttempts = 3
	}
	if cfg.Reporting.BaseInterval == 0 {
		cfg.Reporting.BaseInterval = time.Second
	}
	if cfg.Reporting.MaxInterval == 0 {
		cfg.Reporting.MaxInterval = 60 * time.Second
	}
}
