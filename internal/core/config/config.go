package config

import (
	"time"

	"github.com/tdnguyen/vigil/internal/core/domain"
	redisclient "github.com/tdnguyen/vigil/internal/infra/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server      ServerConfig       `yaml:"server"`
	Source      SourceSection      `yaml:"source"`
	Detector    DetectorConfig     `yaml:"detector"`
	Performance PerformanceConfig  `yaml:"performance"`
	Recovery    RecoveryConfig     `yaml:"recovery"`
	Reporting   ReportingConfig    `yaml:"reporting"`
	Redis       redisclient.Config `yaml:"redis"`
	Logging     LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds status/metrics HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// SourceSection holds the primary source and an optional fallback for failover.
type SourceSection struct {
	Primary  domain.SourceConfig  `yaml:"primary"`
	Fallback *domain.SourceConfig `yaml:"fallback"`
}

// DetectorConfig holds object detector settings.
type DetectorConfig struct {
	ModelPath           string  `yaml:"model_path"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	Enabled             bool    `yaml:"enabled"`
}

// PerformanceConfig holds governor tunables.
type PerformanceConfig struct {
	TargetFPS       float64       `yaml:"target_fps"`
	MaxMemoryMB     float64       `yaml:"max_memory_mb"`
	TickInterval    time.Duration `yaml:"tick_interval"`
	ReclaimInterval time.Duration `yaml:"reclaim_interval"`
}

// RecoveryConfig holds escalation thresholds.
type RecoveryConfig struct {
	MaxConsecutiveErrors int           `yaml:"max_consecutive_errors"`
	StallWindow          time.Duration `yaml:"stall_window"`
	MaxAttempts          int           `yaml:"max_attempts"`
}

// ReportingConfig holds error log rate-limiting settings.
type ReportingConfig struct {
	BaseInterval time.Duration `yaml:"base_interval"`
	MaxInterval  time.Duration `yaml:"max_interval"`
}
